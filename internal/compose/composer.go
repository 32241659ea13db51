package compose

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/nishantc/manim-video-api/internal/storage"
)

// ErrNoClips is returned when concatenation is requested with no inputs
var ErrNoClips = errors.New("no video paths provided for concatenation")

// Composer muxes narration onto clips and concatenates them via ffmpeg
type Composer struct {
	ffmpegBin string
}

// NewComposer creates a composer using the given ffmpeg binary ("ffmpeg"
// when empty).
func NewComposer(ffmpegBin string) *Composer {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	return &Composer{ffmpegBin: ffmpegBin}
}

// Mux combines one video and one audio file into outputPath, trimming to the
// shorter stream. It never fails outward: on any ffmpeg problem the video is
// copied verbatim to outputPath and the audio is dropped.
func (c *Composer) Mux(ctx context.Context, videoPath, audioPath, outputPath string) string {
	log.Printf("Combining video %s and audio %s to %s", videoPath, audioPath, outputPath)

	if err := storage.EnsureDir(filepath.Dir(outputPath)); err != nil {
		log.Printf("%v, copying video without audio", err)
		return c.fallbackCopy(videoPath, outputPath)
	}

	if _, err := exec.LookPath(c.ffmpegBin); err != nil {
		log.Printf("ffmpeg binary not found: %v, copying video without audio", err)
		return c.fallbackCopy(videoPath, outputPath)
	}

	cmd := exec.CommandContext(ctx, c.ffmpegBin, "-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		outputPath,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		log.Printf("ffmpeg mux failed: %v\nOutput: %s", err, string(output))
		return c.fallbackCopy(videoPath, outputPath)
	}

	log.Printf("Audio and video combined successfully to %s", outputPath)
	return outputPath
}

// Concat joins clips in order into outputPath using ffmpeg's stream-copy
// concat demuxer. An empty input is the one outward failure (no filesystem
// writes happen in that case). A single clip short-circuits to a verbatim
// copy. On any ffmpeg problem only the first clip is copied to outputPath;
// best-effort partial output is a deliberate degradation, not a defect path.
func (c *Composer) Concat(ctx context.Context, videoPaths []string, outputPath string) (string, error) {
	log.Printf("Concatenating %d videos to %s", len(videoPaths), outputPath)

	if len(videoPaths) == 0 {
		return "", ErrNoClips
	}

	if err := storage.EnsureDir(filepath.Dir(outputPath)); err != nil {
		log.Printf("%v, copying first clip only", err)
		return c.fallbackCopy(videoPaths[0], outputPath), nil
	}

	if len(videoPaths) == 1 {
		return c.fallbackCopy(videoPaths[0], outputPath), nil
	}

	if _, err := exec.LookPath(c.ffmpegBin); err != nil {
		log.Printf("ffmpeg binary not found: %v, copying first clip only", err)
		return c.fallbackCopy(videoPaths[0], outputPath), nil
	}

	tempDir, err := os.MkdirTemp("", "concat_")
	if err != nil {
		log.Printf("Failed to create temp directory: %v, copying first clip only", err)
		return c.fallbackCopy(videoPaths[0], outputPath), nil
	}
	defer os.RemoveAll(tempDir)

	manifest, err := writeConcatManifest(tempDir, videoPaths)
	if err != nil {
		log.Printf("Failed to write concat manifest: %v, copying first clip only", err)
		return c.fallbackCopy(videoPaths[0], outputPath), nil
	}

	cmd := exec.CommandContext(ctx, c.ffmpegBin, "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-c", "copy",
		outputPath,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		log.Printf("ffmpeg concat failed: %v\nOutput: %s", err, string(output))
		return c.fallbackCopy(videoPaths[0], outputPath), nil
	}

	log.Printf("Videos concatenated successfully to %s", outputPath)
	return outputPath, nil
}

// writeConcatManifest builds the ordered absolute-path list the concat
// demuxer consumes.
func writeConcatManifest(dir string, videoPaths []string) (string, error) {
	var lines []string
	for _, p := range videoPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("file '%s'", abs))
	}

	manifest := filepath.Join(dir, "video_list.txt")
	if err := os.WriteFile(manifest, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		return "", err
	}
	return manifest, nil
}

// fallbackCopy degrades to a verbatim copy of source when ffmpeg can't run
func (c *Composer) fallbackCopy(source, dest string) string {
	log.Printf("Falling back to copying %s to %s", source, dest)
	if err := storage.CopyFile(source, dest); err != nil {
		log.Printf("Fallback copy failed: %v", err)
	}
	return dest
}
