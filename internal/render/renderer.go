package render

import (
	"context"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/nishantc/manim-video-api/internal/animation"
	"github.com/nishantc/manim-video-api/internal/storage"
	"github.com/nishantc/manim-video-api/internal/types"
)

// stubMP4 is the minimal MP4 header written when neither manim nor ffmpeg is
// available. Not a playable file, but a structurally present artifact.
var stubMP4 = []byte{
	0x00, 0x00, 0x00, 0x18, 0x66, 0x74, 0x79, 0x70,
	0x6D, 0x70, 0x34, 0x32, 0x00, 0x00, 0x00, 0x00,
	0x6D, 0x70, 0x34, 0x32, 0x69, 0x73, 0x6F, 0x6D,
}

// Renderer turns Manim source into silent video clips via the manim CLI
type Renderer struct {
	manimBin  string
	ffmpegBin string
}

// NewRenderer creates a renderer using the given binaries ("manim" and
// "ffmpeg" when empty).
func NewRenderer(manimBin, ffmpegBin string) *Renderer {
	if manimBin == "" {
		manimBin = "manim"
	}
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	return &Renderer{manimBin: manimBin, ffmpegBin: ffmpegBin}
}

// qualityFlag maps a quality tier to the manim CLI flag. Unknown tiers
// render at medium quality.
func qualityFlag(quality string) string {
	switch quality {
	case types.QualityLow:
		return "-ql"
	case types.QualityHigh:
		return "-qh"
	default:
		return "-qm"
	}
}

// Render renders sceneCode to a silent clip at outputPath. It never fails
// outward: a missing class declaration, a missing manim binary, a non-zero
// exit, or a missing output artifact all degrade to a placeholder clip.
// All temporary render state is removed on every exit path.
func (r *Renderer) Render(ctx context.Context, sceneCode, outputPath, quality string) string {
	log.Printf("Rendering scene to %s", outputPath)

	className := animation.ExtractSceneClass(sceneCode)
	if className == "" {
		log.Println("Could not extract class name from scene code, using placeholder video")
		return r.placeholder(ctx, outputPath)
	}

	if _, err := exec.LookPath(r.manimBin); err != nil {
		log.Printf("manim binary not found: %v, using placeholder video", err)
		return r.placeholder(ctx, outputPath)
	}

	tempDir, err := os.MkdirTemp("", "manim_render_")
	if err != nil {
		log.Printf("Failed to create temp directory: %v, using placeholder video", err)
		return r.placeholder(ctx, outputPath)
	}
	defer os.RemoveAll(tempDir)

	sceneFile := filepath.Join(tempDir, "scene.py")
	if err := os.WriteFile(sceneFile, []byte(sceneCode), 0644); err != nil {
		log.Printf("Failed to write scene file: %v, using placeholder video", err)
		return r.placeholder(ctx, outputPath)
	}

	if err := storage.EnsureDir(filepath.Dir(outputPath)); err != nil {
		log.Printf("%v, using placeholder video", err)
		return r.placeholder(ctx, outputPath)
	}

	outputName := strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
	cmd := exec.CommandContext(ctx, r.manimBin,
		sceneFile,
		className,
		qualityFlag(quality),
		"-o", outputName,
		"--media_dir", tempDir,
	)

	log.Printf("Running command: %s", strings.Join(cmd.Args, " "))

	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Printf("manim execution failed: %v\nOutput: %s", err, string(output))
		return r.placeholder(ctx, outputPath)
	}

	rendered := findRenderedVideo(filepath.Join(tempDir, "videos"))
	if rendered == "" {
		log.Println("No video file was generated by manim, using placeholder video")
		return r.placeholder(ctx, outputPath)
	}

	if err := storage.CopyFile(rendered, outputPath); err != nil {
		log.Printf("Failed to copy rendered video: %v, using placeholder video", err)
		return r.placeholder(ctx, outputPath)
	}

	log.Printf("Scene rendered successfully to %s", outputPath)
	return outputPath
}

// findRenderedVideo locates the first .mp4 under manim's media directory
func findRenderedVideo(videoDir string) string {
	var found string
	filepath.Walk(videoDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if found == "" && strings.HasSuffix(path, ".mp4") {
			found = path
		}
		return nil
	})
	return found
}

// placeholder produces a 5-second black clip via ffmpeg, or a fixed-byte
// stub when ffmpeg is unavailable. The write is attempted even when the
// parent directory can't be created.
func (r *Renderer) placeholder(ctx context.Context, outputPath string) string {
	if err := storage.EnsureDir(filepath.Dir(outputPath)); err != nil {
		log.Printf("%v", err)
	}

	if _, err := exec.LookPath(r.ffmpegBin); err == nil {
		cmd := exec.CommandContext(ctx, r.ffmpegBin, "-y",
			"-f", "lavfi",
			"-i", "color=c=black:s=1280x720:d=5",
			"-c:v", "libx264",
			"-pix_fmt", "yuv420p",
			outputPath,
		)
		if output, err := cmd.CombinedOutput(); err == nil {
			log.Printf("Placeholder video created with ffmpeg at %s", outputPath)
			return outputPath
		} else {
			log.Printf("ffmpeg placeholder failed: %v\nOutput: %s", err, string(output))
		}
	}

	if err := os.WriteFile(outputPath, stubMP4, 0644); err != nil {
		log.Printf("Failed to write stub video: %v", err)
	} else {
		log.Printf("Stub video file created at %s", outputPath)
	}
	return outputPath
}
