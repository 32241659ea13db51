package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/nishantc/manim-video-api/internal/jobs"
	"github.com/nishantc/manim-video-api/internal/types"
)

// StatusReporter receives the pipeline's stage transitions
type StatusReporter interface {
	Progress(job *jobs.Job, progress float64, message string)
	SetScript(job *jobs.Job, script *types.Script)
	Complete(job *jobs.Job, videoURL string)
	Fail(job *jobs.Job, err error)
}

// ScriptSource produces a script for a prompt; it never fails outward
type ScriptSource interface {
	Generate(ctx context.Context, prompt string) *types.Script
}

// SceneCodeSource produces Manim source per scene; it never fails outward
type SceneCodeSource interface {
	Generate(ctx context.Context, scene types.Scene, index int) string
}

// SpeechSource writes narration audio to outputPath; it never fails outward
type SpeechSource interface {
	Synthesize(ctx context.Context, text, outputPath, voiceID string) string
}

// SceneRenderer writes a silent clip to outputPath; it never fails outward
type SceneRenderer interface {
	Render(ctx context.Context, sceneCode, outputPath, quality string) string
}

// MediaComposer muxes and concatenates clips; only an empty concat input
// fails outward
type MediaComposer interface {
	Mux(ctx context.Context, videoPath, audioPath, outputPath string) string
	Concat(ctx context.Context, videoPaths []string, outputPath string) (string, error)
}

// Pipeline drives one job through script generation, per-scene code and
// audio generation, rendering, and composition. Each stage's delegate
// degrades internally, so only defect-class errors (disk failures, a missing
// workspace) reach the terminal-failure path here.
type Pipeline struct {
	status   StatusReporter
	scripts  ScriptSource
	code     SceneCodeSource
	speech   SpeechSource
	renderer SceneRenderer
	composer MediaComposer
}

// New creates a pipeline with its five stage delegates
func New(status StatusReporter, scripts ScriptSource, code SceneCodeSource,
	speech SpeechSource, renderer SceneRenderer, composer MediaComposer) *Pipeline {
	return &Pipeline{
		status:   status,
		scripts:  scripts,
		code:     code,
		speech:   speech,
		renderer: renderer,
		composer: composer,
	}
}

// Run executes the job to completion or failure. A cancelled context stops
// the pipeline at the next stage boundary without marking the job failed;
// cancellation only happens when the job has been deleted.
func (p *Pipeline) Run(ctx context.Context, job *jobs.Job) {
	if err := p.run(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Printf("Job %s cancelled, stopping pipeline", job.ID)
			return
		}
		log.Printf("Error generating video for job %s: %v", job.ID, err)
		p.status.Fail(job, err)
	}
}

func (p *Pipeline) run(ctx context.Context, job *jobs.Job) error {
	// 1. Generate the script
	p.status.Progress(job, 0.05, "Generating script...")

	script := p.scripts.Generate(ctx, job.Request.Prompt)
	if err := p.writeScript(job, script); err != nil {
		return err
	}

	p.status.SetScript(job, script)
	p.status.Progress(job, 0.20, "Generating Manim code...")
	if err := ctx.Err(); err != nil {
		return err
	}

	// 2. Generate Manim code for each scene
	sceneCodes := make([]string, len(script.Scenes))
	for i, scene := range script.Scenes {
		if err := ctx.Err(); err != nil {
			return err
		}
		code := p.code.Generate(ctx, scene, i)
		codePath := filepath.Join(job.ScriptDir(), fmt.Sprintf("scene_%d.py", i+1))
		if err := os.WriteFile(codePath, []byte(code), 0644); err != nil {
			return fmt.Errorf("write scene code: %v", err)
		}
		sceneCodes[i] = code
	}

	p.status.Progress(job, 0.40, "Generating audio...")

	// 3. Generate narration audio for each scene
	audioPaths := make([]string, len(script.Scenes))
	for i, scene := range script.Scenes {
		if err := ctx.Err(); err != nil {
			return err
		}
		audioPath := filepath.Join(job.AudioDir(), fmt.Sprintf("scene_%d.mp3", i+1))
		audioPaths[i] = p.speech.Synthesize(ctx, scene.Narration, audioPath, job.Request.VoiceID)
	}

	p.status.Progress(job, 0.60, "Rendering animations...")

	// 4. Render each scene to a silent clip
	videoPaths := make([]string, len(sceneCodes))
	for i, code := range sceneCodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		videoPath := filepath.Join(job.VideoDir(), fmt.Sprintf("scene_%d.mp4", i+1))
		videoPaths[i] = p.renderer.Render(ctx, code, videoPath, job.Request.Quality)
	}

	p.status.Progress(job, 0.80, "Composing final video...")

	// 5. Mux narration onto each clip, then concatenate
	combinedPaths := make([]string, len(script.Scenes))
	for i := range script.Scenes {
		if err := ctx.Err(); err != nil {
			return err
		}
		combinedPath := filepath.Join(job.OutputDir(), fmt.Sprintf("combined_scene_%d.mp4", i+1))
		combinedPaths[i] = p.composer.Mux(ctx, videoPaths[i], audioPaths[i], combinedPath)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	finalPath := filepath.Join(job.OutputDir(), "final_video.mp4")
	if _, err := p.composer.Concat(ctx, combinedPaths, finalPath); err != nil {
		return fmt.Errorf("concatenate scenes: %v", err)
	}

	p.status.Complete(job, fmt.Sprintf("/jobs/%s/output/final_video.mp4", job.ID))
	return nil
}

// writeScript persists the script artifact into the job workspace
func (p *Pipeline) writeScript(job *jobs.Job, script *types.Script) error {
	data, err := json.MarshalIndent(script, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal script: %v", err)
	}
	scriptPath := filepath.Join(job.ScriptDir(), "script.json")
	if err := os.WriteFile(scriptPath, data, 0644); err != nil {
		return fmt.Errorf("write script: %v", err)
	}
	return nil
}
