package jobs

import (
	"path/filepath"

	"github.com/nishantc/manim-video-api/internal/types"
)

// Job is one accepted video generation request with its on-disk workspace
type Job struct {
	ID      string
	Dir     string
	Request types.VideoRequest
}

// ScriptDir holds script.json and the per-scene Manim sources
func (j *Job) ScriptDir() string {
	return filepath.Join(j.Dir, "script")
}

// AudioDir holds the per-scene narration files
func (j *Job) AudioDir() string {
	return filepath.Join(j.Dir, "audio")
}

// VideoDir holds the per-scene silent renders
func (j *Job) VideoDir() string {
	return filepath.Join(j.Dir, "video")
}

// OutputDir holds the muxed clips and the final video
func (j *Job) OutputDir() string {
	return filepath.Join(j.Dir, "output")
}
