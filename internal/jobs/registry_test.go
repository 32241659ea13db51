package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nishantc/manim-video-api/internal/types"
)

// idleRunner leaves the job untouched so tests can inspect the initial state
type idleRunner struct{}

func (idleRunner) Run(ctx context.Context, job *Job) {}

// blockingRunner parks until its context is cancelled, reporting both start
// and cancellation to the test
type blockingRunner struct {
	started   chan string
	cancelled chan struct{}
}

func (r *blockingRunner) Run(ctx context.Context, job *Job) {
	r.started <- job.ID
	<-ctx.Done()
	close(r.cancelled)
}

func newTestRegistry(t *testing.T, runner Runner) *Registry {
	t.Helper()
	r := NewRegistry(NewMemoryStore(), t.TempDir(), nil)
	r.SetRunner(runner)
	return r
}

// TestSubmitCreatesWorkspaceAndRecord checks the accepted-job invariants
func TestSubmitCreatesWorkspaceAndRecord(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(NewMemoryStore(), dir, nil)
	r.SetRunner(idleRunner{})

	id, err := r.Submit(types.VideoRequest{Prompt: "circles", Quality: "low"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id == "" {
		t.Fatal("Submit returned empty id")
	}

	for _, sub := range []string{"script", "audio", "video", "output"} {
		if _, err := os.Stat(filepath.Join(dir, id, sub)); err != nil {
			t.Fatalf("workspace subdir %s missing: %v", sub, err)
		}
	}

	status, err := r.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if status.Status != types.StatusQueued {
		t.Fatalf("status = %s, want queued", status.Status)
	}
	if status.Progress != 0 {
		t.Fatalf("progress = %v, want 0", status.Progress)
	}
	if status.Message != "Job queued" {
		t.Fatalf("message = %q, want %q", status.Message, "Job queued")
	}
}

// TestGetUnknownJob checks the not-found contract
func TestGetUnknownJob(t *testing.T) {
	r := newTestRegistry(t, idleRunner{})
	if _, err := r.Get("nope"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("Get error = %v, want ErrJobNotFound", err)
	}
}

// TestDeleteRemovesRecordAndWorkspace checks delete semantics end to end
func TestDeleteRemovesRecordAndWorkspace(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(NewMemoryStore(), dir, nil)
	r.SetRunner(idleRunner{})

	id, err := r.Submit(types.VideoRequest{Prompt: "circles"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := r.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, id)); !os.IsNotExist(err) {
		t.Fatal("workspace directory should be removed")
	}
	if _, err := r.Get(id); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("Get after delete = %v, want ErrJobNotFound", err)
	}

	if err := r.Delete(id); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("second Delete = %v, want ErrJobNotFound", err)
	}
}

// TestDeleteCancelsActiveJob checks delete-while-processing cancels the
// pipeline cooperatively
func TestDeleteCancelsActiveJob(t *testing.T) {
	runner := &blockingRunner{
		started:   make(chan string, 1),
		cancelled: make(chan struct{}),
	}
	r := newTestRegistry(t, runner)

	id, err := r.Submit(types.VideoRequest{Prompt: "circles"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline never started")
	}

	if err := r.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	select {
	case <-runner.cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline context was not cancelled by delete")
	}
}

// TestProgressIsMonotonic checks progress never decreases and messages are
// always overwritten
func TestProgressIsMonotonic(t *testing.T) {
	r := newTestRegistry(t, idleRunner{})
	id, _ := r.Submit(types.VideoRequest{Prompt: "circles"})
	job := &Job{ID: id}

	r.Progress(job, 0.4, "Generating audio...")
	r.Progress(job, 0.2, "Generating Manim code...")

	status, _ := r.Get(id)
	if status.Progress != 0.4 {
		t.Fatalf("progress = %v, want 0.4 (no rollback)", status.Progress)
	}
	if status.Message != "Generating Manim code..." {
		t.Fatalf("message = %q, want the latest stage message", status.Message)
	}
	if status.Status != types.StatusProcessing {
		t.Fatalf("status = %s, want processing", status.Status)
	}
}

// TestTerminalStatesAreFinal checks completed and failed are never left
func TestTerminalStatesAreFinal(t *testing.T) {
	r := newTestRegistry(t, idleRunner{})
	id, _ := r.Submit(types.VideoRequest{Prompt: "circles"})
	job := &Job{ID: id}

	r.Complete(job, "/jobs/"+id+"/output/final_video.mp4")
	r.Progress(job, 0.5, "should not apply")
	r.Fail(job, errors.New("should not apply"))

	status, _ := r.Get(id)
	if status.Status != types.StatusCompleted {
		t.Fatalf("status = %s, want completed", status.Status)
	}
	if status.Progress != 1.0 {
		t.Fatalf("progress = %v, want 1.0", status.Progress)
	}
	if status.Error != "" {
		t.Fatalf("error = %q, want empty after completion", status.Error)
	}
}

// TestFailKeepsLastProgress checks failure pins status but not progress
func TestFailKeepsLastProgress(t *testing.T) {
	r := newTestRegistry(t, idleRunner{})
	id, _ := r.Submit(types.VideoRequest{Prompt: "circles"})
	job := &Job{ID: id}

	r.Progress(job, 0.6, "Rendering animations...")
	r.Fail(job, errors.New("disk full"))

	status, _ := r.Get(id)
	if status.Status != types.StatusFailed {
		t.Fatalf("status = %s, want failed", status.Status)
	}
	if status.Progress != 0.6 {
		t.Fatalf("progress = %v, want 0.6 (left at last value)", status.Progress)
	}
	if status.Message != "Video generation failed" {
		t.Fatalf("message = %q, want fixed failure message", status.Message)
	}
	if status.Error != "disk full" {
		t.Fatalf("error = %q, want the captured description", status.Error)
	}
}

// TestIsActive checks the active check tracks terminal transitions
func TestIsActive(t *testing.T) {
	r := newTestRegistry(t, idleRunner{})
	id, _ := r.Submit(types.VideoRequest{Prompt: "circles"})
	job := &Job{ID: id}

	if !r.IsActive(id) {
		t.Fatal("queued job should be active")
	}
	r.Complete(job, "url")
	if r.IsActive(id) {
		t.Fatal("completed job should not be active")
	}
	if r.IsActive("missing") {
		t.Fatal("unknown job should not be active")
	}
}
