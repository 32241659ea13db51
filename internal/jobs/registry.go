package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/nishantc/manim-video-api/internal/storage"
	"github.com/nishantc/manim-video-api/internal/types"
)

// ErrJobNotFound is returned for reads and deletes of unknown job ids
var ErrJobNotFound = errors.New("job not found")

// Runner executes one job's pipeline to completion or failure
type Runner interface {
	Run(ctx context.Context, job *Job)
}

// Registry owns the live job records, their workspace directories, and the
// background execution of each submitted job. Exactly one pipeline goroutine
// mutates a given job's status; deleting an active job cancels its pipeline
// cooperatively.
type Registry struct {
	store   Store
	jobsDir string
	history *storage.HistoryDB
	runner  Runner

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewRegistry creates a registry rooted at jobsDir. history may be nil.
func NewRegistry(store Store, jobsDir string, history *storage.HistoryDB) *Registry {
	return &Registry{
		store:   store,
		jobsDir: jobsDir,
		history: history,
		cancels: make(map[string]context.CancelFunc),
	}
}

// SetRunner wires the pipeline executor. Must be called before Submit.
func (r *Registry) SetRunner(runner Runner) {
	r.runner = runner
}

// Submit accepts a request, creates the job workspace, and schedules the
// pipeline in the background. It returns the fresh job id immediately and
// never blocks on any pipeline stage.
func (r *Registry) Submit(req types.VideoRequest) (string, error) {
	id := uuid.New().String()

	job := &Job{
		ID:      id,
		Dir:     filepath.Join(r.jobsDir, id),
		Request: req,
	}

	// Workspace subareas exist before any stage writes into them
	for _, dir := range []string{job.ScriptDir(), job.AudioDir(), job.VideoDir(), job.OutputDir()} {
		if err := storage.EnsureDir(dir); err != nil {
			return "", err
		}
	}

	r.store.Create(&types.JobStatus{
		JobID:    id,
		Status:   types.StatusQueued,
		Progress: 0,
		Message:  "Job queued",
	})

	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancels[id] = cancel
	r.mu.Unlock()

	go func() {
		defer r.finish(id)
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("PANIC processing job %s: %v\n%s", id, rec, string(debug.Stack()))
				r.Fail(job, fmt.Errorf("pipeline panic: %v", rec))
			}
		}()
		r.runner.Run(ctx, job)
	}()

	log.Printf("Job %s submitted (prompt: %s, quality: %s)", id, req.Prompt, req.Quality)
	return id, nil
}

// Get returns a snapshot of a job's status
func (r *Registry) Get(id string) (types.JobStatus, error) {
	status, ok := r.store.Get(id)
	if !ok {
		return types.JobStatus{}, ErrJobNotFound
	}
	return status, nil
}

// Delete removes a job's record and workspace. Deleting a job that is still
// queued or processing cancels its pipeline cooperatively first; the
// pipeline observes the cancellation at the next stage boundary and stops.
func (r *Registry) Delete(id string) error {
	if _, ok := r.store.Get(id); !ok {
		return ErrJobNotFound
	}

	r.mu.Lock()
	if cancel, ok := r.cancels[id]; ok {
		cancel()
		delete(r.cancels, id)
	}
	r.mu.Unlock()

	r.store.Delete(id)

	// A missing workspace is not an error
	jobDir := filepath.Join(r.jobsDir, id)
	if err := os.RemoveAll(jobDir); err != nil {
		log.Printf("Failed to remove job directory %s: %v", jobDir, err)
	}

	log.Printf("Job %s deleted", id)
	return nil
}

// IsActive reports whether a job exists and is not yet terminal
func (r *Registry) IsActive(id string) bool {
	status, ok := r.store.Get(id)
	return ok && !types.IsTerminal(status.Status)
}

// Discard drops a job's record (if any) and workspace without the not-found
// check, for retention sweeps over leftover directories.
func (r *Registry) Discard(id string) {
	r.store.Delete(id)
	if err := os.RemoveAll(filepath.Join(r.jobsDir, id)); err != nil {
		log.Printf("Failed to remove job directory for %s: %v", id, err)
	}
}

// finish releases the cancellation handle once a pipeline goroutine exits
func (r *Registry) finish(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.cancels[id]; ok {
		cancel()
		delete(r.cancels, id)
	}
}

// Progress moves a job into processing and advances its progress. Progress
// never decreases and terminal records are never touched; the stage message
// is overwritten on every call.
func (r *Registry) Progress(job *Job, progress float64, message string) {
	r.store.Update(job.ID, func(s *types.JobStatus) {
		if types.IsTerminal(s.Status) {
			return
		}
		s.Status = types.StatusProcessing
		if progress > s.Progress {
			s.Progress = progress
		}
		s.Message = message
	})
}

// SetScript attaches the produced script to the job's status record
func (r *Registry) SetScript(job *Job, script *types.Script) {
	r.store.Update(job.ID, func(s *types.JobStatus) {
		if types.IsTerminal(s.Status) {
			return
		}
		s.Script = script
	})
}

// Complete marks a job finished with its final video location
func (r *Registry) Complete(job *Job, videoURL string) {
	var sceneCount int
	var applied bool
	r.store.Update(job.ID, func(s *types.JobStatus) {
		if types.IsTerminal(s.Status) {
			return
		}
		s.Status = types.StatusCompleted
		s.Progress = 1.0
		s.Message = "Video generation completed"
		s.VideoURL = videoURL
		if s.Script != nil {
			sceneCount = len(s.Script.Scenes)
		}
		applied = true
	})
	if applied {
		log.Printf("Job %s completed: %s", job.ID, videoURL)
		r.record(job, types.StatusCompleted, videoURL, "", sceneCount)
	}
}

// Fail marks a job terminally failed, leaving progress at its last value
func (r *Registry) Fail(job *Job, err error) {
	var sceneCount int
	var applied bool
	r.store.Update(job.ID, func(s *types.JobStatus) {
		if types.IsTerminal(s.Status) {
			return
		}
		s.Status = types.StatusFailed
		s.Message = "Video generation failed"
		s.Error = err.Error()
		if s.Script != nil {
			sceneCount = len(s.Script.Scenes)
		}
		applied = true
	})
	if applied {
		log.Printf("Job %s failed: %v", job.ID, err)
		r.record(job, types.StatusFailed, "", err.Error(), sceneCount)
	}
}

// record writes a terminal outcome to the history database when configured
func (r *Registry) record(job *Job, status, videoURL, errMsg string, sceneCount int) {
	if r.history == nil {
		return
	}
	if err := r.history.RecordJob(job.ID, job.Request.Prompt, job.Request.Quality,
		status, videoURL, errMsg, sceneCount); err != nil {
		log.Printf("Failed to record job history: %v", err)
	}
}
