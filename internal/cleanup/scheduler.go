package cleanup

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nishantc/manim-video-api/internal/jobs"
)

// Scheduler periodically removes workspaces of finished jobs past their
// retention age. Active jobs are never swept.
type Scheduler struct {
	jobsDir         string
	registry        *jobs.Registry
	intervalMinutes int
	maxAgeHours     int
	stopChan        chan struct{}
}

// NewScheduler creates a workspace retention sweeper
func NewScheduler(jobsDir string, registry *jobs.Registry, intervalMinutes, maxAgeHours int) *Scheduler {
	return &Scheduler{
		jobsDir:         jobsDir,
		registry:        registry,
		intervalMinutes: intervalMinutes,
		maxAgeHours:     maxAgeHours,
		stopChan:        make(chan struct{}),
	}
}

// Start begins periodic sweeps. A non-positive max age disables retention.
func (s *Scheduler) Start() {
	if s.maxAgeHours <= 0 {
		log.Println("Workspace retention disabled")
		return
	}

	log.Println("Running initial workspace sweep...")
	s.sweep()

	interval := s.intervalMinutes
	if interval <= 0 {
		log.Printf("Sweep interval %dm is invalid, using 1m", interval)
		interval = 1
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Minute)

	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("Workspace sweeper started (interval: %dm, max age: %dh)",
		interval, s.maxAgeHours)
}

// Stop stops the sweeper
func (s *Scheduler) Stop() {
	close(s.stopChan)
	log.Println("Workspace sweeper stopped")
}

// sweep removes inactive job workspaces older than the retention age
func (s *Scheduler) sweep() {
	now := time.Now()
	maxAge := time.Duration(s.maxAgeHours) * time.Hour

	entries, err := os.ReadDir(s.jobsDir)
	if err != nil {
		log.Printf("Error reading jobs directory: %v", err)
		return
	}

	var removed int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		id := entry.Name()
		if now.Sub(info.ModTime()) <= maxAge || s.registry.IsActive(id) {
			continue
		}

		s.registry.Discard(id)
		removed++
		log.Printf("Swept expired job workspace: %s (age: %s)",
			filepath.Base(id), now.Sub(info.ModTime()).Round(time.Hour))
	}

	if removed > 0 {
		log.Printf("Workspace sweep complete: %d workspaces removed", removed)
	}
}
