package handlers

import (
	"log"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nishantc/manim-video-api/internal/jobs"
	"github.com/nishantc/manim-video-api/internal/types"
)

// statusConn is the connection surface the feed writes to
type statusConn interface {
	WriteJSON(v interface{}) error
}

// ProgressHandler streams job status over a WebSocket connection
type ProgressHandler struct {
	registry *jobs.Registry
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(registry *jobs.Registry) *ProgressHandler {
	return &ProgressHandler{registry: registry}
}

// Handle pushes the job's status record once a second until the job reaches
// a terminal state, the job disappears, or the client goes away.
func (h *ProgressHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	jobID := c.Params("id")
	log.Printf("Progress feed opened for job %s", jobID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for h.push(c, jobID) {
		<-ticker.C
	}
}

// push writes one status frame and reports whether the feed should continue.
// An unknown job gets a final error frame; a terminal status gets its record
// as the closing frame.
func (h *ProgressHandler) push(c statusConn, jobID string) bool {
	status, err := h.registry.Get(jobID)
	if err != nil {
		c.WriteJSON(map[string]string{
			"error": "job not found",
			"code":  "ERR_JOB_NOT_FOUND",
		})
		return false
	}

	if err := c.WriteJSON(status); err != nil {
		log.Printf("Progress feed write error for job %s: %v", jobID, err)
		return false
	}

	if types.IsTerminal(status.Status) {
		log.Printf("Progress feed closed for job %s (status: %s)", jobID, status.Status)
		return false
	}

	return true
}
