package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/nishantc/manim-video-api/internal/jobs"
)

// JobHandler serves job status reads and deletes
type JobHandler struct {
	registry *jobs.Registry
}

// NewJobHandler creates a new job handler
func NewJobHandler(registry *jobs.Registry) *JobHandler {
	return &JobHandler{registry: registry}
}

// Status returns the current status record for a job
func (h *JobHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("id")

	status, err := h.registry.Get(jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			return c.Status(404).JSON(fiber.Map{
				"error": fmt.Sprintf("Job with ID %s not found", jobID),
				"code":  "ERR_JOB_NOT_FOUND",
			})
		}
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(status)
}

// Delete removes a job's record and workspace. An in-flight pipeline is
// cancelled cooperatively.
func (h *JobHandler) Delete(c *fiber.Ctx) error {
	jobID := c.Params("id")

	if err := h.registry.Delete(jobID); err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			return c.Status(404).JSON(fiber.Map{
				"error": fmt.Sprintf("Job with ID %s not found", jobID),
				"code":  "ERR_JOB_NOT_FOUND",
			})
		}
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Job %s deleted successfully", jobID),
	})
}
