package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/nishantc/manim-video-api/internal/jobs"
	"github.com/nishantc/manim-video-api/internal/types"
)

// GenerateHandler accepts video generation requests
type GenerateHandler struct {
	registry *jobs.Registry
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(registry *jobs.Registry) *GenerateHandler {
	return &GenerateHandler{registry: registry}
}

// Handle processes a generation request and returns the queued job id
func (h *GenerateHandler) Handle(c *fiber.Ctx) error {
	var req types.VideoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	if req.Prompt == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "Prompt is required",
			"code":  "ERR_NO_PROMPT",
		})
	}

	if req.VoiceID == "" {
		req.VoiceID = types.DefaultVoiceID
	}
	switch req.Quality {
	case types.QualityLow, types.QualityMedium, types.QualityHigh:
	default:
		req.Quality = types.QualityMedium
	}

	jobID, err := h.registry.Submit(req)
	if err != nil {
		log.Printf("Failed to submit job: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to create job workspace",
			"code":  "ERR_SUBMIT_FAILED",
		})
	}

	return c.JSON(fiber.Map{
		"job_id":  jobID,
		"status":  types.StatusQueued,
		"message": "Video generation job has been queued",
	})
}
