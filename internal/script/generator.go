package script

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/nishantc/manim-video-api/internal/gemini"
	"github.com/nishantc/manim-video-api/internal/types"
)

// Generator produces a scripted scene sequence for a prompt via Gemini
type Generator struct {
	client *gemini.Client
}

// NewGenerator creates a script generator
func NewGenerator(client *gemini.Client) *Generator {
	return &Generator{client: client}
}

// Generate returns a script for the prompt. It never fails: transport errors,
// malformed responses, and structurally invalid scripts all fall back to a
// deterministic mock script built from the prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) *types.Script {
	log.Printf("Generating script for prompt: %s", prompt)

	if !g.client.Enabled() {
		log.Println("GEMINI_API_KEY not set, using mock script generator")
		return MockScript(prompt)
	}

	text, err := g.client.GenerateContent(ctx, buildScriptPrompt(prompt))
	if err != nil {
		log.Printf("Script generation failed: %v, falling back to mock script", err)
		return MockScript(prompt)
	}

	jsonStr := gemini.ExtractBlock(text, "json")

	var script types.Script
	if err := json.Unmarshal([]byte(jsonStr), &script); err != nil {
		log.Printf("Failed to parse script JSON: %v, falling back to mock script", err)
		return MockScript(prompt)
	}

	if !Validate(&script) {
		log.Println("Generated script does not have the expected structure, falling back to mock script")
		return MockScript(prompt)
	}

	log.Printf("Script generated with %d scenes", len(script.Scenes))
	return &script
}

func buildScriptPrompt(prompt string) string {
	return fmt.Sprintf(`Create an educational video script with precise timestamps for a video about: "%s".
Format the script as JSON with the following structure:
{
  "title": "Video Title",
  "description": "Brief description of the video",
  "scenes": [
    {
      "startTime": "00:00",
      "endTime": "00:XX",
      "narration": "What should be spoken during this scene",
      "visualDescription": "Detailed description of what should be shown visually, suitable for generating Manim code"
    }
  ]
}
Make sure each scene has detailed visual descriptions that can be used to generate mathematical animations with Manim.
Keep scenes between 5-20 seconds each.
The visual descriptions should be very specific about what mathematical elements to show and how they should be animated.
Include at least 3 scenes but no more than 6 scenes.`, prompt)
}

// Validate checks that a script carries a title, a description, and at least
// one scene with all four scene fields populated.
func Validate(script *types.Script) bool {
	if script == nil {
		return false
	}
	if script.Title == "" || script.Description == "" {
		return false
	}
	if len(script.Scenes) == 0 {
		return false
	}
	for _, scene := range script.Scenes {
		if scene.StartTime == "" || scene.EndTime == "" ||
			scene.Narration == "" || scene.VisualDescription == "" {
			return false
		}
	}
	return true
}

// MockScript builds a deterministic four-scene script from the prompt alone
func MockScript(prompt string) *types.Script {
	return &types.Script{
		Title:       fmt.Sprintf("Understanding %s", prompt),
		Description: fmt.Sprintf("An educational video explaining %s with visual animations.", prompt),
		Scenes: []types.Scene{
			{
				StartTime:         "00:00",
				EndTime:           "00:10",
				Narration:         fmt.Sprintf("Welcome to this video about %s. We'll explore this concept with visual examples.", prompt),
				VisualDescription: "Show a title text with the prompt. Then animate it to move to the top of the screen. Create a circle in the center that pulses to draw attention.",
			},
			{
				StartTime:         "00:10",
				EndTime:           "00:25",
				Narration:         fmt.Sprintf("Let's start by understanding the basic principles of %s. This concept is fundamental in mathematics.", prompt),
				VisualDescription: "Display a mathematical equation related to the topic. Animate each part of the equation appearing one by one, highlighting each term as it's mentioned.",
			},
			{
				StartTime:         "00:25",
				EndTime:           "00:40",
				Narration:         fmt.Sprintf("Now, let's see how %s works in practice with a visual example.", prompt),
				VisualDescription: "Create a coordinate system. Plot a function or shape related to the topic, then animate a point moving along the plotted curve.",
			},
			{
				StartTime:         "00:40",
				EndTime:           "00:55",
				Narration:         fmt.Sprintf("To summarize what we've learned about %s, let's review the key points.", prompt),
				VisualDescription: "Create a bulleted list with 3 key points about the topic. Have each point appear one by one with a small animation, ending with the main equation highlighted.",
			},
		},
	}
}
