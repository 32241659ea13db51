package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// placeholderMP3 is a minimal MP3 frame header written when the speech
// service is unavailable. Not a playable file, but a structurally present
// artifact the rest of the pipeline can carry through.
var placeholderMP3 = []byte{
	0xFF, 0xFB, 0x90, 0x44, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// Synthesizer produces narration audio via the ElevenLabs API
type Synthesizer struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewSynthesizer creates a speech synthesizer. An empty API key selects the
// placeholder path on every call.
func NewSynthesizer(apiKey string) *Synthesizer {
	return &Synthesizer{
		apiKey:     apiKey,
		baseURL:    "https://api.elevenlabs.io",
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize converts text to speech and writes the audio to outputPath.
// It never fails outward: transport errors and non-200 responses all degrade
// to a placeholder artifact at outputPath, which is returned regardless.
func (s *Synthesizer) Synthesize(ctx context.Context, text, outputPath, voiceID string) string {
	log.Printf("Generating speech for text: %s...", previewText(text))

	if s.apiKey == "" {
		log.Println("ELEVENLABS_API_KEY not set, writing placeholder audio")
		return s.writePlaceholder(outputPath)
	}

	reqBody := ttsRequest{
		Text:    text,
		ModelID: "eleven_multilingual_v2",
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		log.Printf("Failed to marshal TTS request: %v", err)
		return s.writePlaceholder(outputPath)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", s.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		log.Printf("Failed to build TTS request: %v", err)
		return s.writePlaceholder(outputPath)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("TTS request failed: %v", err)
		return s.writePlaceholder(outputPath)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("TTS request returned %d: %s", resp.StatusCode, string(body))
		return s.writePlaceholder(outputPath)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Failed to read TTS response: %v", err)
		return s.writePlaceholder(outputPath)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		log.Printf("Failed to create audio directory: %v", err)
	}
	if err := os.WriteFile(outputPath, audio, 0644); err != nil {
		log.Printf("Failed to write audio file: %v", err)
		return outputPath
	}

	log.Printf("Speech saved to %s (%d bytes)", outputPath, len(audio))
	return outputPath
}

// writePlaceholder creates the fixed placeholder audio artifact. The write is
// attempted even when the parent directory can't be created, so a transient
// MkdirAll failure over an existing directory still yields an artifact.
func (s *Synthesizer) writePlaceholder(outputPath string) string {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		log.Printf("Failed to create audio directory: %v", err)
	}
	if err := os.WriteFile(outputPath, placeholderMP3, 0644); err != nil {
		log.Printf("Failed to write placeholder audio: %v", err)
	} else {
		log.Printf("Placeholder audio created at %s", outputPath)
	}
	return outputPath
}

// previewText shortens narration for log lines without splitting runes
func previewText(text string) string {
	runes := []rune(text)
	if len(runes) > 50 {
		return string(runes[:50])
	}
	return text
}
