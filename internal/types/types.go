package types

// Job status constants
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Rendering quality tiers
const (
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
)

// DefaultVoiceID is the ElevenLabs voice used when a request doesn't pick one
const DefaultVoiceID = "pNInz6obpgDQGcFmaJgB"

// VideoRequest represents a video generation request
type VideoRequest struct {
	Prompt  string `json:"prompt"`
	VoiceID string `json:"voice_id"`
	Quality string `json:"quality"`
}

// Scene is one timed, narrated segment of the generated video
type Scene struct {
	StartTime         string `json:"startTime"`
	EndTime           string `json:"endTime"`
	Narration         string `json:"narration"`
	VisualDescription string `json:"visualDescription"`
}

// Script is the scripted scene sequence produced once per job
type Script struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Scenes      []Scene `json:"scenes"`
}

// JobStatus is the client-visible state of one generation job
type JobStatus struct {
	JobID    string  `json:"job_id"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
	VideoURL string  `json:"video_url,omitempty"`
	Script   *Script `json:"script,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// IsTerminal reports whether a status admits no further transitions
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}
