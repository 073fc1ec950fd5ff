package handlers

import "github.com/petrioteer/swatantra.ai/internal/domains/voicesession"

// Response wrapper types for Swagger documentation

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Message string `json:"message" example:"Operation completed successfully"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"Something went wrong"`
	Details string `json:"details,omitempty" example:"Validation error details"`
}

// StartVoiceRequest identifies the client a session is started for
type StartVoiceRequest struct {
	ClientID string `json:"client_id" binding:"required" example:"browser-1a2b"`
}

// TerminateVoiceRequest identifies the client whose session is stopped
type TerminateVoiceRequest struct {
	ClientID string `json:"client_id" binding:"required" example:"browser-1a2b"`
}

// StartVoiceResponse represents the response for starting a voice session
type StartVoiceResponse struct {
	Status       string `json:"status" example:"started"`
	ClientID     string `json:"client_id" example:"browser-1a2b"`
	SessionID    string `json:"session_id" example:"7f9c24e5-1f30-4d3e-9c2a-9b56d1a1a000"`
	WebsocketURL string `json:"websocket_url" example:"/ws/audio?client_id=browser-1a2b"`
	InputFormat  string `json:"input_format" example:"pcm16-mono-16k"`
	OutputFormat string `json:"output_format" example:"wav-24k"`
}

// TerminateVoiceResponse represents the response for terminating a voice session
type TerminateVoiceResponse struct {
	Status   string `json:"status" example:"terminated"`
	ClientID string `json:"client_id" example:"browser-1a2b"`
}

// VoiceStatusResponse represents one client's session status
type VoiceStatusResponse struct {
	ClientID string               `json:"client_id" example:"browser-1a2b"`
	Active   bool                 `json:"active" example:"true"`
	Session  *voicesession.Status `json:"session,omitempty"`
}

// VoiceStatsResponse represents the aggregate session view
type VoiceStatsResponse struct {
	voicesession.ServiceStats
}
