package websocket

import "time"

// MessageType defines the type of a WebSocket frame.
type MessageType string

const (
	MessageTypeAudio   MessageType = "audio"
	MessageTypeControl MessageType = "control"
	MessageTypeError   MessageType = "error"
	MessageTypePing    MessageType = "ping"
)

// Wire audio tags. Clients send raw PCM; the relay answers with
// self-describing WAV so the browser can play chunks directly.
const (
	WireFormatPCM = "audio/pcm"
	WireFormatWAV = "audio/wav"
)

// Control commands a client may send.
const (
	ControlCommandStop = "stop"
)

// InboundMessage is a frame read from the client.
type InboundMessage struct {
	Type    MessageType `json:"type"`
	Format  string      `json:"format,omitempty"`
	Data    string      `json:"data,omitempty"` // base64 audio payload
	Command string      `json:"command,omitempty"`
}

// OutboundMessage is a frame written to the client.
type OutboundMessage struct {
	Type      MessageType `json:"type"`
	Format    string      `json:"format,omitempty"`
	Data      string      `json:"data,omitempty"` // base64 audio payload
	Seq       uint64      `json:"seq,omitempty"`
	Event     string      `json:"event,omitempty"` // control frames
	Code      string      `json:"code,omitempty"`  // error frames
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
