package upstream

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable means the provider could not be reached or refused the stream.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrSessionClosed marks operations on a session that has already ended.
	ErrSessionClosed = errors.New("upstream session closed")
	// ErrUnknownProvider marks a provider name with no registered adapter.
	ErrUnknownProvider = errors.New("unknown upstream provider")
)

// EventKind discriminates what a provider pushed down the live stream.
type EventKind int

const (
	EventAudio EventKind = iota
	EventControl
	EventError
)

// Control notes emitted alongside EventControl.
const (
	ControlTurnComplete       = "turn_complete"
	ControlInterrupted        = "interrupted"
	ControlGenerationComplete = "generation_complete"
)

// Event is one message from a live provider session. Audio events carry raw
// PCM16 bytes at the provider's output rate. Control events mark turn
// boundaries so the relay can flush partial frames. Error events report a
// fault; the stream survives unless Terminal is set.
type Event struct {
	Kind     EventKind
	Data     []byte
	Note     string
	Err      error
	Terminal bool
}

// Config carries everything a provider needs to open a live session.
type Config struct {
	Provider        string
	Model           string
	APIKey          string
	Voice           string
	Persona         string
	InSampleRate    int
	OutSampleRate   int
	ConnectTimeout  time.Duration
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
}

// Adapter opens live sessions against one provider backend.
type Adapter interface {
	Name() string
	Open(ctx context.Context, cfg Config) (Session, error)
}

// Session is one live bidirectional audio stream.
//
// Send pushes a chunk of PCM16 input audio upstream and fails with
// ErrSessionClosed once the stream has ended. Events yields provider output
// as it arrives; the channel closes when the stream ends for any reason.
// Close tears the stream down and is safe to call repeatedly.
type Session interface {
	Send(ctx context.Context, pcm []byte) error
	Events() <-chan Event
	Close() error
}
