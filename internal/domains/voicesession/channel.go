package voicesession

import "github.com/petrioteer/swatantra.ai/pkg/audio"

// Error codes surfaced to the client when a single chunk is dropped. The
// session itself keeps running; these are advisory.
const (
	ErrCodeMalformedAudio     = "malformed_audio"
	ErrCodeUnsupportedFormat  = "unsupported_format"
	ErrCodeCorruptPayload     = "corrupt_payload"
	ErrCodeUpstreamSendFailed = "upstream_send_failed"
)

// ClientChannel is the relay's view of one attached client transport. The
// websocket layer implements it; tests substitute fakes.
//
// Inbound yields chunks read from the client in arrival order, each already
// stamped with its ingestion sequence number. Done closes when the transport
// goes away, however that happens.
type ClientChannel interface {
	SendAudio(chunk audio.Chunk) error
	SendControl(event string) error
	SendError(code, detail string) error
	SendPing() error
	Inbound() <-chan audio.Chunk
	Done() <-chan struct{}
	Close() error
}
