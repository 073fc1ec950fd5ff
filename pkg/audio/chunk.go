package audio

import "time"

// Format identifies the encoding of a chunk payload.
type Format string

const (
	// FormatPCM16Mono16k is raw little-endian 16-bit mono PCM at 16 kHz,
	// the only format accepted from clients.
	FormatPCM16Mono16k Format = "pcm16-mono-16k"
	// FormatWAV24k is a self-describing RIFF/WAV container carrying 16-bit
	// mono PCM at 24 kHz, the only format delivered to clients.
	FormatWAV24k Format = "wav-24k"
)

// Chunk is one discrete unit of audio moving through a session.
// Seq is assigned at ingestion, increases monotonically within a session
// and is preserved end to end so playback order can be verified.
type Chunk struct {
	Seq       uint64
	Format    Format
	Data      []byte
	Timestamp time.Time
}
