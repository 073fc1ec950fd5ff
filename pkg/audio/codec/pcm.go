package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/petrioteer/swatantra.ai/pkg/audio"
)

// DecodePCM16 interprets raw little-endian bytes as 16-bit PCM samples.
func DecodePCM16(payload []byte) ([]int16, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrCorruptPayload)
	}
	if len(payload)%2 != 0 {
		return nil, fmt.Errorf("%w: odd byte count %d for 16-bit samples", ErrCorruptPayload, len(payload))
	}

	samples := make([]int16, len(payload)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(payload[i*2:]))
	}
	return samples, nil
}

// EncodePCM16 renders samples back to raw little-endian bytes.
func EncodePCM16(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// DecodeInbound validates a client chunk against its declared format and
// returns the raw samples. Unknown tags fail with ErrUnsupportedFormat so the
// caller can drop the chunk without touching the stream around it.
func DecodeInbound(payload []byte, format audio.Format) ([]int16, error) {
	switch format {
	case audio.FormatPCM16Mono16k:
		return DecodePCM16(payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
