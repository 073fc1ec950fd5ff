package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrCorruptPayload marks audio bytes that do not parse as their declared format.
	ErrCorruptPayload = errors.New("corrupt audio payload")
	// ErrUnsupportedFormat marks a format tag or container layout the codec does not handle.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// WAVHeader is the canonical 44-byte RIFF header for uncompressed PCM audio.
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // payload bytes
}

const wavHeaderSize = 44

// EncodeWAV wraps 16-bit mono PCM samples in a RIFF/WAV container. The header
// declares sample rate, channel count, bit depth and payload length, so a
// receiver can play the chunk without side-channel knowledge.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples to encode", ErrCorruptPayload)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrUnsupportedFormat, sampleRate)
	}

	numChannels := uint16(1)
	bitsPerSample := uint16(16)
	dataSize := uint32(len(samples) * 2)

	header := WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(samples)*2))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("write wav header: %v", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("write wav payload: %v", err)
	}
	return buf.Bytes(), nil
}

// DecodeWAV parses a 16-bit mono PCM WAV container back into samples and the
// declared sample rate.
func DecodeWAV(data []byte) ([]int16, int, error) {
	header, err := parseWAVHeader(data)
	if err != nil {
		return nil, 0, err
	}

	numSamples := int(header.Subchunk2Size) / 2
	samples := make([]int16, numSamples)
	r := bytes.NewReader(data[wavHeaderSize:])
	if err := binary.Read(r, binary.LittleEndian, samples); err != nil {
		return nil, 0, fmt.Errorf("%w: reading samples: %v", ErrCorruptPayload, err)
	}
	return samples, int(header.SampleRate), nil
}

// ValidateWAV checks container integrity without copying the payload out.
func ValidateWAV(data []byte) error {
	_, err := parseWAVHeader(data)
	return err
}

func parseWAVHeader(data []byte) (WAVHeader, error) {
	var header WAVHeader
	if len(data) < wavHeaderSize {
		return header, fmt.Errorf("%w: %d bytes, need at least %d", ErrCorruptPayload, len(data), wavHeaderSize)
	}

	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return header, fmt.Errorf("%w: reading header: %v", ErrCorruptPayload, err)
	}

	if string(header.ChunkID[:]) != "RIFF" || string(header.Format[:]) != "WAVE" {
		return header, fmt.Errorf("%w: missing RIFF/WAVE magic", ErrCorruptPayload)
	}
	if string(header.Subchunk1ID[:]) != "fmt " || string(header.Subchunk2ID[:]) != "data" {
		return header, fmt.Errorf("%w: missing fmt/data chunks", ErrCorruptPayload)
	}
	if header.AudioFormat != 1 {
		return header, fmt.Errorf("%w: audio format %d, only PCM supported", ErrUnsupportedFormat, header.AudioFormat)
	}
	if header.BitsPerSample != 16 {
		return header, fmt.Errorf("%w: %d bits per sample, only 16 supported", ErrUnsupportedFormat, header.BitsPerSample)
	}
	if header.NumChannels != 1 {
		return header, fmt.Errorf("%w: %d channels, only mono supported", ErrUnsupportedFormat, header.NumChannels)
	}
	if int(header.Subchunk2Size) != len(data)-wavHeaderSize {
		return header, fmt.Errorf("%w: header declares %d payload bytes, container carries %d",
			ErrCorruptPayload, header.Subchunk2Size, len(data)-wavHeaderSize)
	}
	return header, nil
}
