package pcmbuf

import (
	"fmt"
	"sync"

	"github.com/smallnest/ringbuffer"
)

// Assembler re-frames a PCM16 byte stream into fixed-duration frames. The
// upstream provider emits audio in whatever blob sizes its transport favours;
// the client side wants steady frames it can hand to a playback buffer.
type Assembler struct {
	mu         sync.Mutex
	rb         *ringbuffer.RingBuffer
	frameBytes int
}

// New builds an assembler cutting frames of frameMs milliseconds of 16-bit
// audio at the given rate and channel count.
func New(sampleRate, channels, frameMs int) *Assembler {
	frameBytes := sampleRate * channels * 2 * frameMs / 1000
	if frameBytes < 2 {
		frameBytes = 2
	}
	if frameBytes%2 != 0 {
		// Frames must stay aligned to whole 16-bit samples.
		frameBytes++
	}

	rb := ringbuffer.New(frameBytes * 4)
	rb.SetBlocking(false)

	return &Assembler{rb: rb, frameBytes: frameBytes}
}

// Push appends upstream bytes and returns every complete frame now available,
// oldest first. Bytes short of a full frame stay buffered for the next call.
func (a *Assembler) Push(data []byte) ([][]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var frames [][]byte
	for len(data) > 0 {
		n := a.rb.Free()
		if n > len(data) {
			n = len(data)
		}
		if n > 0 {
			if _, err := a.rb.Write(data[:n]); err != nil {
				return frames, fmt.Errorf("buffering pcm bytes: %v", err)
			}
			data = data[n:]
		}

		cut, err := a.cutFrames()
		if err != nil {
			return frames, err
		}
		frames = append(frames, cut...)

		if n == 0 && len(cut) == 0 {
			return frames, fmt.Errorf("assembler stalled with %d bytes buffered", a.rb.Length())
		}
	}

	return frames, nil
}

// Flush returns whatever partial frame is still buffered and resets the ring.
// Called when the upstream turn completes so trailing audio is not held back.
func (a *Assembler) Flush() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.rb.Length()
	if n == 0 {
		return nil, nil
	}
	rest := make([]byte, n)
	if _, err := a.rb.Read(rest); err != nil {
		return nil, fmt.Errorf("flushing pcm remainder: %v", err)
	}
	return rest, nil
}

// Reset drops all buffered bytes.
func (a *Assembler) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rb.Reset()
}

// FrameBytes reports the size of a complete frame.
func (a *Assembler) FrameBytes() int { return a.frameBytes }

// Buffered reports how many bytes are waiting for a full frame.
func (a *Assembler) Buffered() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rb.Length()
}

func (a *Assembler) cutFrames() ([][]byte, error) {
	var frames [][]byte
	for a.rb.Length() >= a.frameBytes {
		frame := make([]byte, a.frameBytes)
		if _, err := a.rb.Read(frame); err != nil {
			return frames, fmt.Errorf("cutting pcm frame: %v", err)
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
