package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/petrioteer/swatantra.ai/pkg/audio"
)

// ErrClosed is returned once a queue has been closed and fully drained.
var ErrClosed = errors.New("audio queue closed")

// Queue is a bounded FIFO of audio chunks between the upstream receive pump
// and the client drain pump. When full, Enqueue blocks until a consumer makes
// room; chunks are never dropped to absorb pressure. Every blocking call is
// cancellable through its context.
type Queue struct {
	ch     chan audio.Chunk
	closed chan struct{}
	once   sync.Once
}

// New builds a queue holding at most capacity chunks.
func New(capacity int) *Queue {
	if capacity < 1 {
		// A zero-capacity queue would deadlock a paused consumer.
		capacity = 1
	}
	return &Queue{
		ch:     make(chan audio.Chunk, capacity),
		closed: make(chan struct{}),
	}
}

// Enqueue appends a chunk, blocking while the queue is full. It returns the
// context error if cancelled mid-wait and ErrClosed once the queue is closed.
func (q *Queue) Enqueue(ctx context.Context, chunk audio.Chunk) error {
	select {
	case <-q.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	select {
	case q.ch <- chunk:
		return nil
	case <-q.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue removes the oldest chunk, blocking while the queue is empty. After
// Close it keeps returning buffered chunks until the queue is drained, then
// fails with ErrClosed.
func (q *Queue) Dequeue(ctx context.Context) (audio.Chunk, error) {
	select {
	case chunk := <-q.ch:
		return chunk, nil
	default:
	}

	select {
	case chunk := <-q.ch:
		return chunk, nil
	case <-q.closed:
		// Chunks may have landed between the fast path and the close signal.
		select {
		case chunk := <-q.ch:
			return chunk, nil
		default:
			return audio.Chunk{}, ErrClosed
		}
	case <-ctx.Done():
		return audio.Chunk{}, ctx.Err()
	}
}

// TryDequeue removes the oldest chunk without blocking.
func (q *Queue) TryDequeue() (audio.Chunk, bool) {
	select {
	case chunk := <-q.ch:
		return chunk, true
	default:
		return audio.Chunk{}, false
	}
}

// Close wakes all blocked producers and consumers. Safe to call repeatedly.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.closed) })
}

// Len reports the number of buffered chunks.
func (q *Queue) Len() int { return len(q.ch) }

// Cap reports the configured capacity.
func (q *Queue) Cap() int { return cap(q.ch) }
