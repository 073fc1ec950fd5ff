package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/petrioteer/swatantra.ai/pkg/audio"
)

func chunkWithSeq(seq uint64) audio.Chunk {
	return audio.Chunk{Seq: seq, Format: audio.FormatWAV24k, Data: []byte{1, 2}}
}

func TestOrderPreservedUnderBackpressure(t *testing.T) {
	q := New(2)
	ctx := context.Background()

	var produced atomic.Int64
	go func() {
		for seq := uint64(1); seq <= 6; seq++ {
			if err := q.Enqueue(ctx, chunkWithSeq(seq)); err != nil {
				t.Errorf("enqueue %d failed: %v", seq, err)
				return
			}
			produced.Add(1)
		}
	}()

	// With capacity 2 the producer must stall after the second chunk.
	time.Sleep(100 * time.Millisecond)
	if n := produced.Load(); n != 2 {
		t.Errorf("expected producer blocked after 2 chunks, got %d", n)
	}

	for want := uint64(1); want <= 6; want++ {
		chunk, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("dequeue failed: %v", err)
		}
		if chunk.Seq != want {
			t.Fatalf("expected seq %d, got %d", want, chunk.Seq)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEnqueueBlocksWhenFull(t *testing.T) {
	q := New(1)
	ctx := context.Background()

	if err := q.Enqueue(ctx, chunkWithSeq(1)); err != nil {
		t.Fatalf("first enqueue failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- q.Enqueue(ctx, chunkWithSeq(2)) }()

	select {
	case err := <-done:
		t.Fatalf("enqueue on a full queue returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	if _, err := q.Dequeue(ctx); err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("blocked enqueue failed after room was made: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("enqueue still blocked after a slot opened")
	}
}

func TestEnqueueCancelledWhileBlocked(t *testing.T) {
	q := New(1)
	if err := q.Enqueue(context.Background(), chunkWithSeq(1)); err != nil {
		t.Fatalf("first enqueue failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Enqueue(ctx, chunkWithSeq(2)) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled enqueue never returned")
	}
}

func TestDequeueCancelledWhileEmpty(t *testing.T) {
	q := New(4)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(ctx)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled dequeue never returned")
	}
}

func TestDequeueDrainsBufferedChunksAfterClose(t *testing.T) {
	q := New(4)
	ctx := context.Background()

	for seq := uint64(1); seq <= 3; seq++ {
		if err := q.Enqueue(ctx, chunkWithSeq(seq)); err != nil {
			t.Fatalf("enqueue %d failed: %v", seq, err)
		}
	}
	q.Close()

	for want := uint64(1); want <= 3; want++ {
		chunk, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("dequeue after close failed: %v", err)
		}
		if chunk.Seq != want {
			t.Fatalf("expected seq %d, got %d", want, chunk.Seq)
		}
	}

	if _, err := q.Dequeue(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on drained queue, got %v", err)
	}
}

func TestEnqueueAfterCloseFails(t *testing.T) {
	q := New(4)
	q.Close()
	if err := q.Enqueue(context.Background(), chunkWithSeq(1)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestCloseWakesBlockedEnqueue(t *testing.T) {
	q := New(1)
	if err := q.Enqueue(context.Background(), chunkWithSeq(1)); err != nil {
		t.Fatalf("first enqueue failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- q.Enqueue(context.Background(), chunkWithSeq(2)) }()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked enqueue never woke after close")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	q := New(1)
	q.Close()
	q.Close()
}

func TestTryDequeue(t *testing.T) {
	q := New(2)
	if _, ok := q.TryDequeue(); ok {
		t.Fatal("TryDequeue on empty queue reported a chunk")
	}
	if err := q.Enqueue(context.Background(), chunkWithSeq(7)); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	chunk, ok := q.TryDequeue()
	if !ok || chunk.Seq != 7 {
		t.Fatalf("expected chunk seq 7, got ok=%v seq=%d", ok, chunk.Seq)
	}
}
