package voicesession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/petrioteer/swatantra.ai/internal/config"
	"github.com/petrioteer/swatantra.ai/pkg/Logger"
	"github.com/petrioteer/swatantra.ai/pkg/audio"
	"github.com/petrioteer/swatantra.ai/pkg/audio/codec"
	"github.com/petrioteer/swatantra.ai/pkg/audio/pcmbuf"
	"github.com/petrioteer/swatantra.ai/pkg/audio/queue"
	"github.com/petrioteer/swatantra.ai/pkg/upstream"
)

// Relay moves audio between one client channel and one upstream session.
//
// Three pumps run concurrently once a client attaches: inbound carries client
// chunks upstream in arrival order, the upstream pump re-frames provider
// audio and buffers it on the bounded queue, and drain delivers queued chunks
// to the client in FIFO order. A single unparseable or undeliverable chunk
// never ends the session; repeated consecutive send failures do.
type Relay struct {
	sess  *Session
	up    upstream.Session
	queue *queue.Queue
	asm   *pcmbuf.Assembler

	outRate          int
	sendFailureLimit int
	drainGrace       time.Duration
	pingInterval     time.Duration
	maxDuration      time.Duration

	chMu sync.RWMutex
	ch   ClientChannel

	termCh   chan string
	onClosed func(*Session)
	logger   *Logger.Logger
}

func newRelay(
	sess *Session,
	up upstream.Session,
	upCfg config.UpstreamConfig,
	sessCfg config.SessionConfig,
	logger *Logger.Logger,
	onClosed func(*Session),
) *Relay {
	outRate := upCfg.OutSampleRate
	if outRate <= 0 {
		outRate = 24000
	}
	frameMs := sessCfg.OutFrameMs
	if frameMs <= 0 {
		frameMs = 200
	}
	limit := sessCfg.SendFailureLimit
	if limit < 1 {
		limit = 3
	}

	return &Relay{
		sess:             sess,
		up:               up,
		queue:            sess.queue,
		asm:              pcmbuf.New(outRate, 1, frameMs),
		outRate:          outRate,
		sendFailureLimit: limit,
		drainGrace:       sessCfg.DrainGrace(),
		pingInterval:     sessCfg.PingInterval(),
		maxDuration:      sessCfg.MaxSessionDuration(),
		termCh:           make(chan string, 1),
		onClosed:         onClosed,
		logger:           logger.Named("relay"),
	}
}

// Terminate asks the relay to wind the session down. The first reason wins;
// later calls are no-ops.
func (r *Relay) Terminate(reason string) {
	select {
	case r.termCh <- reason:
	default:
	}
}

// Run drives the session until it closes. It blocks, so the service starts it
// on its own goroutine.
func (r *Relay) Run(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var pumps sync.WaitGroup
	pumps.Add(1)
	go func() {
		defer pumps.Done()
		r.pumpUpstream(runCtx)
	}()

	var expiry <-chan time.Time
	if r.maxDuration > 0 {
		t := time.NewTimer(r.maxDuration)
		defer t.Stop()
		expiry = t.C
	}

	var reason string
supervision:
	for {
		select {
		case <-ctx.Done():
			reason = "server shutting down"
			break supervision

		case ch := <-r.sess.attachCh:
			r.setClient(ch)
			pumps.Add(3)
			go func() { defer pumps.Done(); r.pumpInbound(runCtx, ch) }()
			go func() { defer pumps.Done(); r.pumpDrain(runCtx, ch) }()
			go func() { defer pumps.Done(); r.keepalive(runCtx, ch) }()
			r.logger.Infof("client channel attached for %s", r.sess.ClientID)

		case <-expiry:
			reason = "session duration limit reached"
			break supervision

		case reason = <-r.termCh:
			break supervision
		}
	}

	r.shutdown(cancel, &pumps, reason)
}

func (r *Relay) shutdown(cancel context.CancelFunc, pumps *sync.WaitGroup, reason string) {
	if err := r.sess.transition(EventTerminate); err == nil {
		r.logger.Infof("session %s terminating: %s", r.sess.ID, reason)
	}

	cancel()
	if err := r.up.Close(); err != nil {
		r.logger.Debugf("closing upstream: %v", err)
	}
	r.queue.Close()
	pumps.Wait()

	if ch := r.client(); ch != nil {
		r.drainRemaining(ch)
		if err := ch.Close(); err != nil {
			r.logger.Debugf("closing client channel: %v", err)
		}
	}

	// A channel that won the attach race after supervision ended still needs
	// closing.
	select {
	case stray := <-r.sess.attachCh:
		stray.Close()
	default:
	}

	_ = r.sess.transition(EventClose)
	close(r.sess.closed)
	if r.onClosed != nil {
		r.onClosed(r.sess)
	}
	r.logger.Infof("session %s closed for client %s: %s", r.sess.ID, r.sess.ClientID, reason)
}

// pumpUpstream consumes provider events, re-frames audio and buffers it on
// the bounded queue. When the queue is full this pump blocks, which is the
// backpressure the rest of the stream leans on.
func (r *Relay) pumpUpstream(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-r.up.Events():
			if !ok {
				r.Terminate("upstream stream ended")
				return
			}
			r.handleUpstreamEvent(ctx, ev)
		}
	}
}

func (r *Relay) handleUpstreamEvent(ctx context.Context, ev upstream.Event) {
	switch ev.Kind {
	case upstream.EventAudio:
		frames, err := r.asm.Push(ev.Data)
		if err != nil {
			r.logger.Errorf("re-framing upstream audio: %v", err)
		}
		for _, frame := range frames {
			r.enqueueFrame(ctx, frame)
		}

	case upstream.EventControl:
		// Turn boundaries release whatever partial frame is buffered.
		r.flushAssembler(ctx)
		r.sendControl(ev.Note)

	case upstream.EventError:
		if ev.Terminal {
			r.logger.Errorf("terminal upstream error: %v", ev.Err)
			r.Terminate("upstream failed")
			return
		}
		r.logger.Warnf("upstream error: %v", ev.Err)
	}
}

func (r *Relay) enqueueFrame(ctx context.Context, frame []byte) {
	samples, err := codec.DecodePCM16(frame)
	if err != nil {
		r.sess.dropped.Add(1)
		r.logger.Warnf("dropping undecodable upstream frame: %v", err)
		return
	}
	data, err := codec.EncodeWAV(samples, r.outRate)
	if err != nil {
		r.sess.dropped.Add(1)
		r.logger.Warnf("dropping frame, wav encode failed: %v", err)
		return
	}

	chunk := audio.Chunk{
		Seq:       r.sess.nextOutboundSeq(),
		Format:    audio.FormatWAV24k,
		Data:      data,
		Timestamp: time.Now(),
	}
	if err := r.queue.Enqueue(ctx, chunk); err != nil {
		return
	}
	r.sess.queued.Add(1)
}

func (r *Relay) flushAssembler(ctx context.Context) {
	rest, err := r.asm.Flush()
	if err != nil {
		r.logger.Warnf("flushing frame assembler: %v", err)
		return
	}
	if len(rest) > 0 {
		r.enqueueFrame(ctx, rest)
	}
}

// pumpInbound carries client chunks upstream in arrival order. A chunk that
// fails validation is dropped and reported; the stream keeps moving.
func (r *Relay) pumpInbound(ctx context.Context, ch ClientChannel) {
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return

		case <-ch.Done():
			r.logger.Infof("client %s disconnected", r.sess.ClientID)
			r.Terminate("client disconnected")
			return

		case chunk, ok := <-ch.Inbound():
			if !ok {
				r.Terminate("client channel closed")
				return
			}
			r.sess.received.Add(1)

			if _, err := codec.DecodeInbound(chunk.Data, chunk.Format); err != nil {
				r.sess.dropped.Add(1)
				r.logger.Warnf("dropping malformed chunk %d from client %s: %v",
					chunk.Seq, r.sess.ClientID, err)
				r.sendChunkError(ch, chunk.Seq, err)
				continue
			}

			if err := r.up.Send(ctx, chunk.Data); err != nil {
				failures++
				r.logger.Warnf("upstream send failed (%d consecutive): %v", failures, err)
				r.sendError(ch, ErrCodeUpstreamSendFailed,
					fmt.Sprintf("chunk %d not delivered", chunk.Seq))
				if errors.Is(err, upstream.ErrSessionClosed) || failures >= r.sendFailureLimit {
					r.Terminate("upstream send failures")
					return
				}
				continue
			}
			failures = 0
			r.sess.forwarded.Add(1)
		}
	}
}

// pumpDrain delivers queued chunks to the client in FIFO order.
func (r *Relay) pumpDrain(ctx context.Context, ch ClientChannel) {
	failures := 0
	for {
		chunk, err := r.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		if err := ch.SendAudio(chunk); err != nil {
			failures++
			r.logger.Warnf("client send failed (%d consecutive): %v", failures, err)
			if failures >= r.sendFailureLimit {
				r.Terminate("client send failures")
				return
			}
			continue
		}
		failures = 0
		r.sess.delivered.Add(1)
		r.sess.touch()
	}
}

func (r *Relay) keepalive(ctx context.Context, ch ClientChannel) {
	interval := r.pingInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ch.SendPing(); err != nil {
				r.logger.Debugf("ping not delivered: %v", err)
			}
		}
	}
}

// drainRemaining pushes still-queued audio to the client after the pumps have
// stopped, up to the grace deadline. Termination never waits forever on a
// stuck client.
func (r *Relay) drainRemaining(ch ClientChannel) {
	if r.drainGrace <= 0 {
		return
	}
	deadline := time.Now().Add(r.drainGrace)
	drained := 0

	for time.Now().Before(deadline) {
		chunk, ok := r.queue.TryDequeue()
		if !ok {
			break
		}
		if err := ch.SendAudio(chunk); err != nil {
			r.logger.Warnf("abandoning drain after %d chunks: %v", drained, err)
			return
		}
		drained++
		r.sess.delivered.Add(1)
	}

	if left := r.queue.Len(); left > 0 {
		r.logger.Warnf("drain grace expired with %d chunks undelivered", left)
	} else if drained > 0 {
		r.logger.Debugf("drained %d chunks before close", drained)
	}
}

func (r *Relay) setClient(ch ClientChannel) {
	r.chMu.Lock()
	r.ch = ch
	r.chMu.Unlock()
}

func (r *Relay) client() ClientChannel {
	r.chMu.RLock()
	defer r.chMu.RUnlock()
	return r.ch
}

func (r *Relay) sendControl(note string) {
	ch := r.client()
	if ch == nil {
		return
	}
	if err := ch.SendControl(note); err != nil {
		r.logger.Debugf("control %q not delivered: %v", note, err)
	}
}

func (r *Relay) sendChunkError(ch ClientChannel, seq uint64, err error) {
	code := ErrCodeMalformedAudio
	switch {
	case errors.Is(err, codec.ErrUnsupportedFormat):
		code = ErrCodeUnsupportedFormat
	case errors.Is(err, codec.ErrCorruptPayload):
		code = ErrCodeCorruptPayload
	}
	r.sendError(ch, code, fmt.Sprintf("chunk %d dropped: %v", seq, err))
}

func (r *Relay) sendError(ch ClientChannel, code, detail string) {
	if err := ch.SendError(code, detail); err != nil {
		r.logger.Debugf("error signal %q not delivered: %v", code, err)
	}
}
