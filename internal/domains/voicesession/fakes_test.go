package voicesession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/petrioteer/swatantra.ai/internal/config"
	"github.com/petrioteer/swatantra.ai/pkg/Logger"
	"github.com/petrioteer/swatantra.ai/pkg/audio"
	"github.com/petrioteer/swatantra.ai/pkg/upstream"
)

func testSettings() config.Settings {
	return config.Settings{
		Upstream: config.UpstreamConfig{
			Provider:          "fake",
			Model:             "fake-live-1",
			InSampleRate:      16000,
			OutSampleRate:     1000, // 20-byte frames with 10ms framing
			MaxConnectRetries: 3,
			RetryDelaySecs:    0,
		},
		Session: config.SessionConfig{
			QueueCapacity:    8,
			DrainGraceMs:     500,
			SendFailureLimit: 3,
			OutFrameMs:       10,
			PingSecs:         3600,
		},
	}
}

func waitFor(t *testing.T, d time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// fakeUpstream stands in for a provider session.
type fakeUpstream struct {
	mu       sync.Mutex
	sent     [][]byte
	failNext int
	sendErr  error

	events     chan upstream.Event
	closeGate  chan struct{}
	closeOnce  sync.Once
	closeCalls atomic.Int32
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{events: make(chan upstream.Event, 64)}
}

func (f *fakeUpstream) Send(ctx context.Context, pcm []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext > 0 {
		f.failNext--
		return errors.New("send refused")
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	cp := make([]byte, len(pcm))
	copy(cp, pcm)
	f.sent = append(f.sent, cp)
	return nil
}

func (f *fakeUpstream) Events() <-chan upstream.Event { return f.events }

func (f *fakeUpstream) Close() error {
	f.closeCalls.Add(1)
	if f.closeGate != nil {
		<-f.closeGate
	}
	f.closeOnce.Do(func() { close(f.events) })
	return nil
}

func (f *fakeUpstream) sentChunks() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeUpstream) emitAudio(data []byte) {
	f.events <- upstream.Event{Kind: upstream.EventAudio, Data: data}
}

func (f *fakeUpstream) emitControl(note string) {
	f.events <- upstream.Event{Kind: upstream.EventControl, Note: note}
}

func (f *fakeUpstream) emitError(err error, terminal bool) {
	f.events <- upstream.Event{Kind: upstream.EventError, Err: err, Terminal: terminal}
}

// fakeChannel stands in for a connected websocket client.
type fakeChannel struct {
	mu        sync.Mutex
	audio     []audio.Chunk
	controls  []string
	errCodes  []string
	pings     int
	audioGate chan struct{}

	inbound   chan audio.Chunk
	done      chan struct{}
	closeOnce sync.Once
	closed    bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		inbound: make(chan audio.Chunk, 64),
		done:    make(chan struct{}),
	}
}

func (f *fakeChannel) SendAudio(c audio.Chunk) error {
	f.mu.Lock()
	gate := f.audioGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio = append(f.audio, c)
	return nil
}

func (f *fakeChannel) SendControl(event string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controls = append(f.controls, event)
	return nil
}

func (f *fakeChannel) SendError(code, detail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errCodes = append(f.errCodes, code)
	return nil
}

func (f *fakeChannel) SendPing() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return nil
}

func (f *fakeChannel) Inbound() <-chan audio.Chunk { return f.inbound }
func (f *fakeChannel) Done() <-chan struct{}       { return f.done }

func (f *fakeChannel) Close() error {
	f.closeOnce.Do(func() {
		close(f.done)
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
	})
	return nil
}

func (f *fakeChannel) disconnect() {
	f.closeOnce.Do(func() { close(f.done) })
}

func (f *fakeChannel) pushChunk(seq uint64, format audio.Format, data []byte) {
	f.inbound <- audio.Chunk{Seq: seq, Format: format, Data: data, Timestamp: time.Now()}
}

func (f *fakeChannel) audioChunks() []audio.Chunk {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]audio.Chunk, len(f.audio))
	copy(out, f.audio)
	return out
}

func (f *fakeChannel) controlEvents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.controls))
	copy(out, f.controls)
	return out
}

func (f *fakeChannel) errorCodes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.errCodes))
	copy(out, f.errCodes)
	return out
}

func (f *fakeChannel) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

// fakeAdapter hands out fakeUpstream sessions through the registry.
type fakeAdapter struct {
	mu        sync.Mutex
	sessions  []*fakeUpstream
	failOpens int
	openGate  chan struct{}
	closeGate chan struct{}
	opens     int
}

func (a *fakeAdapter) Name() string { return "fake" }

func (a *fakeAdapter) Open(ctx context.Context, cfg upstream.Config) (upstream.Session, error) {
	a.mu.Lock()
	a.opens++
	if a.failOpens > 0 {
		a.failOpens--
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: dial refused", upstream.ErrUnavailable)
	}
	gate := a.openGate
	closeGate := a.closeGate
	a.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", upstream.ErrUnavailable, ctx.Err())
		}
	}

	f := newFakeUpstream()
	f.closeGate = closeGate
	a.mu.Lock()
	a.sessions = append(a.sessions, f)
	a.mu.Unlock()
	return f, nil
}

func (a *fakeAdapter) openCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opens
}

func (a *fakeAdapter) lastSession() *fakeUpstream {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.sessions) == 0 {
		return nil
	}
	return a.sessions[len(a.sessions)-1]
}

func newTestService(t *testing.T, cfg config.Settings, adapter *fakeAdapter) Service {
	t.Helper()
	registry := upstream.NewRegistry()
	registry.Register(adapter)
	return New(cfg, registry, Logger.NewNop())
}

// startTestRelay wires a relay to a fake upstream without going through the
// service.
func startTestRelay(t *testing.T, cfg config.Settings, up *fakeUpstream) (*Session, *Relay) {
	t.Helper()
	sess := newSession("client-1", cfg.Session.QueueCapacity)
	if err := sess.transition(EventConnect); err != nil {
		t.Fatalf("connect transition failed: %v", err)
	}
	if err := sess.transition(EventActivate); err != nil {
		t.Fatalf("activate transition failed: %v", err)
	}

	r := newRelay(sess, up, cfg.Upstream, cfg.Session, Logger.NewNop(), nil)
	sess.setRelay(r)
	go r.Run(context.Background())
	return sess, r
}
