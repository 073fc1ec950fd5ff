package voicesession

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/petrioteer/swatantra.ai/pkg/audio/queue"
)

var (
	// ErrChannelAttached rejects a second client transport on one session.
	ErrChannelAttached = errors.New("client channel already attached")
	// ErrSessionClosed rejects operations on a session past its useful life.
	ErrSessionClosed = errors.New("voice session closed")
)

// Session is one client's live conversation with the upstream voice service.
// The relay owns its pumps; the service owns its table entry.
type Session struct {
	ID        uuid.UUID
	ClientID  string
	CreatedAt time.Time

	machine *fsm.FSM
	queue   *queue.Queue

	mu          sync.Mutex
	relay       *Relay
	dialCancel  context.CancelFunc
	pendingTerm string
	attached    bool

	attachCh chan ClientChannel
	closed   chan struct{}

	inSeq        atomic.Uint64
	outSeq       atomic.Uint64
	lastActivity atomic.Int64 // unix nanoseconds

	received  atomic.Uint64 // chunks accepted from the client
	forwarded atomic.Uint64 // chunks delivered upstream
	queued    atomic.Uint64 // chunks buffered for the client
	delivered atomic.Uint64 // chunks written to the client
	dropped   atomic.Uint64 // chunks discarded as malformed or unencodable
}

func newSession(clientID string, queueCapacity int) *Session {
	s := &Session{
		ID:        uuid.New(),
		ClientID:  clientID,
		CreatedAt: time.Now(),
		machine:   newStateMachine(),
		queue:     queue.New(queueCapacity),
		attachCh:  make(chan ClientChannel, 1),
		closed:    make(chan struct{}),
	}
	s.lastActivity.Store(s.CreatedAt.UnixNano())
	return s
}

// State reports the current lifecycle phase.
func (s *Session) State() SessionState {
	return SessionState(s.machine.Current())
}

func (s *Session) transition(event SessionEvent) error {
	return s.machine.Event(context.Background(), string(event))
}

// NextInboundSeq stamps a client chunk at ingestion. Strictly monotonic.
func (s *Session) NextInboundSeq() uint64 {
	s.touch()
	return s.inSeq.Add(1)
}

func (s *Session) nextOutboundSeq() uint64 {
	s.touch()
	return s.outSeq.Add(1)
}

func (s *Session) touch() { s.lastActivity.Store(time.Now().UnixNano()) }

// LastActivity reports when audio last moved through the session.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// AttachChannel hands the client transport to the relay. Exactly one channel
// may attach over a session's life.
func (s *Session) AttachChannel(ch ClientChannel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State() {
	case StateTerminating, StateClosed:
		return ErrSessionClosed
	}
	if s.attached {
		return ErrChannelAttached
	}

	select {
	case s.attachCh <- ch:
		s.attached = true
		return nil
	default:
		return ErrChannelAttached
	}
}

// Closed unblocks once the relay has fully shut the session down.
func (s *Session) Closed() <-chan struct{} { return s.closed }

func (s *Session) setDialCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	s.dialCancel = cancel
	s.mu.Unlock()
}

func (s *Session) setRelay(r *Relay) {
	s.mu.Lock()
	s.relay = r
	pending := s.pendingTerm
	s.mu.Unlock()

	if pending != "" {
		r.Terminate(pending)
	}
}

// requestTerminate winds the session down from any phase. Before the relay
// exists it aborts the in-flight upstream dial instead.
func (s *Session) requestTerminate(reason string) {
	s.mu.Lock()
	relay := s.relay
	cancel := s.dialCancel
	if relay == nil {
		s.pendingTerm = reason
	}
	s.mu.Unlock()

	if relay != nil {
		relay.Terminate(reason)
		return
	}
	if cancel != nil {
		cancel()
	}
}

// Status captures a point-in-time view of one session.
type Status struct {
	SessionID     string       `json:"session_id"`
	ClientID      string       `json:"client_id"`
	State         SessionState `json:"state"`
	CreatedAt     time.Time    `json:"created_at"`
	LastActivity  time.Time    `json:"last_activity"`
	QueueDepth    int          `json:"queue_depth"`
	QueueCapacity int          `json:"queue_capacity"`
	ChunksIn      uint64       `json:"chunks_in"`
	ChunksOut     uint64       `json:"chunks_out"`
	ChunksDropped uint64       `json:"chunks_dropped"`
}

func (s *Session) Status() Status {
	return Status{
		SessionID:     s.ID.String(),
		ClientID:      s.ClientID,
		State:         s.State(),
		CreatedAt:     s.CreatedAt,
		LastActivity:  s.LastActivity(),
		QueueDepth:    s.queue.Len(),
		QueueCapacity: s.queue.Cap(),
		ChunksIn:      s.received.Load(),
		ChunksOut:     s.delivered.Load(),
		ChunksDropped: s.dropped.Load(),
	}
}
