package voicesession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/petrioteer/swatantra.ai/internal/config"
	"github.com/petrioteer/swatantra.ai/internal/constants/prompts"
	"github.com/petrioteer/swatantra.ai/pkg/Logger"
	"github.com/petrioteer/swatantra.ai/pkg/upstream"
)

var (
	// ErrAlreadyActive rejects a second session for a client that has one.
	ErrAlreadyActive = errors.New("voice session already active")
	// ErrNotFound means no session exists for the client.
	ErrNotFound = errors.New("voice session not found")
	// ErrUpstreamUnavailable means the provider could not be reached.
	ErrUpstreamUnavailable = errors.New("upstream voice service unavailable")
)

const sweepInterval = 5 * time.Minute

// Service manages the lifetime of voice sessions, one per client.
type Service interface {
	// Start creates a session for the client and dials the upstream provider.
	// At most one non-closed session may exist per client.
	Start(ctx context.Context, clientID string) (*Session, error)
	// Terminate winds the client's session down. Draining happens in the
	// background; the call returns once termination is underway. Terminating
	// a session that is already closing is a no-op success.
	Terminate(ctx context.Context, clientID string) error
	// Attach hands a connected client transport to the running session.
	Attach(clientID string, ch ClientChannel) (*Session, error)
	// Status reports one client's session.
	Status(clientID string) (Status, error)
	// Stats reports all live sessions.
	Stats() ServiceStats
	// Close terminates every session and stops background work.
	Close()
}

// ServiceStats is the aggregate view served by the status endpoint.
type ServiceStats struct {
	ActiveSessions          int      `json:"active_sessions"`
	Sessions                []Status `json:"sessions"`
	Providers               []string `json:"providers"`
	AllowLocalAudioHardware bool     `json:"allow_local_audio_hardware"`
}

type sessionService struct {
	cfg      config.Settings
	registry *upstream.Registry
	logger   *Logger.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	rootCtx  context.Context
	rootStop context.CancelFunc

	relays      sync.WaitGroup
	stopCleanup chan struct{}
}

func New(cfg config.Settings, registry *upstream.Registry, logger *Logger.Logger) Service {
	rootCtx, rootStop := context.WithCancel(context.Background())
	s := &sessionService{
		cfg:         cfg,
		registry:    registry,
		logger:      logger.Named("voicesession"),
		sessions:    make(map[string]*Session),
		rootCtx:     rootCtx,
		rootStop:    rootStop,
		stopCleanup: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Start implements Service.
func (m *sessionService) Start(ctx context.Context, clientID string) (*Session, error) {
	m.mu.Lock()
	if existing, ok := m.sessions[clientID]; ok && existing.State() != StateClosed {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: client %s", ErrAlreadyActive, clientID)
	}
	// Reserve the slot before dialing so concurrent starts collide here.
	sess := newSession(clientID, m.cfg.Session.QueueCapacity)
	m.sessions[clientID] = sess
	m.mu.Unlock()

	_ = sess.transition(EventConnect)

	dialCtx, dialCancel := context.WithCancel(ctx)
	sess.setDialCancel(dialCancel)
	up, err := m.dialUpstream(dialCtx)
	sess.setDialCancel(nil)
	dialCancel()

	if err != nil {
		_ = sess.transition(EventClose)
		close(sess.closed)
		m.remove(clientID, sess)
		m.logger.Errorf("session for client %s failed to connect upstream: %v", clientID, err)
		return nil, err
	}

	_ = sess.transition(EventActivate)

	relay := newRelay(sess, up, m.cfg.Upstream, m.cfg.Session, m.logger, func(s *Session) {
		m.remove(s.ClientID, s)
	})
	sess.setRelay(relay)

	m.relays.Add(1)
	go func() {
		defer m.relays.Done()
		relay.Run(m.rootCtx)
	}()

	m.logger.Infof("voice session %s started for client %s via %s",
		sess.ID, clientID, m.cfg.Upstream.Provider)
	return sess, nil
}

// Terminate implements Service.
func (m *sessionService) Terminate(ctx context.Context, clientID string) error {
	m.mu.RLock()
	sess, ok := m.sessions[clientID]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: client %s", ErrNotFound, clientID)
	}

	sess.requestTerminate("client requested stop")
	return nil
}

// Attach implements Service.
func (m *sessionService) Attach(clientID string, ch ClientChannel) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[clientID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: client %s", ErrNotFound, clientID)
	}

	if err := sess.AttachChannel(ch); err != nil {
		return nil, err
	}
	return sess, nil
}

// Status implements Service.
func (m *sessionService) Status(clientID string) (Status, error) {
	m.mu.RLock()
	sess, ok := m.sessions[clientID]
	m.mu.RUnlock()
	if !ok {
		return Status{}, fmt.Errorf("%w: client %s", ErrNotFound, clientID)
	}
	return sess.Status(), nil
}

// Stats implements Service.
func (m *sessionService) Stats() ServiceStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := ServiceStats{
		Sessions:                make([]Status, 0, len(m.sessions)),
		Providers:               m.registry.Providers(),
		AllowLocalAudioHardware: m.cfg.Session.AllowLocalAudioHardware,
	}
	for _, sess := range m.sessions {
		st := sess.Status()
		stats.Sessions = append(stats.Sessions, st)
		if st.State != StateClosed {
			stats.ActiveSessions++
		}
	}
	return stats
}

// Close implements Service.
func (m *sessionService) Close() {
	close(m.stopCleanup)
	m.rootStop()
	m.relays.Wait()
	m.logger.Info("voice session service closed")
}

func (m *sessionService) dialUpstream(ctx context.Context) (upstream.Session, error) {
	persona := m.cfg.Upstream.Persona
	if persona == "" {
		persona = prompts.DEFAULT_PERSONA.GetCurrentPrompt().Content
	}

	cfg := upstream.Config{
		Provider:        m.cfg.Upstream.Provider,
		Model:           m.cfg.Upstream.Model,
		APIKey:          m.cfg.Upstream.APIKey,
		Voice:           m.cfg.Upstream.Voice,
		Persona:         persona,
		InSampleRate:    m.cfg.Upstream.InSampleRate,
		OutSampleRate:   m.cfg.Upstream.OutSampleRate,
		ConnectTimeout:  m.cfg.Upstream.ConnectTimeout(),
		Temperature:     m.cfg.Upstream.Temperature,
		TopP:            m.cfg.Upstream.TopP,
		TopK:            m.cfg.Upstream.TopK,
		MaxOutputTokens: m.cfg.Upstream.MaxOutputTokens,
	}

	retries := m.cfg.Upstream.MaxConnectRetries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		up, err := m.registry.Open(ctx, cfg)
		if err == nil {
			return up, nil
		}
		if errors.Is(err, upstream.ErrUnknownProvider) {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		lastErr = err
		m.logger.Warnf("upstream connect attempt %d/%d failed: %v", attempt, retries, err)

		if attempt < retries {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, ctx.Err())
			case <-time.After(m.cfg.Upstream.RetryDelay()):
			}
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, lastErr)
}

func (m *sessionService) remove(clientID string, sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.sessions[clientID]; ok && current == sess {
		delete(m.sessions, clientID)
	}
}

// cleanupLoop sweeps closed sessions that somehow outlived their removal
// callback and terminates sessions past the duration cap whose expiry timer
// never fired, keeping the table from accumulating dead entries.
func (m *sessionService) cleanupLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *sessionService) sweep() {
	maxAge := m.cfg.Session.MaxSessionDuration()

	m.mu.Lock()
	var expired []*Session
	for id, sess := range m.sessions {
		switch {
		case sess.State() == StateClosed:
			delete(m.sessions, id)
			m.logger.Debugf("swept closed session for client %s", id)
		case maxAge > 0 && time.Since(sess.CreatedAt) > maxAge:
			expired = append(expired, sess)
		}
	}
	m.mu.Unlock()

	// Terminate outside the lock; shutdown paths take it again.
	for _, sess := range expired {
		m.logger.Warnf("sweeping overdue session for client %s", sess.ClientID)
		sess.requestTerminate("session duration limit reached")
	}
}
