package voicesession

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestServiceStartCreatesActiveSession(t *testing.T) {
	adapter := &fakeAdapter{}
	svc := newTestService(t, testSettings(), adapter)
	defer svc.Close()

	sess, err := svc.Start(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if got := sess.State(); got != StateActive {
		t.Errorf("expected active session, got %s", got)
	}

	status, err := svc.Status("client-1")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.ClientID != "client-1" || status.State != StateActive {
		t.Errorf("unexpected status: %+v", status)
	}
	if status.QueueCapacity != 8 {
		t.Errorf("expected queue capacity 8, got %d", status.QueueCapacity)
	}
}

func TestServiceRejectsSecondSessionForSameClient(t *testing.T) {
	adapter := &fakeAdapter{}
	svc := newTestService(t, testSettings(), adapter)
	defer svc.Close()

	if _, err := svc.Start(context.Background(), "client-1"); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	if _, err := svc.Start(context.Background(), "client-1"); !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}
	// A different client is unaffected.
	if _, err := svc.Start(context.Background(), "client-2"); err != nil {
		t.Fatalf("start for second client failed: %v", err)
	}
}

func TestServiceStartRetriesUpstreamDial(t *testing.T) {
	adapter := &fakeAdapter{failOpens: 2}
	svc := newTestService(t, testSettings(), adapter) // 3 attempts configured
	defer svc.Close()

	if _, err := svc.Start(context.Background(), "client-1"); err != nil {
		t.Fatalf("start should succeed on the third attempt: %v", err)
	}
	if got := adapter.openCount(); got != 3 {
		t.Errorf("expected 3 dial attempts, got %d", got)
	}
}

func TestServiceStartFailsWhenUpstreamUnavailable(t *testing.T) {
	adapter := &fakeAdapter{failOpens: 10}
	svc := newTestService(t, testSettings(), adapter)
	defer svc.Close()

	_, err := svc.Start(context.Background(), "client-1")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}

	// The failed session must not squat on the client slot.
	if _, err := svc.Status("client-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after failed start, got %v", err)
	}

	adapter.mu.Lock()
	adapter.failOpens = 0
	adapter.mu.Unlock()
	if _, err := svc.Start(context.Background(), "client-1"); err != nil {
		t.Errorf("start after recovery failed: %v", err)
	}
}

func TestServiceTerminateUnknownClient(t *testing.T) {
	svc := newTestService(t, testSettings(), &fakeAdapter{})
	defer svc.Close()

	if err := svc.Terminate(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceTerminateIsIdempotentWhileClosing(t *testing.T) {
	gate := make(chan struct{})
	adapter := &fakeAdapter{closeGate: gate}
	svc := newTestService(t, testSettings(), adapter)
	defer svc.Close()

	sess, err := svc.Start(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if err := svc.Terminate(context.Background(), "client-1"); err != nil {
		t.Fatalf("first terminate failed: %v", err)
	}

	// The upstream close is gated, so the session is stuck terminating.
	waitFor(t, 2*time.Second, "terminating state", func() bool {
		return sess.State() == StateTerminating
	})

	if err := svc.Terminate(context.Background(), "client-1"); err != nil {
		t.Fatalf("terminate while already terminating must succeed, got %v", err)
	}

	close(gate)
	select {
	case <-sess.Closed():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not close after gate opened")
	}

	// Fully gone now, so a further terminate has nothing to address.
	waitFor(t, 2*time.Second, "table entry removed", func() bool {
		_, err := svc.Status("client-1")
		return errors.Is(err, ErrNotFound)
	})
	if err := svc.Terminate(context.Background(), "client-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound once the session is gone, got %v", err)
	}
}

func TestServiceTerminateDuringConnectAbortsDial(t *testing.T) {
	openGate := make(chan struct{})
	adapter := &fakeAdapter{openGate: openGate}
	svc := newTestService(t, testSettings(), adapter)
	defer svc.Close()
	defer close(openGate)

	startErr := make(chan error, 1)
	go func() {
		_, err := svc.Start(context.Background(), "client-1")
		startErr <- err
	}()

	waitFor(t, 2*time.Second, "connecting state", func() bool {
		status, err := svc.Status("client-1")
		return err == nil && status.State == StateConnectingUpstream
	})

	if err := svc.Terminate(context.Background(), "client-1"); err != nil {
		t.Fatalf("terminate during connect failed: %v", err)
	}

	select {
	case err := <-startErr:
		if !errors.Is(err, ErrUpstreamUnavailable) {
			t.Fatalf("expected aborted start to report ErrUpstreamUnavailable, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("start did not return after terminate")
	}

	waitFor(t, 2*time.Second, "table entry removed", func() bool {
		_, err := svc.Status("client-1")
		return errors.Is(err, ErrNotFound)
	})
}

func TestServiceAttachHandsChannelToRelay(t *testing.T) {
	adapter := &fakeAdapter{}
	svc := newTestService(t, testSettings(), adapter)
	defer svc.Close()

	if _, err := svc.Start(context.Background(), "client-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	ch := newFakeChannel()
	if _, err := svc.Attach("client-1", ch); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	up := adapter.lastSession()
	up.emitAudio(frame(1, 20))
	waitFor(t, 2*time.Second, "audio reaches the channel", func() bool {
		return len(ch.audioChunks()) == 1
	})
}

func TestServiceAttachUnknownClient(t *testing.T) {
	svc := newTestService(t, testSettings(), &fakeAdapter{})
	defer svc.Close()

	if _, err := svc.Attach("ghost", newFakeChannel()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceRejectsSecondAttach(t *testing.T) {
	adapter := &fakeAdapter{}
	svc := newTestService(t, testSettings(), adapter)
	defer svc.Close()

	if _, err := svc.Start(context.Background(), "client-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := svc.Attach("client-1", newFakeChannel()); err != nil {
		t.Fatalf("first attach failed: %v", err)
	}
	if _, err := svc.Attach("client-1", newFakeChannel()); !errors.Is(err, ErrChannelAttached) {
		t.Fatalf("expected ErrChannelAttached, got %v", err)
	}
}

func TestServiceAllowsRestartAfterTermination(t *testing.T) {
	adapter := &fakeAdapter{}
	svc := newTestService(t, testSettings(), adapter)
	defer svc.Close()

	sess, err := svc.Start(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := svc.Terminate(context.Background(), "client-1"); err != nil {
		t.Fatalf("terminate failed: %v", err)
	}

	select {
	case <-sess.Closed():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not close")
	}
	waitFor(t, 2*time.Second, "table entry removed", func() bool {
		_, err := svc.Status("client-1")
		return errors.Is(err, ErrNotFound)
	})

	if _, err := svc.Start(context.Background(), "client-1"); err != nil {
		t.Fatalf("restart after termination failed: %v", err)
	}
}

func TestServiceStatsReportsSessions(t *testing.T) {
	adapter := &fakeAdapter{}
	svc := newTestService(t, testSettings(), adapter)
	defer svc.Close()

	if _, err := svc.Start(context.Background(), "client-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := svc.Start(context.Background(), "client-2"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	stats := svc.Stats()
	if stats.ActiveSessions != 2 {
		t.Errorf("expected 2 active sessions, got %d", stats.ActiveSessions)
	}
	if len(stats.Sessions) != 2 {
		t.Errorf("expected 2 session entries, got %d", len(stats.Sessions))
	}
	if len(stats.Providers) != 1 || stats.Providers[0] != "fake" {
		t.Errorf("expected provider list [fake], got %v", stats.Providers)
	}
}

func TestServiceCloseTerminatesAllSessions(t *testing.T) {
	adapter := &fakeAdapter{}
	svc := newTestService(t, testSettings(), adapter)

	first, err := svc.Start(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	second, err := svc.Start(context.Background(), "client-2")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	svc.Close()

	select {
	case <-first.Closed():
	default:
		t.Error("first session still open after service close")
	}
	select {
	case <-second.Closed():
	default:
		t.Error("second session still open after service close")
	}
}
