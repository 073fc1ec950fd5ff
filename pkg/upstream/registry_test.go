package upstream

import (
	"context"
	"errors"
	"testing"
)

type stubSession struct{ events chan Event }

func (s *stubSession) Send(ctx context.Context, pcm []byte) error { return nil }
func (s *stubSession) Events() <-chan Event                       { return s.events }
func (s *stubSession) Close() error                               { return nil }

type stubAdapter struct {
	name   string
	opened int
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) Open(ctx context.Context, cfg Config) (Session, error) {
	a.opened++
	return &stubSession{events: make(chan Event)}, nil
}

func TestRegistryRoutesByProviderName(t *testing.T) {
	r := NewRegistry()
	gemini := &stubAdapter{name: "gemini"}
	openai := &stubAdapter{name: "openai"}
	r.Register(gemini)
	r.Register(openai)

	sess, err := r.Open(context.Background(), Config{Provider: "openai"})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if sess == nil {
		t.Fatal("expected a session")
	}
	if openai.opened != 1 || gemini.opened != 0 {
		t.Errorf("expected only the openai adapter opened, got gemini=%d openai=%d",
			gemini.opened, openai.opened)
	}
}

func TestRegistryRejectsUnknownProvider(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubAdapter{name: "gemini"})

	if _, err := r.Open(context.Background(), Config{Provider: "nope"}); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestRegistryReplacesAdapterWithSameName(t *testing.T) {
	r := NewRegistry()
	first := &stubAdapter{name: "gemini"}
	second := &stubAdapter{name: "gemini"}
	r.Register(first)
	r.Register(second)

	if _, err := r.Open(context.Background(), Config{Provider: "gemini"}); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if first.opened != 0 || second.opened != 1 {
		t.Errorf("expected the replacement adapter to serve, got first=%d second=%d",
			first.opened, second.opened)
	}
}

func TestRegistryListsProvidersSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubAdapter{name: "openai"})
	r.Register(&stubAdapter{name: "gemini"})

	names := r.Providers()
	if len(names) != 2 || names[0] != "gemini" || names[1] != "openai" {
		t.Errorf("expected [gemini openai], got %v", names)
	}
}
