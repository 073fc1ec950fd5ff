package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/petrioteer/swatantra.ai/pkg/Logger"
	"github.com/petrioteer/swatantra.ai/pkg/upstream"
	"google.golang.org/genai"
)

const ProviderName = "gemini"

type adapter struct {
	logger *Logger.Logger
}

// New creates the Gemini live-audio adapter.
func New(logger *Logger.Logger) upstream.Adapter {
	return &adapter{logger: logger}
}

func (a *adapter) Name() string { return ProviderName }

// Open dials a Gemini live session configured for audio responses.
func (a *adapter) Open(ctx context.Context, cfg upstream.Config) (upstream.Session, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating gemini client: %v", upstream.ErrUnavailable, err)
	}

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	live, err := client.Live.Connect(connectCtx, cfg.Model, liveConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("%w: connecting live session: %v", upstream.ErrUnavailable, err)
	}

	s := &session{
		live:   live,
		inRate: cfg.InSampleRate,
		events: make(chan upstream.Event, 32),
		done:   make(chan struct{}),
		logger: a.logger.Named("gemini"),
	}
	go s.receive()

	a.logger.Infof("gemini live session opened, model=%s voice=%s", cfg.Model, cfg.Voice)
	return s, nil
}

func liveConfig(cfg upstream.Config) *genai.LiveConnectConfig {
	lc := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
	}
	if cfg.Voice != "" {
		lc.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		}
	}
	if cfg.Persona != "" {
		lc.SystemInstruction = genai.NewContentFromText(cfg.Persona, genai.RoleUser)
	}
	if cfg.Temperature > 0 {
		lc.Temperature = genai.Ptr(cfg.Temperature)
	}
	if cfg.TopP > 0 {
		lc.TopP = genai.Ptr(cfg.TopP)
	}
	if cfg.TopK > 0 {
		lc.TopK = genai.Ptr(cfg.TopK)
	}
	if cfg.MaxOutputTokens > 0 {
		lc.MaxOutputTokens = cfg.MaxOutputTokens
	}
	return lc
}

type session struct {
	live      *genai.Session
	inRate    int
	events    chan upstream.Event
	done      chan struct{}
	closeOnce sync.Once
	logger    *Logger.Logger
}

// Send pushes one chunk of PCM16 input audio into the live stream.
func (s *session) Send(ctx context.Context, pcm []byte) error {
	select {
	case <-s.done:
		return upstream.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := s.live.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{
			Data:     pcm,
			MIMEType: fmt.Sprintf("audio/pcm;rate=%d", s.inRate),
		},
	})
	if err != nil {
		return fmt.Errorf("sending realtime audio: %v", err)
	}
	return nil
}

func (s *session) Events() <-chan upstream.Event { return s.events }

// Close tears the live stream down. Safe to call repeatedly.
func (s *session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.live.Close()
	})
	return err
}

func (s *session) receive() {
	defer close(s.events)
	for {
		msg, err := s.live.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			select {
			case <-s.done:
				// Close() tore the transport down under the reader.
			default:
				s.emit(upstream.Event{
					Kind:     upstream.EventError,
					Err:      fmt.Errorf("%w: %v", upstream.ErrSessionClosed, err),
					Terminal: true,
				})
			}
			return
		}
		s.handle(msg)
	}
}

func (s *session) handle(msg *genai.LiveServerMessage) {
	if msg == nil {
		return
	}
	if msg.GoAway != nil {
		s.logger.Warnf("gemini server going away, time left: %v", msg.GoAway.TimeLeft)
		s.emit(upstream.Event{
			Kind:     upstream.EventError,
			Err:      fmt.Errorf("%w: server requested shutdown", upstream.ErrSessionClosed),
			Terminal: true,
		})
		return
	}

	sc := msg.ServerContent
	if sc == nil {
		return
	}

	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				s.emit(upstream.Event{Kind: upstream.EventAudio, Data: part.InlineData.Data})
			}
		}
	}
	if sc.Interrupted {
		s.emit(upstream.Event{Kind: upstream.EventControl, Note: upstream.ControlInterrupted})
	}
	if sc.GenerationComplete {
		s.emit(upstream.Event{Kind: upstream.EventControl, Note: upstream.ControlGenerationComplete})
	}
	if sc.TurnComplete {
		s.emit(upstream.Event{Kind: upstream.EventControl, Note: upstream.ControlTurnComplete})
	}
}

func (s *session) emit(ev upstream.Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}
