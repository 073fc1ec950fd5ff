package openairt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/petrioteer/swatantra.ai/pkg/Logger"
	"github.com/petrioteer/swatantra.ai/pkg/audio/codec"
	"github.com/petrioteer/swatantra.ai/pkg/upstream"
)

const ProviderName = "openai"

// The realtime API speaks PCM16 at 24kHz in both directions.
const realtimeRate = 24000

const defaultRealtimeHost = "api.openai.com"

type adapter struct {
	host   string
	logger *Logger.Logger
}

// New creates the OpenAI realtime adapter.
func New(logger *Logger.Logger) upstream.Adapter {
	return &adapter{host: defaultRealtimeHost, logger: logger}
}

func (a *adapter) Name() string { return ProviderName }

// Open dials the realtime websocket and configures the session for audio.
func (a *adapter) Open(ctx context.Context, cfg upstream.Config) (upstream.Session, error) {
	u := url.URL{Scheme: "wss", Host: a.host, Path: "/v1/realtime"}
	q := u.Query()
	q.Set("model", cfg.Model)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{HandshakeTimeout: cfg.ConnectTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: dialing realtime api: %v (status %s)", upstream.ErrUnavailable, err, resp.Status)
		}
		return nil, fmt.Errorf("%w: dialing realtime api: %v", upstream.ErrUnavailable, err)
	}

	s := &session{
		conn:   conn,
		inRate: cfg.InSampleRate,
		events: make(chan upstream.Event, 32),
		done:   make(chan struct{}),
		logger: a.logger.Named("openairt"),
	}

	if err := s.configure(cfg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: configuring realtime session: %v", upstream.ErrUnavailable, err)
	}
	go s.receive()

	a.logger.Infof("openai realtime session opened, model=%s voice=%s", cfg.Model, cfg.Voice)
	return s, nil
}

type clientEvent struct {
	Type    string         `json:"type"`
	Audio   string         `json:"audio,omitempty"`
	Session *sessionConfig `json:"session,omitempty"`
}

type sessionConfig struct {
	Modalities        []string       `json:"modalities,omitempty"`
	Voice             string         `json:"voice,omitempty"`
	Instructions      string         `json:"instructions,omitempty"`
	InputAudioFormat  string         `json:"input_audio_format,omitempty"`
	OutputAudioFormat string         `json:"output_audio_format,omitempty"`
	Temperature       float32        `json:"temperature,omitempty"`
	TurnDetection     *turnDetection `json:"turn_detection,omitempty"`
}

type turnDetection struct {
	Type string `json:"type"`
}

type serverEvent struct {
	Type  string `json:"type"`
	Delta string `json:"delta,omitempty"`
	Error *struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type session struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	inRate    int
	events    chan upstream.Event
	done      chan struct{}
	closeOnce sync.Once
	logger    *Logger.Logger
}

func (s *session) configure(cfg upstream.Config) error {
	return s.writeJSON(clientEvent{
		Type: "session.update",
		Session: &sessionConfig{
			Modalities:        []string{"audio", "text"},
			Voice:             cfg.Voice,
			Instructions:      cfg.Persona,
			InputAudioFormat:  "pcm16",
			OutputAudioFormat: "pcm16",
			Temperature:       cfg.Temperature,
			TurnDetection:     &turnDetection{Type: "server_vad"},
		},
	})
}

// Send resamples client audio to the realtime rate and appends it to the
// input buffer. Server-side VAD decides turn boundaries.
func (s *session) Send(ctx context.Context, pcm []byte) error {
	select {
	case <-s.done:
		return upstream.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	samples, err := codec.DecodePCM16(pcm)
	if err != nil {
		return fmt.Errorf("decoding input audio: %v", err)
	}
	resampled := resampleLinear(samples, s.inRate, realtimeRate)

	return s.writeJSON(clientEvent{
		Type:  "input_audio_buffer.append",
		Audio: base64.StdEncoding.EncodeToString(codec.EncodePCM16(resampled)),
	})
}

func (s *session) Events() <-chan upstream.Event { return s.events }

// Close tears the websocket down. Safe to call repeatedly.
func (s *session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *session) writeJSON(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("writing realtime event: %v", err)
	}
	return nil
}

func (s *session) receive() {
	defer close(s.events)
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.emit(upstream.Event{
					Kind:     upstream.EventError,
					Err:      fmt.Errorf("%w: %v", upstream.ErrSessionClosed, err),
					Terminal: true,
				})
			}
			return
		}

		var ev serverEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			s.logger.Warnf("dropping unparseable realtime event: %v", err)
			continue
		}
		if out, ok := mapServerEvent(ev); ok {
			s.emit(out)
		}
	}
}

// mapServerEvent translates a realtime wire event into the adapter contract.
// Events with no relay-side meaning report ok=false.
func mapServerEvent(ev serverEvent) (upstream.Event, bool) {
	switch ev.Type {
	case "response.audio.delta":
		data, err := base64.StdEncoding.DecodeString(ev.Delta)
		if err != nil {
			return upstream.Event{
				Kind: upstream.EventError,
				Err:  fmt.Errorf("decoding audio delta: %v", err),
			}, true
		}
		if len(data) == 0 {
			return upstream.Event{}, false
		}
		return upstream.Event{Kind: upstream.EventAudio, Data: data}, true
	case "response.done":
		return upstream.Event{Kind: upstream.EventControl, Note: upstream.ControlTurnComplete}, true
	case "input_audio_buffer.speech_started":
		// The user talked over the assistant; playback should stop.
		return upstream.Event{Kind: upstream.EventControl, Note: upstream.ControlInterrupted}, true
	case "error":
		msg := "unknown realtime error"
		if ev.Error != nil {
			msg = fmt.Sprintf("%s (%s): %s", ev.Error.Type, ev.Error.Code, ev.Error.Message)
		}
		return upstream.Event{Kind: upstream.EventError, Err: fmt.Errorf("realtime api: %s", msg)}, true
	default:
		return upstream.Event{}, false
	}
}

func (s *session) emit(ev upstream.Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}
