package websocket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/petrioteer/swatantra.ai/internal/domains/voicesession"
	"github.com/petrioteer/swatantra.ai/pkg/Logger"
	"github.com/petrioteer/swatantra.ai/pkg/audio"
)

// Handler bridges WebSocket connections to running voice sessions.
type Handler struct {
	logger   *Logger.Logger
	sessions voicesession.Service
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler.
func NewHandler(logger *Logger.Logger, sessions voicesession.Service) *Handler {
	return &Handler{
		logger:   logger.Named("ws"),
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: Implement proper origin checking for production
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers WebSocket routes.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	ws := router.Group("/ws")
	{
		ws.GET("/audio", h.HandleAudioWebSocket)
	}
}

// HandleAudioWebSocket upgrades the connection and attaches it to the
// client's running session. The session must have been started over the
// control API first.
func (h *Handler) HandleAudioWebSocket(c *gin.Context) {
	clientID := c.Query("client_id")
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "client_id query parameter required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("websocket upgrade failed: %v", err)
		return
	}

	ch := newChannel(conn)
	sess, err := h.sessions.Attach(clientID, ch)
	if err != nil {
		h.logger.Warnf("rejecting websocket for client %s: %v", clientID, err)
		_ = ch.SendError(attachErrorCode(err), err.Error())
		ch.Close()
		return
	}

	h.logger.Infof("client %s connected to session %s", clientID, sess.ID)
	h.readLoop(sess, ch)
}

func attachErrorCode(err error) string {
	switch {
	case errors.Is(err, voicesession.ErrNotFound):
		return "no_session"
	case errors.Is(err, voicesession.ErrChannelAttached):
		return "already_connected"
	case errors.Is(err, voicesession.ErrSessionClosed):
		return "session_closed"
	default:
		return "attach_failed"
	}
}

// readLoop consumes frames until the connection drops. Closing the channel on
// exit is what tells the relay the client is gone.
func (h *Handler) readLoop(sess *voicesession.Session, ch *wsChannel) {
	defer ch.Close()

	for {
		msgType, raw, err := ch.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warnf("client %s read error: %v", sess.ClientID, err)
			} else {
				h.logger.Infof("client %s disconnected", sess.ClientID)
			}
			return
		}

		switch msgType {
		case websocket.TextMessage:
			h.handleTextFrame(sess, ch, raw)
		case websocket.BinaryMessage:
			// Raw PCM without an envelope; tolerated for lean clients.
			h.ingestAudio(sess, ch, raw)
		}
	}
}

func (h *Handler) handleTextFrame(sess *voicesession.Session, ch *wsChannel, raw []byte) {
	var msg InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		// Not JSON at all; treat the frame as raw PCM bytes.
		h.ingestAudio(sess, ch, raw)
		return
	}

	switch msg.Type {
	case MessageTypeAudio:
		if msg.Format != "" && msg.Format != WireFormatPCM {
			h.logger.Warnf("client %s sent format %q", sess.ClientID, msg.Format)
			_ = ch.SendError(voicesession.ErrCodeUnsupportedFormat,
				fmt.Sprintf("format %q not accepted, send %s", msg.Format, WireFormatPCM))
			return
		}
		payload, err := base64.StdEncoding.DecodeString(msg.Data)
		if err != nil {
			h.logger.Warnf("client %s sent undecodable audio data: %v", sess.ClientID, err)
			_ = ch.SendError(voicesession.ErrCodeMalformedAudio, "audio data is not valid base64")
			return
		}
		h.ingestAudio(sess, ch, payload)

	case MessageTypeControl:
		h.handleControl(sess, msg)

	default:
		h.logger.Debugf("ignoring frame type %q from client %s", msg.Type, sess.ClientID)
	}
}

// ingestAudio stamps the chunk with its arrival sequence and hands it to the
// relay. Validation of the bytes themselves happens in the relay so a bad
// chunk is reported without stalling the read loop.
func (h *Handler) ingestAudio(sess *voicesession.Session, ch *wsChannel, payload []byte) {
	chunk := audio.Chunk{
		Seq:       sess.NextInboundSeq(),
		Format:    audio.FormatPCM16Mono16k,
		Data:      payload,
		Timestamp: time.Now(),
	}
	if !ch.push(chunk) {
		h.logger.Warnf("inbound buffer full, dropping chunk %d from client %s", chunk.Seq, sess.ClientID)
	}
}

func (h *Handler) handleControl(sess *voicesession.Session, msg InboundMessage) {
	switch msg.Command {
	case ControlCommandStop:
		h.logger.Infof("client %s requested stop", sess.ClientID)
		if err := h.sessions.Terminate(context.Background(), sess.ClientID); err != nil {
			h.logger.Warnf("stop for client %s: %v", sess.ClientID, err)
		}
	default:
		h.logger.Debugf("unknown control command %q from client %s", msg.Command, sess.ClientID)
	}
}
