package websocket

import (
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/petrioteer/swatantra.ai/pkg/audio"
)

// wsChannel adapts one WebSocket connection to the relay's client channel
// contract. Writes are serialized behind a mutex; the read loop stays with
// the HTTP handler goroutine.
type wsChannel struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	inbound   chan audio.Chunk
	done      chan struct{}
	closeOnce sync.Once
}

func newChannel(conn *websocket.Conn) *wsChannel {
	return &wsChannel{
		conn:    conn,
		inbound: make(chan audio.Chunk, 1000), // high-frequency audio frames
		done:    make(chan struct{}),
	}
}

func (c *wsChannel) SendAudio(chunk audio.Chunk) error {
	return c.writeJSON(OutboundMessage{
		Type:      MessageTypeAudio,
		Format:    WireFormatWAV,
		Data:      base64.StdEncoding.EncodeToString(chunk.Data),
		Seq:       chunk.Seq,
		Timestamp: time.Now(),
	})
}

func (c *wsChannel) SendControl(event string) error {
	return c.writeJSON(OutboundMessage{
		Type:      MessageTypeControl,
		Event:     event,
		Timestamp: time.Now(),
	})
}

func (c *wsChannel) SendError(code, detail string) error {
	return c.writeJSON(OutboundMessage{
		Type:      MessageTypeError,
		Code:      code,
		Message:   detail,
		Timestamp: time.Now(),
	})
}

func (c *wsChannel) SendPing() error {
	return c.writeJSON(OutboundMessage{
		Type:      MessageTypePing,
		Timestamp: time.Now(),
	})
}

func (c *wsChannel) Inbound() <-chan audio.Chunk { return c.inbound }
func (c *wsChannel) Done() <-chan struct{}       { return c.done }

// Close tears the connection down and signals the relay. Safe to call from
// both the read loop and the relay.
func (c *wsChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// push hands one ingested chunk to the relay. Reports false if the buffer is
// full or the channel is closing; the caller decides how loudly to complain.
func (c *wsChannel) push(chunk audio.Chunk) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.inbound <- chunk:
		return true
	default:
		return false
	}
}

func (c *wsChannel) writeJSON(msg OutboundMessage) error {
	select {
	case <-c.done:
		return fmt.Errorf("websocket channel closed")
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}
