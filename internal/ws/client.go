package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"wavechat/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 64
)

// Client is one authenticated connection. The account identity is resolved
// once at connect time and never re-derived per event.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	account *domain.Account
	connID  string
	log     *zap.Logger

	// conversation ids this connection has joined; guarded by hub.mu
	rooms map[int64]struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, account *domain.Account, connID string, log *zap.Logger) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		account: account,
		connID:  connID,
		log:     log,
		rooms:   make(map[int64]struct{}),
	}
}

// enqueue queues a frame for delivery. A full buffer drops the frame; rooms
// are best-effort and a slow client must not block the broadcaster.
func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		c.log.Warn("send_buffer_full",
			zap.Int64("account_id", c.account.ID),
			zap.String("conn_id", c.connID))
	}
}

// sendJSON marshals v and queues it for delivery.
func (c *Client) sendJSON(v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		c.log.Error("marshal_frame_failed", zap.Error(err))
		return
	}
	c.enqueue(frame)
}

// writePump serializes all writes to the connection; gorilla permits only one
// concurrent writer. Runs until the send channel closes or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
