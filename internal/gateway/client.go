package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/signalcorps/beacon/pkg/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// sendBuffer bounds per-client outbound queueing. A client that cannot
	// drain this many events gets dropped events, not a blocked broadcaster.
	sendBuffer = 64
)

// Client is one live WebSocket connection.
type Client struct {
	id       string
	deviceID string
	conn     *websocket.Conn
	server   *Server

	send      chan protocol.EventFrame
	closeOnce sync.Once
	done      chan struct{}
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn, s *Server, deviceID string) *Client {
	return &Client{
		id:       uuid.Must(uuid.NewV7()).String(),
		deviceID: deviceID,
		conn:     conn,
		server:   s,
		send:     make(chan protocol.EventFrame, sendBuffer),
		done:     make(chan struct{}),
	}
}

// ID returns the connection identifier.
func (c *Client) ID() string { return c.id }

// Run pumps the connection until the peer disconnects or ctx is cancelled.
func (c *Client) Run(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump(ctx)
}

// SendEvent queues an event for delivery. Never blocks: a slow client
// loses events rather than stalling the broadcast path.
func (c *Client) SendEvent(event protocol.EventFrame) {
	select {
	case <-c.done:
	case c.send <- event:
	default:
		slog.Warn("client send buffer full, dropping event", "id", c.id, "event", event.Event)
	}
}

// Close tears down the connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("client read error", "id", c.id, "error", err)
			}
			return
		}

		var frame protocol.ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.SendEvent(*protocol.NewEvent(protocol.EventSignalError,
				protocol.ErrorPayload{Error: "malformed frame"}))
			continue
		}

		switch frame.Type {
		case protocol.TypeSendSignal:
			c.server.handleSendSignal(ctx, c, frame.Payload)
		default:
			c.SendEvent(*protocol.NewEvent(protocol.EventSignalError,
				protocol.ErrorPayload{Error: "unknown message type: " + frame.Type}))
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				slog.Warn("client write error", "id", c.id, "error", err)
				c.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
