package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type contextualUpdate struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Channel is a one-way websocket connection to the conversational agent.
// Updates sent before the socket is open are queued and flushed on connect.
type Channel struct {
	url    string
	logger zerolog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	pending []contextualUpdate
	closed  bool
}

func NewChannel(url string, logger zerolog.Logger) *Channel {
	return &Channel{
		url:    url,
		logger: logger,
	}
}

func (c *Channel) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial agent channel: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return errors.New("channel already closed")
	}
	c.conn = conn
	pending := c.pending
	c.pending = nil

	// flush before releasing the lock: the connection allows one writer at
	// a time and SendContextualUpdate writes as soon as it sees the conn
	for _, msg := range pending {
		if err := conn.WriteJSON(msg); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to flush queued update")
		}
	}
	c.mu.Unlock()

	if len(pending) > 0 {
		c.logger.Debug().Int("count", len(pending)).Msg("Flushed queued updates")
	}

	go c.readLoop(conn)

	c.logger.Info().Str("url", c.url).Msg("Agent channel connected")
	return nil
}

// readLoop drains inbound frames; the channel is send-only but control
// frames still need a reader.
func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			c.logger.Debug().Err(err).Msg("Agent channel read loop finished")
			return
		}
	}
}

func (c *Channel) SendContextualUpdate(text string) error {
	msg := contextualUpdate{Type: "contextual_update", Text: text}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("channel closed")
	}
	if c.conn == nil {
		c.pending = append(c.pending, msg)
		c.logger.Debug().Msg("Channel not open yet, update queued")
		return nil
	}

	return c.conn.WriteJSON(msg)
}

func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return c.conn.Close()
	}
	return nil
}
