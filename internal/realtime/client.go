package realtime

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"quickbid/internal/domain/actor"
	"quickbid/internal/pkg/config"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var ErrSendBufferFull = errors.New("send buffer full")

// InboundHandler receives client frames and lifecycle events. Implemented by
// the websocket endpoint, which routes actions into the command layer.
type InboundHandler interface {
	HandleMessage(c *Client, data []byte)
	HandleDisconnect(c *Client)
}

// Client owns one websocket connection: a buffered outbound queue drained by
// the write pump, and a read loop feeding the inbound handler.
type Client struct {
	id    string
	actor actor.Actor
	conn  *websocket.Conn
	send  chan Envelope
	done  chan struct{}
	once  sync.Once
	cfg   config.WSConfig
	log   *slog.Logger
}

func NewClient(conn *websocket.Conn, a actor.Actor, cfg config.WSConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		id:    uuid.NewString(),
		actor: a,
		conn:  conn,
		send:  make(chan Envelope, cfg.SendBuffer),
		done:  make(chan struct{}),
		cfg:   cfg,
		log:   log,
	}
}

func (c *Client) ID() string         { return c.id }
func (c *Client) Actor() actor.Actor { return c.actor }

// Send queues a message without blocking. A full buffer means the viewer
// cannot keep up; the hub evicts on error.
func (c *Client) Send(msg Envelope) error {
	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return errors.New("connection closed")
	default:
		return ErrSendBufferFull
	}
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Run drives the connection until the peer goes away. It blocks in the read
// loop; the write pump runs alongside it.
func (c *Client) Run(h InboundHandler) {
	go c.writePump()
	c.readPump(h)
}

func (c *Client) readPump(h InboundHandler) {
	defer func() {
		h.HandleDisconnect(c)
		c.Close()
	}()

	c.conn.SetReadLimit(c.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket read error", "conn_id", c.id, "error", err)
			}
			return
		}
		h.HandleMessage(c, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
