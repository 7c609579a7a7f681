package hub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/Seednode/wordslip/internal/access"
	"github.com/Seednode/wordslip/internal/router"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection. Emit and Ack may only be called from
// the hub goroutine.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	session *access.Session
	limiter *rate.Limiter
	remote  string
}

func (c *Client) Session() *access.Session {
	return c.session
}

func (c *Client) Emit(event string, args ...any) {
	if msg, ok := c.hub.encode(event, nil, args); ok {
		c.hub.deliver(c, msg)
	}
}

func (c *Client) Ack(id int, args ...any) {
	if msg, ok := c.hub.encode(router.EventAck, &id, args); ok {
		c.hub.deliver(c, msg)
	}
}

// ServeWS upgrades the request and serves the connection until it closes.
// remote is only used for logging.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, remote string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade: %w", err)
	}

	c := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, h.sendBuffer),
		session: access.NewSession(),
		limiter: h.newLimiter(),
		remote:  remote,
	}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return ErrStopped
	}

	go c.writePump()
	c.readPump()

	return nil
}

func (c *Client) readPump() {
	h := c.hub

	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		if !c.limiter.Allow() {
			h.log.Debug().Str("conn", c.session.ID()).Msg("rate limited")
			continue
		}

		var ev router.Event
		if err := json.Unmarshal(data, &ev); err != nil || ev.Name == "" {
			h.log.Debug().Err(err).Str("conn", c.session.ID()).Msg("malformed frame")
			continue
		}

		select {
		case h.inbound <- inbound{client: c, event: ev}:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
