// Package hub is the websocket transport. One goroutine owns every client
// and runs every handler, so room state never needs a lock.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Seednode/wordslip/internal/router"
)

var ErrStopped = errors.New("hub stopped")

// Handler receives connection events on the hub goroutine.
type Handler interface {
	Connected(c router.Conn)
	Dispatch(c router.Conn, ev router.Event)
}

type Options struct {
	// EventRate is the sustained inbound events per second allowed per
	// connection. Zero disables limiting.
	EventRate  float64
	EventBurst int

	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int

	Logger zerolog.Logger
}

type inbound struct {
	client *Client
	event  router.Event
}

type query struct {
	fn   func()
	done chan struct{}
}

type Hub struct {
	clients map[*Client]struct{}

	register chan *Client
	unreg    chan *Client
	inbound  chan inbound
	queries  chan query
	done     chan struct{}

	limit      rate.Limit
	burst      int
	sendBuffer int

	log zerolog.Logger
}

func New(opts Options) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 16
	}

	limit := rate.Inf
	if opts.EventRate > 0 {
		limit = rate.Limit(opts.EventRate)
	}
	if opts.EventBurst <= 0 {
		opts.EventBurst = 1
	}

	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		inbound:    make(chan inbound),
		queries:    make(chan query),
		done:       make(chan struct{}),
		limit:      limit,
		burst:      opts.EventBurst,
		sendBuffer: opts.SendBuffer,
		log:        opts.Logger.With().Str("component", "hub").Logger(),
	}
}

// Run processes connection events until ctx is cancelled, then closes every
// client. It must be called exactly once.
func (h *Hub) Run(ctx context.Context, handler Handler) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.log.Debug().Str("conn", c.session.ID()).Str("remote", c.remote).Msg("connected")
			handler.Connected(c)

		case c := <-h.unreg:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
			h.log.Debug().Str("conn", c.session.ID()).Strs("groups", c.session.Groups()).Msg("disconnected")

		case in := <-h.inbound:
			if _, ok := h.clients[in.client]; !ok {
				continue
			}
			handler.Dispatch(in.client, in.event)

		case q := <-h.queries:
			q.fn()
			close(q.done)
		}
	}
}

// Query runs fn on the hub goroutine and waits for it to finish. Use it to
// read room state from outside the hub.
func (h *Hub) Query(ctx context.Context, fn func()) error {
	q := query{fn: fn, done: make(chan struct{})}

	select {
	case h.queries <- q:
	case <-h.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	<-q.done

	return nil
}

// drop forgets c and closes its queue; the write pump then closes the socket.
func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) deliver(c *Client, msg []byte) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		h.log.Debug().Str("conn", c.session.ID()).Msg("send queue full, dropping client")
		h.drop(c)
	}
}

func (h *Hub) encode(event string, ack *int, args []any) ([]byte, bool) {
	if args == nil {
		args = []any{}
	}

	msg, err := json.Marshal(router.Outbound{Name: event, Args: args, Ack: ack})
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("encode")
		return nil, false
	}

	return msg, true
}

// Join adds c to room's group. It completes before returning.
func (h *Hub) Join(c router.Conn, room int) {
	c.Session().Join(room)
	h.log.Debug().Str("conn", c.Session().ID()).Int("room", room).Msg("joined group")
}

func (h *Hub) Leave(c router.Conn, room int) {
	c.Session().Leave(room)
	h.log.Debug().Str("conn", c.Session().ID()).Int("room", room).Msg("left group")
}

// ToGroup sends to every connection viewing room.
func (h *Hub) ToGroup(room int, event string, args ...any) {
	msg, ok := h.encode(event, nil, args)
	if !ok {
		return
	}

	for c := range h.clients {
		if c.session.InRoom(room) {
			h.deliver(c, msg)
		}
	}
}

// ToAll sends to every connection.
func (h *Hub) ToAll(event string, args ...any) {
	msg, ok := h.encode(event, nil, args)
	if !ok {
		return
	}

	for c := range h.clients {
		h.deliver(c, msg)
	}
}

func (h *Hub) newLimiter() *rate.Limiter {
	return rate.NewLimiter(h.limit, h.burst)
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 16 << 10
)
