// Package router turns inbound client events into room transitions and
// decides who hears about the result.
package router

import (
	"fmt"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Seednode/wordslip/internal/access"
	"github.com/Seednode/wordslip/internal/rooms"
)

// Conn is one client connection as the router sees it. All methods are
// called from the hub loop.
type Conn interface {
	Session() *access.Session
	Emit(event string, args ...any)
	Ack(id int, args ...any)
}

// Transport is the group primitive: membership plus the two broadcast
// scopes. Join must have completed by the time it returns.
type Transport interface {
	Join(c Conn, room int)
	Leave(c Conn, room int)
	ToGroup(room int, event string, args ...any)
	ToAll(event string, args ...any)
}

type Options struct {
	// EnforceAdmin restricts round and room management to the session whose
	// claimed username is the room's admin. Off, the admin role is advisory.
	EnforceAdmin bool

	// MaxLength caps usernames, room names and card text, in runes.
	MaxLength int

	Logger zerolog.Logger
}

const DefaultMaxLength = 64

type handler func(c Conn, ev Event)

type Router struct {
	registry     *rooms.Registry
	transport    Transport
	validate     *validator.Validate
	log          zerolog.Logger
	enforceAdmin bool
	handlers     map[string]handler
}

func New(registry *rooms.Registry, transport Transport, opts Options) *Router {
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("maxlen", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) <= opts.MaxLength
	})

	r := &Router{
		registry:     registry,
		transport:    transport,
		validate:     v,
		log:          opts.Logger.With().Str("component", "router").Logger(),
		enforceAdmin: opts.EnforceAdmin,
	}

	r.handlers = map[string]handler{
		EventCreateRoom:  r.createRoom,
		EventJoinRoom:    r.joinRoom,
		EventLeaveRoom:   r.leaveRoom,
		EventJoinGame:    r.joinGame,
		EventLeaveGame:   r.leaveGame,
		EventAddCard:     r.addCard,
		EventViewCard:    r.viewCard,
		EventBeAdmin:     r.beAdmin,
		EventRevokeAdmin: r.revokeAdmin,
		EventKickPlayer:  r.kickPlayer,
		EventStartRound:  r.startRound,
		EventEndRound:    r.endRound,
		EventResetRoom:   r.resetRoom,
		EventDeleteRoom:  r.deleteRoom,
	}

	return r
}

// Connected sends a new connection the full room list.
func (r *Router) Connected(c Conn) {
	c.Emit(EventRooms, r.registry.All())
}

// Dispatch runs the handler for ev. Unknown events are ignored.
func (r *Router) Dispatch(c Conn, ev Event) {
	h, ok := r.handlers[ev.Name]
	if !ok {
		r.log.Debug().Str("event", ev.Name).Str("conn", c.Session().ID()).Msg("unknown event")
		return
	}

	h(c, ev)
}

func (r *Router) drop(c Conn, ev Event, err error) {
	r.log.Debug().Err(err).Str("event", ev.Name).Str("conn", c.Session().ID()).Msg("dropped")
}

// room resolves the room index in ev's first argument and runs the access
// check. Failures are logged and reported as !ok.
func (r *Router) room(c Conn, ev Event, joining bool) (*rooms.Room, bool) {
	// null would leave a plain int at zero.
	var id *int
	err := ev.arg(0, &id)
	if err == nil && id == nil {
		err = fmt.Errorf("%w: %s: null room id", ErrMalformed, ev.Name)
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", access.ErrInvalidID, err)
		r.log.Warn().Err(err).Str("event", ev.Name).Str("conn", c.Session().ID()).Msg("access denied")
		return nil, false
	}

	evicted, err := access.Check(r.registry, c.Session(), *id, joining)
	for _, stale := range evicted {
		r.transport.Leave(c, stale)
	}
	if err != nil {
		r.log.Warn().Err(err).Int("room", *id).Str("event", ev.Name).Str("conn", c.Session().ID()).Msg("access denied")
		return nil, false
	}

	return r.registry.Get(*id)
}

func (r *Router) username(c Conn, ev Event) (string, bool) {
	var p usernamePayload
	if err := ev.arg(1, &p.Username); err != nil {
		r.drop(c, ev, err)
		return "", false
	}
	if err := r.validate.Struct(p); err != nil {
		r.drop(c, ev, fmt.Errorf("%w: %w", ErrMalformed, err))
		return "", false
	}

	return p.Username, true
}

// authorized is the admin gate. It always passes unless EnforceAdmin is set.
func (r *Router) authorized(c Conn, ev Event, room *rooms.Room) bool {
	if !r.enforceAdmin {
		return true
	}
	if room.IsAdmin(c.Session().Username()) {
		return true
	}

	r.log.Warn().
		Int("room", room.ID).
		Str("event", ev.Name).
		Str("conn", c.Session().ID()).
		Str("username", c.Session().Username()).
		Msg("not room admin")

	return false
}

// claimable reports whether c may take the admin role: the room has none, or
// c already holds it.
func (r *Router) claimable(c Conn, ev Event, room *rooms.Room) bool {
	admin := room.State.Common().AdminUsername
	if admin == nil || room.IsAdmin(c.Session().Username()) {
		return true
	}

	r.log.Warn().
		Int("room", room.ID).
		Str("event", ev.Name).
		Str("conn", c.Session().ID()).
		Str("admin", *admin).
		Msg("admin already taken")

	return false
}

func (r *Router) roomState(room *rooms.Room) {
	r.transport.ToGroup(room.ID, EventRoomState, room)
}

func (r *Router) roomList() {
	r.transport.ToAll(EventRooms, r.registry.All())
}
