package router

import (
	"fmt"
)

func (r *Router) createRoom(c Conn, ev Event) {
	if ev.Ack == nil {
		r.drop(c, ev, fmt.Errorf("%w: no ack id", ErrMalformed))
		return
	}

	var p namePayload
	if err := ev.arg(0, &p.Name); err != nil {
		r.drop(c, ev, err)
		return
	}
	if err := r.validate.Struct(p); err != nil {
		r.drop(c, ev, fmt.Errorf("%w: %w", ErrMalformed, err))
		return
	}

	room := r.registry.Create(p.Name)
	r.log.Info().Int("room", room.ID).Str("name", room.Name).Msg("room created")

	r.roomList()
	c.Ack(*ev.Ack, room.ID)
}

func (r *Router) joinRoom(c Conn, ev Event) {
	room, ok := r.room(c, ev, true)
	if !ok {
		return
	}

	r.transport.Join(c, room.ID)
	c.Emit(EventRoomState, room)
}

func (r *Router) leaveRoom(c Conn, ev Event) {
	room, ok := r.room(c, ev, false)
	if !ok {
		return
	}

	r.transport.Leave(c, room.ID)
}

func (r *Router) joinGame(c Conn, ev Event) {
	room, ok := r.room(c, ev, true)
	if !ok {
		return
	}
	username, ok := r.username(c, ev)
	if !ok {
		return
	}

	if room.State.RoundInProgress() || room.State.Common().HasPlayer(username) {
		return
	}

	room.Join(username)
	c.Session().Claim(username)

	r.roomState(room)
}

func (r *Router) leaveGame(c Conn, ev Event) {
	room, ok := r.room(c, ev, false)
	if !ok {
		return
	}
	username, ok := r.username(c, ev)
	if !ok {
		return
	}

	if room.State.RoundInProgress() || !room.State.Common().HasPlayer(username) {
		return
	}

	room.Leave(username)
	c.Session().Release(username)

	r.roomState(room)
}

func (r *Router) addCard(c Conn, ev Event) {
	room, ok := r.room(c, ev, false)
	if !ok {
		return
	}

	var p cardPayload
	if err := ev.arg(1, &p); err != nil {
		r.drop(c, ev, err)
		return
	}
	if err := r.validate.Struct(p); err != nil {
		r.drop(c, ev, fmt.Errorf("%w: %w", ErrMalformed, err))
		return
	}

	// A blank card still triggers a broadcast, it just adds nothing.
	if !p.blank() {
		room.AddCard(p.card())
	}

	r.roomState(room)
}

func (r *Router) viewCard(c Conn, ev Event) {
	room, ok := r.room(c, ev, false)
	if !ok {
		return
	}
	username, ok := r.username(c, ev)
	if !ok {
		return
	}

	if !canSee(room.State, username) {
		return
	}

	room.MarkSeen(username)

	r.roomState(room)
}

func (r *Router) beAdmin(c Conn, ev Event) {
	room, ok := r.room(c, ev, false)
	if !ok {
		return
	}
	username, ok := r.username(c, ev)
	if !ok {
		return
	}

	if r.enforceAdmin && !r.claimable(c, ev, room) {
		return
	}

	room.SetAdmin(username)
	c.Session().Claim(username)

	r.roomState(room)
}

func (r *Router) revokeAdmin(c Conn, ev Event) {
	room, ok := r.room(c, ev, false)
	if !ok || !r.authorized(c, ev, room) {
		return
	}

	room.RevokeAdmin()

	r.roomState(room)
}

func (r *Router) kickPlayer(c Conn, ev Event) {
	room, ok := r.room(c, ev, false)
	if !ok {
		return
	}
	username, ok := r.username(c, ev)
	if !ok || !r.authorized(c, ev, room) {
		return
	}

	// Only between rounds.
	if room.State.RoundInProgress() || !room.State.Common().HasPlayer(username) {
		return
	}

	room.Leave(username)
	r.log.Info().Int("room", room.ID).Str("username", username).Msg("player kicked")

	r.roomState(room)
}

func (r *Router) startRound(c Conn, ev Event) {
	room, ok := r.room(c, ev, false)
	if !ok || !r.authorized(c, ev, room) {
		return
	}

	if !canStart(room.State) {
		return
	}

	room.StartRound(r.registry.Picker())

	r.roomState(room)
}

func (r *Router) endRound(c Conn, ev Event) {
	room, ok := r.room(c, ev, false)
	if !ok || !r.authorized(c, ev, room) {
		return
	}

	if !room.State.RoundInProgress() {
		return
	}

	room.EndRound()

	r.roomState(room)
}

func (r *Router) resetRoom(c Conn, ev Event) {
	room, ok := r.room(c, ev, false)
	if !ok || !r.authorized(c, ev, room) {
		return
	}

	room.Reset()
	r.log.Info().Int("room", room.ID).Msg("room reset")

	r.roomState(room)
}

func (r *Router) deleteRoom(c Conn, ev Event) {
	room, ok := r.room(c, ev, false)
	if !ok || !r.authorized(c, ev, room) {
		return
	}

	room.Delete()
	r.log.Info().Int("room", room.ID).Msg("room deleted")

	r.roomState(room)
	r.roomList()
}
