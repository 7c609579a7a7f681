package rooms

import (
	"fmt"
	"slices"
	"strings"
)

// The transitions below never mutate their input. Each one copies what it
// keeps and returns the next state. A failed precondition means a guard in
// the router let something through, so they panic instead of returning an
// error.

func violated(format string, args ...any) {
	panic(fmt.Sprintf("rooms: contract violation: "+format, args...))
}

// Join appends player to the room's players.
func Join(s Idle, player string) Idle {
	if s.HasPlayer(player) {
		violated("join: %q is already a player", player)
	}

	next := Idle{Base: s.clone()}
	next.Players = append(next.Players, player)

	return next
}

// Leave removes player from the room's players, keeping the order of the rest.
func Leave(s Idle, player string) Idle {
	i := slices.Index(s.Players, player)
	if i < 0 {
		violated("leave: %q is not a player", player)
	}

	next := Idle{Base: s.clone()}
	next.Players = slices.Delete(next.Players, i, i+1)

	return next
}

// CanStart reports whether StartRound's preconditions hold.
func CanStart(s Idle) bool {
	return len(s.Players) >= 2 && len(s.Cards) >= 1
}

// StartRound draws a card from the pool and opens a round for the current
// players. The starter and the no-card player are independent draws and may
// be the same person.
func StartRound(s Idle, pick Picker) Active {
	if !CanStart(s) {
		violated("start round: need 2 players and 1 card, have %d and %d", len(s.Players), len(s.Cards))
	}

	base := s.clone()

	i := pick(len(base.Cards))
	card := base.Cards[i].Text
	base.Cards = slices.Delete(base.Cards, i, i+1)

	return Active{
		Base:            base,
		Card:            &card,
		RoundPlayers:    slices.Clone(base.Players),
		Seen:            []string{},
		StarterUsername: base.Players[pick(len(base.Players))],
		NoCardUsername:  base.Players[pick(len(base.Players))],
	}
}

// EndRound closes the round, remembering its card as the previous word.
func EndRound(s Active) Idle {
	next := Idle{Base: s.Base.clone()}
	next.PreviousWord = cloneString(s.Card)

	return next
}

// MarkSeen records that username has viewed their card.
func MarkSeen(s Active, username string) Active {
	if !s.InRound(username) {
		violated("mark seen: %q is not in the round", username)
	}
	if s.HasSeen(username) {
		violated("mark seen: %q has already seen the card", username)
	}

	next := s.clone()
	next.Seen = append(next.Seen, username)

	return next
}

func (s Active) clone() Active {
	return Active{
		Base:            s.Base.clone(),
		Card:            cloneString(s.Card),
		RoundPlayers:    slices.Clone(s.RoundPlayers),
		Seen:            slices.Clone(s.Seen),
		StarterUsername: s.StarterUsername,
		NoCardUsername:  s.NoCardUsername,
	}
}

// withBase rebuilds s around a new shared base, whichever variant it is.
func withBase(s State, b Base) State {
	switch v := s.(type) {
	case Idle:
		return Idle{Base: b}
	case Active:
		next := v.clone()
		next.Base = b
		return next
	default:
		violated("unknown state %T", s)
		return nil
	}
}

// SetAdmin sets or clears (nil) the room's admin.
func SetAdmin(s State, username *string) State {
	b := s.Common().clone()
	b.AdminUsername = cloneString(username)

	return withBase(s, b)
}

// AddCard appends c to the card pool. Duplicates are allowed.
func AddCard(s State, c Card) State {
	if strings.TrimSpace(c.Text) == "" {
		violated("add card: blank card text")
	}

	b := s.Common().clone()
	b.Cards = append(b.Cards, c)

	return withBase(s, b)
}

func (r *Room) idle(op string) Idle {
	s, ok := r.State.(Idle)
	if !ok {
		violated("%s: room %d has a round in progress", op, r.ID)
	}
	return s
}

func (r *Room) active(op string) Active {
	s, ok := r.State.(Active)
	if !ok {
		violated("%s: room %d has no round in progress", op, r.ID)
	}
	return s
}

// Join adds player to an idle room.
func (r *Room) Join(player string) {
	r.State = Join(r.idle("join"), player)
}

// Leave removes player from an idle room.
func (r *Room) Leave(player string) {
	r.State = Leave(r.idle("leave"), player)
}

// StartRound opens a round using pick for every random choice.
func (r *Room) StartRound(pick Picker) {
	r.State = StartRound(r.idle("start round"), pick)
}

// EndRound returns the room to idle.
func (r *Room) EndRound() {
	r.State = EndRound(r.active("end round"))
}

// MarkSeen records that username has viewed their card.
func (r *Room) MarkSeen(username string) {
	r.State = MarkSeen(r.active("mark seen"), username)
}

// SetAdmin makes username the room's admin.
func (r *Room) SetAdmin(username string) {
	r.State = SetAdmin(r.State, &username)
}

// RevokeAdmin leaves the room without an admin.
func (r *Room) RevokeAdmin() {
	r.State = SetAdmin(r.State, nil)
}

// AddCard puts a card into the pool.
func (r *Room) AddCard(c Card) {
	r.State = AddCard(r.State, c)
}

// Reset wipes everything except the room's identity.
func (r *Room) Reset() {
	r.State = NewIdle()
}

// Delete hides the room from listings. It stays reachable by index.
func (r *Room) Delete() {
	r.Hidden = true
}

// IsAdmin reports whether username is the room's current admin.
func (r *Room) IsAdmin(username string) bool {
	admin := r.State.Common().AdminUsername
	return username != "" && admin != nil && *admin == username
}
