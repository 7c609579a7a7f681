// Package rooms holds the room registry and the round state machine.
//
// Nothing in this package is safe for concurrent use. A Registry and every
// Room it hands out belong to a single goroutine (the hub loop), which is
// what makes each transition atomic with respect to other events.
package rooms

import "slices"

// Card is a word contributed to a room's pool, along with who added it.
type Card struct {
	Text   string `json:"card"`
	Player string `json:"player"`
}

// Base carries the fields shared by both round states.
type Base struct {
	Players       []string
	Cards         []Card
	PreviousWord  *string
	AdminUsername *string
}

func (b Base) clone() Base {
	return Base{
		Players:       slices.Clone(b.Players),
		Cards:         slices.Clone(b.Cards),
		PreviousWord:  cloneString(b.PreviousWord),
		AdminUsername: cloneString(b.AdminUsername),
	}
}

// HasPlayer reports whether username is in the room's player list.
func (b Base) HasPlayer(username string) bool {
	return slices.Contains(b.Players, username)
}

// State is either Idle or Active.
type State interface {
	RoundInProgress() bool
	Common() Base
}

// Idle is a room between rounds. Only Idle rooms accept joins and leaves.
type Idle struct {
	Base
}

func (Idle) RoundInProgress() bool { return false }

func (s Idle) Common() Base { return s.Base }

// Active is a room with a round in progress.
type Active struct {
	Base

	// Card is the word drawn for the round, or nil for "no card".
	Card            *string
	RoundPlayers    []string
	Seen            []string
	StarterUsername string
	NoCardUsername  string
}

func (Active) RoundInProgress() bool { return true }

func (s Active) Common() Base { return s.Base }

// InRound reports whether username was snapshotted into this round.
func (s Active) InRound(username string) bool {
	return slices.Contains(s.RoundPlayers, username)
}

// HasSeen reports whether username has already viewed their card.
func (s Active) HasSeen(username string) bool {
	return slices.Contains(s.Seen, username)
}

// Room is one entry in the registry. ID and Name never change once created,
// and Hidden only ever goes from false to true.
type Room struct {
	ID     int
	Name   string
	Hidden bool
	State  State
}

func newRoom(id int, name string) *Room {
	return &Room{
		ID:    id,
		Name:  name,
		State: NewIdle(),
	}
}

// NewIdle returns a fresh, empty idle state.
func NewIdle() Idle {
	return Idle{Base: Base{
		Players: []string{},
		Cards:   []Card{},
	}}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
