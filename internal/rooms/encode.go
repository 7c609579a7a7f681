package rooms

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrBadRoom = errors.New("malformed room")

// Wire shape: "data" is a union keyed on roundInProgress.
type roomJSON struct {
	ID     int             `json:"id"`
	Name   string          `json:"name"`
	Hidden bool            `json:"hidden"`
	Data   json.RawMessage `json:"data"`
}

type baseJSON struct {
	Players         []string `json:"players"`
	Cards           []Card   `json:"cards"`
	PreviousWord    *string  `json:"previousWord"`
	AdminUsername   *string  `json:"adminUsername"`
	RoundInProgress bool     `json:"roundInProgress"`
}

type activeJSON struct {
	baseJSON
	Card            *string  `json:"card"`
	RoundPlayers    []string `json:"roundPlayers"`
	Seen            []string `json:"seen"`
	StarterUsername string   `json:"starterUsername"`
	NoCardUsername  string   `json:"noCardUsername"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func toBaseJSON(b Base, inProgress bool) baseJSON {
	return baseJSON{
		Players:         nonNil(b.Players),
		Cards:           nonNil(b.Cards),
		PreviousWord:    b.PreviousWord,
		AdminUsername:   b.AdminUsername,
		RoundInProgress: inProgress,
	}
}

func (b baseJSON) toBase() Base {
	return Base{
		Players:       nonNil(b.Players),
		Cards:         nonNil(b.Cards),
		PreviousWord:  b.PreviousWord,
		AdminUsername: b.AdminUsername,
	}
}

func (r *Room) MarshalJSON() ([]byte, error) {
	var data any

	switch s := r.State.(type) {
	case Idle:
		data = toBaseJSON(s.Base, false)
	case Active:
		data = activeJSON{
			baseJSON:        toBaseJSON(s.Base, true),
			Card:            s.Card,
			RoundPlayers:    nonNil(s.RoundPlayers),
			Seen:            nonNil(s.Seen),
			StarterUsername: s.StarterUsername,
			NoCardUsername:  s.NoCardUsername,
		}
	default:
		return nil, fmt.Errorf("%w: room %d has state %T", ErrBadRoom, r.ID, r.State)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return json.Marshal(roomJSON{
		ID:     r.ID,
		Name:   r.Name,
		Hidden: r.Hidden,
		Data:   raw,
	})
}

// UnmarshalJSON accepts the same shape MarshalJSON produces and rejects
// anything that breaks the round invariants. The server only encodes rooms;
// this is for Go clients and tests reading roomState and /rooms payloads.
func (r *Room) UnmarshalJSON(b []byte) error {
	var rj roomJSON
	if err := json.Unmarshal(b, &rj); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRoom, err)
	}
	if rj.ID < 0 {
		return fmt.Errorf("%w: negative id %d", ErrBadRoom, rj.ID)
	}
	if len(rj.Data) == 0 {
		return fmt.Errorf("%w: missing data", ErrBadRoom)
	}

	var tag struct {
		RoundInProgress *bool `json:"roundInProgress"`
	}
	if err := json.Unmarshal(rj.Data, &tag); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRoom, err)
	}
	if tag.RoundInProgress == nil {
		return fmt.Errorf("%w: missing roundInProgress", ErrBadRoom)
	}

	var state State
	if *tag.RoundInProgress {
		var aj activeJSON
		if err := json.Unmarshal(rj.Data, &aj); err != nil {
			return fmt.Errorf("%w: %w", ErrBadRoom, err)
		}
		a := Active{
			Base:            aj.toBase(),
			Card:            aj.Card,
			RoundPlayers:    nonNil(aj.RoundPlayers),
			Seen:            nonNil(aj.Seen),
			StarterUsername: aj.StarterUsername,
			NoCardUsername:  aj.NoCardUsername,
		}
		if err := checkActive(a); err != nil {
			return err
		}
		state = a
	} else {
		var bj baseJSON
		if err := json.Unmarshal(rj.Data, &bj); err != nil {
			return fmt.Errorf("%w: %w", ErrBadRoom, err)
		}
		state = Idle{Base: bj.toBase()}
	}

	*r = Room{
		ID:     rj.ID,
		Name:   rj.Name,
		Hidden: rj.Hidden,
		State:  state,
	}

	return nil
}

func checkActive(a Active) error {
	if !a.InRound(a.StarterUsername) {
		return fmt.Errorf("%w: starter %q not in round", ErrBadRoom, a.StarterUsername)
	}
	if !a.InRound(a.NoCardUsername) {
		return fmt.Errorf("%w: no-card player %q not in round", ErrBadRoom, a.NoCardUsername)
	}

	seen := make(map[string]struct{}, len(a.Seen))
	for _, name := range a.Seen {
		if !a.InRound(name) {
			return fmt.Errorf("%w: %q has seen a card but is not in the round", ErrBadRoom, name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %q seen twice", ErrBadRoom, name)
		}
		seen[name] = struct{}{}
	}

	return nil
}
