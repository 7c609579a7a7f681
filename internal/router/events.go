package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Seednode/wordslip/internal/rooms"
)

// Inbound event names.
const (
	EventCreateRoom  = "createRoom"
	EventJoinRoom    = "joinRoom"
	EventLeaveRoom   = "leaveRoom"
	EventJoinGame    = "joinGame"
	EventLeaveGame   = "leaveGame"
	EventAddCard     = "addCard"
	EventViewCard    = "viewCard"
	EventBeAdmin     = "beAdmin"
	EventRevokeAdmin = "revokeAdmin"
	EventKickPlayer  = "kickPlayer"
	EventStartRound  = "startRound"
	EventEndRound    = "endRound"
	EventResetRoom   = "resetRoom"
	EventDeleteRoom  = "deleteRoom"
)

// Outbound event names.
const (
	EventRooms     = "rooms"
	EventRoomState = "roomState"
	EventAck       = "ack"
)

var ErrMalformed = errors.New("malformed payload")

// Event is one named message from a client. Ack is set when the client
// expects a reply (createRoom).
type Event struct {
	Name string            `json:"event"`
	Args []json.RawMessage `json:"args"`
	Ack  *int              `json:"ack,omitempty"`
}

// Outbound is one named message to a client.
type Outbound struct {
	Name string `json:"event"`
	Args []any  `json:"args"`
	Ack  *int   `json:"ack,omitempty"`
}

func (e Event) arg(i int, dst any) error {
	if i >= len(e.Args) {
		return fmt.Errorf("%w: %s: missing argument %d", ErrMalformed, e.Name, i)
	}
	if err := json.Unmarshal(e.Args[i], dst); err != nil {
		return fmt.Errorf("%w: %s: argument %d: %w", ErrMalformed, e.Name, i, err)
	}

	return nil
}

// Payload shapes, checked with the validator after decoding.

type namePayload struct {
	Name string `validate:"required,maxlen"`
}

type usernamePayload struct {
	Username string `validate:"required,maxlen"`
}

type cardPayload struct {
	Text   string `json:"card" validate:"maxlen"`
	Player string `json:"player" validate:"maxlen"`
}

// UnmarshalJSON accepts either {"card": ..., "player": ...} or a bare string.
func (c *cardPayload) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*c = cardPayload{Text: text}
		return nil
	}

	type plain cardPayload
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = cardPayload(p)

	return nil
}

func (c cardPayload) blank() bool {
	return strings.TrimSpace(c.Text) == ""
}

func (c cardPayload) card() rooms.Card {
	return rooms.Card{Text: c.Text, Player: c.Player}
}
