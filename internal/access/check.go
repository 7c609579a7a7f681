package access

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidID     = errors.New("invalid room id")
	ErrNotInAnyRoom  = errors.New("client not in any room")
	ErrNotInRoom     = errors.New("client not in room")
	ErrNotInRegistry = errors.New("room id not in registry")
)

// Counter is the part of the registry the check needs.
type Counter interface {
	Len() int
}

// Check decides whether the session may act on room. Unless joining, the
// session must already be viewing that room.
//
// A session viewing more than one room has every other room evicted, even
// when the check then fails. Evicted rooms are returned so the caller can
// mirror them in the transport.
func Check(registry Counter, s *Session, room int, joining bool) (evicted []int, err error) {
	if room < 0 {
		return nil, fmt.Errorf("%w %d", ErrInvalidID, room)
	}

	if !joining {
		if len(s.rooms) == 0 {
			return nil, ErrNotInAnyRoom
		}
		if !s.InRoom(room) {
			return nil, fmt.Errorf("%w %d", ErrNotInRoom, room)
		}
	}

	if len(s.rooms) > 1 {
		for _, other := range s.Rooms() {
			if other != room {
				s.Leave(other)
				evicted = append(evicted, other)
			}
		}
	}

	if room >= registry.Len() {
		return evicted, fmt.Errorf("%w: %d", ErrNotInRegistry, room)
	}

	return evicted, nil
}
