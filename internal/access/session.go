// Package access tracks which rooms a connection is viewing and decides
// whether it may act on a room.
package access

import (
	"slices"
	"strconv"

	"github.com/google/uuid"
)

// Session is the server-side record for one connection. Its ID doubles as
// the connection's private group. Rooms it has joined are its room groups.
//
// Sessions are owned by the hub loop and are not safe for concurrent use.
type Session struct {
	id       string
	username string
	rooms    map[int]struct{}
}

func NewSession() *Session {
	return &Session{
		id:    uuid.NewString(),
		rooms: make(map[int]struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Username is the name the connection last claimed, or "".
func (s *Session) Username() string {
	return s.username
}

func (s *Session) Claim(username string) {
	s.username = username
}

// Release drops the claimed username if it is username.
func (s *Session) Release(username string) {
	if s.username == username {
		s.username = ""
	}
}

func (s *Session) Join(room int) {
	s.rooms[room] = struct{}{}
}

func (s *Session) Leave(room int) {
	delete(s.rooms, room)
}

func (s *Session) InRoom(room int) bool {
	_, ok := s.rooms[room]
	return ok
}

// Rooms lists the joined rooms in ascending order.
func (s *Session) Rooms() []int {
	out := make([]int, 0, len(s.rooms))
	for room := range s.rooms {
		out = append(out, room)
	}
	slices.Sort(out)

	return out
}

// Groups is every group the connection belongs to: its private group first,
// then one group per joined room.
func (s *Session) Groups() []string {
	out := []string{s.id}
	for _, room := range s.Rooms() {
		out = append(out, strconv.Itoa(room))
	}

	return out
}
