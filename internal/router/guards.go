package router

import "github.com/Seednode/wordslip/internal/rooms"

func canStart(s rooms.State) bool {
	idle, ok := s.(rooms.Idle)
	return ok && rooms.CanStart(idle)
}

func canSee(s rooms.State, username string) bool {
	active, ok := s.(rooms.Active)
	return ok && active.InRound(username) && !active.HasSeen(username)
}
