package rooms

// Registry is the append-only list of rooms. A room's ID is its index.
type Registry struct {
	rooms []*Room
	pick  Picker
}

// NewRegistry returns an empty registry. A nil pick falls back to CryptoPicker.
func NewRegistry(pick Picker) *Registry {
	if pick == nil {
		pick = CryptoPicker
	}

	return &Registry{pick: pick}
}

// Create appends a new idle room and returns it.
func (r *Registry) Create(name string) *Room {
	room := newRoom(len(r.rooms), name)
	r.rooms = append(r.rooms, room)

	return room
}

// Get looks up a room by index.
func (r *Registry) Get(id int) (*Room, bool) {
	if id < 0 || id >= len(r.rooms) {
		return nil, false
	}

	return r.rooms[id], true
}

func (r *Registry) Len() int {
	return len(r.rooms)
}

// All returns every room, hidden ones included, in creation order.
func (r *Registry) All() []*Room {
	out := make([]*Room, len(r.rooms))
	copy(out, r.rooms)

	return out
}

// Visible returns the rooms that have not been deleted.
func (r *Registry) Visible() []*Room {
	out := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		if !room.Hidden {
			out = append(out, room)
		}
	}

	return out
}

// Picker is the random source used for rounds in this registry.
func (r *Registry) Picker() Picker {
	return r.pick
}
