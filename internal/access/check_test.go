package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedLen int

func (n fixedLen) Len() int { return int(n) }

func TestCheck_InvalidID(t *testing.T) {
	s := NewSession()
	s.Join(0)

	_, err := Check(fixedLen(3), s, -1, false)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = Check(fixedLen(3), s, -1, true)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestCheck_NotInAnyRoom(t *testing.T) {
	_, err := Check(fixedLen(3), NewSession(), 0, false)
	assert.ErrorIs(t, err, ErrNotInAnyRoom)
}

func TestCheck_NotInRoom(t *testing.T) {
	s := NewSession()
	s.Join(1)

	_, err := Check(fixedLen(3), s, 0, false)
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestCheck_JoiningSkipsMembership(t *testing.T) {
	evicted, err := Check(fixedLen(3), NewSession(), 2, true)
	assert.NoError(t, err)
	assert.Empty(t, evicted)
}

func TestCheck_NotInRegistry(t *testing.T) {
	_, err := Check(fixedLen(1), NewSession(), 1, true)
	assert.ErrorIs(t, err, ErrNotInRegistry)

	s := NewSession()
	s.Join(5)
	_, err = Check(fixedLen(1), s, 5, false)
	assert.ErrorIs(t, err, ErrNotInRegistry)
}

func TestCheck_Passes(t *testing.T) {
	s := NewSession()
	s.Join(0)

	evicted, err := Check(fixedLen(1), s, 0, false)
	require.NoError(t, err)
	assert.Empty(t, evicted)
	assert.True(t, s.InRoom(0))
}

func TestCheck_EvictsStaleRooms(t *testing.T) {
	s := NewSession()
	s.Join(0)
	s.Join(1)
	s.Join(2)

	evicted, err := Check(fixedLen(3), s, 1, false)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, evicted)
	assert.Equal(t, []int{1}, s.Rooms())
}

func TestCheck_EvictsEvenWhenRejected(t *testing.T) {
	s := NewSession()
	s.Join(0)
	s.Join(7)

	evicted, err := Check(fixedLen(1), s, 7, false)
	assert.ErrorIs(t, err, ErrNotInRegistry)
	assert.Equal(t, []int{0}, evicted)
	assert.Equal(t, []int{7}, s.Rooms())
}

func TestCheck_SingleRoomIsLeftAlone(t *testing.T) {
	s := NewSession()
	s.Join(0)

	evicted, err := Check(fixedLen(2), s, 1, true)
	require.NoError(t, err)
	assert.Empty(t, evicted)
	assert.Equal(t, []int{0}, s.Rooms())
}
