package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/wordslip/internal/rooms"
	"github.com/Seednode/wordslip/internal/router"
)

type frame struct {
	Event string            `json:"event"`
	Args  []json.RawMessage `json:"args"`
	Ack   *int              `json:"ack"`
}

type harness struct {
	hub    *Hub
	reg    *rooms.Registry
	url    string
	cancel context.CancelFunc
}

func start(t *testing.T, opts Options) *harness {
	t.Helper()

	opts.Logger = zerolog.Nop()
	reg := rooms.NewRegistry(func(int) int { return 0 })
	h := New(opts)
	rt := router.New(reg, h, router.Options{Logger: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx, rt)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.ServeWS(w, r, r.RemoteAddr)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(cancel)

	return &harness{
		hub:    h,
		reg:    reg,
		url:    "ws" + strings.TrimPrefix(srv.URL, "http"),
		cancel: cancel,
	}
}

// dial connects and consumes the initial room list.
func (hs *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(hs.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	f := read(t, conn)
	require.Equal(t, router.EventRooms, f.Event)

	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, ack *int, args ...any) {
	t.Helper()

	raw := make([]json.RawMessage, 0, len(args))
	for _, a := range args {
		b, err := json.Marshal(a)
		require.NoError(t, err)
		raw = append(raw, b)
	}

	require.NoError(t, conn.WriteJSON(router.Event{Name: event, Args: raw, Ack: ack}))
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var f frame
	require.NoError(t, conn.ReadJSON(&f))

	return f
}

func roomArg(t *testing.T, f frame) rooms.Room {
	t.Helper()

	require.Len(t, f.Args, 1)
	var r rooms.Room
	require.NoError(t, json.Unmarshal(f.Args[0], &r))

	return r
}

func ackID(i int) *int { return &i }

func (hs *harness) createRoom(t *testing.T, conn *websocket.Conn, name string) int {
	t.Helper()

	send(t, conn, router.EventCreateRoom, ackID(1), name)

	f := read(t, conn)
	require.Equal(t, router.EventRooms, f.Event)

	f = read(t, conn)
	require.Equal(t, router.EventAck, f.Event)
	require.NotNil(t, f.Ack)
	assert.Equal(t, 1, *f.Ack)

	var id int
	require.NoError(t, json.Unmarshal(f.Args[0], &id))

	return id
}

func TestHub_SendsRoomsOnConnect(t *testing.T) {
	hs := start(t, Options{})

	conn, _, err := websocket.DefaultDialer.Dial(hs.url, nil)
	require.NoError(t, err)
	defer conn.Close()

	f := read(t, conn)
	assert.Equal(t, router.EventRooms, f.Event)
	require.Len(t, f.Args, 1)
	assert.JSONEq(t, `[]`, string(f.Args[0]))
}

func TestHub_CreateRoomBroadcastsAndAcks(t *testing.T) {
	hs := start(t, Options{})
	a := hs.dial(t)
	b := hs.dial(t)

	id := hs.createRoom(t, a, "Test")
	assert.Equal(t, 0, id)

	f := read(t, b)
	assert.Equal(t, router.EventRooms, f.Event)
	var list []rooms.Room
	require.NoError(t, json.Unmarshal(f.Args[0], &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Test", list[0].Name)
}

func TestHub_GroupBroadcast(t *testing.T) {
	hs := start(t, Options{})
	a := hs.dial(t)
	b := hs.dial(t)
	outside := hs.dial(t)

	id := hs.createRoom(t, a, "Test")
	read(t, b)
	read(t, outside)

	send(t, a, router.EventJoinRoom, nil, id)
	assert.Equal(t, router.EventRoomState, read(t, a).Event)
	send(t, b, router.EventJoinRoom, nil, id)
	assert.Equal(t, router.EventRoomState, read(t, b).Event)

	send(t, a, router.EventJoinGame, nil, id, "A")

	for _, conn := range []*websocket.Conn{a, b} {
		f := read(t, conn)
		require.Equal(t, router.EventRoomState, f.Event)
		room := roomArg(t, f)
		assert.Equal(t, []string{"A"}, room.State.Common().Players)
	}

	// The outside connection hears nothing until the next registry-wide event.
	send(t, a, router.EventDeleteRoom, nil, id)
	f := read(t, outside)
	assert.Equal(t, router.EventRooms, f.Event)
}

func TestHub_FullRoundOverWire(t *testing.T) {
	hs := start(t, Options{})
	c := hs.dial(t)

	id := hs.createRoom(t, c, "Test")
	send(t, c, router.EventJoinRoom, nil, id)
	read(t, c)

	send(t, c, router.EventAddCard, nil, id, map[string]string{"card": "apple", "player": "A"})
	send(t, c, router.EventAddCard, nil, id, "pear")
	send(t, c, router.EventJoinGame, nil, id, "A")
	send(t, c, router.EventJoinGame, nil, id, "B")
	send(t, c, router.EventStartRound, nil, id)
	for i := 0; i < 4; i++ {
		read(t, c)
	}

	room := roomArg(t, read(t, c))
	active, ok := room.State.(rooms.Active)
	require.True(t, ok)
	assert.Equal(t, "apple", *active.Card)
	assert.Len(t, active.Cards, 1)
	assert.Equal(t, []string{"A", "B"}, active.RoundPlayers)

	send(t, c, router.EventViewCard, nil, id, "A")
	send(t, c, router.EventViewCard, nil, id, "B")
	read(t, c)
	room = roomArg(t, read(t, c))
	assert.Len(t, room.State.(rooms.Active).Seen, 2)

	send(t, c, router.EventEndRound, nil, id)
	room = roomArg(t, read(t, c))
	idle, ok := room.State.(rooms.Idle)
	require.True(t, ok)
	require.NotNil(t, idle.PreviousWord)
	assert.Equal(t, "apple", *idle.PreviousWord)
}

func TestHub_IgnoresMalformedFrames(t *testing.T) {
	hs := start(t, Options{})
	c := hs.dial(t)

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(`{"args":[1]}`)))

	assert.Equal(t, 0, hs.createRoom(t, c, "Test"))
}

func TestHub_RateLimit(t *testing.T) {
	hs := start(t, Options{EventRate: 0.001, EventBurst: 1})
	c := hs.dial(t)

	hs.createRoom(t, c, "first")
	send(t, c, router.EventCreateRoom, ackID(2), "second")

	time.Sleep(100 * time.Millisecond)

	var n int
	require.NoError(t, hs.hub.Query(context.Background(), func() { n = hs.reg.Len() }))
	assert.Equal(t, 1, n)
}

func TestHub_Query(t *testing.T) {
	hs := start(t, Options{})

	var n int
	err := hs.hub.Query(context.Background(), func() {
		hs.reg.Create("x")
		n = hs.reg.Len()
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHub_QueryAfterStop(t *testing.T) {
	hs := start(t, Options{})
	hs.cancel()

	assert.Eventually(t, func() bool {
		return hs.hub.Query(context.Background(), func() {}) == ErrStopped
	}, time.Second, 10*time.Millisecond)
}

func TestHub_StopClosesClients(t *testing.T) {
	hs := start(t, Options{})
	c := hs.dial(t)

	hs.cancel()

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := c.ReadMessage()
	assert.Error(t, err)
}
