package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/wordslip/internal/hub"
	"github.com/Seednode/wordslip/internal/rooms"
	"github.com/Seednode/wordslip/internal/router"
)

type roomsFixture struct {
	mux      *httprouter.Router
	registry *rooms.Registry
	errs     chan error
}

func newRoomsFixture(t *testing.T) *roomsFixture {
	t.Helper()

	cfg := validConfig()

	registry := rooms.NewRegistry(func(int) int { return 0 })
	kitchen := registry.Create("kitchen")
	kitchen.Join("ana")
	registry.Create("attic").Delete()
	registry.Create("porch")

	h := hub.New(hub.Options{Logger: zerolog.Nop()})
	rt := router.New(registry, h, router.Options{Logger: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx, rt)

	mux := httprouter.New()
	errs := make(chan error, 8)
	registerRooms(cfg, h, registry, mux, errs)

	return &roomsFixture{mux: mux, registry: registry, errs: errs}
}

func (f *roomsFixture) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	return rec
}

func TestServeRoomsListsVisible(t *testing.T) {
	f := newRoomsFixture(t)

	rec := f.get("/rooms")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var got []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Data struct {
			Players []string `json:"players"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].ID)
	assert.Equal(t, "kitchen", got[0].Name)
	assert.Equal(t, []string{"ana"}, got[0].Data.Players)
	assert.Equal(t, 2, got[1].ID)
	assert.Equal(t, "porch", got[1].Name)
}

func TestServeRoomIncludesHidden(t *testing.T) {
	f := newRoomsFixture(t)

	rec := f.get("/rooms/1")
	require.Equal(t, http.StatusOK, rec.Code)

	var got rooms.Room
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "attic", got.Name)
	assert.True(t, got.Hidden)
	assert.False(t, got.State.RoundInProgress())
}

func TestServeRoomErrors(t *testing.T) {
	f := newRoomsFixture(t)

	assert.Equal(t, http.StatusNotFound, f.get("/rooms/3").Code)
	assert.Equal(t, http.StatusBadRequest, f.get("/rooms/-1").Code)
	assert.Equal(t, http.StatusBadRequest, f.get("/rooms/kitchen").Code)
}

func TestServeRoomQR(t *testing.T) {
	f := newRoomsFixture(t)

	rec := f.get("/room/2/qr")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, qrSize, img.Bounds().Dx())

	assert.Equal(t, http.StatusBadRequest, f.get("/room/x/qr").Code)
}

func TestHumanReadableSize(t *testing.T) {
	assert.Equal(t, "999 B", humanReadableSize(999))
	assert.Equal(t, "1.0 kB", humanReadableSize(1000))
	assert.Equal(t, "2.5 MB", humanReadableSize(2_500_000))
}
