package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/wordslip/internal/hub"
	"github.com/Seednode/wordslip/internal/rooms"
)

const qrSize = 320

func roomID(p httprouter.Params) (int, bool) {
	id, err := strconv.Atoi(p.ByName("id"))
	if err != nil || id < 0 {
		return 0, false
	}

	return id, true
}

func writeJSON(cfg *Config, w http.ResponseWriter, r *http.Request, body []byte, what string, startTime time.Time, errs chan<- error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	securityHeaders(cfg, w)

	written, err := w.Write(body)
	if err != nil {
		errs <- err

		return
	}

	logf(cfg, "SERVE: %s (%s) to %s in %s",
		what,
		humanReadableSize(int64(written)),
		realIP(r),
		time.Since(startTime).Round(time.Microsecond),
	)
}

// serveRooms lists the rooms that have not been deleted.
func serveRooms(cfg *Config, h *hub.Hub, registry *rooms.Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		var body []byte
		var err error

		if qerr := h.Query(r.Context(), func() {
			body, err = json.Marshal(registry.Visible())
		}); qerr != nil {
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			errs <- err
			http.Error(w, "encoding failed", http.StatusInternalServerError)
			return
		}

		writeJSON(cfg, w, r, body, "Room list", startTime, errs)
	}
}

// serveRoom returns one room by index, deleted or not.
func serveRoom(cfg *Config, h *hub.Hub, registry *rooms.Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		id, ok := roomID(p)
		if !ok {
			http.Error(w, "invalid room id", http.StatusBadRequest)
			return
		}

		var body []byte
		var err error
		found := false

		if qerr := h.Query(r.Context(), func() {
			var room *rooms.Room
			room, found = registry.Get(id)
			if found {
				body, err = json.Marshal(room)
			}
		}); qerr != nil {
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		}
		if !found {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			errs <- err
			http.Error(w, "encoding failed", http.StatusInternalServerError)
			return
		}

		writeJSON(cfg, w, r, body, "Room "+strconv.Itoa(id), startTime, errs)
	}
}

// serveRoomQR renders a PNG QR code pointing at the room's page, so players
// in the same physical room can join from their phones.
func serveRoomQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, ok := roomID(p)
		if !ok {
			http.Error(w, "invalid room id", http.StatusBadRequest)
			return
		}

		scheme := cfg.scheme()
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + "/room/" + strconv.Itoa(id)

		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		if _, err := w.Write(png); err != nil {
			errs <- err
		}
	}
}

func registerRooms(cfg *Config, h *hub.Hub, registry *rooms.Registry, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/rooms", serveRooms(cfg, h, registry, errs))
	mux.GET(cfg.prefix+"/rooms/:id", serveRoom(cfg, h, registry, errs))
	mux.GET(cfg.prefix+"/room/:id/qr", serveRoomQR(cfg, errs))
}
