package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lastball/internal/game"

	"github.com/go-chi/chi/v5"
)

const (
	defaultEventCount = 50
	maxEventCount     = game.EventBufferSize
	maxBoundarySide   = 10000
)

// Handler methods for routerHandlers

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Snapshot())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()

	stats := map[string]interface{}{
		"playerCount": len(snap.Players),
		"sequence":    snap.Sequence,
		"round":       snap.Round,
	}
	if h.events != nil {
		stats["events"] = h.events.GetStats()
	}
	if h.limiter != nil {
		stats["rateLimit"] = h.limiter.GetStats()
	}
	writeJSON(w, stats)
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeJSON(w, []game.Event{})
		return
	}

	n := defaultEventCount
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}
	if n > maxEventCount {
		n = maxEventCount
	}

	events := h.events.Recent(n)
	if events == nil {
		events = []game.Event{}
	}
	writeJSON(w, events)
}

func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, "Rendering disabled", http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	img := h.renderer.Render(h.store.Snapshot())
	RecordRender(time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		log.Printf("⚠️ Frame encode failed: %v", err)
	}
}

func (h *routerHandlers) handleAddPlayers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Names string `json:"names"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if h.maxPlayers > 0 {
		snap := h.store.Snapshot()
		if len(snap.Players)+len(strings.Fields(req.Names)) > h.maxPlayers {
			writeError(w, "Player limit reached", http.StatusServiceUnavailable)
			return
		}
	}

	added, err := h.store.AddPlayers(req.Names)
	if errors.Is(err, game.ErrInvalidName) {
		// Blank input is ignored, not reported
		writeJSON(w, map[string]interface{}{"players": []game.Player{}})
		return
	}
	if err != nil {
		writeGameError(w, err)
		return
	}

	UpdatePlayerCount(len(h.store.Snapshot().Players))
	writeJSONStatus(w, map[string]interface{}{"players": added}, http.StatusCreated)
}

func (h *routerHandlers) handleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "Invalid player id", http.StatusBadRequest)
		return
	}

	if err := h.store.RemovePlayer(id); err != nil {
		writeGameError(w, err)
		return
	}

	UpdatePlayerCount(len(h.store.Snapshot().Players))
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleShuffle(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Shuffle(); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleHover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID int `json:"id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.store.SetHoveredPlayer(req.ID); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleRoundPlay(w http.ResponseWriter, r *http.Request) {
	h.round.Play()
	h.writeRoundState(w)
}

func (h *routerHandlers) handleRoundToggle(w http.ResponseWriter, r *http.Request) {
	h.round.TogglePlay()
	h.writeRoundState(w)
}

func (h *routerHandlers) handleRoundPause(w http.ResponseWriter, r *http.Request) {
	h.round.Pause()
	h.writeRoundState(w)
}

func (h *routerHandlers) handleRoundReset(w http.ResponseWriter, r *http.Request) {
	log.Println("🔄 Round reset requested via API")
	h.round.Reset()
	h.writeRoundState(w)
}

func (h *routerHandlers) handleUpdateBoundary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Width <= 0 || req.Height <= 0 || req.Width > maxBoundarySide || req.Height > maxBoundarySide {
		writeError(w, fmt.Sprintf("width and height must be in (0, %d]", maxBoundarySide), http.StatusBadRequest)
		return
	}

	h.store.UpdateBoundary(req.Height, req.Width)
	writeJSON(w, h.store.Snapshot().Boundary)
}

func (h *routerHandlers) writeRoundState(w http.ResponseWriter) {
	writeJSON(w, map[string]interface{}{"state": h.round.State()})
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeJSONStatus(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSONStatus(w, map[string]string{"error": message}, code)
}

// writeGameError maps game sentinel errors to HTTP status codes
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrPlayerNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, game.ErrPlacementExhausted):
		RecordPlacementFailure()
		writeError(w, err.Error(), http.StatusConflict)
	default:
		writeError(w, err.Error(), http.StatusInternalServerError)
	}
}
