package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fortuna/services/player-stats-service/internal/service"
	"github.com/fortuna/services/player-stats-service/pkg/models"
	"github.com/go-chi/chi/v5"
)

const maxPlayerBody = 64 << 10

// GetPlayerStats returns the aggregated report of one player
func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	name := playerNameParam(r)
	if name == "" {
		h.respondError(w, http.StatusBadRequest, "player name is required", nil)
		return
	}

	report, err := h.stats.PlayerReport(ctx, name)
	if err != nil {
		h.respondServiceError(w, r, name, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetAllStats returns the report of every player with games, sorted by name
func (h *Handler) GetAllStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	reports, err := h.stats.AllReports(ctx)
	if err != nil {
		h.respondServiceError(w, r, "", err)
		return
	}
	if reports == nil {
		reports = []models.PlayerStatsReport{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"players": reports,
		"count":   len(reports),
	})
}

// ListPlayers returns every registered player
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	players, err := h.stats.ListPlayers(ctx)
	if err != nil {
		h.respondServiceError(w, r, "", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"players": players,
		"count":   len(players),
	})
}

// SearchPlayers runs a fuzzy name search
// Query params: q
func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.respondError(w, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}

	players, err := h.stats.SearchPlayers(ctx, query)
	if err != nil {
		h.respondServiceError(w, r, "", err)
		return
	}
	if players == nil {
		players = []models.PlayerSummary{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"players": players,
		"count":   len(players),
	})
}

// RegisterPlayer creates or updates a player identity
func (h *Handler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req models.Player
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPlayerBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	player, err := h.stats.RegisterPlayer(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			h.respondError(w, http.StatusBadRequest, err.Error(), err)
			return
		}
		h.respondServiceError(w, r, req.Name, err)
		return
	}

	respondJSON(w, http.StatusCreated, player)
}

// playerNameParam decodes the {playerName} segment. chi matches on the raw
// path when the request carries one, leaving escapes in place.
func playerNameParam(r *http.Request) string {
	raw := chi.URLParam(r, "playerName")
	if r.URL.RawPath != "" {
		if name, err := url.PathUnescape(raw); err == nil {
			raw = name
		}
	}
	return strings.TrimSpace(raw)
}
