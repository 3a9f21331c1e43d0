package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fortuna/services/player-stats-service/internal/logger"
	"github.com/fortuna/services/player-stats-service/pkg/models"
)

// StatsAPI is the query side the HTTP layer depends on
type StatsAPI interface {
	Ping(ctx context.Context) error
	PlayerReport(ctx context.Context, name string) (models.PlayerStatsReport, error)
	AllReports(ctx context.Context) ([]models.PlayerStatsReport, error)
	ListPlayers(ctx context.Context) ([]models.PlayerSummary, error)
	SearchPlayers(ctx context.Context, query string) ([]models.PlayerSummary, error)
	Suggest(ctx context.Context, name string) []string
	RegisterPlayer(ctx context.Context, player models.Player) (models.Player, error)
}

// BatchIngester stores one CSV batch
type BatchIngester interface {
	Ingest(ctx context.Context, r io.Reader, source string) (models.IngestEvent, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	stats    StatsAPI
	ingester BatchIngester
	log      *logger.Logger
}

// NewHandler creates a new handler with dependencies
func NewHandler(stats StatsAPI, ingester BatchIngester, log *logger.Logger) *Handler {
	return &Handler{
		stats:    stats,
		ingester: ingester,
		log:      log,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.stats.Ping(ctx); err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "store unhealthy", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "player-stats-service",
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// the status line is already written; nothing left to report to the client
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	h.respondErrorBody(w, models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}, err)
}

func (h *Handler) respondErrorBody(w http.ResponseWriter, resp models.ErrorResponse, err error) {
	if err != nil {
		if resp.Code >= http.StatusInternalServerError {
			h.log.Error(resp.Message, "status", resp.Code, "error", err)
		} else {
			h.log.Debug(resp.Message, "status", resp.Code, "error", err)
		}
	}
	respondJSON(w, resp.Code, resp)
}

// respondServiceError maps domain errors onto status codes
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, player string, err error) {
	switch {
	case errors.Is(err, models.ErrUnknownPlayer):
		resp := errorBody(http.StatusNotFound, "player not found: "+player)
		resp.Suggestions = h.stats.Suggest(r.Context(), player)
		h.respondErrorBody(w, resp, err)

	case errors.Is(err, models.ErrNoGames):
		resp := errorBody(http.StatusUnprocessableEntity, "player has no recorded games: "+player)
		resp.Reason = "no_games"
		h.respondErrorBody(w, resp, err)

	case errors.Is(err, context.DeadlineExceeded):
		h.respondError(w, http.StatusGatewayTimeout, "request timed out", err)

	default:
		if problems := models.DataQualityErrors(err); len(problems) > 0 {
			resp := errorBody(http.StatusUnprocessableEntity, "data quality violations")
			resp.Reason = "data_quality"
			resp.Problems = problems
			h.respondErrorBody(w, resp, err)
			return
		}
		h.respondError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func errorBody(status int, message string) models.ErrorResponse {
	return models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
}
