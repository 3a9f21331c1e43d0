package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fortuna/services/player-stats-service/internal/ingest"
)

const maxIngestBody = 32 << 20

// IngestCSV stores a CSV body of box score rows under the given source,
// replacing whatever that source held before
// Query params: source
func (h *Handler) IngestCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	source := strings.TrimSpace(r.URL.Query().Get("source"))
	if source == "" {
		h.respondError(w, http.StatusBadRequest, "query parameter source is required", nil)
		return
	}

	event, err := h.ingester.Ingest(ctx, http.MaxBytesReader(w, r.Body, maxIngestBody), source)
	if err != nil {
		var tooLarge *http.MaxBytesError
		var parseErr *csv.ParseError
		switch {
		case errors.As(err, &tooLarge):
			h.respondError(w, http.StatusRequestEntityTooLarge, "request body too large", err)
		case errors.Is(err, ingest.ErrMissingColumns):
			resp := errorBody(http.StatusUnprocessableEntity, err.Error())
			resp.Reason = "missing_columns"
			h.respondErrorBody(w, resp, err)
		case errors.As(err, &parseErr):
			h.respondError(w, http.StatusBadRequest, "malformed csv: "+parseErr.Error(), err)
		default:
			h.respondServiceError(w, r, "", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, event)
}
