package handlers

import (
	"net/http"
	"time"

	"github.com/fortuna/services/player-stats-service/internal/logger"
	"github.com/fortuna/services/player-stats-service/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries what NewRouter mounts
type RouterConfig struct {
	API         *Handler
	WS          *WSHandler         // optional
	IngestLimit middleware.Allower // optional
	CORSOrigins []string
	Log         *logger.Logger
}

// NewRouter builds the service's HTTP routes
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(cfg.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.StripSlashes)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := cfg.API

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Get("/health", h.HealthCheck)
		r.Get("/stats/player/{playerName}", h.GetPlayerStats)

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/players", func(r chi.Router) {
				r.Get("/", h.ListPlayers)
				r.Post("/", h.RegisterPlayer)
				r.Get("/search", h.SearchPlayers)
				r.Get("/{playerName}/stats", h.GetPlayerStats)
			})

			r.Get("/stats", h.GetAllStats)
			r.Group(func(r chi.Router) {
				if cfg.IngestLimit != nil {
					r.Use(middleware.RateLimit(cfg.IngestLimit, cfg.Log))
				}
				r.Post("/ingest", h.IngestCSV)
			})
		})
	})

	if cfg.WS != nil {
		r.Get("/ws", cfg.WS.HandleWebSocket)
		r.Get("/ws/metrics", cfg.WS.HandleMetrics)
	}

	return r
}
