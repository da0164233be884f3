package routers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"codecollab/internal/api"
	"codecollab/internal/config"
	"codecollab/internal/metrics"
	"codecollab/internal/middleware"
	"codecollab/internal/models"
)

const serviceName = "collab"

func New(cfg *config.Config, h *api.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Logger, chimw.Recoverer)
	r.Use(metrics.Middleware(serviceName))

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// long-lived; kept outside the request timeout
	r.Get(cfg.WSPath, h.CollabWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Timeout(60 * time.Second))

		r.Get("/healthz", h.Health)

		r.Get("/sessions", h.ListSessions)
		r.Get("/sessions/{id}", h.GetSession)

		r.Get("/webrtc/config", h.WebRTCConfig)

		r.Route("/assist", func(r chi.Router) {
			analyze := middleware.ValidateRequest[*models.AnalyzeRequest]()
			r.With(analyze).Post("/explain", h.Analyze(models.ModeExplain))
			r.With(analyze).Post("/optimize", h.Analyze(models.ModeOptimize))
			r.With(analyze).Post("/audit", h.Analyze(models.ModeAudit))

			r.With(middleware.ValidateRequest[*models.ScanRequest]()).Post("/scan", h.Scan)
			r.With(middleware.ValidateRequest[*models.SpeechRequest]()).Post("/speech", h.Speech)
		})

		r.Get("/history/{userId}", h.UserHistory)
	})

	return r
}
