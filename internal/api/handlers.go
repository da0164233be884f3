package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"codecollab/internal/assist"
	"codecollab/internal/assist/speech"
	"codecollab/internal/config"
	"codecollab/internal/models"
	"codecollab/internal/session"
	"codecollab/internal/utils"
)

// HistoryLister reads a user's stored analyses.
type HistoryLister interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.AnalysisRecord, error)
}

// Deps bundles what the handlers serve. History may be nil when the history
// store is disabled.
type Deps struct {
	Config     *config.Config
	Hub        *session.Hub
	Dispatcher *session.Dispatcher
	Assist     *assist.Service
	Speech     *speech.Service
	History    HistoryLister
	WebRTC     models.WebRTCConfig
}

type Handlers struct {
	log        *zap.Logger
	cfg        *config.Config
	hub        *session.Hub
	dispatcher *session.Dispatcher
	assist     *assist.Service
	speech     *speech.Service
	history    HistoryLister
	webrtc     models.WebRTCConfig
	upgrader   websocket.Upgrader
}

func NewHandlers(log *zap.Logger, deps Deps) *Handlers {
	h := &Handlers{
		log:        log,
		cfg:        deps.Config,
		hub:        deps.Hub,
		dispatcher: deps.Dispatcher,
		assist:     deps.Assist,
		speech:     deps.Speech,
		history:    deps.History,
		webrtc:     deps.WebRTC,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(deps.Config.AllowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// ListSessions is the directory view: every session, no paging.
func (h *Handlers) ListSessions(w http.ResponseWriter, _ *http.Request) {
	utils.JSON(w, http.StatusOK, h.hub.List())
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.hub.Session(id)
	if errors.Is(err, session.ErrSessionNotFound) {
		utils.Error(w, http.StatusNotFound, session.ReasonSessionNotFound, "Session not found: "+id)
		return
	}
	if err != nil {
		h.log.Error("failed to read session", zap.String("session_id", id), zap.Error(err))
		utils.Error(w, http.StatusInternalServerError, "internal_error", "Failed to read session")
		return
	}
	utils.JSON(w, http.StatusOK, s)
}

func (h *Handlers) WebRTCConfig(w http.ResponseWriter, _ *http.Request) {
	utils.JSON(w, http.StatusOK, h.webrtc)
}
