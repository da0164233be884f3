package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"codecollab/internal/assist/scanner"
	"codecollab/internal/middleware"
	"codecollab/internal/models"
	"codecollab/internal/utils"
)

const analysisTimeout = 45 * time.Second

// Analyze serves one analysis mode. The request is validated by
// middleware.ValidateRequest before this runs.
func (h *Handlers) Analyze(mode models.AnalysisMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := middleware.GetValidatedRequest[*models.AnalyzeRequest](r)

		ctx, cancel := context.WithTimeout(r.Context(), analysisTimeout)
		defer cancel()

		utils.JSON(w, http.StatusOK, h.assist.Analyze(ctx, mode, *req))
	}
}

func (h *Handlers) Scan(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.ScanRequest](r)

	findings := scanner.Scan(req.Code, req.Language)
	if findings == nil {
		findings = []models.Finding{}
	}
	utils.JSON(w, http.StatusOK, models.ScanResponse{Findings: findings})
}

func (h *Handlers) Speech(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.SpeechRequest](r)
	utils.JSON(w, http.StatusOK, h.speech.Synthesize(r.Context(), req.Text, req.VoiceID, req.Speed))
}

// UserHistory lists stored analyses for a user, newest first.
func (h *Handlers) UserHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		utils.Error(w, http.StatusServiceUnavailable, "history_disabled", "Analysis history is not enabled")
		return
	}

	userID := chi.URLParam(r, "userId")
	if userID == "" {
		utils.Error(w, http.StatusBadRequest, "missing_user_id", "userId is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.Error(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := h.history.ListByUser(r.Context(), userID, limit)
	if err != nil {
		h.log.Error("failed to list history", zap.String("user_id", userID), zap.Error(err))
		utils.Error(w, http.StatusInternalServerError, "history_error", "Failed to retrieve history")
		return
	}
	utils.JSON(w, http.StatusOK, records)
}
