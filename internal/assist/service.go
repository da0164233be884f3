package assist

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codecollab/internal/assist/llm"
	"codecollab/internal/assist/prompts"
	"codecollab/internal/assist/scanner"
	"codecollab/internal/models"
	"codecollab/internal/utils"
)

// Fallback reasons reported in AnalysisMetadata.
const (
	FallbackNoProvider    = "provider_unavailable"
	FallbackProviderError = "provider_error"
	FallbackEmptyResponse = "empty_response"
	FallbackPromptError   = "prompt_error"
)

var errEmptyResponse = errors.New("provider returned empty content")

// HistoryRecorder persists completed analyses for a user.
type HistoryRecorder interface {
	Append(ctx context.Context, rec *models.AnalysisRecord) error
}

// Service runs explain, optimize and audit analyses. A nil provider is
// allowed; every analysis then uses the heuristic fallback.
type Service struct {
	provider llm.Provider
	prompts  *prompts.PromptManager
	history  HistoryRecorder
	log      *zap.Logger
	now      func() time.Time
}

func NewService(provider llm.Provider, pm *prompts.PromptManager, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		provider: provider,
		prompts:  pm,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) SetHistory(h HistoryRecorder) {
	s.history = h
}

// ProviderName is "heuristic" when no LLM provider is configured.
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return models.SourceHeuristic
	}
	return s.provider.GetProviderName()
}

// Analyze never fails: provider errors degrade to the heuristic analysis and
// the reason is reported in the result metadata.
func (s *Service) Analyze(ctx context.Context, mode models.AnalysisMode, req models.AnalyzeRequest) models.AnalysisResult {
	start := s.now()
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	if req.DetailLevel == "" {
		req.DetailLevel = models.DefaultDetailLevel
	}
	language := utils.NormalizeLanguage(req.Language)

	result := models.AnalysisResult{
		Mode:      mode,
		RequestID: req.RequestID,
		Metadata:  models.AnalysisMetadata{DetailLevel: req.DetailLevel},
	}

	var findings []models.Finding
	if mode == models.ModeAudit {
		findings = scanner.Scan(req.Code, language)
		result.Findings = findings
	}

	s.log.Info("analysis requested",
		zap.String("request_id", req.RequestID),
		zap.String("mode", string(mode)),
		zap.String("language", language),
		zap.String("detail_level", req.DetailLevel),
		zap.Int("code_length", len(req.Code)))

	gen, reason, err := s.generate(ctx, mode, req.Code, language, req.DetailLevel, req.RequestID)
	if err != nil {
		s.log.Warn("falling back to heuristic analysis",
			zap.String("request_id", req.RequestID),
			zap.String("reason", reason),
			zap.Error(err))
		result.Content = heuristic(mode, req.Code, language, req.DetailLevel, findings)
		result.Source = models.SourceHeuristic
		result.Metadata.Provider = models.SourceHeuristic
		result.Metadata.FallbackReason = reason
	} else {
		result.Content = gen.Content
		result.Source = models.SourceLLM
		result.Metadata.Provider = gen.Metadata.Provider
		result.Metadata.Model = gen.Metadata.Model
	}
	result.Metadata.ProcessingTime = int(s.now().Sub(start).Milliseconds())

	s.record(ctx, req, language, result)

	s.log.Info("analysis completed",
		zap.String("request_id", req.RequestID),
		zap.String("source", result.Source),
		zap.Int("processing_time_ms", result.Metadata.ProcessingTime))
	return result
}

func (s *Service) generate(ctx context.Context, mode models.AnalysisMode, code, language, detailLevel, requestID string) (*models.GenerationResponse, string, error) {
	if s.provider == nil || s.prompts == nil {
		return nil, FallbackNoProvider, errors.New("no LLM provider configured")
	}

	prompt, err := s.prompts.BuildPrompt(string(mode), utils.AddLineNumbers(code), language, detailLevel)
	if err != nil {
		return nil, FallbackPromptError, err
	}

	gen, err := s.provider.GenerateContent(ctx, prompt, requestID, detailLevel)
	if err != nil {
		var perr *llm.ProviderError
		if errors.As(err, &perr) && perr.Code != "" {
			return nil, perr.Code, err
		}
		return nil, FallbackProviderError, err
	}

	gen.Content = utils.StripFences(gen.Content)
	if strings.TrimSpace(gen.Content) == "" {
		return nil, FallbackEmptyResponse, errEmptyResponse
	}
	return gen, "", nil
}

func (s *Service) record(ctx context.Context, req models.AnalyzeRequest, language string, result models.AnalysisResult) {
	if s.history == nil || req.UserID == "" {
		return
	}
	rec := &models.AnalysisRecord{
		UserID:     req.UserID,
		Mode:       string(result.Mode),
		Language:   language,
		Code:       req.Code,
		Result:     result.Content,
		Source:     result.Source,
		RequestID:  result.RequestID,
		AnalyzedAt: s.now().UTC(),
	}
	if err := s.history.Append(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Error("failed to record analysis history",
			zap.String("request_id", result.RequestID),
			zap.String("user_id", req.UserID),
			zap.Error(err))
	}
}
