package assist

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"codecollab/internal/assist/llm"
	"codecollab/internal/assist/prompts"
	"codecollab/internal/models"
)

type fakeProvider struct {
	content string
	err     error

	mu      sync.Mutex
	prompts []string
}

func (f *fakeProvider) GenerateContent(_ context.Context, prompt, _, _ string) (*models.GenerationResponse, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &models.GenerationResponse{
		Content:  f.content,
		Metadata: models.GenerationMetadata{Provider: "fake", Model: "fake-1"},
	}, nil
}

func (f *fakeProvider) GetProviderName() string { return "fake" }

type fakeHistory struct {
	err     error
	records []*models.AnalysisRecord
}

func (h *fakeHistory) Append(_ context.Context, rec *models.AnalysisRecord) error {
	if h.err != nil {
		return h.err
	}
	h.records = append(h.records, rec)
	return nil
}

func newTestService(t *testing.T, provider llm.Provider) *Service {
	t.Helper()
	pm, err := prompts.NewPromptManager()
	require.NoError(t, err)
	return NewService(provider, pm, zap.NewNop())
}

func analyzeRequest(code, language string) models.AnalyzeRequest {
	return models.AnalyzeRequest{Code: code, Language: language, DetailLevel: "intermediate"}
}

func TestAnalyze_UsesProvider(t *testing.T) {
	provider := &fakeProvider{content: "```markdown\nAdds two numbers.\n```"}
	svc := newTestService(t, provider)

	res := svc.Analyze(context.Background(), models.ModeExplain, analyzeRequest("const add = (a, b) => a + b", "JavaScript"))

	assert.Equal(t, models.SourceLLM, res.Source)
	assert.Equal(t, "Adds two numbers.", res.Content)
	assert.Equal(t, models.ModeExplain, res.Mode)
	assert.Equal(t, "fake", res.Metadata.Provider)
	assert.Equal(t, "fake-1", res.Metadata.Model)
	assert.Empty(t, res.Metadata.FallbackReason)
	assert.NotEmpty(t, res.RequestID)

	require.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "1: const add")
	assert.Contains(t, provider.prompts[0], "javascript")
}

func TestAnalyze_KeepsRequestID(t *testing.T) {
	svc := newTestService(t, &fakeProvider{content: "ok"})
	req := analyzeRequest("x = 1", "python")
	req.RequestID = "req-42"

	res := svc.Analyze(context.Background(), models.ModeExplain, req)
	assert.Equal(t, "req-42", res.RequestID)
}

func TestAnalyze_FallsBackToHeuristic(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
		reason   string
	}{
		{"no provider", nil, FallbackNoProvider},
		{"provider error code", &fakeProvider{err: &llm.ProviderError{Provider: "fake", Code: llm.ErrCodeRateLimit, Message: "slow down"}}, llm.ErrCodeRateLimit},
		{"plain error", &fakeProvider{err: errors.New("boom")}, FallbackProviderError},
		{"empty content", &fakeProvider{content: "```\n```"}, FallbackEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, tt.provider)
			res := svc.Analyze(context.Background(), models.ModeExplain, analyzeRequest("x = 1\nif x:\n    print(x)", "python"))

			assert.Equal(t, models.SourceHeuristic, res.Source)
			assert.Equal(t, models.SourceHeuristic, res.Metadata.Provider)
			assert.Equal(t, tt.reason, res.Metadata.FallbackReason)
			assert.Contains(t, res.Content, "3 lines")
			assert.Contains(t, res.Content, "1 conditional")
		})
	}
}

func TestAnalyze_AuditAttachesFindings(t *testing.T) {
	svc := newTestService(t, nil)
	code := "var x = 1;\nif (x == 2) { eval(y) }"

	res := svc.Analyze(context.Background(), models.ModeAudit, analyzeRequest(code, "javascript"))

	require.NotEmpty(t, res.Findings)
	rules := make([]string, 0, len(res.Findings))
	for _, f := range res.Findings {
		rules = append(rules, f.Rule)
	}
	assert.Contains(t, rules, "no-var")
	assert.Contains(t, rules, "loose-equality")
	assert.Contains(t, rules, "no-eval")
	assert.Contains(t, res.Content, "Line 2 [error] no-eval")
}

func TestAnalyze_RecordsHistory(t *testing.T) {
	svc := newTestService(t, &fakeProvider{content: "explained"})
	hist := &fakeHistory{}
	svc.SetHistory(hist)

	anon := analyzeRequest("x = 1", "python")
	svc.Analyze(context.Background(), models.ModeExplain, anon)
	assert.Empty(t, hist.records, "anonymous analyses are not recorded")

	req := analyzeRequest("x = 1", "python")
	req.UserID = "user-1"
	res := svc.Analyze(context.Background(), models.ModeOptimize, req)

	require.Len(t, hist.records, 1)
	rec := hist.records[0]
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, "optimize", rec.Mode)
	assert.Equal(t, "explained", rec.Result)
	assert.Equal(t, models.SourceLLM, rec.Source)
	assert.Equal(t, res.RequestID, rec.RequestID)
	assert.False(t, rec.AnalyzedAt.IsZero())
}

func TestAnalyze_HistoryFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	pm, err := prompts.NewPromptManager()
	require.NoError(t, err)
	svc := NewService(nil, pm, zap.New(core))
	svc.SetHistory(&fakeHistory{err: errors.New("disk full")})

	req := analyzeRequest("x = 1", "python")
	req.UserID = "user-1"
	res := svc.Analyze(context.Background(), models.ModeExplain, req)

	assert.NotEmpty(t, res.Content)
	assert.Equal(t, 1, logs.FilterMessage("failed to record analysis history").Len())
}

func TestProviderName(t *testing.T) {
	assert.Equal(t, "heuristic", newTestService(t, nil).ProviderName())
	assert.Equal(t, "fake", newTestService(t, &fakeProvider{}).ProviderName())
}
