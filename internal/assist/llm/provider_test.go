package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecollab/internal/models"
)

type testProvider struct{}

func (testProvider) GenerateContent(context.Context, string, string, string) (*models.GenerationResponse, error) {
	return &models.GenerationResponse{Content: "ok"}, nil
}
func (testProvider) GetProviderName() string { return "test" }

func TestProviderErrorError(t *testing.T) {
	err := &ProviderError{Provider: "gemini", Message: "failed"}
	assert.Equal(t, "gemini error: failed", err.Error())

	cause := errors.New("detail")
	wrapped := &ProviderError{Provider: "gemini", Message: "failed", Err: cause}
	assert.Equal(t, "gemini error: failed (detail)", wrapped.Error())
	assert.True(t, errors.Is(wrapped, cause))
}

func TestRegisterAndNewProvider(t *testing.T) {
	RegisterProvider("test_provider", func() (Provider, error) {
		return testProvider{}, nil
	})
	defer func() {
		mu.Lock()
		delete(providers, "test_provider")
		mu.Unlock()
	}()

	provider, err := NewProvider("test_provider")
	require.NoError(t, err)
	assert.Equal(t, "test", provider.GetProviderName())
	assert.Contains(t, Registered(), "test_provider")

	_, err = NewProvider("missing")
	assert.Error(t, err)
}
