package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"codecollab/internal/models"
)

const (
	ModeHosted  = "hosted"
	ModeBrowser = "browser"

	defaultVoice   = "alloy"
	maxAudioBytes  = 10 << 20
	requestTimeout = 20 * time.Second
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

func (c Config) enabled() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

// Service turns text into audio through a hosted text-to-speech API. When the
// API is not configured or fails, it tells the browser to speak the text
// itself instead of returning an error.
type Service struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

func NewService(cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Service{
		cfg:  cfg,
		http: &http.Client{Timeout: requestTimeout},
		log:  log,
	}
}

func (s *Service) Enabled() bool {
	return s.cfg.enabled()
}

type speechRequest struct {
	Model string  `json:"model"`
	Input string  `json:"input"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
}

// Synthesize returns a hosted audio resource, or a browser fallback carrying
// everything the client needs to synthesize locally.
func (s *Service) Synthesize(ctx context.Context, text, voiceID string, speed float64) models.SpeechResult {
	if voiceID == "" {
		voiceID = defaultVoice
	}
	fallback := models.SpeechResult{
		Fallback: true,
		Mode:     ModeBrowser,
		Text:     text,
		VoiceID:  voiceID,
		Speed:    speed,
	}
	if !s.cfg.enabled() {
		return fallback
	}

	audio, contentType, err := s.request(ctx, speechRequest{Model: s.cfg.Model, Input: text, Voice: voiceID, Speed: speed})
	if err != nil {
		s.log.Warn("text-to-speech failed, falling back to browser synthesis", zap.Error(err))
		return fallback
	}
	return models.SpeechResult{
		AudioURL: "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(audio),
		Mode:     ModeHosted,
		VoiceID:  voiceID,
		Speed:    speed,
		Provider: s.cfg.BaseURL,
	}
}

func (s *Service) request(ctx context.Context, body speechRequest) ([]byte, string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal speech request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/v1/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("failed to build speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("speech provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, "", fmt.Errorf("speech provider returned no audio")
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return audio, contentType, nil
}
