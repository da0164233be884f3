package models

import (
	"strings"
)

// contains all supported programming languages (in lowercase)
var SupportedLanguages = map[string]bool{
	"javascript": true,
	"typescript": true,
	"python":     true,
	"java":       true,
	"cpp":        true,
	"go":         true,
}

var ValidDetailLevels = map[string]bool{
	"beginner":     true,
	"intermediate": true,
	"advanced":     true,
}

const DefaultDetailLevel = "intermediate"

type AnalysisMode string

const (
	ModeExplain  AnalysisMode = "explain"
	ModeOptimize AnalysisMode = "optimize"
	ModeAudit    AnalysisMode = "audit"
)

const (
	SourceLLM       = "llm"
	SourceHeuristic = "heuristic"
)

type AnalyzeRequest struct {
	Code        string `json:"code"`
	Language    string `json:"language"`
	DetailLevel string `json:"detail_level"`
	RequestID   string `json:"request_id"`
	UserID      string `json:"user_id,omitempty"`
}

// implements the Validator interface
func (r *AnalyzeRequest) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return &ErrorResponse{Code: "missing_code", Message: "Code field is required"}
	}
	r.Language = strings.ToLower(strings.TrimSpace(r.Language))
	if r.Language == "" {
		return &ErrorResponse{Code: "missing_language", Message: "Language field is required"}
	}
	if !SupportedLanguages[r.Language] {
		return &ErrorResponse{
			Code:    "unsupported_language",
			Message: "Language not supported. Supported languages: " + strings.Join(SupportedLanguagesList(), ", "),
		}
	}
	if r.DetailLevel == "" {
		r.DetailLevel = DefaultDetailLevel
	}
	if !ValidDetailLevels[r.DetailLevel] {
		return &ErrorResponse{
			Code:    "invalid_detail_level",
			Message: "Detail level must be one of: beginner, intermediate, advanced",
		}
	}
	return nil
}

type ScanRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

func (r *ScanRequest) Validate() error {
	if r.Code == "" {
		return &ErrorResponse{Code: "missing_code", Message: "Code field is required"}
	}
	r.Language = strings.ToLower(strings.TrimSpace(r.Language))
	if r.Language == "" {
		return &ErrorResponse{Code: "missing_language", Message: "Language field is required"}
	}
	return nil
}

type SpeechRequest struct {
	Text    string  `json:"text"`
	VoiceID string  `json:"voice_id"`
	Speed   float64 `json:"speed"`
}

func (r *SpeechRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return &ErrorResponse{Code: "missing_text", Message: "Text field is required"}
	}
	if r.Speed == 0 {
		r.Speed = 1.0
	}
	if r.Speed < 0.25 || r.Speed > 4.0 {
		return &ErrorResponse{Code: "invalid_speed", Message: "Speed must be between 0.25 and 4.0"}
	}
	return nil
}

// SupportedLanguagesList is sorted for stable error messages.
func SupportedLanguagesList() []string {
	return []string{"cpp", "go", "java", "javascript", "python", "typescript"}
}

/*** responses ***/

type AnalysisResult struct {
	Mode      AnalysisMode     `json:"mode"`
	Content   string           `json:"content"`
	Source    string           `json:"source"`
	RequestID string           `json:"request_id"`
	Findings  []Finding        `json:"findings,omitempty"`
	Metadata  AnalysisMetadata `json:"metadata"`
}

type AnalysisMetadata struct {
	ProcessingTime int    `json:"processing_time_ms"`
	DetailLevel    string `json:"detail_level"`
	Provider       string `json:"provider"`
	Model          string `json:"model,omitempty"`
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// GenerationResponse is what an LLM provider hands back for a single prompt.
type GenerationResponse struct {
	Content  string             `json:"content"`
	Metadata GenerationMetadata `json:"metadata"`
}

type GenerationMetadata struct {
	ProcessingTime int    `json:"processing_time_ms"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Finding struct {
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
}

type ScanResponse struct {
	Findings []Finding `json:"findings"`
}

type SpeechResult struct {
	AudioURL string  `json:"audio_url,omitempty"`
	Fallback bool    `json:"fallback"`
	Mode     string  `json:"mode"` // "hosted" or "browser"
	Text     string  `json:"text,omitempty"`
	VoiceID  string  `json:"voice_id,omitempty"`
	Speed    float64 `json:"speed"`
	Provider string  `json:"provider,omitempty"`
}

// uniform error responses
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorResponse) Error() string {
	return e.Code + ": " + e.Message
}
