package utils

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the process logger. "development" gets the human-readable
// console config, anything else the JSON production config.
func NewLogger(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
