package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldCommand = "command"
	FieldAPIURL  = "api_url"
	FieldRole    = "role"

	// FieldProvider names the scoring backend: "platform" or "gemini".
	FieldProvider = "scoring_provider"
	FieldModel    = "scoring_model"
)

// StringField is a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields, trimming whitespace and
// dropping entries with an empty key or value.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger, falling back to a no-op logger when it is nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// ForCommand scopes logger to one CLI command talking to apiURL.
func ForCommand(logger *zap.Logger, command, apiURL, role string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldCommand, Value: command},
		StringField{Key: FieldAPIURL, Value: apiURL},
		StringField{Key: FieldRole, Value: role},
	)...)
}

// ForScorer scopes logger to a scoring provider and, when known, its model.
func ForScorer(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)...)
}
