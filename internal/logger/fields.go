package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobhunter/internal/jobs"
)

const (
	FieldProvider  = "ai_provider"
	FieldModel     = "ai_model"
	FieldPostingID = "posting_id"
	FieldSource    = "source"
	FieldScore     = "score"
)

type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields, skipping entries
// whose key or value is blank.
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

// WithFields attaches fields to logger. A nil logger becomes a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// CommonFields describes the scoring provider and model.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// PostingFields identifies a posting in log entries. The score is added only
// for successfully scored postings.
func PostingFields(posting *jobs.Posting) []zap.Field {
	if posting == nil {
		return nil
	}

	fields := StringFields(
		StringField{Key: FieldPostingID, Value: posting.ID},
		StringField{Key: FieldSource, Value: posting.Source},
		StringField{Key: "title", Value: posting.Title},
		StringField{Key: "company", Value: posting.Company},
	)
	if posting.IsScored() {
		fields = append(fields, zap.Int(FieldScore, posting.Score()))
	}
	return fields
}
