// Package ai holds the scoring oracle abstraction and the response parsing
// shared by all LLM providers.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/jobhunter/internal/logger"
	"github.com/spigell/jobhunter/internal/utils"
)

const (
	MinScore = 0
	MaxScore = 100

	defaultMaxLogLength = 200
)

var ErrEmptyResponse = errors.New("oracle returned empty response")

// MatchResult is the oracle verdict for one profile/job pair.
type MatchResult struct {
	Score          int      `mapstructure:"score"`
	Summary        string   `mapstructure:"summary"`
	MatchingSkills []string `mapstructure:"matching_skills"`
	SkillGaps      []string `mapstructure:"skill_gaps"`
	RequiredSkills []string `mapstructure:"required_skills"`
}

// Oracle scores how well a profile fits a job. Implementations may fail per call.
type Oracle interface {
	Score(ctx context.Context, profileSummary, jobSummary string) (*MatchResult, error)
}

// Generator is a text completion backend.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// LLMOracle turns a Generator into an Oracle.
type LLMOracle struct {
	generator Generator
	provider  string
	logger    *zap.Logger
	maxLogLen int
}

func NewOracle(generator Generator, provider string, log *zap.Logger, maxLogLength int) *LLMOracle {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &LLMOracle{
		generator: generator,
		provider:  provider,
		logger:    logger.WithCommonFields(log, provider, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

func (o *LLMOracle) Score(ctx context.Context, profileSummary, jobSummary string) (*MatchResult, error) {
	message := BuildMessage(profileSummary, jobSummary)

	o.logger.Debug("generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(jobSummary, o.maxLogLen)),
	)

	raw, err := o.generator.GenerateContent(ctx, SystemPrompt(), message)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, o.maxLogLen)),
	)

	return ParseMatchResult(raw)
}

// ParseMatchResult decodes a lenient JSON verdict: code fences are stripped,
// numeric strings are accepted and the score is rounded and clamped.
func ParseMatchResult(raw string) (*MatchResult, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, ErrEmptyResponse
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse oracle response: %w", err)
	}

	score, ok := coerceScore(data["score"])
	if !ok {
		return nil, fmt.Errorf("parse oracle response: invalid score %v", data["score"])
	}
	delete(data, "score")

	var result MatchResult
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &result,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode oracle response: %w", err)
	}

	result.Score = ClampScore(score)
	result.Summary = strings.TrimSpace(result.Summary)
	result.MatchingSkills = cleanList(result.MatchingSkills)
	result.SkillGaps = cleanList(result.SkillGaps)
	result.RequiredSkills = cleanList(result.RequiredSkills)

	return &result, nil
}

// ClampScore bounds a score to [MinScore, MaxScore].
func ClampScore(score int) int {
	return max(MinScore, min(MaxScore, score))
}

func coerceScore(v any) (int, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Round(f)
	if f > MaxScore {
		return MaxScore, true
	}
	if f < MinScore {
		return MinScore, true
	}
	return int(f), true
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
