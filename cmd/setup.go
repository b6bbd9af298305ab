package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobhunter/internal/aggregator"
	"github.com/spigell/jobhunter/internal/ai"
	"github.com/spigell/jobhunter/internal/ai/gemini"
	"github.com/spigell/jobhunter/internal/ai/openai"
	"github.com/spigell/jobhunter/internal/jobs"
	"github.com/spigell/jobhunter/internal/matcher"
	"github.com/spigell/jobhunter/internal/pipeline"
	"github.com/spigell/jobhunter/internal/secrets"
	"github.com/spigell/jobhunter/internal/sources"
)

var defaultSources = []string{sources.SourceLinkedIn, sources.SourceIndeed, sources.SourceGreenhouse}

func newConnectors(config *Config, logger *zap.Logger) ([]sources.Connector, error) {
	opts := sources.Options{
		UserAgent: config.UserAgent,
		Throttle:  config.Sources.Throttle,
		Logger:    logger,
	}

	connectors := make([]sources.Connector, 0, len(config.Sources.Enabled))
	for _, name := range config.Sources.Enabled {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case sources.SourceLinkedIn:
			connectors = append(connectors, sources.NewLinkedIn(opts))
		case sources.SourceIndeed:
			connectors = append(connectors, sources.NewIndeed(opts))
		case sources.SourceGreenhouse:
			connectors = append(connectors, sources.NewGreenhouse(opts, config.Sources.Greenhouse.Boards))
		case sources.SourceHeadhunter:
			token, err := headhunterToken(config.Sources.Headhunter)
			if err != nil {
				return nil, err
			}
			connectors = append(connectors, sources.NewHeadhunter(opts, token, config.Sources.Headhunter.Areas))
		default:
			return nil, fmt.Errorf("unknown source %q in sources.enabled", name)
		}
	}

	return connectors, nil
}

// headhunterToken loads the optional hh.ru token.
func headhunterToken(cfg *HeadhunterConfig) (string, error) {
	return secrets.LoadOptional(secrets.Source{
		Name: "headhunter token",
		File: cfg.TokenFile,
		Env:  "HH_TOKEN",
	})
}

func newRanker(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (pipeline.Ranker, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = gemini.Provider
	}

	var generator ai.Generator
	switch provider {
	case gemini.Provider:
		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: cfg.Gemini.APIKeyFile,
			Env:  "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
		}

		generator, err = gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, logger)
		if err != nil {
			return nil, err
		}
	case openai.Provider:
		apiKey, err := secrets.Load(secrets.Source{
			Name: "openai api key",
			File: cfg.OpenAI.APIKeyFile,
			Env:  "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.openai.api-key-file, OPENAI_API_KEY_FILE or OPENAI_API_KEY)", err)
		}

		generator, err = openai.NewGenerator(apiKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	oracle := ai.NewOracle(generator, provider, logger, cfg.MaxLogLength)
	return matcher.New(oracle, cfg.Concurrency, logger), nil
}

// newOrchestrator wires connectors, aggregator and (when requested and
// configured) the ranker. Ranker problems are logged and disable scoring.
func newOrchestrator(ctx context.Context, config *Config, logger *zap.Logger, withRanker bool) (*pipeline.Orchestrator, error) {
	connectors, err := newConnectors(config, logger)
	if err != nil {
		return nil, err
	}

	agg := aggregator.New(logger, config.Sources.Timeout, connectors...)
	logger.Info("sources enabled", zap.Strings("sources", agg.Names()))

	var ranker pipeline.Ranker
	if withRanker {
		if !config.AI.Enabled {
			logger.Warn("scoring provider is disabled", zap.String("hint", "set ai.enabled to true in the configuration file"))
		} else if r, err := newRanker(ctx, config.AI, logger); err != nil {
			logger.Warn("scoring provider is unavailable", zap.Error(err))
		} else {
			ranker = r
		}
	}

	return pipeline.New(agg, ranker, pipeline.Options{
		ExcludedCompanies: config.Exclude.Companies,
		ExcludeFile:       config.ExcludeFile,
		MaxRoles:          config.Recommend.MaxRoles,
		Threshold:         config.Recommend.Threshold,
		MaxPerSource:      config.Recommend.MaxPerSource,
	}, logger), nil
}

// loadProfile returns nil when no profile file is configured.
func loadProfile(config *Config, logger *zap.Logger) (*jobs.Profile, error) {
	if strings.TrimSpace(config.ProfileFile) == "" {
		logger.Debug("profile file is not configured")
		return nil, nil
	}

	profile, err := jobs.LoadProfile(config.ProfileFile)
	if err != nil {
		return nil, err
	}

	logger.Info("profile loaded", zap.String("name", profile.Name), zap.Int("target_roles", len(profile.TargetRoles)))
	return profile, nil
}
