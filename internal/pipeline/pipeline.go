// Package pipeline composes aggregation, filtering and scoring into the
// search and recommend flows.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/jobhunter/internal/aggregator"
	"github.com/spigell/jobhunter/internal/filtering"
	"github.com/spigell/jobhunter/internal/jobs"
)

const (
	DefaultSearchLimit    = 20
	DefaultRecommendLimit = 10
	DefaultMaxRoles       = 3
	DefaultThreshold      = 60
	DefaultMaxPerSource   = 10
)

var (
	ErrProfileRequired = errors.New("profile is required")
	ErrNoTargetRoles   = errors.New("profile has no target roles")
)

// Searcher is the aggregation capability.
type Searcher interface {
	Search(ctx context.Context, req aggregator.Request) (*aggregator.Result, error)
}

// Ranker scores postings and returns them sorted by score.
type Ranker interface {
	ScoreMany(ctx context.Context, postings *jobs.Postings, profile *jobs.Profile) (*jobs.Postings, error)
}

type Options struct {
	ExcludedCompanies []string
	ExcludeFile       string

	// MaxRoles caps the number of target roles searched by Recommend.
	MaxRoles int
	// Threshold is the minimal score kept by Recommend. Nil or negative
	// selects DefaultThreshold; zero keeps every scored posting.
	Threshold *int
	// MaxPerSource is the per-connector cap used by Recommend.
	MaxPerSource int
}

type SearchRequest struct {
	Query           string
	Location        string
	Remote          bool
	Sources         []string
	ExperienceLevel string
	Limit           int
	// Score asks for ranking against the profile.
	Score bool
}

type RecommendRequest struct {
	Limit int
}

type Result struct {
	Postings *jobs.Postings
	Failures []aggregator.SourceFailure
	// Notes explain degraded or empty outcomes to the caller.
	Notes  []string
	Scored bool
}

type Orchestrator struct {
	searcher  Searcher
	ranker    Ranker
	opts      Options
	threshold int
	logger    *zap.Logger
}

// New creates an orchestrator. A nil ranker disables scoring.
func New(searcher Searcher, ranker Ranker, opts Options, logger *zap.Logger) *Orchestrator {
	if opts.MaxRoles <= 0 {
		opts.MaxRoles = DefaultMaxRoles
	}
	threshold := DefaultThreshold
	if opts.Threshold != nil && *opts.Threshold >= 0 {
		threshold = *opts.Threshold
	}
	if opts.MaxPerSource <= 0 {
		opts.MaxPerSource = DefaultMaxPerSource
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		searcher:  searcher,
		ranker:    ranker,
		opts:      opts,
		threshold: threshold,
		logger:    logger,
	}
}

// Search aggregates, filters and truncates postings, then ranks them when
// scoring was requested and both a profile and a ranker are available.
func (o *Orchestrator) Search(ctx context.Context, req SearchRequest, profile *jobs.Profile) (*Result, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	result := &Result{Postings: &jobs.Postings{}}

	score := req.Score
	if score && profile == nil {
		score = false
		result.note("scoring disabled: no profile loaded")
	}
	if score && o.ranker == nil {
		score = false
		result.note("scoring disabled: no scoring provider configured")
	}

	aggregated, err := o.searcher.Search(ctx, aggregator.Request{
		Query:           req.Query,
		Location:        req.Location,
		Sources:         req.Sources,
		Remote:          req.Remote,
		MaxPerSource:    limit/3 + 1,
		ExperienceLevel: req.ExperienceLevel,
	})
	if aggregated != nil {
		result.Postings = aggregated.Postings
		result.Failures = aggregated.Failures
	}
	if err != nil {
		return result, fmt.Errorf("aggregate: %w", err)
	}

	postings, err := filtering.Run(ctx, o.logger, o.baseFilters(limit), result.Postings)
	if err != nil {
		return result, fmt.Errorf("filter: %w", err)
	}
	result.Postings = postings

	if postings.Len() == 0 {
		result.note("no postings found")
		return result, nil
	}

	if !score {
		return result, nil
	}

	ranked, err := o.ranker.ScoreMany(ctx, postings, profile)
	if ranked != nil {
		result.Postings = ranked
		result.Scored = true
	}
	if err != nil {
		return result, fmt.Errorf("score: %w", err)
	}

	return result, nil
}

// Recommend searches every target role (up to MaxRoles) at the profile
// location, ranks the combined postings and keeps those at or above the
// threshold.
func (o *Orchestrator) Recommend(ctx context.Context, profile *jobs.Profile, req RecommendRequest) (*Result, error) {
	if profile == nil {
		return nil, ErrProfileRequired
	}
	if len(profile.TargetRoles) == 0 {
		return nil, ErrNoTargetRoles
	}
	if o.ranker == nil {
		return nil, errors.New("recommendations need a scoring provider")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultRecommendLimit
	}

	roles := profile.TargetRoles[:min(len(profile.TargetRoles), o.opts.MaxRoles)]
	result := &Result{Postings: &jobs.Postings{}}

	for _, role := range roles {
		o.logger.Info("searching role", zap.String("role", role))

		aggregated, err := o.searcher.Search(ctx, aggregator.Request{
			Query:        role,
			Location:     profile.Location,
			MaxPerSource: o.opts.MaxPerSource,
		})
		if aggregated != nil {
			result.Postings.Items = append(result.Postings.Items, aggregated.Postings.Items...)
			result.Failures = append(result.Failures, aggregated.Failures...)
		}
		if err != nil {
			return result, fmt.Errorf("aggregate %q: %w", role, err)
		}
	}

	postings, err := filtering.Run(ctx, o.logger, o.baseFilters(0), result.Postings)
	if err != nil {
		return result, fmt.Errorf("filter: %w", err)
	}

	ranked, err := o.ranker.ScoreMany(ctx, postings, profile)
	if ranked != nil {
		result.Postings = ranked
		result.Scored = true
	}
	if err != nil {
		return result, fmt.Errorf("score: %w", err)
	}

	steps := []filtering.Filter{
		filtering.NewMinScore(o.threshold),
		filtering.NewLimit(limit),
	}
	top, err := filtering.Run(ctx, o.logger, steps, result.Postings)
	if err != nil {
		return result, fmt.Errorf("filter: %w", err)
	}
	result.Postings = top

	if top.Len() == 0 {
		result.note(fmt.Sprintf("no postings reached the score threshold of %d", o.threshold))
	}

	return result, nil
}

func (o *Orchestrator) baseFilters(limit int) []filtering.Filter {
	steps := []filtering.Filter{
		filtering.NewExcludedCompanies(o.opts.ExcludedCompanies),
		filtering.NewExcludeFile(o.opts.ExcludeFile),
		filtering.NewLimit(limit),
	}
	if len(o.opts.ExcludedCompanies) == 0 {
		filtering.DisableByName(steps, "excluded_companies", "no companies configured")
	}
	if o.opts.ExcludeFile == "" {
		filtering.DisableByName(steps, "exclude_file", "no exclude file configured")
	}
	if limit <= 0 {
		filtering.DisableByName(steps, "limit", "no limit")
	}
	return steps
}

func (r *Result) note(msg string) {
	r.Notes = append(r.Notes, msg)
}
