// Package aggregator fans a search out to every selected connector and merges
// the results into one deduplicated list.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobhunter/internal/jobs"
	"github.com/spigell/jobhunter/internal/sources"
)

const DefaultTimeout = 30 * time.Second

var ErrNoConnectors = errors.New("no connectors available")

type Request struct {
	Query    string
	Location string
	// Sources limits the search to the named connectors. Empty means all.
	Sources         []string
	Remote          bool
	MaxPerSource    int
	ExperienceLevel string
}

// SourceFailure records a connector that contributed nothing to the result.
type SourceFailure struct {
	Source string
	Err    error
}

func (f SourceFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Source, f.Err)
}

type Result struct {
	Postings *jobs.Postings
	Failures []SourceFailure
}

type Aggregator struct {
	connectors []sources.Connector
	timeout    time.Duration
	logger     *zap.Logger
}

// New keeps the connector order; it defines the merge order.
func New(logger *zap.Logger, timeout time.Duration, connectors ...sources.Connector) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Aggregator{
		connectors: connectors,
		timeout:    timeout,
		logger:     logger,
	}
}

func (a *Aggregator) Names() []string {
	names := make([]string, 0, len(a.connectors))
	for _, c := range a.connectors {
		names = append(names, c.Name())
	}
	return names
}

type outcome struct {
	postings []*jobs.Posting
	err      error
}

// Search runs the selected connectors concurrently. Connector failures are
// reported in Result.Failures and never fail the call. On caller
// cancellation the postings of the finished connectors are returned with
// ctx.Err().
func (a *Aggregator) Search(ctx context.Context, req Request) (*Result, error) {
	selected := a.selected(req.Sources)
	if len(selected) == 0 {
		return nil, ErrNoConnectors
	}

	params := sources.SearchParams{
		Query:           req.Query,
		Location:        req.Location,
		Remote:          req.Remote,
		MaxResults:      req.MaxPerSource,
		ExperienceLevel: req.ExperienceLevel,
	}

	// Each connector writes only its own slot; the slice order is the merge order.
	outcomes := make([]outcome, len(selected))

	var g errgroup.Group
	g.SetLimit(len(selected))
	for i, connector := range selected {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			postings, err := connector.Search(callCtx, params)
			outcomes[i] = outcome{postings: postings, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := &Result{Postings: &jobs.Postings{}}
	for i, connector := range selected {
		o := outcomes[i]
		name := connector.Name()

		if o.err != nil {
			// Errors caused by the caller's cancellation are not source failures.
			if ctx.Err() != nil && errors.Is(o.err, ctx.Err()) {
				continue
			}
			a.logger.Warn("source failed", zap.String("source", name), zap.Error(o.err))
			result.Failures = append(result.Failures, SourceFailure{Source: name, Err: o.err})
			continue
		}

		postings := o.postings
		if req.MaxPerSource > 0 && len(postings) > req.MaxPerSource {
			postings = postings[:req.MaxPerSource]
		}
		a.logger.Debug("source finished", zap.String("source", name), zap.Int("postings", len(postings)))
		result.Postings.Items = append(result.Postings.Items, postings...)
	}

	if dropped := result.Postings.Dedup(); len(dropped) > 0 {
		a.logger.Debug("duplicates dropped", zap.Int("count", len(dropped)))
	}

	a.logger.Info("aggregation finished",
		zap.Int("postings", result.Postings.Len()),
		zap.Int("sources", len(selected)),
		zap.Int("failed", len(result.Failures)),
	)

	if err := ctx.Err(); err != nil {
		return result, err
	}

	return result, nil
}

func (a *Aggregator) selected(names []string) []sources.Connector {
	if len(names) == 0 {
		return a.connectors
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		wanted[name] = struct{}{}
	}

	var selected []sources.Connector
	for _, c := range a.connectors {
		if _, ok := wanted[c.Name()]; ok {
			selected = append(selected, c)
			delete(wanted, c.Name())
		}
	}

	for name := range wanted {
		a.logger.Warn("unknown source skipped", zap.String("source", name))
	}

	return selected
}
