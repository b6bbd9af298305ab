package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/jobhunter/internal/ai"
	"github.com/spigell/jobhunter/internal/jobs"
)

type minScoreFilter struct {
	toggle
	threshold int
}

// NewMinScore creates a filter that keeps scored postings with score >= threshold.
// Postings whose scoring failed are dropped.
func NewMinScore(threshold int) Filter {
	return &minScoreFilter{threshold: threshold}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Validate() error {
	if f.threshold < ai.MinScore || f.threshold > ai.MaxScore {
		return fmt.Errorf("threshold %d is out of range [%d, %d]", f.threshold, ai.MinScore, ai.MaxScore)
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()

	dropped := p.Keep(func(posting *jobs.Posting) bool {
		return posting.IsScored() && posting.Score() >= f.threshold
	})

	return p, Step{Initial: initial, Dropped: len(dropped), Left: p.Len()}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"threshold": strconv.Itoa(f.threshold)},
	}
}
