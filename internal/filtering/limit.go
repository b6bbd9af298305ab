package filtering

import (
	"context"
	"strconv"

	"github.com/spigell/jobhunter/internal/jobs"
)

type limitFilter struct {
	toggle
	limit int
}

// NewLimit creates a filter that keeps the first limit postings. A non-positive limit keeps all.
func NewLimit(limit int) Filter {
	return &limitFilter{limit: limit}
}

func (f *limitFilter) Name() string { return "limit" }

func (f *limitFilter) Validate() error { return nil }

func (f *limitFilter) Apply(_ context.Context, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	if f.limit > 0 && initial > f.limit {
		p.Items = p.Items[:f.limit]
	}
	return p, Step{Initial: initial, Dropped: initial - p.Len(), Left: p.Len()}, nil
}

func (f *limitFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"limit": strconv.Itoa(f.limit)},
	}
}
