package filtering

import (
	"context"
	"strings"

	"github.com/spigell/jobhunter/internal/jobs"
)

type companiesFilter struct {
	toggle
	companies []string
}

// NewExcludedCompanies creates a filter that removes postings of the given companies.
func NewExcludedCompanies(companies []string) Filter {
	return &companiesFilter{companies: companies}
}

func (f *companiesFilter) Name() string { return "excluded_companies" }

func (f *companiesFilter) Validate() error { return nil }

func (f *companiesFilter) Apply(_ context.Context, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	if len(f.companies) == 0 {
		return p, Step{Initial: initial, Left: initial}, nil
	}

	excluded := p.Exclude(jobs.PostingCompanyField, f.companies)

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
