package filtering

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobhunter/internal/jobs"
)

func scored(id string, score int) *jobs.Posting {
	return &jobs.Posting{ID: id, Company: "c-" + id, Match: &jobs.Match{Score: score}}
}

func ids(p *jobs.Postings) []string {
	var out []string
	for _, item := range p.Items {
		out = append(out, item.ID)
	}
	return out
}

func TestMinScoreKeepsOrder(t *testing.T) {
	postings := &jobs.Postings{Items: []*jobs.Posting{
		scored("a", 85), scored("b", 59), scored("c", 60), scored("d", 30),
		{ID: "e", Match: &jobs.Match{Error: "timeout"}},
		{ID: "f"},
	}}

	got, err := Run(context.Background(), nil, []Filter{NewMinScore(60)}, postings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a", "c"}
	if len(got.Items) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids(got))
	}
	for i := range want {
		if got.Items[i].ID != want[i] {
			t.Fatalf("expected %v, got %v", want, ids(got))
		}
	}
}

func TestRunAppliesStepsSequentially(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	path := filepath.Join(t.TempDir(), "exclude.json")
	excluded := &jobs.ExcludedPostings{}
	excluded.Append((&jobs.Postings{Items: []*jobs.Posting{{ID: "2"}}}).ToExcluded(jobs.ExcludeActorUser, "seen"))
	if err := excluded.ToFile(path); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	postings := &jobs.Postings{Items: []*jobs.Posting{
		{ID: "1", Company: "Acme"},
		{ID: "2", Company: "Globex"},
		{ID: "3", Company: "Initech"},
		{ID: "4", Company: "Umbrella"},
		{ID: "5", Company: "Hooli"},
	}}

	steps := []Filter{
		NewExcludedCompanies([]string{"acme"}),
		NewExcludeFile(path),
		NewLimit(2),
	}

	got, err := Run(context.Background(), zap.New(core), steps, postings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Items) != 2 || got.Items[0].ID != "3" || got.Items[1].ID != "4" {
		t.Fatalf("unexpected result: %v", ids(got))
	}

	entries := logs.FilterMessage("filter step").All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 step logs, got %d", len(entries))
	}
	if ctx := entries[2].ContextMap(); ctx["name"] != "limit" || ctx["dropped"] != int64(1) {
		t.Fatalf("unexpected limit log: %v", ctx)
	}
}

func TestRunSkipsDisabledFilters(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	steps := []Filter{NewLimit(1), NewExcludedCompanies([]string{"Acme"})}
	DisableByName(steps, "limit", "no limit requested")

	postings := &jobs.Postings{Items: []*jobs.Posting{{ID: "1", Company: "Globex"}, {ID: "2", Company: "Hooli"}}}
	got, err := Run(context.Background(), zap.New(core), steps, postings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("expected 2 postings, got %d", got.Len())
	}
	if logs.FilterMessage("filter disabled").Len() != 1 {
		t.Fatalf("expected disabled log entry")
	}

	statuses := Describe(steps)
	if statuses[0].Enabled || statuses[0].Reason != "no limit requested" {
		t.Fatalf("unexpected status: %+v", statuses[0])
	}
	if statuses[1].Details["companies"] != "Acme" {
		t.Fatalf("unexpected status: %+v", statuses[1])
	}
}

func TestRunValidatesBeforeApplying(t *testing.T) {
	postings := &jobs.Postings{Items: []*jobs.Posting{{ID: "1"}}}

	_, err := Run(context.Background(), nil, []Filter{NewLimit(0), NewMinScore(150)}, postings)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if postings.Len() != 1 {
		t.Fatalf("postings must be untouched on validation error")
	}
}

func TestExcludeFileMissingIsNotAnError(t *testing.T) {
	postings := &jobs.Postings{Items: []*jobs.Posting{{ID: "1"}}}
	filter := NewExcludeFile(filepath.Join(t.TempDir(), "missing.json"))

	got, step, err := filter.Apply(context.Background(), postings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 1 || step.Dropped != 0 {
		t.Fatalf("unexpected step: %+v", step)
	}
}

type failingFilter struct{ toggle }

func (f *failingFilter) Name() string    { return "failing" }
func (f *failingFilter) Validate() error { return nil }
func (f *failingFilter) Apply(context.Context, *jobs.Postings) (*jobs.Postings, Step, error) {
	return nil, Step{}, errors.New("boom")
}

func TestRunWrapsStepErrors(t *testing.T) {
	_, err := Run(context.Background(), nil, []Filter{&failingFilter{}}, &jobs.Postings{})
	if err == nil || err.Error() != "failing: boom" {
		t.Fatalf("unexpected error: %v", err)
	}
}
