// Package sources contains the job board connectors. Every connector fetches
// postings from exactly one external source and throttles its own requests.
package sources

import (
	"context"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/jobhunter/internal/jobs"
)

const (
	SourceLinkedIn   = "linkedin"
	SourceIndeed     = "indeed"
	SourceGreenhouse = "greenhouse"
	SourceHeadhunter = "headhunter"

	defaultUserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	defaultHTTPTimeout = 10 * time.Second
)

// Connector is the search capability shared by all sources.
// Search must skip malformed listings and return an error only when the
// whole call failed.
type Connector interface {
	Name() string
	Search(ctx context.Context, params SearchParams) ([]*jobs.Posting, error)
}

type SearchParams struct {
	Query      string
	Location   string
	Remote     bool
	MaxResults int
	// ExperienceLevel is honoured by sources that support it (entry, mid, senior, director, executive).
	ExperienceLevel string
}

// Options are common to every connector. Zero values fall back to defaults.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	// Throttle is the minimal pause between two outbound requests of one connector.
	Throttle time.Duration
	Logger   *zap.Logger
}

func (o Options) baseURL(fallback string) string {
	if o.BaseURL != "" {
		return o.BaseURL
	}
	return fallback
}

func (o Options) logger(source string) *zap.Logger {
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(zap.String("source", source))
}

func limitReached(postings []*jobs.Posting, limit int) bool {
	return limit > 0 && len(postings) >= limit
}

// decodeItem decodes one untyped JSON listing into out using its json tags.
// Numeric strings are accepted; any other shape mismatch is an error.
func decodeItem(item any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(item)
}
