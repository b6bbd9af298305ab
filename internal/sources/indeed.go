package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/spigell/jobhunter/internal/jobs"
)

const (
	indeedSearchURL = "https://www.indeed.com/jobs"
	indeedViewURL   = "https://www.indeed.com/viewjob?jk="
	indeedThrottle  = time.Second
	// indeedRemoteFilter is the attribute id Indeed uses for "Remote" listings.
	indeedRemoteFilter = "032b3046-06a3-4876-8dfd-474eb5e7ed11"
)

type Indeed struct {
	client  *client
	baseURL string
	logger  *zap.Logger
}

func NewIndeed(opts Options) *Indeed {
	logger := opts.logger(SourceIndeed)
	return &Indeed{
		client:  newClient(opts, indeedThrottle, logger),
		baseURL: opts.baseURL(indeedSearchURL),
		logger:  logger,
	}
}

func (i *Indeed) Name() string { return SourceIndeed }

func (i *Indeed) Search(ctx context.Context, params SearchParams) ([]*jobs.Posting, error) {
	u, err := url.Parse(i.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse indeed url: %w", err)
	}

	q := u.Query()
	q.Set("q", params.Query)
	q.Set("l", params.Location)
	q.Set("sort", "date")
	if params.Remote {
		q.Set("remotejob", indeedRemoteFilter)
	}
	u.RawQuery = q.Encode()

	body, err := i.client.get(ctx, u.String(), map[string]string{
		"Accept":          "text/html,application/xhtml+xml",
		"Accept-Language": "en-US,en;q=0.9",
	})
	if err != nil {
		return nil, fmt.Errorf("indeed search: %w", err)
	}

	postings, err := parseIndeedCards(body, params)
	if err != nil {
		return nil, fmt.Errorf("indeed parse: %w", err)
	}

	i.logger.Debug("indeed search complete", zap.Int("postings", len(postings)))
	return postings, nil
}

func parseIndeedCards(body []byte, params SearchParams) ([]*jobs.Posting, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var postings []*jobs.Posting
	for _, card := range findAll(doc, byClass("job_seen_beacon")) {
		if limitReached(postings, params.MaxResults) {
			break
		}
		if posting := parseIndeedCard(card, params); posting != nil {
			postings = append(postings, posting)
		}
	}
	return postings, nil
}

func parseIndeedCard(card *html.Node, params SearchParams) *jobs.Posting {
	title := findText(card, byClass("jobTitle"))
	company := findText(card, byAttr("data-testid", "company-name"))
	if title == "" || company == "" {
		return nil
	}

	location := findText(card, byAttr("data-testid", "text-location"))
	if location == "" {
		location = params.Location
	}

	var link string
	if n := findFirst(card, byTagWithAttr("a", "data-jk")); n != nil {
		if jk := strings.TrimSpace(getAttr(n, "data-jk")); jk != "" {
			link = indeedViewURL + url.QueryEscape(jk)
		}
	}

	posting := &jobs.Posting{
		ID:          jobs.NewID(SourceIndeed, title, company),
		Title:       title,
		Company:     company,
		Location:    location,
		Description: findText(card, byClass("job-snippet")),
		URL:         link,
		Source:      SourceIndeed,
	}

	switch {
	case params.Remote:
		posting.WorkType = jobs.WorkTypeRemote
	case strings.Contains(strings.ToLower(location), "hybrid"):
		posting.WorkType = jobs.WorkTypeHybrid
	}

	return posting
}
