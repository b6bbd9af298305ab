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

// The guest endpoint returns HTML cards and needs no authentication.
const (
	linkedInSearchURL = "https://www.linkedin.com/jobs-guest/jobs/api/seeMoreJobPostings/search"
	linkedInThrottle  = time.Second
	linkedInRemote    = "2"
)

var linkedInExperienceLevels = map[string]string{
	"entry":     "1",
	"mid":       "2",
	"senior":    "3",
	"director":  "4",
	"executive": "5",
}

type LinkedIn struct {
	client  *client
	baseURL string
	logger  *zap.Logger
}

func NewLinkedIn(opts Options) *LinkedIn {
	logger := opts.logger(SourceLinkedIn)
	return &LinkedIn{
		client:  newClient(opts, linkedInThrottle, logger),
		baseURL: opts.baseURL(linkedInSearchURL),
		logger:  logger,
	}
}

func (l *LinkedIn) Name() string { return SourceLinkedIn }

func (l *LinkedIn) Search(ctx context.Context, params SearchParams) ([]*jobs.Posting, error) {
	u, err := url.Parse(l.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse linkedin url: %w", err)
	}

	q := u.Query()
	q.Set("keywords", params.Query)
	q.Set("location", params.Location)
	q.Set("start", "0")
	q.Set("sortBy", "R")
	if params.Remote {
		q.Set("f_WT", linkedInRemote)
	}
	if level, ok := linkedInExperienceLevels[strings.ToLower(params.ExperienceLevel)]; ok {
		q.Set("f_E", level)
	}
	u.RawQuery = q.Encode()

	body, err := l.client.get(ctx, u.String(), map[string]string{
		"Accept":          "text/html,application/xhtml+xml",
		"Accept-Language": "en-US,en;q=0.9",
	})
	if err != nil {
		return nil, fmt.Errorf("linkedin search: %w", err)
	}

	postings, err := parseLinkedInCards(body, params)
	if err != nil {
		return nil, fmt.Errorf("linkedin parse: %w", err)
	}

	l.logger.Debug("linkedin search complete", zap.Int("postings", len(postings)))
	return postings, nil
}

func parseLinkedInCards(body []byte, params SearchParams) ([]*jobs.Posting, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var postings []*jobs.Posting
	for _, card := range findAll(doc, byClass("base-card")) {
		if limitReached(postings, params.MaxResults) {
			break
		}
		if posting := parseLinkedInCard(card, params); posting != nil {
			postings = append(postings, posting)
		}
	}
	return postings, nil
}

// parseLinkedInCard returns nil when a mandatory field is missing.
func parseLinkedInCard(card *html.Node, params SearchParams) *jobs.Posting {
	title := findText(card, byClass("base-search-card__title"))
	company := findText(card, byClass("base-search-card__subtitle"))

	var link string
	if n := findFirst(card, byClass("base-card__full-link")); n != nil {
		link = strings.TrimSpace(strings.SplitN(getAttr(n, "href"), "?", 2)[0])
	}

	if title == "" || company == "" || link == "" {
		return nil
	}

	location := findText(card, byClass("job-search-card__location"))
	if location == "" {
		location = params.Location
	}

	posting := &jobs.Posting{
		ID:       jobs.NewID(SourceLinkedIn, link),
		Title:    title,
		Company:  company,
		Location: location,
		URL:      link,
		Source:   SourceLinkedIn,
	}

	if params.Remote {
		posting.WorkType = jobs.WorkTypeRemote
	}
	posting.ExperienceLevel = strings.ToLower(params.ExperienceLevel)

	if n := findFirst(card, byClass("job-search-card__listdate")); n != nil {
		if posted, err := time.Parse(time.DateOnly, getAttr(n, "datetime")); err == nil {
			posting.PostedAt = &posted
		}
	}

	return posting
}
