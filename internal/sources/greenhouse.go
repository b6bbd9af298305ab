package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spigell/jobhunter/internal/jobs"
)

const (
	greenhouseBoardsURL = "https://boards-api.greenhouse.io/v1/boards"
	greenhouseThrottle  = 500 * time.Millisecond
)

var DefaultGreenhouseBoards = []string{
	"stripe", "intercom", "notion", "figma",
	"airbnb", "coinbase", "databricks", "discord",
}

// Jobs stay untyped so one malformed job does not fail the board.
type greenhouseResponse struct {
	Jobs []any `json:"jobs"`
}

type greenhouseJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	UpdatedAt   string `json:"updated_at"`
	Content     string `json:"content"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
}

type Greenhouse struct {
	client  *client
	baseURL string
	boards  []string
	logger  *zap.Logger
	title   cases.Caser
}

// NewGreenhouse creates a connector over the given public boards.
// An empty list selects DefaultGreenhouseBoards.
func NewGreenhouse(opts Options, boards []string) *Greenhouse {
	if len(boards) == 0 {
		boards = DefaultGreenhouseBoards
	}
	logger := opts.logger(SourceGreenhouse)
	return &Greenhouse{
		client:  newClient(opts, greenhouseThrottle, logger),
		baseURL: strings.TrimRight(opts.baseURL(greenhouseBoardsURL), "/"),
		boards:  boards,
		logger:  logger,
		title:   cases.Title(language.English),
	}
}

func (g *Greenhouse) Name() string { return SourceGreenhouse }

func (g *Greenhouse) Search(ctx context.Context, params SearchParams) ([]*jobs.Posting, error) {
	var (
		postings []*jobs.Posting
		errs     []error
	)

	for _, board := range g.boards {
		if limitReached(postings, params.MaxResults) {
			break
		}

		found, err := g.searchBoard(ctx, board, params)
		if err != nil {
			if ctx.Err() != nil {
				return postings, ctx.Err()
			}
			g.logger.Warn("greenhouse board failed", zap.String("board", board), zap.Error(err))
			errs = append(errs, fmt.Errorf("board %s: %w", board, err))
			continue
		}

		for _, posting := range found {
			if limitReached(postings, params.MaxResults) {
				break
			}
			postings = append(postings, posting)
		}
	}

	if len(errs) > 0 && len(errs) == len(g.boards) {
		return nil, fmt.Errorf("greenhouse: every board failed: %w", errors.Join(errs...))
	}

	g.logger.Debug("greenhouse search complete", zap.Int("postings", len(postings)))
	return postings, nil
}

func (g *Greenhouse) searchBoard(ctx context.Context, board string, params SearchParams) ([]*jobs.Posting, error) {
	endpoint := fmt.Sprintf("%s/%s/jobs?content=true", g.baseURL, url.PathEscape(board))

	body, err := g.client.get(ctx, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}

	var resp greenhouseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(params.Query))
	location := strings.ToLower(strings.TrimSpace(params.Location))

	var postings []*jobs.Posting
	for i, item := range resp.Jobs {
		var job greenhouseJob
		if err := decodeItem(item, &job); err != nil {
			g.logger.Debug("malformed job skipped", zap.String("board", board), zap.Int("index", i), zap.Error(err))
			continue
		}
		if job.ID == 0 || strings.TrimSpace(job.Title) == "" {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(job.Title), query) {
			continue
		}

		jobLocation := strings.ToLower(job.Location.Name)
		if location != "" && !strings.Contains(jobLocation, location) {
			continue
		}
		if params.Remote && !strings.Contains(jobLocation, "remote") {
			continue
		}

		postings = append(postings, g.toPosting(board, job))
	}
	return postings, nil
}

func (g *Greenhouse) toPosting(board string, job greenhouseJob) *jobs.Posting {
	posting := &jobs.Posting{
		ID:          jobs.NewID(SourceGreenhouse, board, strconv.FormatInt(job.ID, 10)),
		Title:       strings.TrimSpace(job.Title),
		Company:     g.title.String(strings.ReplaceAll(board, "-", " ")),
		Location:    strings.TrimSpace(job.Location.Name),
		Description: greenhouseDescription(job.Content),
		URL:         job.AbsoluteURL,
		Source:      SourceGreenhouse,
		WorkType:    detectWorkType(job.Location.Name),
	}

	if updated, err := time.Parse(time.RFC3339, job.UpdatedAt); err == nil {
		posting.PostedAt = &updated
	}

	return posting
}

// greenhouseDescription converts the entity-escaped HTML content into markdown.
func greenhouseDescription(content string) string {
	if content == "" {
		return ""
	}
	raw := html.UnescapeString(content)
	markdown, err := htmltomarkdown.ConvertString(raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(markdown)
}

func detectWorkType(location string) jobs.WorkType {
	lower := strings.ToLower(location)
	switch {
	case strings.Contains(lower, "remote"):
		return jobs.WorkTypeRemote
	case strings.Contains(lower, "hybrid"):
		return jobs.WorkTypeHybrid
	case lower == "":
		return ""
	default:
		return jobs.WorkTypeOnsite
	}
}
