package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobhunter/internal/jobs"
)

const (
	headhunterAPIURL     = "https://api.hh.ru"
	headhunterSearchPath = "/vacancies"
	headhunterThrottle   = 500 * time.Millisecond
	// Max value for search per page.
	headhunterMaxPerPage = 100
	headhunterTimeLayout = "2006-01-02T15:04:05-0700"
)

var highlightTag = regexp.MustCompile(`</?highlighttext>`)

// headhunterParams are encoded into the query string. The hhparam tag names the query key.
type headhunterParams struct {
	Text       string   `hhparam:"text"`
	Areas      []int    `hhparam:"area"`
	Schedules  []string `hhparam:"schedule"`
	Experience string   `hhparam:"experience"`
	OrderBy    string   `hhparam:"order_by"`
	PerPage    int      `hhparam:"per_page"`
}

type headhunterItemResponse struct {
	Items   []any `json:"items"`
	Found   int   `json:"found"`
	Pages   int   `json:"pages"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

type headhunterVacancy struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Area struct {
		Name string `json:"name"`
	} `json:"area"`
	Salary *struct {
		From     int    `json:"from"`
		To       int    `json:"to"`
		Currency string `json:"currency"`
	} `json:"salary"`
	Experience struct {
		ID string `json:"id"`
	} `json:"experience"`
	Schedule struct {
		ID string `json:"id"`
	} `json:"schedule"`
	Employer struct {
		Name string `json:"name"`
	} `json:"employer"`
	AlternateURL string `json:"alternate_url"`
	Snippet      struct {
		Requirement    string `json:"requirement"`
		Responsibility string `json:"responsibility"`
	} `json:"snippet"`
	PublishedAt string `json:"published_at"`
}

// hh.ru experience ids mapped onto the shared experience levels.
var headhunterExperience = map[string]string{
	"noExperience": "entry",
	"between1And3": "mid",
	"between3And6": "senior",
	"moreThan6":    "senior",
}

var headhunterExperienceFilter = map[string]string{
	"entry":  "noExperience",
	"mid":    "between1And3",
	"senior": "between3And6",
}

type Headhunter struct {
	client  *client
	baseURL string
	token   string
	areas   []int
	logger  *zap.Logger
}

// NewHeadhunter creates the hh.ru connector. The token is optional for vacancy search.
func NewHeadhunter(opts Options, token string, areas []int) *Headhunter {
	logger := opts.logger(SourceHeadhunter)
	return &Headhunter{
		client:  newClient(opts, headhunterThrottle, logger),
		baseURL: strings.TrimRight(opts.baseURL(headhunterAPIURL), "/"),
		token:   token,
		areas:   areas,
		logger:  logger,
	}
}

func (h *Headhunter) Name() string { return SourceHeadhunter }

func (h *Headhunter) Search(ctx context.Context, params SearchParams) ([]*jobs.Posting, error) {
	hhParams := &headhunterParams{
		Text:    params.Query,
		Areas:   h.areas,
		OrderBy: "publication_time",
		PerPage: headhunterMaxPerPage,
	}
	if params.MaxResults > 0 && params.MaxResults < headhunterMaxPerPage {
		hhParams.PerPage = params.MaxResults
	}
	if params.Remote {
		hhParams.Schedules = []string{"remote"}
	}
	if params.Location != "" && len(h.areas) == 0 {
		// The API has no free-text location, so the location joins the query.
		hhParams.Text = strings.TrimSpace(params.Query + " " + params.Location)
	}
	hhParams.Experience = headhunterExperienceFilter[strings.ToLower(params.ExperienceLevel)]

	items, err := h.getItems(ctx, h.baseURL+headhunterSearchPath, buildHeadhunterQuery(hhParams), params.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("headhunter search: %w", err)
	}

	var postings []*jobs.Posting
	for i, item := range items {
		if limitReached(postings, params.MaxResults) {
			break
		}

		var vacancy headhunterVacancy
		if err := decodeItem(item, &vacancy); err != nil {
			h.logger.Debug("malformed vacancy skipped", zap.Int("index", i), zap.Error(err))
			continue
		}
		if vacancy.Name == "" || vacancy.Employer.Name == "" || vacancy.AlternateURL == "" {
			continue
		}
		postings = append(postings, vacancy.toPosting())
	}

	h.logger.Debug("headhunter search complete", zap.Int("postings", len(postings)))
	return postings, nil
}

// getItems collects items from all pages until limit items were gathered.
func (h *Headhunter) getItems(ctx context.Context, endpoint string, q url.Values, limit int) ([]any, error) {
	var items []any

	for page := 0; ; page++ {
		q.Set("page", strconv.Itoa(page))

		body, err := h.client.get(ctx, endpoint+"?"+q.Encode(), h.headers())
		if err != nil {
			return nil, err
		}

		var response headhunterItemResponse
		if err := json.Unmarshal(body, &response); err != nil {
			return nil, err
		}

		items = append(items, response.Items...)

		if limit > 0 && len(items) >= limit {
			break
		}
		if response.Page >= response.Pages-1 || len(response.Items) == 0 {
			break
		}

		h.logger.Debug("additional request needed", zap.String("reason", fmt.Sprintf(
			"current page (%d) < all page count (%d)", response.Page+1, response.Pages),
		))
	}

	return items, nil
}

func (h *Headhunter) headers() map[string]string {
	headers := map[string]string{
		"Accept":          "application/json",
		"Accept-Encoding": "gzip",
	}
	if h.token != "" {
		headers["Authorization"] = "Bearer " + h.token
	}
	return headers
}

func (v *headhunterVacancy) toPosting() *jobs.Posting {
	posting := &jobs.Posting{
		ID:              jobs.NewID(SourceHeadhunter, v.AlternateURL),
		Title:           strings.TrimSpace(v.Name),
		Company:         strings.TrimSpace(v.Employer.Name),
		Location:        v.Area.Name,
		URL:             v.AlternateURL,
		Source:          SourceHeadhunter,
		Description:     snippetText(v.Snippet.Requirement, v.Snippet.Responsibility),
		ExperienceLevel: headhunterExperience[v.Experience.ID],
	}

	switch v.Schedule.ID {
	case "remote":
		posting.WorkType = jobs.WorkTypeRemote
	case "flexible":
		posting.WorkType = jobs.WorkTypeHybrid
	case "":
	default:
		posting.WorkType = jobs.WorkTypeOnsite
	}

	if v.Salary != nil {
		posting.SalaryMin = v.Salary.From
		posting.SalaryMax = v.Salary.To
		posting.SalaryCurrency = v.Salary.Currency
	}

	if published, err := time.Parse(headhunterTimeLayout, v.PublishedAt); err == nil {
		posting.PostedAt = &published
	}

	return posting
}

func snippetText(parts ...string) string {
	var lines []string
	for _, part := range parts {
		part = strings.TrimSpace(highlightTag.ReplaceAllString(part, ""))
		if part != "" {
			lines = append(lines, part)
		}
	}
	return strings.Join(lines, "\n")
}

func buildHeadhunterQuery(params *headhunterParams) url.Values {
	q := url.Values{}
	value := reflect.ValueOf(params).Elem()

	for _, field := range reflect.VisibleFields(value.Type()) {
		key := field.Tag.Get("hhparam")
		if key == "" {
			continue
		}

		switch v := value.FieldByIndex(field.Index).Interface().(type) {
		case []int:
			for _, item := range v {
				q.Add(key, strconv.Itoa(item))
			}
		case []string:
			for _, item := range v {
				q.Add(key, item)
			}
		default:
			s := fmt.Sprintf("%v", v)
			if s != "" && s != "0" {
				q.Set(key, s)
			}
		}
	}

	return q
}
