package sources

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spigell/jobhunter/internal/jobs"
)

const linkedInPage = `<html><body><ul>
<li><div class="base-card relative job-search-card">
  <a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/1?refId=abc&trk=x">link</a>
  <h3 class="base-search-card__title"> Senior  Go Engineer </h3>
  <h4 class="base-search-card__subtitle"><a>Acme Corp</a></h4>
  <span class="job-search-card__location">Berlin, Germany</span>
  <time class="job-search-card__listdate" datetime="2024-05-01">1 week ago</time>
</div></li>
<li><div class="base-card">
  <a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/2">link</a>
  <h4 class="base-search-card__subtitle">No Title Inc</h4>
</div></li>
<li><div class="base-card">
  <a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/3">link</a>
  <h3 class="base-search-card__title">Platform Engineer</h3>
  <h4 class="base-search-card__subtitle">Globex</h4>
</div></li>
</ul></body></html>`

func testOptions(url string) Options {
	return Options{BaseURL: url, Throttle: time.Millisecond}
}

func TestLinkedInSearchParsesCards(t *testing.T) {
	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "Mozilla/5.0") {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		fmt.Fprint(w, linkedInPage)
	}))
	defer srv.Close()

	connector := NewLinkedIn(testOptions(srv.URL))
	postings, err := connector.Search(context.Background(), SearchParams{
		Query:           "go engineer",
		Location:        "Europe",
		Remote:          true,
		MaxResults:      10,
		ExperienceLevel: "senior",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(postings) != 2 {
		t.Fatalf("expected 2 postings (malformed card skipped), got %d", len(postings))
	}

	first := postings[0]
	if first.Title != "Senior Go Engineer" || first.Company != "Acme Corp" {
		t.Fatalf("unexpected posting: %+v", first)
	}
	if first.URL != "https://www.linkedin.com/jobs/view/1" {
		t.Fatalf("query string must be stripped, got %q", first.URL)
	}
	if first.ID != jobs.NewID(SourceLinkedIn, first.URL) || len(first.ID) != 12 {
		t.Fatalf("unexpected id %q", first.ID)
	}
	if first.WorkType != jobs.WorkTypeRemote {
		t.Fatalf("expected remote work type, got %q", first.WorkType)
	}
	if first.PostedAt == nil || first.PostedAt.Format(time.DateOnly) != "2024-05-01" {
		t.Fatalf("unexpected posted date: %v", first.PostedAt)
	}
	if postings[1].Location != "Europe" {
		t.Fatalf("expected fallback location, got %q", postings[1].Location)
	}

	q := gotQuery.Load().(url.Values)
	if q["keywords"][0] != "go engineer" || q["f_WT"][0] != "2" || q["f_E"][0] != "3" {
		t.Fatalf("unexpected query: %v", q)
	}
}

func TestLinkedInRespectsMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, linkedInPage)
	}))
	defer srv.Close()

	postings, err := NewLinkedIn(testOptions(srv.URL)).Search(context.Background(), SearchParams{Query: "go", MaxResults: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}
}

func TestConnectorFailsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewIndeed(testOptions(srv.URL)).Search(context.Background(), SearchParams{Query: "go"})
	if err == nil {
		t.Fatal("expected error")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected StatusError with 429, got %v", err)
	}
}

func TestIndeedSearchParsesCards(t *testing.T) {
	page := `<html><body>
<div class="job_seen_beacon">
  <h2 class="jobTitle"><a data-jk="abc123"><span>Backend Developer</span></a></h2>
  <span data-testid="company-name">Initech</span>
  <div data-testid="text-location">Hybrid work in Austin, TX</div>
  <div class="job-snippet"><ul><li>Go and Postgres</li></ul></div>
</div>
<div class="job_seen_beacon">
  <h2 class="jobTitle"><span>Missing company</span></h2>
</div>
</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("remotejob") != "" {
			t.Errorf("remote filter must not be set")
		}
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	postings, err := NewIndeed(testOptions(srv.URL)).Search(context.Background(), SearchParams{Query: "backend", Location: "Austin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}

	p := postings[0]
	if p.URL != "https://www.indeed.com/viewjob?jk=abc123" {
		t.Fatalf("unexpected url %q", p.URL)
	}
	if p.ID != jobs.NewID(SourceIndeed, "Backend Developer", "Initech") {
		t.Fatalf("unexpected id %q", p.ID)
	}
	if p.WorkType != jobs.WorkTypeHybrid {
		t.Fatalf("expected hybrid, got %q", p.WorkType)
	}
	if p.Description != "Go and Postgres" {
		t.Fatalf("unexpected description %q", p.Description)
	}
}

func TestGreenhouseFiltersAndSkipsFailingBoards(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/acme-labs/jobs":
			if r.URL.Query().Get("content") != "true" {
				t.Errorf("content flag is missing")
			}
			fmt.Fprint(w, `{"jobs":[
{"id":1,"title":"Senior Go Engineer","absolute_url":"https://boards.greenhouse.io/acme/jobs/1","updated_at":"2024-05-01T10:00:00-04:00","content":"&lt;p&gt;Build &lt;strong&gt;APIs&lt;/strong&gt;&lt;/p&gt;","location":{"name":"Remote - US"}},
{"id":2,"title":"Designer","location":{"name":"Remote"}},
{"id":3,"title":"Go Engineer","location":{"name":"London"}}
]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	connector := NewGreenhouse(testOptions(srv.URL), []string{"missing", "acme-labs"})
	postings, err := connector.Search(context.Background(), SearchParams{Query: "go engineer", Remote: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}

	p := postings[0]
	if p.Company != "Acme Labs" {
		t.Fatalf("unexpected company %q", p.Company)
	}
	if p.ID != jobs.NewID(SourceGreenhouse, "acme-labs", "1") {
		t.Fatalf("unexpected id %q", p.ID)
	}
	if p.Description != "Build **APIs**" {
		t.Fatalf("unexpected description %q", p.Description)
	}
	if p.WorkType != jobs.WorkTypeRemote || p.PostedAt == nil {
		t.Fatalf("unexpected posting %+v", p)
	}
}

func TestGreenhouseSkipsMalformedJobs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jobs":[
{"id":1,"title":"Go Engineer","location":"Remote"},
{"id":"2","title":"Staff Go Engineer","location":{"name":"Berlin"}},
{"id":3,"title":["not","a","title"]},
"garbage"
]}`)
	}))
	defer srv.Close()

	postings, err := NewGreenhouse(testOptions(srv.URL), []string{"acme"}).Search(context.Background(), SearchParams{Query: "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}
	if postings[0].Title != "Staff Go Engineer" || postings[0].ID != jobs.NewID(SourceGreenhouse, "acme", "2") {
		t.Fatalf("unexpected posting %+v", postings[0])
	}
}

func TestGreenhouseFailsWhenEveryBoardFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewGreenhouse(testOptions(srv.URL), []string{"a", "b"}).Search(context.Background(), SearchParams{Query: "go"})
	if err == nil {
		t.Fatal("expected error when every board fails")
	}
}

func TestHeadhunterSearchPagesAndDecodes(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/vacancies" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("schedule") != "remote" || q.Get("area") != "1" {
			t.Errorf("unexpected query %v", q)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing token")
		}

		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()

		switch q.Get("page") {
		case "0":
			fmt.Fprint(gz, `{"items":[{"id":"1","name":"Go Developer","area":{"name":"Moscow"},
"salary":{"from":100,"to":200,"currency":"RUR"},"schedule":{"id":"remote"},"experience":{"id":"between3And6"},
"employer":{"name":"Acme"},"alternate_url":"https://hh.ru/vacancy/1",
"snippet":{"requirement":"Strong <highlighttext>Go</highlighttext>","responsibility":null},
"published_at":"2024-05-01T10:00:00+0300"}],"found":2,"pages":2,"page":0,"per_page":1}`)
		default:
			fmt.Fprint(gz, `{"items":[{"id":"2","name":"SRE","salary":null,"schedule":{"id":"flexible"},
"employer":{"name":"Globex"},"alternate_url":"https://hh.ru/vacancy/2"},
{"id":"3","name":"Broken","employer":{"name":""}},
{"id":"4","name":"Negotiable","salary":{"from":"negotiable"},"employer":{"name":"Initech"},"alternate_url":"https://hh.ru/vacancy/4"},
{"id":"5","name":"Platform Engineer","salary":{"from":"150","to":250,"currency":"RUR"},"employer":{"name":"Umbrella"},"alternate_url":"https://hh.ru/vacancy/5"}],"found":5,"pages":2,"page":1,"per_page":1}`)
		}
	}))
	defer srv.Close()

	connector := NewHeadhunter(testOptions(srv.URL), "secret", []int{1})
	postings, err := connector.Search(context.Background(), SearchParams{Query: "go", Remote: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requests.Load() != 2 {
		t.Fatalf("expected 2 requests, got %d", requests.Load())
	}
	if len(postings) != 3 {
		t.Fatalf("expected 3 postings, got %d", len(postings))
	}

	first := postings[0]
	if !first.HasSalary() || first.SalaryCurrency != "RUR" {
		t.Fatalf("unexpected salary: %+v", first)
	}
	if first.WorkType != jobs.WorkTypeRemote || first.ExperienceLevel != "senior" {
		t.Fatalf("unexpected work type/level: %q %q", first.WorkType, first.ExperienceLevel)
	}
	if first.Description != "Strong Go" {
		t.Fatalf("unexpected description %q", first.Description)
	}
	if first.ID != jobs.NewID(SourceHeadhunter, "https://hh.ru/vacancy/1") {
		t.Fatalf("unexpected id %q", first.ID)
	}
	if postings[1].WorkType != jobs.WorkTypeHybrid || postings[1].HasSalary() {
		t.Fatalf("unexpected second posting: %+v", postings[1])
	}
	// The item with a non-numeric salary is dropped on its own; its neighbours survive.
	if postings[2].Title != "Platform Engineer" || postings[2].SalaryMin != 150 {
		t.Fatalf("unexpected third posting: %+v", postings[2])
	}
}

func TestBuildHeadhunterQuery(t *testing.T) {
	q := buildHeadhunterQuery(&headhunterParams{
		Text:      "go",
		Areas:     []int{1, 2},
		Schedules: []string{"remote"},
		PerPage:   50,
	})

	if q.Get("text") != "go" || q.Get("per_page") != "50" {
		t.Fatalf("unexpected query: %v", q)
	}
	if len(q["area"]) != 2 {
		t.Fatalf("expected two areas, got %v", q["area"])
	}
	if _, ok := q["experience"]; ok {
		t.Fatalf("empty values must be omitted")
	}
}

func TestClientThrottlesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	c := newClient(Options{Throttle: 50 * time.Millisecond}, time.Second, testOptions("").logger("test"))

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.get(context.Background(), srv.URL, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Fatalf("expected at least 100ms between three requests, got %s", elapsed)
	}
}

func TestClientStopsOnCancelledContext(t *testing.T) {
	c := newClient(Options{}, time.Hour, testOptions("").logger("test"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.get(ctx, "http://127.0.0.1:0", nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
