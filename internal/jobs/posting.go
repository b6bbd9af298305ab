package jobs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	PostingIDField      = "ID"
	PostingCompanyField = "Company"

	idLength = 12
)

type WorkType string

const (
	WorkTypeRemote WorkType = "remote"
	WorkTypeHybrid WorkType = "hybrid"
	WorkTypeOnsite WorkType = "onsite"
)

// ParseWorkType maps free-form values onto the known work arrangements.
// Unknown values yield an empty WorkType.
func ParseWorkType(s string) WorkType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "remote":
		return WorkTypeRemote
	case "hybrid":
		return WorkTypeHybrid
	case "onsite", "on-site", "office":
		return WorkTypeOnsite
	default:
		return ""
	}
}

type Postings struct {
	Items []*Posting
}

type Posting struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Source      string `json:"source"`

	SalaryMin       int        `json:"salary_min,omitempty"`
	SalaryMax       int        `json:"salary_max,omitempty"`
	SalaryCurrency  string     `json:"salary_currency,omitempty"`
	WorkType        WorkType   `json:"work_type,omitempty"`
	ExperienceLevel string     `json:"experience_level,omitempty"`
	PostedAt        *time.Time `json:"posted_at,omitempty"`

	RequiredSkills  []string `json:"required_skills,omitempty"`
	PreferredSkills []string `json:"preferred_skills,omitempty"`

	Match *Match `json:"match,omitempty"`
}

// Match holds the scoring outcome folded into a posting.
// A non-empty Error means scoring failed and Score was degraded to 0.
type Match struct {
	Score    int      `json:"score"`
	Summary  string   `json:"summary,omitempty"`
	Matching []string `json:"matching_skills,omitempty"`
	Gaps     []string `json:"skill_gaps,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// NewID returns a short deterministic digest of the provided stable fields.
func NewID(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:idLength]
}

// Key is the cross-source identity of a posting.
func (p *Posting) Key() string {
	return strings.ToLower(strings.TrimSpace(p.Title)) + "|" + strings.ToLower(strings.TrimSpace(p.Company))
}

// Score returns the match score, or 0 for unscored postings.
func (p *Posting) Score() int {
	if p.Match == nil {
		return 0
	}
	return p.Match.Score
}

func (p *Posting) IsScored() bool {
	return p.Match != nil && p.Match.Error == ""
}

func (p *Posting) HasSalary() bool {
	return p.SalaryMin > 0 && p.SalaryMax > 0
}

func (p *Posting) GetStringField(name string) string {
	switch name {
	case PostingIDField:
		return p.ID
	case PostingCompanyField:
		return p.Company
	default:
		return ""
	}
}

func (v *Postings) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Items)
}

func (v *Postings) FindByID(id string) *Posting {
	for _, posting := range v.Items {
		if posting.ID == id {
			return posting
		}
	}
	return nil
}

// Dedup drops postings whose Key was already seen. The first occurrence wins
// and relative order is preserved. It returns the ids of dropped postings.
func (v *Postings) Dedup() []string {
	seen := make(map[string]struct{}, len(v.Items))
	kept := make([]*Posting, 0, len(v.Items))
	var dropped []string

	for _, posting := range v.Items {
		key := posting.Key()
		if _, ok := seen[key]; ok {
			dropped = append(dropped, posting.ID)
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, posting)
	}

	v.Items = kept
	return dropped
}

// Exclude removes postings whose field matches one of targets (case-insensitive).
// Order of the remaining postings is preserved.
func (v *Postings) Exclude(name string, targets []string) []string {
	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		set[strings.ToLower(strings.TrimSpace(target))] = struct{}{}
	}

	return v.Keep(func(p *Posting) bool {
		_, ok := set[strings.ToLower(strings.TrimSpace(p.GetStringField(name)))]
		return !ok
	})
}

// Keep retains postings for which keep returns true and returns the ids of
// the removed ones.
func (v *Postings) Keep(keep func(*Posting) bool) []string {
	kept := v.Items[:0:0]
	var removed []string
	for _, posting := range v.Items {
		if keep(posting) {
			kept = append(kept, posting)
			continue
		}
		removed = append(removed, posting.ID)
	}
	v.Items = kept
	return removed
}

func (v *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByCompany groups postings by company for a quick overview.
func (v *Postings) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, posting := range v.Items {
		entry := map[string]string{
			"title":    posting.Title,
			"url":      posting.URL,
			"location": posting.Location,
			"source":   posting.Source,
		}
		if posting.HasSalary() {
			entry["salary"] = fmt.Sprintf("%d-%d %s", posting.SalaryMin, posting.SalaryMax, posting.SalaryCurrency)
		}
		if posting.Match != nil {
			if posting.Match.Error != "" {
				entry["match_error"] = posting.Match.Error
			} else {
				entry["match_score"] = fmt.Sprintf("%d", posting.Match.Score)
				entry["match_summary"] = posting.Match.Summary
			}
		}
		report[posting.Company] = append(report[posting.Company], entry)
	}
	return report
}
