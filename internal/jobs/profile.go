package jobs

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Experience struct {
	Title      string   `mapstructure:"title" json:"title"`
	Company    string   `mapstructure:"company" json:"company"`
	StartDate  string   `mapstructure:"start_date" json:"start_date"`
	EndDate    string   `mapstructure:"end_date" json:"end_date,omitempty"`
	Location   string   `mapstructure:"location" json:"location,omitempty"`
	Highlights []string `mapstructure:"highlights" json:"highlights,omitempty"`
}

type Education struct {
	Degree string `mapstructure:"degree" json:"degree"`
	School string `mapstructure:"school" json:"school"`
	Year   int    `mapstructure:"year" json:"year"`
	Field  string `mapstructure:"field" json:"field,omitempty"`
}

// Profile is the candidate data used for matching. It is read-only input to
// the pipeline.
type Profile struct {
	Name     string `mapstructure:"name" json:"name"`
	Email    string `mapstructure:"email" json:"email"`
	Phone    string `mapstructure:"phone" json:"phone,omitempty"`
	Location string `mapstructure:"location" json:"location,omitempty"`
	Summary  string `mapstructure:"summary" json:"summary,omitempty"`

	Experience []Experience `mapstructure:"experience" json:"experience,omitempty"`
	Education  []Education  `mapstructure:"education" json:"education,omitempty"`

	Skills     []string `mapstructure:"skills" json:"skills,omitempty"`
	Languages  []string `mapstructure:"languages" json:"languages,omitempty"`
	Frameworks []string `mapstructure:"frameworks" json:"frameworks,omitempty"`
	Tools      []string `mapstructure:"tools" json:"tools,omitempty"`
	Domains    []string `mapstructure:"domains" json:"domains,omitempty"`

	TargetRoles           []string   `mapstructure:"target_roles" json:"target_roles,omitempty"`
	TargetLocations       []string   `mapstructure:"target_locations" json:"target_locations,omitempty"`
	SalaryMin             int        `mapstructure:"salary_min" json:"salary_min,omitempty"`
	SalaryMax             int        `mapstructure:"salary_max" json:"salary_max,omitempty"`
	WorkTypes             []WorkType `mapstructure:"work_types" json:"work_types,omitempty"`
	VisaSponsorshipNeeded bool       `mapstructure:"visa_sponsorship_needed" json:"visa_sponsorship_needed,omitempty"`

	LinkedIn  string `mapstructure:"linkedin" json:"linkedin,omitempty"`
	GitHub    string `mapstructure:"github" json:"github,omitempty"`
	Portfolio string `mapstructure:"portfolio" json:"portfolio,omitempty"`
}

// SkillsUnion returns the set union of every skill category. Duplicates
// (compared case-insensitively) collapse; the first spelling seen is kept.
func (p *Profile) SkillsUnion() []string {
	seen := make(map[string]struct{})
	var union []string
	for _, group := range [][]string{p.Skills, p.Languages, p.Frameworks, p.Tools, p.Domains} {
		for _, skill := range group {
			skill = strings.TrimSpace(skill)
			if skill == "" {
				continue
			}
			key := strings.ToLower(skill)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			union = append(union, skill)
		}
	}
	return union
}

// LoadProfile reads a profile file in any format viper understands (yaml, json, toml).
func LoadProfile(path string) (*Profile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("profile file is not configured")
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading profile %q: %w", path, err)
	}

	var profile Profile
	if err := v.Unmarshal(&profile); err != nil {
		return nil, fmt.Errorf("decoding profile %q: %w", path, err)
	}

	if strings.TrimSpace(profile.Name) == "" {
		return nil, fmt.Errorf("profile %q: name is required", path)
	}

	workTypes := profile.WorkTypes[:0]
	for _, wt := range profile.WorkTypes {
		if parsed := ParseWorkType(string(wt)); parsed != "" {
			workTypes = append(workTypes, parsed)
		}
	}
	profile.WorkTypes = workTypes

	return &profile, nil
}
