package matcher

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/spigell/jobhunter/internal/jobs"
)

const (
	maxHighlights     = 3
	maxDescriptionLen = 2000
)

var numbers = message.NewPrinter(language.English)

// ProfileSummary renders the candidate text sent to the oracle.
func ProfileSummary(profile *jobs.Profile) string {
	parts := []string{
		"Name: " + profile.Name,
		"Location: " + profile.Location,
	}

	if profile.Summary != "" {
		parts = append(parts, "Summary: "+profile.Summary)
	}

	if len(profile.Experience) > 0 {
		lines := make([]string, 0, len(profile.Experience))
		for _, exp := range profile.Experience {
			end := exp.EndDate
			if end == "" {
				end = "Present"
			}
			line := fmt.Sprintf("- %s at %s (%s - %s)", exp.Title, exp.Company, exp.StartDate, end)
			if highlights := exp.Highlights[:min(len(exp.Highlights), maxHighlights)]; len(highlights) > 0 {
				line += "\n  " + strings.Join(highlights, "\n  ")
			}
			lines = append(lines, line)
		}
		parts = append(parts, "Experience:\n"+strings.Join(lines, "\n"))
	}

	if len(profile.Education) > 0 {
		lines := make([]string, 0, len(profile.Education))
		for _, edu := range profile.Education {
			lines = append(lines, fmt.Sprintf("- %s from %s (%d)", edu.Degree, edu.School, edu.Year))
		}
		parts = append(parts, "Education:\n"+strings.Join(lines, "\n"))
	}

	if skills := profile.SkillsUnion(); len(skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(skills, ", "))
	}

	if len(profile.TargetRoles) > 0 {
		parts = append(parts, "Target roles: "+strings.Join(profile.TargetRoles, ", "))
	}

	if profile.VisaSponsorshipNeeded {
		parts = append(parts, "Note: Requires visa sponsorship")
	}

	return strings.Join(parts, "\n\n")
}

// JobSummary renders the posting text sent to the oracle.
func JobSummary(posting *jobs.Posting) string {
	parts := []string{
		"Title: " + posting.Title,
		"Company: " + posting.Company,
		"Location: " + posting.Location,
	}

	if posting.HasSalary() {
		parts = append(parts, numbers.Sprintf("Salary: %s %d - %d", posting.SalaryCurrency, posting.SalaryMin, posting.SalaryMax))
	}

	if posting.WorkType != "" {
		parts = append(parts, "Work type: "+string(posting.WorkType))
	}

	if posting.ExperienceLevel != "" {
		parts = append(parts, "Level: "+posting.ExperienceLevel)
	}

	if posting.Description != "" {
		parts = append(parts, "Description:\n"+truncateRunes(posting.Description, maxDescriptionLen))
	}

	return strings.Join(parts, "\n")
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
