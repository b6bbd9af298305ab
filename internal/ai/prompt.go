package ai

import (
	_ "embed"
	"strings"
)

//go:embed prompt.md
var systemPrompt string

// SystemPrompt returns the scoring rubric sent as the system instruction.
func SystemPrompt() string {
	return strings.TrimSpace(systemPrompt)
}

// BuildMessage renders the user message for one profile/job pair.
func BuildMessage(profileSummary, jobSummary string) string {
	var sb strings.Builder
	sb.WriteString("CANDIDATE PROFILE:\n")
	sb.WriteString(strings.TrimSpace(profileSummary))
	sb.WriteString("\n\nJOB POSTING:\n")
	sb.WriteString(strings.TrimSpace(jobSummary))
	sb.WriteString("\n\nJSON Response:")
	return sb.String()
}
