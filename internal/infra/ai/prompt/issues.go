package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	domain "github.com/bryanwahyu/issuelens/internal/domain/issues"
)

// bodyLimit caps how much of an issue body is forwarded to the model.
const bodyLimit = 500

// GetSystemPrompt provides directions for the issue analysis.
func GetSystemPrompt() string {
	return "You are a GitHub issue analyzer. Analyze the provided issues " +
		"and respond to the user's request clearly and concisely. " +
		"Focus on actionable insights and patterns."
}

// GetUserPrompt builds the user message: the caller's request followed by
// the formatted issue blocks.
func GetUserPrompt(userPrompt string, issues []domain.Issue) string {
	return fmt.Sprintf("%s\n\nIssues to analyze:\n\n%s", userPrompt, FormatIssues(issues))
}

// FormatIssues renders each issue as a labeled block: ordinal position,
// title, creation timestamp, URL and a body capped at bodyLimit characters
// with an ellipsis marker. Blocks are joined with a blank line.
func FormatIssues(issues []domain.Issue) string {
	parts := make([]string, 0, len(issues))
	for idx, is := range issues {
		body := truncateBody(is.Body)
		if body == "" {
			body = "No description provided"
		}
		parts = append(parts, fmt.Sprintf(`Issue #%d:
Title: %s
Created: %s
URL: %s
Description: %s
---`, idx+1, is.Title, is.CreatedAt, is.HTMLURL, body))
	}
	return strings.Join(parts, "\n\n")
}

// truncateBody caps a body at bodyLimit characters, counting runes so a
// multibyte body is never cut mid-sequence.
func truncateBody(body string) string {
	if utf8.RuneCountInString(body) <= bodyLimit {
		return body
	}
	return string([]rune(body)[:bodyLimit]) + "..."
}
