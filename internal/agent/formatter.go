package agent

import (
	"fmt"
	"regexp"
	"strings"
)

// MostRelevantMarker is how the knowledge capability flags its single best
// result. The loop and the formatter look for the literal string.
const MostRelevantMarker = ">>> MOST RELEVANT ANSWER >>>"

// maxFormattedLen caps the fallback prose produced from an unrecognized
// observation shape.
const maxFormattedLen = 500

// maxListItems caps bulleted output for list-shaped observations.
const maxListItems = 5

var (
	summaryRe     = regexp.MustCompile(`(?s)Summary:\s*(.+?)(?:\n\s*Result \d+:|$)`)
	resultURLRe   = regexp.MustCompile(`URL:\s*(https?://[^\s]+)`)
	resultTitleRe = regexp.MustCompile(`Title:\s*([^\n]+)`)
	contentRe     = regexp.MustCompile(`(?s)Content:\s*(.+?)(?:\n\s*Result \d+:|$)`)
	faqAnswerRe   = regexp.MustCompile(`(?s)\bA:\s*(.+?)(?:\n\nResult|$)`)
	courseRe      = regexp.MustCompile(`([A-Z]{2,4}\s*\d{3}[A-Z]?)\s*-\s*([^:]+):\s*Prerequisites:\s*([^.]+\.?)`)
	scholarshipRe = regexp.MustCompile(`Scholarship:\s*([^\n]+)\nAmount:\s*\$?([\d,]+)`)
	clubRe        = regexp.MustCompile(`(?s)Club:\s*([^\n]+?)\n.*?Description:\s*([^\n]+)`)
	deadlineRe    = regexp.MustCompile(`Deadline:\s*([^\n]+)\nDate:\s*([^\n]+)`)
	resourceRe    = regexp.MustCompile(`(?s)Resource:\s*([^\n]+?)\n.*?Description:\s*([^\n]+)`)
	programRe     = regexp.MustCompile(`(?s)([^:\n]+\([A-Z]{2,3}\)):\s*(.+?)(?:\n\nResult|$)`)

	markerRe     = regexp.MustCompile(`>>>\s*MOST RELEVANT ANSWER\s*>>>`)
	resultMetaRe = regexp.MustCompile(`Result \d+ \[[^\]]+\] \(relevance: [\d.]+\):`)
	blankLinesRe = regexp.MustCompile(`\n\s*\n`)
)

// Formatter turns a raw, possibly multi-record observation into a single
// user-facing answer when the loop exhausts without an explicit final answer.
// It only reformats; it never adds content that is not in the observation.
type Formatter struct {
	// CiteDomain restricts source citations to URLs on the institution's
	// own site. Empty disables the restriction check.
	CiteDomain string
}

// NewFormatter returns a formatter citing only URLs under domain.
func NewFormatter(domain string) Formatter {
	return Formatter{CiteDomain: domain}
}

// Format recognizes the observation's content shape by its structural markers
// and extracts the most relevant record(s) into prose or a short bulleted
// list. Unrecognized shapes degrade to marker-stripped, truncated text.
func (f Formatter) Format(observation string) string {
	obs := observation

	// Web search with a synthesized summary line.
	if strings.Contains(obs, "Summary:") {
		if m := summaryRe.FindStringSubmatch(obs); m != nil {
			summary := strings.TrimSpace(m[1])
			if u := resultURLRe.FindStringSubmatch(obs); u != nil && f.citable(u[1]) {
				return summary + "\n\nSource: " + u[1]
			}
			return summary
		}
	}

	// Web search without a summary: lift the first result's content.
	if strings.Contains(obs, "Result 1:") && strings.Contains(obs, "Content:") {
		if m := contentRe.FindStringSubmatch(obs); m != nil {
			content := strings.ReplaceAll(strings.TrimSpace(m[1]), "...", "")
			if u := resultURLRe.FindStringSubmatch(obs); u != nil {
				content += "\n\nSource: " + u[1]
			}
			return content
		}
	}

	// FAQ records.
	if strings.Contains(obs, "Q:") && strings.Contains(obs, "A:") {
		if m := faqAnswerRe.FindStringSubmatch(obs); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	// Course prerequisite records.
	if strings.Contains(obs, "Prerequisites:") {
		if m := courseRe.FindStringSubmatch(obs); m != nil {
			code := m[1]
			name := strings.TrimSpace(m[2])
			prereqs := strings.TrimSpace(m[3])
			return fmt.Sprintf("The prerequisites for %s (%s) are: %s", code, name, prereqs)
		}
	}

	if out := formatList(obs, scholarshipRe, "Available scholarships:", func(m []string) string {
		return fmt.Sprintf("• %s ($%s)", strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
	}); out != "" {
		return out
	}

	if out := formatList(obs, clubRe, "Student clubs:", func(m []string) string {
		return fmt.Sprintf("• %s: %s", strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
	}); out != "" {
		return out
	}

	if out := formatList(obs, deadlineRe, "Important deadlines:", func(m []string) string {
		return fmt.Sprintf("• %s: %s", strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
	}); out != "" {
		return out
	}

	if out := formatList(obs, resourceRe, "Campus resources:", func(m []string) string {
		return fmt.Sprintf("• %s: %s", strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
	}); out != "" {
		return out
	}

	// Degree program descriptions.
	if strings.Contains(obs, "Program:") || strings.Contains(obs, "(MS):") || strings.Contains(obs, "(BS):") {
		if m := programRe.FindStringSubmatch(obs); m != nil {
			desc := strings.TrimSpace(m[2])
			if len(desc) > 300 {
				desc = desc[:300]
			}
			return strings.TrimSpace(m[1]) + ": " + desc
		}
	}

	return f.fallback(obs)
}

func (f Formatter) citable(url string) bool {
	return f.CiteDomain == "" || strings.Contains(url, f.CiteDomain)
}

// fallback strips structural markers and truncates.
func (f Formatter) fallback(obs string) string {
	cleaned := markerRe.ReplaceAllString(obs, "")
	cleaned = resultMetaRe.ReplaceAllString(cleaned, "")
	cleaned = blankLinesRe.ReplaceAllString(cleaned, "\n")
	cleaned = strings.TrimSpace(cleaned)
	if len(cleaned) > maxFormattedLen {
		cleaned = cleaned[:maxFormattedLen] + "..."
	}
	if cleaned == "" {
		return "I found relevant information but couldn't format it properly. Please try rephrasing your question."
	}
	return cleaned
}

func formatList(obs string, re *regexp.Regexp, header string, render func([]string) string) string {
	matches := re.FindAllStringSubmatch(obs, -1)
	if len(matches) == 0 {
		return ""
	}
	if len(matches) > maxListItems {
		matches = matches[:maxListItems]
	}
	items := make([]string, 0, len(matches))
	for _, m := range matches {
		items = append(items, render(m))
	}
	return header + "\n" + strings.Join(items, "\n")
}
