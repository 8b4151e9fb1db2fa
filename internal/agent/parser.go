package agent

import (
	"regexp"
	"strings"
)

// maxActionInputLen bounds the size of queries handed to capabilities.
const maxActionInputLen = 200

var (
	actionRe = regexp.MustCompile(`(?i)Action:\s*(\w+)`)
	// Capture everything after "Action Input:" up to the next structural
	// label or end of text. Quotes around the input are tolerated.
	actionInputRe = regexp.MustCompile(`(?is)Action\s+Input:\s*["']?(.+?)["']?\s*(?:\n\s*(?:Observation|Thought|Final\s+Answer|Action)|$)`)
	finalAnswerRe = regexp.MustCompile(`(?is)Final\s+Answer:\s*(.+)`)

	// Trailing fragments of the next label sometimes survive the lazy match.
	trailingObservationRe = regexp.MustCompile(`(?is)\s*Observation\s*:.*$`)
	trailingThoughtRe     = regexp.MustCompile(`(?is)\s*Thought\s*:.*$`)
)

// actionAliases maps the spellings models actually emit onto the closed
// capability set.
var actionAliases = map[string]Capability{
	"web_search":     CapabilityWebSearch,
	"websearch":      CapabilityWebSearch,
	"search":         CapabilityWebSearch,
	"database_query": CapabilityKnowledge,
	"databasequery":  CapabilityKnowledge,
	"database":       CapabilityKnowledge,
	"query":          CapabilityKnowledge,
}

// Parser turns a raw model completion into a Decision.
//
// Precedence: an action with a non-empty input always wins over a final-answer
// marker appearing later in the same completion. Models routinely hallucinate
// an observation and then jump straight to a premature final answer; ignoring
// the trailing marker forces the observation to come from a real capability.
type Parser struct {
	// FallbackInput substitutes for a missing action input so the loop can
	// still make forward progress.
	FallbackInput string
}

// NewParser returns a parser whose fallback input is scoped to the
// institution.
func NewParser(institution string) Parser {
	return Parser{FallbackInput: institution + " information"}
}

// Parse extracts the decision from raw completion text. When neither an
// action nor a final answer is recognizable it returns the zero Decision;
// the loop treats that as a failed iteration, not an error.
func (p Parser) Parse(response string) Decision {
	action := extractAction(response)
	input := extractActionInput(response)

	if action != CapabilityNone && input != "" {
		return Decision{Action: action, Input: input}
	}

	if m := finalAnswerRe.FindStringSubmatch(response); m != nil {
		if answer := strings.TrimSpace(m[1]); answer != "" {
			return Decision{FinalAnswer: answer}
		}
	}

	if action != CapabilityNone {
		return Decision{Action: action, Input: p.FallbackInput}
	}

	return Decision{}
}

func extractAction(response string) Capability {
	m := actionRe.FindStringSubmatch(response)
	if m == nil {
		return CapabilityNone
	}
	name := strings.ToLower(strings.TrimSpace(m[1]))
	if cap, ok := actionAliases[name]; ok {
		return cap
	}
	// Unknown action names are preserved so the loop can record them as
	// failed dispatches rather than silently dropping them.
	return Capability(m[1])
}

func extractActionInput(response string) string {
	m := actionInputRe.FindStringSubmatch(response)
	if m == nil {
		return ""
	}
	input := m[1]
	input = trailingObservationRe.ReplaceAllString(input, "")
	input = trailingThoughtRe.ReplaceAllString(input, "")
	input = strings.Trim(strings.TrimSpace(input), `"'`)
	if len(input) > maxActionInputLen {
		input = input[:maxActionInputLen]
	}
	return input
}

// KnownCapability reports whether c is one of the dispatchable capabilities.
func KnownCapability(c Capability) bool {
	switch c {
	case CapabilityKnowledge, CapabilityWebSearch:
		return true
	}
	return false
}
