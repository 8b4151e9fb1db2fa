package agent

import (
	"fmt"
	"strings"
)

// stopWords are ignored when extracting significant terms from a query.
// Interrogatives, articles, and generic campus vocabulary carry no signal
// about whether a retrieved observation actually answers the question.
var stopWords = map[string]bool{
	"what": true, "where": true, "when": true, "how": true, "who": true,
	"which": true, "is": true, "are": true, "was": true, "were": true,
	"the": true, "a": true, "an": true, "to": true, "for": true, "of": true,
	"in": true, "on": true, "at": true, "by": true, "with": true,
	"do": true, "does": true, "did": true, "can": true, "could": true,
	"would": true, "should": true, "will": true,
	"i": true, "me": true, "my": true, "need": true, "want": true,
	"get": true, "find": true, "about": true, "tell": true,
	"university": true, "state": true, "enroll": true, "apply": true,
	"requirements": true, "requirement": true, "program": true,
	"course": true, "class": true,
}

// locationWords mark a query as asking for a physical place.
var locationWords = []string{"where", "location", "building", "address", "find", "directions", "located"}

// noResultMarkers are the phrases the knowledge capability uses to signal an
// empty lookup.
var noResultMarkers = []string{
	"no information found",
	"no relevant information found",
}

// Verdict is the outcome of judging a knowledge-store observation.
type Verdict struct {
	Irrelevant bool
	Reason     string
}

// RelevancePolicy decides whether a knowledge-store observation answers the
// query and, when it does not, how to reformulate the query for web search.
// Thresholds are exported so they can be tuned and tested in isolation from
// the loop.
type RelevancePolicy struct {
	// Institution prefixes reformulated searches and is excluded from
	// significant terms.
	Institution string
	// QueryOverlap is the minimum fraction of significant query terms that
	// must appear verbatim in the observation.
	QueryOverlap float64
	// ConversationOverlap is the minimum fraction of recent-conversation
	// terms that must appear, checked only for short queries.
	ConversationOverlap float64
	// ShortQueryWords is the word count at or below which the conversation
	// cross-check applies.
	ShortQueryWords int
}

// DefaultRelevancePolicy returns the policy used in production.
func DefaultRelevancePolicy(institution string) RelevancePolicy {
	return RelevancePolicy{
		Institution:         institution,
		QueryOverlap:        0.5,
		ConversationOverlap: 0.3,
		ShortQueryWords:     5,
	}
}

// Judge evaluates a knowledge-store observation against the user query and
// recent conversation. It is never applied to web-search results: web search
// is the fallback of last resort.
func (p RelevancePolicy) Judge(query, observation string, turns []ConversationTurn) Verdict {
	obsLower := strings.ToLower(observation)

	for _, marker := range noResultMarkers {
		if strings.Contains(obsLower, marker) {
			return Verdict{Irrelevant: true, Reason: "no results"}
		}
	}

	terms := p.significantTerms(query, 2)
	if len(terms) > 0 {
		matched := 0
		var missing []string
		for _, term := range terms {
			if strings.Contains(obsLower, term) {
				matched++
			} else {
				missing = append(missing, term)
			}
		}
		if float64(matched) < float64(len(terms))*p.QueryOverlap {
			if len(missing) > 3 {
				missing = missing[:3]
			}
			return Verdict{
				Irrelevant: true,
				Reason:     fmt.Sprintf("query terms not in results: %s", strings.Join(missing, ", ")),
			}
		}
	}

	// Vague follow-ups ("what about that office?") pass the keyword check
	// trivially; cross-check against the last exchange instead.
	if len(strings.Fields(query)) <= p.ShortQueryWords && len(turns) > 0 {
		recent := turns
		if len(recent) > 2 {
			recent = recent[len(recent)-2:]
		}
		convTerms := map[string]bool{}
		for _, turn := range recent {
			for _, term := range p.significantTerms(turn.Content, 3) {
				convTerms[term] = true
			}
		}
		if len(convTerms) > 0 {
			matched := 0
			for term := range convTerms {
				if strings.Contains(obsLower, term) {
					matched++
				}
			}
			if float64(matched) < float64(len(convTerms))*p.ConversationOverlap {
				return Verdict{Irrelevant: true, Reason: "conversation context not in results"}
			}
		}
	}

	return Verdict{}
}

// significantTerms extracts lowercased terms longer than minLen that are
// neither stop words nor part of the institution name.
func (p RelevancePolicy) significantTerms(text string, minLen int) []string {
	instTokens := map[string]bool{}
	for _, tok := range strings.Fields(strings.ToLower(p.Institution)) {
		instTokens[tok] = true
	}

	seen := map[string]bool{}
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, "?.,!")
		if len(word) <= minLen || stopWords[word] || instTokens[word] || seen[word] {
			continue
		}
		seen[word] = true
		terms = append(terms, word)
	}
	return terms
}

// Reformulate builds the web-search query used when a knowledge-store result
// is judged irrelevant.
//
// Location-style questions are reduced to their subject ("where is the
// financial aid building" -> "financial aid"), recovering the subject from
// recent conversation when the stripped query is too vague, and expanded into
// an office-location search. Everything else is submitted verbatim with the
// institution name prefixed.
func (p RelevancePolicy) Reformulate(query string, turns []ConversationTurn) string {
	queryLower := strings.ToLower(query)

	isLocation := false
	for _, word := range locationWords {
		if strings.Contains(queryLower, word) {
			isLocation = true
			break
		}
	}
	if !isLocation {
		return p.Institution + " " + query
	}

	subject := queryLower
	strip := append([]string{}, locationWords...)
	strip = append(strip, "the", "is", "are", "?", "what")
	strip = append(strip, strings.Fields(strings.ToLower(p.Institution))...)
	for _, word := range strip {
		subject = strings.ReplaceAll(subject, word, " ")
	}
	subject = strings.Join(strings.Fields(subject), " ")

	if len(subject) < 3 {
		subject = recoverSubject(turns)
	}

	return fmt.Sprintf("%s %s office location address building", p.Institution, subject)
}

// knownSubjects are the campus offices vague follow-up questions most often
// refer back to.
var knownSubjects = []string{"financial aid", "housing", "parking", "registrar", "bookstore"}

// recoverSubject scans the last turns, newest first, for a known subject.
func recoverSubject(turns []ConversationTurn) string {
	recent := turns
	if len(recent) > 4 {
		recent = recent[len(recent)-4:]
	}
	for i := len(recent) - 1; i >= 0; i-- {
		content := strings.ToLower(recent[i].Content)
		for _, subject := range knownSubjects {
			if strings.Contains(content, subject) {
				return subject
			}
		}
	}
	return ""
}
