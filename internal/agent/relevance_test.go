package agent

import (
	"strings"
	"testing"
)

func TestJudgeNoResultMarker(t *testing.T) {
	p := DefaultRelevancePolicy("SJSU")
	v := p.Judge("parking permits", "No information found in the database.", nil)
	if !v.Irrelevant {
		t.Fatal("empty lookup must be judged irrelevant")
	}
	if v.Reason != "no results" {
		t.Fatalf("reason = %q", v.Reason)
	}
}

func TestJudgeKeywordOverlap(t *testing.T) {
	p := DefaultRelevancePolicy("SJSU")

	tests := []struct {
		name           string
		query          string
		observation    string
		wantIrrelevant bool
	}{
		{
			name:           "all terms present",
			query:          "CMPE 259 prerequisites",
			observation:    "Result 1 [prerequisites] (relevance: 0.95):\nCMPE 259 - Natural Language Processing: Prerequisites: CMPE 255.",
			wantIrrelevant: false,
		},
		{
			name:           "no terms present",
			query:          "engineering scholarship deadlines for transfer students",
			observation:    "The campus bookstore sells textbooks and supplies.",
			wantIrrelevant: true,
		},
		{
			name:           "institution name does not count as a term",
			query:          "What are the SJSU library hours?",
			observation:    "The library is open 8am to 10pm. Extended hours during finals.",
			wantIrrelevant: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := p.Judge(tt.query, tt.observation, nil)
			if v.Irrelevant != tt.wantIrrelevant {
				t.Fatalf("irrelevant = %v (reason %q), want %v", v.Irrelevant, v.Reason, tt.wantIrrelevant)
			}
		})
	}
}

func TestJudgeShortQueryConversationCheck(t *testing.T) {
	p := DefaultRelevancePolicy("SJSU")
	turns := []ConversationTurn{
		{Role: RoleUser, Content: "Tell me about financial assistance options"},
		{Role: RoleAssistant, Content: "There are grants, loans, and scholarships available."},
	}

	// The observation satisfies the (empty) keyword check but shares nothing
	// with the recent conversation.
	v := p.Judge("where is it?", "The gym opens at 6am on weekdays.", turns)
	if !v.Irrelevant {
		t.Fatal("observation unrelated to conversation must be judged irrelevant")
	}
	if v.Reason != "conversation context not in results" {
		t.Fatalf("reason = %q", v.Reason)
	}

	// Long queries skip the conversation cross-check entirely.
	v = p.Judge("gym weekday opening schedule morning evening hours", "The gym opens at 6am on weekdays. Morning and evening schedule varies; opening hours posted weekly.", turns)
	if v.Irrelevant {
		t.Fatalf("long query should not trigger the conversation check: %q", v.Reason)
	}
}

func TestReformulateVerbatim(t *testing.T) {
	p := DefaultRelevancePolicy("SJSU")
	got := p.Reformulate("scholarship deadlines", nil)
	if got != "SJSU scholarship deadlines" {
		t.Fatalf("got %q", got)
	}
}

func TestReformulateLocation(t *testing.T) {
	p := DefaultRelevancePolicy("SJSU")
	got := p.Reformulate("Where is the financial aid building?", nil)
	want := "SJSU financial aid office location address building"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReformulateRecoversSubjectFromConversation(t *testing.T) {
	p := DefaultRelevancePolicy("SJSU")
	turns := []ConversationTurn{
		{Role: RoleUser, Content: "How do I apply for housing?"},
		{Role: RoleAssistant, Content: "Submit the housing application through the portal."},
	}

	got := p.Reformulate("where is it located?", turns)
	if !strings.Contains(got, "housing") {
		t.Fatalf("subject not recovered from conversation: %q", got)
	}
	if !strings.HasPrefix(got, "SJSU ") {
		t.Fatalf("missing institution prefix: %q", got)
	}
}
