// Package agent implements the ReAct reasoning loop that powers the campus
// assistant: it drives iterative language-model calls, parses the free-form
// completions into structured decisions, dispatches to retrieval capabilities,
// applies relevance fallback heuristics, and converges on a final answer.
package agent

import (
	"context"
	"fmt"
)

// Capability identifies a retrieval tool the loop can dispatch to.
// The set is closed: dispatch happens via a switch over these constants,
// never via free-form string matching.
type Capability string

const (
	// CapabilityKnowledge queries the structured campus knowledge store.
	CapabilityKnowledge Capability = "database_query"
	// CapabilityWebSearch searches the live web.
	CapabilityWebSearch Capability = "web_search"
	// CapabilityNone means the model produced no recognizable action.
	CapabilityNone Capability = ""
)

// ActionFinalAnswer is the label the model uses to terminate the loop.
// It is a pseudo-action, not a dispatchable capability.
const ActionFinalAnswer = "Final Answer"

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one entry of the session's conversation memory.
// Turns are appended in (user query, assistant answer) pairs at the end of a
// run and are read-only during the loop.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ReasoningStep records one iteration of the loop. A step is corrected in
// place only when the relevance fallback substitutes a web search for an
// irrelevant knowledge-store result; it is never mutated afterwards.
type ReasoningStep struct {
	Iteration   int    `json:"iteration"`
	Thought     string `json:"thought"`
	Action      string `json:"action,omitempty"`
	ActionInput string `json:"action_input,omitempty"`
	Observation string `json:"observation,omitempty"`
	Err         string `json:"error,omitempty"`
}

// Result is the outcome of one Run. It is returned to the caller and never
// mutated afterwards.
type Result struct {
	ID            string          `json:"id"`
	Query         string          `json:"query"`
	Response      string          `json:"response"`
	Steps         []ReasoningStep `json:"steps"`
	Iterations    int             `json:"iterations"`
	Completed     bool            `json:"completed"`
	Model         string          `json:"model,omitempty"`
	MaxIterations int             `json:"max_iterations"`
}

// LLMClient is the narrow contract the loop needs from a language-model
// provider. Generate must block until the completion is available; errors
// surface as returned errors, never panics.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, history []ConversationTurn) (string, error)
}

// Decision is the structured interpretation of one raw model completion.
// Exactly one of the following holds: an action with input, a final answer,
// or nothing (a failed iteration).
type Decision struct {
	Action      Capability
	Input       string
	FinalAnswer string
}

// IsFinal reports whether the model asked to terminate with a final answer.
func (d Decision) IsFinal() bool {
	return d.Action == CapabilityNone && d.FinalAnswer != ""
}

// IsEmpty reports whether the completion carried no usable decision.
func (d Decision) IsEmpty() bool {
	return d.Action == CapabilityNone && d.FinalAnswer == ""
}

// Validate checks the step invariants callers rely on.
func (s ReasoningStep) Validate() error {
	if s.Iteration < 1 {
		return fmt.Errorf("iteration must be >= 1, got %d", s.Iteration)
	}
	return nil
}
