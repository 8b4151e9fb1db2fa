package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/campusbuddy/campusbuddy/internal/agent"
)

// Summarizer handles LLM-based titling and summarization for sessions.
type Summarizer struct {
	llm agent.LLMClient
}

// NewSummarizer creates a new session summarizer.
func NewSummarizer(llm agent.LLMClient) *Summarizer {
	return &Summarizer{llm: llm}
}

// GenerateTitle generates a short 3-5 word title for the session.
func (s *Summarizer) GenerateTitle(ctx context.Context, history []agent.ConversationTurn) (string, error) {
	if len(history) == 0 {
		return "New Session", nil
	}

	systemPrompt := "You are a helpful assistant. Generate a short, concise title (3-5 words) for this conversation based on what the student asked about. Do not use quotes or punctuation."

	// The first few turns are enough to determine intent.
	limit := 6
	if len(history) < limit {
		limit = len(history)
	}

	userPrompt := fmt.Sprintf("Conversation:\n%s\n\nGenerate Title:", renderTurns(history[:limit]))

	resp, err := s.llm.Generate(ctx, systemPrompt, userPrompt, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate title: %w", err)
	}

	return strings.TrimSpace(resp), nil
}

// GenerateSummary generates a context summary for the next session.
func (s *Summarizer) GenerateSummary(ctx context.Context, history []agent.ConversationTurn) (string, error) {
	if len(history) == 0 {
		return "", nil
	}

	systemPrompt := "You represent the memory of a university assistant. Summarize the following conversation to preserve context for a future session. Focus on: what the student asked, what was answered, and any follow-ups left open. Be concise."

	userPrompt := fmt.Sprintf("Summarize this conversation:\n\n%s", renderTurns(history))

	resp, err := s.llm.Generate(ctx, systemPrompt, userPrompt, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}

	return strings.TrimSpace(resp), nil
}

func renderTurns(turns []agent.ConversationTurn) string {
	var b strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}
	return b.String()
}
