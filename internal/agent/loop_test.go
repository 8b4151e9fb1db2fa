package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// scriptedLLM replays canned completions in order, repeating the last one
// when the loop outlives the script.
type scriptedLLM struct {
	responses []string
	err       error
	calls     int
}

func (s *scriptedLLM) Generate(_ context.Context, _, _ string, _ []ConversationTurn) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	i := s.calls - 1
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}

// recordingTool captures the queries a capability receives.
type recordingTool struct {
	queries []string
	reply   string
	err     error
}

func (r *recordingTool) fn(_ context.Context, args map[string]any) (string, error) {
	r.queries = append(r.queries, args["query"].(string))
	return r.reply, r.err
}

func testRegistry(knowledge, web *recordingTool) Registry {
	return Registry{
		CapabilityKnowledge: {
			Capability:  CapabilityKnowledge,
			Description: "Query the campus knowledge store",
			InputHint:   "A plain-text question",
			SchemaJSON:  QuerySchemaJSON,
			Fn:          knowledge.fn,
		},
		CapabilityWebSearch: {
			Capability:  CapabilityWebSearch,
			Description: "Search the web",
			InputHint:   "A plain-text search query",
			SchemaJSON:  QuerySchemaJSON,
			Fn:          web.fn,
		},
	}
}

func newTestOrchestrator(t *testing.T, llm LLMClient, reg Registry, maxIter int) *Orchestrator {
	t.Helper()
	cfg := DefaultConfig("SJSU")
	cfg.MaxIterations = maxIter
	o, err := NewOrchestrator(llm, reg, cfg)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return o
}

func TestRunLookupThenFinalAnswer(t *testing.T) {
	knowledge := &recordingTool{reply: "Result 1 [prerequisites] (relevance: 0.95):\nCMPE 259 - Natural Language Processing: Prerequisites: CMPE 255."}
	web := &recordingTool{reply: "unused"}
	llm := &scriptedLLM{responses: []string{
		"Thought: I should check the database.\nAction: database_query\nAction Input: CMPE 259 prerequisites",
		"Thought: I have the answer.\nFinal Answer: CMPE 259 requires CMPE 255.",
	}}

	o := newTestOrchestrator(t, llm, testRegistry(knowledge, web), 10)
	res, err := o.Run(context.Background(), "CMPE 259 prerequisites", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !res.Completed {
		t.Fatal("run with an explicit final answer must be completed")
	}
	if res.Response != "CMPE 259 requires CMPE 255." {
		t.Fatalf("response = %q", res.Response)
	}
	if res.Iterations != 2 || len(res.Steps) != 2 {
		t.Fatalf("iterations = %d, steps = %d", res.Iterations, len(res.Steps))
	}
	if res.Steps[0].Action != string(CapabilityKnowledge) {
		t.Fatalf("step 1 action = %q", res.Steps[0].Action)
	}
	if res.Steps[1].Action != ActionFinalAnswer {
		t.Fatalf("step 2 action = %q", res.Steps[1].Action)
	}
	if len(web.queries) != 0 {
		t.Fatalf("web search should not run: %v", web.queries)
	}

	history := o.History()
	if len(history) != 2 || history[0].Role != RoleUser || history[1].Role != RoleAssistant {
		t.Fatalf("history = %+v", history)
	}
}

func TestRunFirstIterationGuard(t *testing.T) {
	knowledge := &recordingTool{reply: "The library is open 8am to 10pm, with extended hours during finals."}
	web := &recordingTool{reply: "unused"}
	llm := &scriptedLLM{responses: []string{
		"Final Answer: The library is always open.",
		"Thought: Now I can answer.\nFinal Answer: The library is open 8am to 10pm.",
	}}

	o := newTestOrchestrator(t, llm, testRegistry(knowledge, web), 10)
	res, err := o.Run(context.Background(), "library hours", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Steps[0].Action != string(CapabilityKnowledge) {
		t.Fatalf("first-iteration final answer not overridden: %q", res.Steps[0].Action)
	}
	if res.Steps[0].ActionInput != "library hours" {
		t.Fatalf("forced lookup must use the raw query, got %q", res.Steps[0].ActionInput)
	}
	if len(knowledge.queries) != 1 || knowledge.queries[0] != "library hours" {
		t.Fatalf("knowledge queries = %v", knowledge.queries)
	}
	if res.Iterations != 2 || !res.Completed {
		t.Fatalf("iterations = %d, completed = %v", res.Iterations, res.Completed)
	}
	if res.Response != "The library is open 8am to 10pm." {
		t.Fatalf("response = %q", res.Response)
	}
}

func TestRunExhaustionSynthesizesAnswer(t *testing.T) {
	knowledge := &recordingTool{reply: MostRelevantMarker + " Result 1 [faq] (relevance: 0.88):\nQ: What are the library hours?\nA: The library is open 8am to 10pm daily."}
	web := &recordingTool{reply: "unused"}
	llm := &scriptedLLM{responses: []string{
		"Thought: Checking again.\nAction: database_query\nAction Input: library hours",
	}}

	o := newTestOrchestrator(t, llm, testRegistry(knowledge, web), 2)
	res, err := o.Run(context.Background(), "library hours", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Completed {
		t.Fatal("exhausted run must not be marked completed")
	}
	if res.Iterations != 2 {
		t.Fatalf("iterations = %d", res.Iterations)
	}
	if res.Response == "" {
		t.Fatal("exhausted run must still produce a response")
	}
	if res.Response != "The library is open 8am to 10pm daily." {
		t.Fatalf("best observation not formatted: %q", res.Response)
	}
}

func TestRunRelevanceFallbackRewritesStep(t *testing.T) {
	knowledge := &recordingTool{reply: "No information found in the database."}
	web := &recordingTool{reply: "Summary: Semester parking permits cost $200.\n\nResult 1:\nTitle: Parking\nURL: https://www.sjsu.edu/parking\nContent: x"}
	llm := &scriptedLLM{responses: []string{
		"Thought: Checking the database.\nAction: database_query\nAction Input: parking permits cost",
		"Thought: Found it online.\nFinal Answer: Semester parking permits cost $200.",
	}}

	o := newTestOrchestrator(t, llm, testRegistry(knowledge, web), 10)
	res, err := o.Run(context.Background(), "parking permits cost", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	step := res.Steps[0]
	if step.Action != string(CapabilityWebSearch) {
		t.Fatalf("step not rewritten to web search: %q", step.Action)
	}
	if step.ActionInput != "SJSU parking permits cost" {
		t.Fatalf("reformulated query = %q", step.ActionInput)
	}
	if !strings.Contains(step.Observation, "Semester parking permits cost $200") {
		t.Fatalf("observation not replaced: %q", step.Observation)
	}
	if len(web.queries) != 1 || web.queries[0] != "SJSU parking permits cost" {
		t.Fatalf("web queries = %v", web.queries)
	}
}

func TestRunFallbackSearchFailureDegrades(t *testing.T) {
	knowledge := &recordingTool{reply: "No information found in the database."}
	web := &recordingTool{err: errors.New("tavily: 503")}
	llm := &scriptedLLM{responses: []string{
		"Thought: Checking.\nAction: database_query\nAction Input: shuttle schedule",
	}}

	o := newTestOrchestrator(t, llm, testRegistry(knowledge, web), 1)
	res, err := o.Run(context.Background(), "shuttle schedule", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(res.Steps[0].Observation, "check the official SJSU website") {
		t.Fatalf("observation = %q", res.Steps[0].Observation)
	}
	if res.Completed {
		t.Fatal("run must not be completed")
	}
	if res.Response == "" {
		t.Fatal("response must not be empty")
	}
}

func TestRunModelError(t *testing.T) {
	knowledge := &recordingTool{reply: "unused"}
	web := &recordingTool{reply: "unused"}
	llm := &scriptedLLM{err: errors.New("provider unavailable")}

	o := newTestOrchestrator(t, llm, testRegistry(knowledge, web), 10)
	res, err := o.Run(context.Background(), "library hours", "")
	if err != nil {
		t.Fatalf("model failure must not fail the run: %v", err)
	}

	if res.Completed {
		t.Fatal("run must not be completed")
	}
	if res.Iterations != 0 {
		t.Fatalf("iterations = %d", res.Iterations)
	}
	if len(res.Steps) != 1 || res.Steps[0].Err == "" {
		t.Fatalf("steps = %+v", res.Steps)
	}
	if res.Response == "" {
		t.Fatal("response must not be empty")
	}
	if llm.calls != 1 {
		t.Fatalf("model called %d times, want 1", llm.calls)
	}
}

func TestRunCapabilityErrorRecordedAndLoopContinues(t *testing.T) {
	knowledge := &recordingTool{err: errors.New("database locked")}
	web := &recordingTool{reply: "unused"}
	llm := &scriptedLLM{responses: []string{
		"Thought: Checking.\nAction: database_query\nAction Input: library hours",
		"Thought: The database failed, answering from general knowledge.\nFinal Answer: Please check the library website.",
	}}

	o := newTestOrchestrator(t, llm, testRegistry(knowledge, web), 10)
	res, err := o.Run(context.Background(), "library hours", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(res.Steps[0].Observation, "Error executing database_query") {
		t.Fatalf("observation = %q", res.Steps[0].Observation)
	}
	if !res.Completed || res.Response != "Please check the library website." {
		t.Fatalf("completed = %v, response = %q", res.Completed, res.Response)
	}
}

func TestRunEmptyQuery(t *testing.T) {
	o := newTestOrchestrator(t, &scriptedLLM{responses: []string{"x"}}, testRegistry(&recordingTool{}, &recordingTool{}), 10)
	if _, err := o.Run(context.Background(), "   ", ""); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestHistorySnapshotIsIndependent(t *testing.T) {
	knowledge := &recordingTool{reply: "The library is open 8am to 10pm, with extended hours during finals."}
	web := &recordingTool{reply: "unused"}
	llm := &scriptedLLM{responses: []string{
		"Thought: Checking.\nAction: database_query\nAction Input: library hours",
		"Final Answer: The library is open 8am to 10pm.",
	}}

	o := newTestOrchestrator(t, llm, testRegistry(knowledge, web), 10)
	if _, err := o.Run(context.Background(), "library hours", ""); err != nil {
		t.Fatalf("Run: %v", err)
	}

	first := o.History()
	first[0].Content = "tampered"
	second := o.History()
	if second[0].Content != "library hours" {
		t.Fatalf("history mutated through snapshot: %+v", second)
	}

	o.Reset()
	if len(o.History()) != 0 {
		t.Fatal("reset must clear history")
	}
}
