package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxIterations bounds the reasoning loop when the caller does not
// configure a limit.
const DefaultMaxIterations = 10

// Config holds the knobs for an Orchestrator.
type Config struct {
	Institution   string
	Model         string
	MaxIterations int
	Hooks         Hooks
	// Policy overrides the default relevance policy when non-nil.
	Policy *RelevancePolicy
	// CiteDomain restricts formatter citations (e.g. "sjsu.edu").
	CiteDomain string
}

// DefaultConfig returns a configuration for the given institution.
func DefaultConfig(institution string) Config {
	return Config{
		Institution:   institution,
		MaxIterations: DefaultMaxIterations,
	}
}

// Orchestrator drives the ReAct loop: prompt building, model calls, response
// parsing, capability dispatch with relevance fallback, and termination.
//
// States: START -> REASONING(i) -> {ACTING(i) -> OBSERVED(i) -> REASONING(i+1)}
// | TERMINATED(final) | EXHAUSTED.
type Orchestrator struct {
	llm       LLMClient
	tools     Registry
	parser    Parser
	policy    RelevancePolicy
	formatter Formatter
	memory    *Memory
	hooks     Hooks
	cfg       Config
}

// NewOrchestrator constructs an orchestrator. The LLM client and tool
// registry are required.
func NewOrchestrator(llm LLMClient, tools Registry, cfg Config) (*Orchestrator, error) {
	if llm == nil {
		return nil, fmt.Errorf("LLM client not configured")
	}
	if tools == nil {
		return nil, fmt.Errorf("tool registry not configured")
	}
	if cfg.Institution == "" {
		cfg.Institution = "SJSU"
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	policy := DefaultRelevancePolicy(cfg.Institution)
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}
	return &Orchestrator{
		llm:       llm,
		tools:     tools,
		parser:    NewParser(cfg.Institution),
		policy:    policy,
		formatter: NewFormatter(cfg.CiteDomain),
		memory:    NewMemory(),
		hooks:     cfg.Hooks,
		cfg:       cfg,
	}, nil
}

// Run executes the reasoning loop for one query. It always produces a Result
// with a non-empty response: parse ambiguity and capability failures are
// recorded as steps, a model failure ends the loop early with the best
// available observation, and exhaustion synthesizes an answer from the most
// authoritative observation seen.
func (o *Orchestrator) Run(ctx context.Context, query, extra string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	o.hooks.OnRunStart(ctx, query)

	// History is snapshotted once: the loop reads prior context, never the
	// turns it is about to append.
	turns := o.memory.Turns()
	system := BuildSystemPrompt(o.cfg.Institution, o.tools)
	base := BuildUserPrompt(o.cfg.Institution, query, extra, turns)

	var steps []ReasoningStep
	var final string
	iteration := 0

	for iteration < o.cfg.MaxIterations && final == "" {
		iteration++
		o.hooks.OnIterationStart(ctx, iteration, o.cfg.MaxIterations)

		prompt := RenderScratchpad(base, steps)
		response, err := o.llm.Generate(ctx, system, prompt, turns)
		if err != nil {
			// Model failures are fatal for the run, not retried. The best
			// observation gathered so far still produces an answer below.
			steps = append(steps, ReasoningStep{Iteration: iteration, Err: err.Error()})
			o.hooks.OnIterationError(ctx, iteration, err)
			break
		}
		o.hooks.OnModelResponse(ctx, iteration, response)

		dec := o.parser.Parse(response)

		// First-iteration guard: a final answer before any capability ran is
		// ungrounded. Force a knowledge lookup with the raw query instead.
		if dec.IsFinal() && iteration == 1 {
			dec = Decision{Action: CapabilityKnowledge, Input: query}
		}
		o.hooks.OnDecision(ctx, iteration, dec)

		step := ReasoningStep{
			Iteration:   iteration,
			Thought:     response,
			Action:      string(dec.Action),
			ActionInput: dec.Input,
		}

		if dec.IsFinal() {
			step.Action = ActionFinalAnswer
			step.Observation = dec.FinalAnswer
			steps = append(steps, step)
			final = dec.FinalAnswer
			break
		}

		switch dec.Action {
		case CapabilityKnowledge:
			obs, execErr := o.execute(ctx, CapabilityKnowledge, dec.Input)
			step.Observation = obs
			if execErr == nil {
				o.applyFallback(ctx, query, turns, &step)
			}
		case CapabilityWebSearch:
			obs, _ := o.execute(ctx, CapabilityWebSearch, dec.Input)
			step.Observation = obs
		case CapabilityNone:
			// Parse ambiguity: a failed iteration, recorded and skipped.
		default:
			// Model invented an action name; leave it unexecuted so the next
			// iteration sees no observation and corrects course.
		}

		steps = append(steps, step)
	}

	completed := final != ""

	if final == "" && len(steps) > 0 {
		if best := bestObservation(steps); best != "" {
			final = o.formatter.Format(best)
		} else {
			final = lastThought(steps)
		}
	}
	if final == "" {
		final = "I apologize, but I couldn't generate a proper response."
	}

	res := &Result{
		ID:            uuid.NewString(),
		Query:         query,
		Response:      final,
		Steps:         steps,
		Iterations:    countCleanSteps(steps),
		Completed:     completed,
		Model:         o.cfg.Model,
		MaxIterations: o.cfg.MaxIterations,
	}

	o.memory.Append(RoleUser, query)
	o.memory.Append(RoleAssistant, final)

	o.hooks.OnDone(ctx, res)
	return res, nil
}

// execute dispatches one capability call. Failures are converted into a
// descriptive observation string; the loop continues.
func (o *Orchestrator) execute(ctx context.Context, c Capability, input string) (string, error) {
	o.hooks.OnCapabilityCall(ctx, c, input)
	obs, err := o.tools.Execute(ctx, c, input)
	o.hooks.OnCapabilityResult(ctx, c, obs, err)
	if err != nil {
		return fmt.Sprintf("Error executing %s: %v", c, err), err
	}
	return obs, nil
}

// applyFallback judges a knowledge-store observation and, when it is
// irrelevant, replaces the step's action, input, and observation with a web
// search in place. A web-search failure degrades to a static referral
// observation rather than propagating.
func (o *Orchestrator) applyFallback(ctx context.Context, query string, turns []ConversationTurn, step *ReasoningStep) {
	verdict := o.policy.Judge(query, step.Observation, turns)
	if !verdict.Irrelevant {
		return
	}

	searchQuery := o.policy.Reformulate(query, turns)
	o.hooks.OnFallback(ctx, verdict.Reason, searchQuery)

	obs, err := o.tools.Execute(ctx, CapabilityWebSearch, searchQuery)
	o.hooks.OnCapabilityResult(ctx, CapabilityWebSearch, obs, err)
	if err != nil {
		obs = fmt.Sprintf("I couldn't find specific information about this. Please check the official %s website or contact the university directly.", o.cfg.Institution)
	}

	step.Action = string(CapabilityWebSearch)
	step.ActionInput = searchQuery
	step.Observation = obs
}

// Reset clears the session's conversation memory.
func (o *Orchestrator) Reset() {
	o.memory.Reset()
}

// History returns an independent snapshot of the conversation memory.
func (o *Orchestrator) History() []ConversationTurn {
	return o.memory.Turns()
}

// SeedHistory replaces the conversation memory, used when resuming a
// persisted session.
func (o *Orchestrator) SeedHistory(turns []ConversationTurn) {
	o.memory = NewMemoryFromTurns(turns)
}

// bestObservation picks the most authoritative observation: the first one
// carrying the most-relevant marker, falling back to the first non-empty one.
func bestObservation(steps []ReasoningStep) string {
	var first string
	for _, step := range steps {
		if step.Observation == "" {
			continue
		}
		if strings.Contains(step.Observation, MostRelevantMarker) {
			return step.Observation
		}
		if first == "" {
			first = step.Observation
		}
	}
	return first
}

// lastThought returns the latest non-empty model thought.
func lastThought(steps []ReasoningStep) string {
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].Thought != "" {
			return steps[i].Thought
		}
	}
	return ""
}

// countCleanSteps counts iterations that completed without an error.
func countCleanSteps(steps []ReasoningStep) int {
	n := 0
	for _, step := range steps {
		if step.Err == "" {
			n++
		}
	}
	return n
}
