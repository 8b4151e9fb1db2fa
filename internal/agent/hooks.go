package agent

import (
	"context"
	"log"
)

// Hook receives observability callbacks from the loop. Implementations must
// not block; the loop is synchronous.
type Hook interface {
	OnRunStart(ctx context.Context, query string)
	OnIterationStart(ctx context.Context, iteration, max int)
	OnModelResponse(ctx context.Context, iteration int, response string)
	OnDecision(ctx context.Context, iteration int, dec Decision)
	OnCapabilityCall(ctx context.Context, c Capability, input string)
	OnCapabilityResult(ctx context.Context, c Capability, observation string, err error)
	OnFallback(ctx context.Context, reason, searchQuery string)
	OnIterationError(ctx context.Context, iteration int, err error)
	OnDone(ctx context.Context, res *Result)
}

// NopHook implements Hook with no-ops so callers can override selectively.
type NopHook struct{}

func (NopHook) OnRunStart(context.Context, string)                       {}
func (NopHook) OnIterationStart(context.Context, int, int)               {}
func (NopHook) OnModelResponse(context.Context, int, string)             {}
func (NopHook) OnDecision(context.Context, int, Decision)                {}
func (NopHook) OnCapabilityCall(context.Context, Capability, string)     {}
func (NopHook) OnCapabilityResult(context.Context, Capability, string, error) {
}
func (NopHook) OnFallback(context.Context, string, string)    {}
func (NopHook) OnIterationError(context.Context, int, error)  {}
func (NopHook) OnDone(context.Context, *Result)               {}

// Hooks fans callbacks out to multiple hooks in order.
type Hooks []Hook

func (hs Hooks) OnRunStart(ctx context.Context, query string) {
	for _, h := range hs {
		h.OnRunStart(ctx, query)
	}
}
func (hs Hooks) OnIterationStart(ctx context.Context, iteration, max int) {
	for _, h := range hs {
		h.OnIterationStart(ctx, iteration, max)
	}
}
func (hs Hooks) OnModelResponse(ctx context.Context, iteration int, response string) {
	for _, h := range hs {
		h.OnModelResponse(ctx, iteration, response)
	}
}
func (hs Hooks) OnDecision(ctx context.Context, iteration int, dec Decision) {
	for _, h := range hs {
		h.OnDecision(ctx, iteration, dec)
	}
}
func (hs Hooks) OnCapabilityCall(ctx context.Context, c Capability, input string) {
	for _, h := range hs {
		h.OnCapabilityCall(ctx, c, input)
	}
}
func (hs Hooks) OnCapabilityResult(ctx context.Context, c Capability, observation string, err error) {
	for _, h := range hs {
		h.OnCapabilityResult(ctx, c, observation, err)
	}
}
func (hs Hooks) OnFallback(ctx context.Context, reason, searchQuery string) {
	for _, h := range hs {
		h.OnFallback(ctx, reason, searchQuery)
	}
}
func (hs Hooks) OnIterationError(ctx context.Context, iteration int, err error) {
	for _, h := range hs {
		h.OnIterationError(ctx, iteration, err)
	}
}
func (hs Hooks) OnDone(ctx context.Context, res *Result) {
	for _, h := range hs {
		h.OnDone(ctx, res)
	}
}

// LoggerHook logs loop progress with the standard logger.
type LoggerHook struct{ L *log.Logger }

func (h LoggerHook) OnRunStart(_ context.Context, query string) {
	h.L.Printf("processing query: %s", query)
}
func (h LoggerHook) OnIterationStart(_ context.Context, iteration, max int) {
	h.L.Printf("iteration %d/%d", iteration, max)
}
func (h LoggerHook) OnModelResponse(_ context.Context, iteration int, response string) {
	h.L.Printf("reasoning: %s", preview(response, 200))
}
func (h LoggerHook) OnDecision(_ context.Context, iteration int, dec Decision) {
	switch {
	case dec.IsFinal():
		h.L.Printf("decision: final answer")
	case dec.IsEmpty():
		h.L.Printf("decision: none (failed iteration)")
	default:
		h.L.Printf("decision: %s(%s)", dec.Action, preview(dec.Input, 80))
	}
}
func (h LoggerHook) OnCapabilityCall(_ context.Context, c Capability, input string) {
	h.L.Printf("tool %s input=%q", c, preview(input, 120))
}
func (h LoggerHook) OnCapabilityResult(_ context.Context, c Capability, observation string, err error) {
	if err != nil {
		h.L.Printf("tool %s error: %v", c, err)
		return
	}
	h.L.Printf("tool %s observation: %s", c, preview(observation, 200))
}
func (h LoggerHook) OnFallback(_ context.Context, reason, searchQuery string) {
	h.L.Printf("database results not relevant (%s) - trying web_search: %q", reason, searchQuery)
}
func (h LoggerHook) OnIterationError(_ context.Context, iteration int, err error) {
	h.L.Printf("error in iteration %d: %v", iteration, err)
}
func (h LoggerHook) OnDone(_ context.Context, res *Result) {
	h.L.Printf("done: completed=%t iterations=%d", res.Completed, res.Iterations)
}

func preview(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
