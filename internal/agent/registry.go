package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ToolFunc executes a capability. Args always carry a "query" string; the
// schema on the owning Tool is the contract.
type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool binds a capability to an implementation plus the JSON schema its
// arguments must satisfy.
type Tool struct {
	Capability  Capability
	Description string
	InputHint   string
	SchemaJSON  string
	Fn          ToolFunc
}

// ValidateArgs validates args against the tool's JSON schema.
func (t Tool) ValidateArgs(args map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(t.SchemaJSON)
	documentLoader := gojsonschema.NewGoLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("capability %s arguments invalid: %s", t.Capability, strings.Join(msgs, "; "))
	}
	return nil
}

// Registry maps the closed capability set to implementations.
type Registry map[Capability]Tool

// Has reports whether c is registered.
func (r Registry) Has(c Capability) bool {
	_, ok := r[c]
	return ok
}

// Execute dispatches a text query to a capability and returns its text
// observation.
func (r Registry) Execute(ctx context.Context, c Capability, query string) (string, error) {
	t, ok := r[c]
	if !ok {
		return "", fmt.Errorf("capability not found: %s", c)
	}
	args := map[string]any{"query": query}
	if err := t.ValidateArgs(args); err != nil {
		return "", err
	}
	return t.Fn(ctx, args)
}

// Catalog renders the tool descriptions included in the system prompt.
func (r Registry) Catalog() string {
	var b strings.Builder
	b.WriteString("Available Tools:\n")
	i := 0
	// Fixed order keeps prompts stable across runs.
	for _, c := range []Capability{CapabilityKnowledge, CapabilityWebSearch} {
		t, ok := r[c]
		if !ok {
			continue
		}
		i++
		fmt.Fprintf(&b, "\n%d. %s\n", i, t.Capability)
		fmt.Fprintf(&b, "   Description: %s\n", t.Description)
		fmt.Fprintf(&b, "   Input: %s\n", t.InputHint)
	}
	return b.String()
}

// QuerySchemaJSON is the argument schema shared by both retrieval
// capabilities: a single non-empty query string.
const QuerySchemaJSON = `{"type":"object","properties":{"query":{"type":"string","minLength":1,"description":"Plain-text query"}},"required":["query"]}`
