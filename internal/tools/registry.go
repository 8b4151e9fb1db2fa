// Package tools assembles the retrieval capabilities exposed to the
// reasoning loop.
package tools

import (
	"context"
	"fmt"

	"github.com/campusbuddy/campusbuddy/internal/agent"
)

// KnowledgeQuerier answers free-text queries from the campus knowledge base.
type KnowledgeQuerier interface {
	Query(ctx context.Context, query string) (string, error)
}

// WebSearcher answers free-text queries from the live web.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// NewRegistry wires the two retrieval capabilities into a registry for the
// loop. Both tools share the single-query argument schema. A nil backend
// leaves its capability unregistered, so a key-less setup still answers from
// the knowledge base alone.
func NewRegistry(institution string, knowledge KnowledgeQuerier, web WebSearcher) agent.Registry {
	reg := agent.Registry{}

	if knowledge != nil {
		reg[agent.CapabilityKnowledge] = agent.Tool{
			Capability: agent.CapabilityKnowledge,
			Description: fmt.Sprintf(
				"Query the %s knowledge database for official information about courses, prerequisites, programs, deadlines, FAQs, campus resources, scholarships, and clubs", institution),
			InputHint:  `A plain-text question or topic, e.g. "CMPE 259 prerequisites"`,
			SchemaJSON: agent.QuerySchemaJSON,
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				query, _ := args["query"].(string)
				return knowledge.Query(ctx, query)
			},
		}
	}

	if web != nil {
		reg[agent.CapabilityWebSearch] = agent.Tool{
			Capability: agent.CapabilityWebSearch,
			Description: fmt.Sprintf(
				"Search the web for current %s information that is not in the database", institution),
			InputHint:  "A plain-text search query",
			SchemaJSON: agent.QuerySchemaJSON,
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				query, _ := args["query"].(string)
				return web.Search(ctx, query)
			},
		}
	}

	return reg
}
