package tools

import (
	"context"
	"testing"

	"github.com/campusbuddy/campusbuddy/internal/agent"
)

type fakeKnowledge struct{ got string }

func (f *fakeKnowledge) Query(_ context.Context, query string) (string, error) {
	f.got = query
	return "knowledge observation", nil
}

type fakeWeb struct{ got string }

func (f *fakeWeb) Search(_ context.Context, query string) (string, error) {
	f.got = query
	return "web observation", nil
}

func TestNewRegistryDispatch(t *testing.T) {
	knowledge := &fakeKnowledge{}
	web := &fakeWeb{}
	reg := NewRegistry("SJSU", knowledge, web)

	obs, err := reg.Execute(context.Background(), agent.CapabilityKnowledge, "CMPE 259 prerequisites")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if obs != "knowledge observation" || knowledge.got != "CMPE 259 prerequisites" {
		t.Fatalf("obs = %q, query = %q", obs, knowledge.got)
	}

	obs, err = reg.Execute(context.Background(), agent.CapabilityWebSearch, "parking permits")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if obs != "web observation" || web.got != "parking permits" {
		t.Fatalf("obs = %q, query = %q", obs, web.got)
	}
}

func TestNewRegistryNilBackends(t *testing.T) {
	reg := NewRegistry("SJSU", &fakeKnowledge{}, nil)

	if !reg.Has(agent.CapabilityKnowledge) {
		t.Fatal("knowledge capability missing")
	}
	if reg.Has(agent.CapabilityWebSearch) {
		t.Fatal("web search should be unregistered without a backend")
	}
	if _, err := reg.Execute(context.Background(), agent.CapabilityWebSearch, "q"); err == nil {
		t.Fatal("expected error for unregistered capability")
	}
}
