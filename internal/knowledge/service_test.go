package knowledge

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestService(t *testing.T, withIndex bool) *Service {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(context.Background(), filepath.Join(dir, "campus.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	var index *Index
	if withIndex {
		index, err = NewIndex(store.Path())
		if err != nil {
			t.Fatalf("NewIndex: %v", err)
		}
		t.Cleanup(func() { index.Close() })
	}
	return NewService(store, index, "SJSU")
}

func TestQueryNoResults(t *testing.T) {
	svc := newTestService(t, false)

	got, err := svc.Query(context.Background(), "underwater basket weaving")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got != NoResultsMessage {
		t.Fatalf("got %q", got)
	}
}

func TestQueryMarksFirstResult(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, false)

	if err := svc.store.UpsertFAQ(ctx, FAQ{
		Question: "How do I apply for on-campus housing?",
		Answer:   "Apply online through the Housing Portal.",
		Category: "Campus Life",
	}); err != nil {
		t.Fatalf("UpsertFAQ: %v", err)
	}

	got, err := svc.Query(ctx, "on-campus housing")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !strings.HasPrefix(got, MostRelevantPrefix+"Result 1 [Campus Life] (relevance: 0.90):") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "Q: How do I apply for on-campus housing?\nA: Apply online through the Housing Portal.") {
		t.Fatalf("got %q", got)
	}
}

func TestQueryUnknownCourseCode(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, false)

	if err := svc.store.UpsertCourse(ctx, Course{
		Code: "CMPE 140", Name: "Computer Architecture", Department: "Computer Engineering",
		Prerequisites: "CS 46B", Description: "Introduction to computer organization and architecture",
	}); err != nil {
		t.Fatalf("UpsertCourse: %v", err)
	}

	got, err := svc.Query(ctx, "What are the prerequisites for CMPE 999?")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !strings.Contains(got, "No information found for CMPE 999 in the database") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "contact the CMPE department") {
		t.Fatalf("got %q", got)
	}
}

func TestQueryExactCourseRecordRanksFirst(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, false)

	if err := svc.store.UpsertCourse(ctx, Course{
		Code: "CMPE 259", Name: "Machine Learning", Department: "Computer Engineering",
		Prerequisites: "CMPE 140, CMPE 180",
		Description:   "Advanced topics in machine learning algorithms and applications",
	}); err != nil {
		t.Fatalf("UpsertCourse: %v", err)
	}
	// An FAQ that matches the query text but is not the catalog record.
	if err := svc.store.UpsertFAQ(ctx, FAQ{
		Question: "Where can I read about machine learning electives?",
		Answer:   "See the department course list.",
		Category: "Academic",
	}); err != nil {
		t.Fatalf("UpsertFAQ: %v", err)
	}

	got, err := svc.Query(ctx, "CMPE 259 prerequisites")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !strings.HasPrefix(got, MostRelevantPrefix) {
		t.Fatalf("missing marker: %q", got)
	}
	first := strings.SplitN(got, "\n\n", 2)[0]
	if !strings.Contains(first, "CMPE 259 - Machine Learning: Prerequisites: CMPE 140, CMPE 180.") {
		t.Fatalf("catalog record not first: %q", first)
	}
}

func TestReindexAndRankedSearch(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, true)

	faqs := []FAQ{
		{Question: "What are the tuition fees for graduate students?", Answer: "Graduate tuition is approximately $7,734 per year for residents.", Category: "Financial"},
		{Question: "How do I apply for on-campus housing?", Answer: "Apply online through the Housing Portal.", Category: "Campus Life"},
	}
	for _, f := range faqs {
		if err := svc.store.UpsertFAQ(ctx, f); err != nil {
			t.Fatalf("UpsertFAQ: %v", err)
		}
	}
	if err := svc.Reindex(ctx); err != nil {
		t.Fatalf("Reindex: %v", err)
	}

	n, err := svc.index.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if n != 2 {
		t.Fatalf("doc count = %d", n)
	}

	got, err := svc.Query(ctx, "graduate tuition fees")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !strings.HasPrefix(got, MostRelevantPrefix+"Result 1 [Financial] (relevance: 0.95):") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "$7,734") {
		t.Fatalf("got %q", got)
	}
}

func TestPopulateFromSeedDir(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, false)

	dir := t.TempDir()
	writeSeed(t, dir, seedFAQs, []FAQ{
		{Question: "How do I change my major?", Answer: "Complete the Change of Major form.", Category: "Academic"},
	})
	writeSeed(t, dir, seedCourses, []Course{
		{Code: "CS 46A", Name: "Introduction to Programming", Department: "Computer Science", Description: "Introduction to programming in Java", Units: 4},
	})
	writeSeed(t, dir, seedScholarships, []Scholarship{
		{Name: "Dean's Scholarship", Amount: 3000, Eligibility: "Academic excellence in specific colleges"},
	})

	if err := svc.Populate(ctx, dir); err != nil {
		t.Fatalf("Populate: %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats["faqs"] != 1 || stats["prerequisites"] != 1 || stats["scholarships"] != 1 {
		t.Fatalf("stats = %v", stats)
	}

	// Populate twice must not duplicate.
	if err := svc.Populate(ctx, dir); err != nil {
		t.Fatalf("Populate: %v", err)
	}
	stats, err = svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats["faqs"] != 1 {
		t.Fatalf("repopulate duplicated rows: %v", stats)
	}
}

func writeSeed(t *testing.T, dir, name string, records any) {
	t.Helper()
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
