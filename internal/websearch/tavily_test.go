package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		APIKey:      "test-key",
		Institution: "SJSU",
		AltNames:    []string{"san jose state"},
		BaseURL:     server.URL,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestSearchScopesAndRenders(t *testing.T) {
	var gotReq searchRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/search" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"answer": "Semester parking permits cost $200.",
			"results": []map[string]string{
				{"title": "Parking Services", "url": "https://www.sjsu.edu/parking", "content": "Permits are sold online each semester."},
			},
		})
	})

	got, err := client.Search(context.Background(), "parking permits cost")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotReq.Query != "SJSU parking permits cost" {
		t.Fatalf("query not scoped: %q", gotReq.Query)
	}
	if gotReq.APIKey != "test-key" || !gotReq.IncludeAnswer || gotReq.SearchDepth != "advanced" {
		t.Fatalf("request = %+v", gotReq)
	}

	if !strings.HasPrefix(got, "Summary: Semester parking permits cost $200.\n") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "Result 1:\nTitle: Parking Services\nURL: https://www.sjsu.edu/parking\nContent: Permits are sold online each semester.\n") {
		t.Fatalf("got %q", got)
	}
}

func TestSearchSkipsScopingWhenNamed(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotQuery = req.Query
		json.NewEncoder(w).Encode(map[string]any{"results": []map[string]string{{"title": "t", "url": "u"}}})
	})

	if _, err := client.Search(context.Background(), "San Jose State tuition"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != "San Jose State tuition" {
		t.Fatalf("query double-scoped: %q", gotQuery)
	}
}

func TestSearchTruncatesContent(t *testing.T) {
	long := strings.Repeat("x", 400)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{{"title": "t", "url": "u", "content": long}},
		})
	})

	got, err := client.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := "Content: " + strings.Repeat("x", maxContentLen) + "...\n"
	if !strings.Contains(got, want) {
		t.Fatalf("content not truncated: %d bytes", len(got))
	}
}

func TestSearchNoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []map[string]string{}})
	})

	got, err := client.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got != "No search results found." {
		t.Fatalf("got %q", got)
	}
}

func TestSearchServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	if _, err := client.Search(context.Background(), "anything"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error without API key")
	}
}
