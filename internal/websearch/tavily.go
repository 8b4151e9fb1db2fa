// Package websearch provides the live web retrieval capability, backed by
// the Tavily search API.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL    = "https://api.tavily.com"
	defaultMaxResults = 3
	maxContentLen     = 300
)

// Config configures the Tavily client.
type Config struct {
	APIKey string
	// Institution scopes unqualified queries ("parking permits" becomes
	// "SJSU parking permits").
	Institution string
	// AltNames are additional spellings that count as already scoped
	// (e.g. "san jose state").
	AltNames   []string
	BaseURL    string
	MaxResults int
	HTTPClient *http.Client
}

// Client searches the web through Tavily and renders results as the
// observation text the reasoning loop consumes.
type Client struct {
	cfg   Config
	httpc *http.Client
}

// NewClient builds a Tavily client. The API key is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("TAVILY_API_KEY not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, httpc: httpc}, nil
}

type searchRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	MaxResults        int    `json:"max_results"`
	SearchDepth       string `json:"search_depth"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search runs one web search and returns the rendered observation: an
// optional synthesized summary followed by per-result title, URL, and
// truncated content blocks.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	query = c.scope(query)

	body, err := json.Marshal(searchRequest{
		APIKey:            c.cfg.APIKey,
		Query:             query,
		MaxResults:        c.cfg.MaxResults,
		SearchDepth:       "advanced",
		IncludeAnswer:     true,
		IncludeRawContent: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("web search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("web search returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}

	return render(sr), nil
}

// scope prefixes the institution name unless the query already names it.
func (c *Client) scope(query string) string {
	if c.cfg.Institution == "" {
		return query
	}
	lower := strings.ToLower(query)
	if strings.Contains(lower, strings.ToLower(c.cfg.Institution)) {
		return query
	}
	for _, alt := range c.cfg.AltNames {
		if strings.Contains(lower, strings.ToLower(alt)) {
			return query
		}
	}
	return c.cfg.Institution + " " + query
}

func render(sr searchResponse) string {
	if len(sr.Results) == 0 && sr.Answer == "" {
		return "No search results found."
	}

	var blocks []string
	if sr.Answer != "" {
		blocks = append(blocks, fmt.Sprintf("Summary: %s\n", sr.Answer))
	}
	for i, r := range sr.Results {
		var b strings.Builder
		fmt.Fprintf(&b, "Result %d:\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", orNA(r.Title))
		fmt.Fprintf(&b, "URL: %s\n", orNA(r.URL))
		if r.Content != "" {
			content := r.Content
			if len(content) > maxContentLen {
				content = content[:maxContentLen] + "..."
			}
			fmt.Fprintf(&b, "Content: %s\n", content)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
