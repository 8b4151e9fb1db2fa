package knowledge

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
)

// MostRelevantPrefix flags the best result in a rendered observation. The
// reasoning loop's prompt instructs the model to trust only this result.
const MostRelevantPrefix = ">>> MOST RELEVANT ANSWER >>> "

// NoResultsMessage is returned for queries nothing in the store matches. The
// relevance policy in the loop keys off this text.
const NoResultsMessage = "No relevant information found in the database. This course may not be in our records."

var courseCodeRe = regexp.MustCompile(`\b([A-Z]{2,4})\s*(\d{3}[A-Z]?)\b`)

// Service answers free-text queries against the knowledge base. The ranked
// index is preferred; the store's keyword cascade is the fallback when the
// index is missing or empty.
type Service struct {
	store       *Store
	index       *Index
	institution string
	maxResults  int
}

// NewService builds a query service. index may be nil; the store cascade
// then serves every query.
func NewService(store *Store, index *Index, institution string) *Service {
	return &Service{
		store:       store,
		index:       index,
		institution: institution,
		maxResults:  3,
	}
}

// Reindex rebuilds the full-text index from the store's current records.
func (s *Service) Reindex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	docs, err := s.store.Documents(ctx)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	if err := s.index.UpsertBatch(docs); err != nil {
		return fmt.Errorf("failed to index documents: %w", err)
	}
	log.Printf("indexed %d knowledge documents", len(docs))
	return nil
}

// Query retrieves the records most relevant to the query and renders them
// as an observation: the best result carries the most-relevant marker, and
// each result is tagged with its category and score.
//
// Queries naming a specific course code are verified: when the code appears
// nowhere in the results, the response says so explicitly instead of letting
// near-miss records masquerade as an answer.
func (s *Service) Query(ctx context.Context, query string) (string, error) {
	hits, err := s.search(ctx, query)
	if err != nil {
		return "", err
	}

	if code, dept, ok := courseCode(query); ok {
		if !hitsMention(hits, code) {
			course, err := s.store.CourseByCode(ctx, code)
			if err != nil {
				return "", err
			}
			if course == nil {
				return fmt.Sprintf(
					"No information found for %s in the database. This course may not be in our records. Please check the official %s catalog or contact the %s department directly.",
					code, s.institution, dept), nil
			}
			// Exact catalog record beats whatever keyword search surfaced.
			hits = append([]Hit{{
				Content:  RenderCourse(*course),
				Category: "academics",
				Source:   "prerequisites",
				Score:    0.95,
			}}, hits...)
		}
	}

	if len(hits) == 0 {
		return NoResultsMessage, nil
	}
	if len(hits) > s.maxResults {
		hits = hits[:s.maxResults]
	}

	parts := make([]string, 0, len(hits))
	for i, hit := range hits {
		prefix := ""
		if i == 0 {
			prefix = MostRelevantPrefix
		}
		parts = append(parts, fmt.Sprintf("%sResult %d [%s] (relevance: %.2f):\n%s",
			prefix, i+1, hit.Category, hit.Score, hit.Content))
	}
	return strings.Join(parts, "\n\n"), nil
}

func (s *Service) search(ctx context.Context, query string) ([]Hit, error) {
	if s.index != nil {
		hits, err := s.index.Search(query, s.maxResults)
		if err != nil {
			log.Printf("index search failed, falling back to store: %v", err)
		} else if len(hits) > 0 {
			return hits, nil
		}
	}
	return s.store.Search(ctx, query, s.maxResults)
}

// Stats reports per-table record counts.
func (s *Service) Stats(ctx context.Context) (map[string]int, error) {
	return s.store.Stats(ctx)
}

// courseCode extracts a course code like "CMPE 259" from a query, returning
// the normalized code and its department prefix.
func courseCode(query string) (code, dept string, ok bool) {
	m := courseCodeRe.FindStringSubmatch(strings.ToUpper(query))
	if m == nil {
		return "", "", false
	}
	return m[1] + " " + m[2], m[1], true
}

// hitsMention reports whether any hit mentions the course code, with or
// without the space.
func hitsMention(hits []Hit, code string) bool {
	compact := strings.ReplaceAll(code, " ", "")
	for _, hit := range hits {
		content := strings.ToUpper(hit.Content)
		if strings.Contains(content, code) || strings.Contains(content, compact) {
			return true
		}
	}
	return false
}
