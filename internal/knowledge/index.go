package knowledge

import (
	"fmt"
	"log"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Index is the ranked full-text half of the knowledge base. Documents are
// the rendered records from the Store; scores come from bleve's BM25-style
// ranking and are normalized before they reach the loop.
type Index struct {
	index bleve.Index
	path  string
}

// NewIndex creates or opens the full-text index next to the database file.
// A corrupted index is deleted and rebuilt rather than failing startup.
func NewIndex(dbPath string) (*Index, error) {
	indexPath := dbPath + ".bleve"

	index, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create search index: %w", err)
		}
	} else if err != nil {
		log.Printf("search index appears corrupted (%v), recreating", err)
		if index != nil {
			index.Close()
		}
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("failed to remove corrupted index: %w", err)
		}
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to recreate search index: %w", err)
		}
	}

	return &Index{index: index, path: indexPath}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	contentField.Store = true
	contentField.Index = true
	docMapping.AddFieldMappingsAt("content", contentField)

	categoryField := bleve.NewTextFieldMapping()
	categoryField.Analyzer = keyword.Name
	categoryField.Store = true
	categoryField.Index = true
	docMapping.AddFieldMappingsAt("category", categoryField)

	sourceField := bleve.NewTextFieldMapping()
	sourceField.Analyzer = keyword.Name
	sourceField.Store = true
	sourceField.Index = true
	docMapping.AddFieldMappingsAt("source", sourceField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Upsert indexes one rendered record under a stable document ID.
func (x *Index) Upsert(id string, h Hit) error {
	doc := map[string]interface{}{
		"content":  h.Content,
		"category": h.Category,
		"source":   h.Source,
	}
	return x.index.Index(id, doc)
}

// UpsertBatch indexes a set of rendered records in one batch.
func (x *Index) UpsertBatch(docs map[string]Hit) error {
	batch := x.index.NewBatch()
	for id, h := range docs {
		doc := map[string]interface{}{
			"content":  h.Content,
			"category": h.Category,
			"source":   h.Source,
		}
		if err := batch.Index(id, doc); err != nil {
			return fmt.Errorf("failed to add %s to batch: %w", id, err)
		}
	}
	return x.index.Batch(batch)
}

// Search returns the top n hits for a free-text query, scores normalized so
// the best hit lands at 0.95.
func (x *Index) Search(query string, n int) ([]Hit, error) {
	if n <= 0 {
		n = 3
	}

	q := bleve.NewMatchQuery(query)
	q.SetField("content")

	req := bleve.NewSearchRequest(q)
	req.Size = n
	req.Fields = []string{"content", "category", "source"}

	result, err := x.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	var maxScore float64
	for _, hit := range result.Hits {
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}
	for _, hit := range result.Hits {
		h := Hit{Score: 0.95}
		if maxScore > 0 {
			h.Score = 0.95 * hit.Score / maxScore
		}
		if content, ok := hit.Fields["content"].(string); ok {
			h.Content = content
		}
		if category, ok := hit.Fields["category"].(string); ok {
			h.Category = category
		}
		if source, ok := hit.Fields["source"].(string); ok {
			h.Source = source
		}
		if h.Content == "" {
			continue
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// DocCount reports the number of indexed documents.
func (x *Index) DocCount() (uint64, error) {
	return x.index.DocCount()
}

// Path returns the filesystem path of the index.
func (x *Index) Path() string { return x.path }

// Close closes the index.
func (x *Index) Close() error { return x.index.Close() }
