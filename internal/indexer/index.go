package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// document is the indexed form of one source file.
type document struct {
	Path string `json:"path"`
	Lang string `json:"lang"`
	Text string `json:"text"`
}

// Hit is one search result.
type Hit struct {
	Path  string
	Lang  string
	Text  string
	Score float64
}

// Index is a full-text index over the repository's source files, keyed by
// repo-relative path.
type Index struct {
	repoRoot string
	idx      bleve.Index
}

func buildMapping() *mapping.IndexMappingImpl {
	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("path", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("lang", bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt("text", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// NewMemIndex creates an in-memory index for the repository at repoRoot.
func NewMemIndex(repoRoot string) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return &Index{repoRoot: repoRoot, idx: idx}, nil
}

// IndexFile reads and (re)indexes one file by its repo-relative path.
func (ix *Index) IndexFile(relPath string, lang Language) error {
	data, err := os.ReadFile(filepath.Join(ix.repoRoot, relPath))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", relPath, err)
	}
	doc := document{Path: relPath, Lang: string(lang), Text: string(data)}
	return ix.idx.Index(relPath, doc)
}

// Remove drops a file from the index. Unknown paths are a no-op.
func (ix *Index) Remove(relPath string) error {
	return ix.idx.Delete(relPath)
}

// Count returns the number of indexed files.
func (ix *Index) Count() (uint64, error) {
	return ix.idx.DocCount()
}

// Search runs a full-text query and returns up to limit hits, best first.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"path", "lang", "text"}

	res, err := ix.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{Path: h.ID, Score: h.Score}
		if lang, ok := h.Fields["lang"].(string); ok {
			hit.Lang = lang
		}
		if text, ok := h.Fields["text"].(string); ok {
			hit.Text = text
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close releases the index.
func (ix *Index) Close() error {
	return ix.idx.Close()
}
