// Package docindex maintains a bleve full-text index over the docs tree, so
// migrated documentation is searchable from the CLI and the MCP server.
package docindex

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

const indexBatchSize = 1000

// Index wraps a persistent bleve index keyed by docs-root-relative paths.
type Index struct {
	path  string
	index bleve.Index
	mu    sync.RWMutex // protects index across Rebuild
}

// Open opens the index at path, creating an empty one when absent.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}
	return &Index{path: path, index: idx}, nil
}

func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.index.Close()
}

// Count returns the number of indexed documents.
func (ix *Index) Count() (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.index.DocCount()
}

// buildMapping indexes prose fields with the standard analyzer and the item
// name as a keyword for exact lookups. Text keeps term vectors so phrase
// search and highlighting work.
func buildMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	textMapping := bleve.NewTextFieldMapping()
	textMapping.Analyzer = "standard"
	textMapping.Store = true
	textMapping.Index = true
	textMapping.IncludeTermVectors = true

	titleMapping := bleve.NewTextFieldMapping()
	titleMapping.Analyzer = "standard"
	titleMapping.Store = true
	titleMapping.Index = true

	pathMapping := bleve.NewTextFieldMapping()
	pathMapping.Analyzer = "standard"
	pathMapping.Store = true
	pathMapping.Index = true

	nameMapping := bleve.NewTextFieldMapping()
	nameMapping.Analyzer = "keyword"
	nameMapping.Store = true
	nameMapping.Index = true

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("path", pathMapping)
	docMapping.AddFieldMappingsAt("name", nameMapping)
	docMapping.AddFieldMappingsAt("title", titleMapping)
	docMapping.AddFieldMappingsAt("text", textMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Rebuild replaces the index with the current contents of docsRoot and
// returns how many markdown files it indexed. A missing docs root yields an
// empty index, not an error.
func (ix *Index) Rebuild(ctx context.Context, docsRoot string) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.index.Close(); err != nil {
		return 0, fmt.Errorf("failed to close search index: %w", err)
	}
	if err := os.RemoveAll(ix.path); err != nil {
		return 0, fmt.Errorf("failed to reset search index: %w", err)
	}
	idx, err := bleve.New(ix.path, buildMapping())
	if err != nil {
		return 0, fmt.Errorf("failed to create search index: %w", err)
	}
	ix.index = idx

	batch := idx.NewBatch()
	count := 0
	err = filepath.Walk(docsRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == docsRoot {
				return filepath.SkipAll
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(p, ".md") {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(docsRoot, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if err := batch.Index(rel, buildDocument(rel, data)); err != nil {
			return fmt.Errorf("failed to add %s to batch: %w", rel, err)
		}
		count++
		if batch.Size() >= indexBatchSize {
			if err := idx.Batch(batch); err != nil {
				return fmt.Errorf("failed to execute batch: %w", err)
			}
			batch = idx.NewBatch()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return 0, fmt.Errorf("failed to execute final batch: %w", err)
		}
	}
	return count, nil
}

func buildDocument(rel string, content []byte) map[string]interface{} {
	title, text := markdownText(content)
	name := strings.TrimSuffix(path.Base(rel), ".md")
	if title == "" {
		title = name
	}
	return map[string]interface{}{
		"path":  rel,
		"name":  name,
		"title": title,
		"text":  text,
	}
}

// Result is one search hit.
type Result struct {
	Path       string   `json:"path"`
	Title      string   `json:"title"`
	Score      float64  `json:"score"`
	Highlights []string `json:"highlights,omitempty"`
}

// Search runs a bleve query-string query with highlighting. Supports field
// scoping (name:add), boolean operators, phrases, and wildcards.
func (ix *Index) Search(ctx context.Context, queryStr string, limit int) ([]*Result, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	q := bleve.NewQueryStringQuery(queryStr)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	highlightStyle := "html"
	req.Highlight = bleve.NewHighlight()
	req.Highlight.Style = &highlightStyle
	req.Highlight.Fields = []string{"text"}
	req.Fields = []string{"path", "title"}

	res, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]*Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		hitPath, _ := hit.Fields["path"].(string)
		title, _ := hit.Fields["title"].(string)
		results = append(results, &Result{
			Path:       hitPath,
			Title:      title,
			Score:      hit.Score,
			Highlights: flattenFragments(hit.Fragments),
		})
	}
	return results, nil
}

// flattenFragments merges per-field highlight snippets, capped at three per
// hit to keep result payloads small.
func flattenFragments(fragments map[string][]string) []string {
	var highlights []string
	for _, snippets := range fragments {
		highlights = append(highlights, snippets...)
	}
	if len(highlights) > 3 {
		highlights = highlights[:3]
	}
	return highlights
}
