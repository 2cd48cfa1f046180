package cmakedocs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/taleks/mcp-cmake-docs-server/internal/domain"
)

const (
	// IndexSuffix is the suffix for index directories
	IndexSuffix = ".bleve"

	// MaxBatchSize is the maximum number of documents per batch
	MaxBatchSize = 100

	// MaxBatchBytes is the maximum bytes per batch (10MB)
	MaxBatchBytes = 10 * 1024 * 1024
)

// Indexer manages the per-kind Bleve indexes under the base dir.
type Indexer struct {
	baseDir string
}

// NewIndexer creates a new indexer.
func NewIndexer(baseDir string) *Indexer {
	return &Indexer{baseDir: baseDir}
}

// indexPath returns the path to the index for a given doc kind.
func (i *Indexer) indexPath(kind string) string {
	return filepath.Join(i.baseDir, "indexes", kind+IndexSuffix)
}

// CreateIndexMapping creates the Bleve index mapping for doc documents.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Key - keyword (not analyzed), stored for retrieval
	keyField := bleve.NewTextFieldMapping()
	keyField.Analyzer = keyword.Name
	keyField.Store = true
	docMapping.AddFieldMappingsAt(domain.DocFieldKey, keyField)

	// Kind - keyword, stored
	kindField := bleve.NewTextFieldMapping()
	kindField.Analyzer = keyword.Name
	kindField.Store = true
	docMapping.AddFieldMappingsAt(domain.DocFieldKind, kindField)

	// Path - keyword, stored
	pathField := bleve.NewTextFieldMapping()
	pathField.Analyzer = keyword.Name
	pathField.Store = true
	docMapping.AddFieldMappingsAt(domain.DocFieldPath, pathField)

	// Synopsis - analyzed for full-text search
	synopsisField := bleve.NewTextFieldMapping()
	synopsisField.Analyzer = standard.Name
	synopsisField.Store = true
	synopsisField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(domain.DocFieldSynopsis, synopsisField)

	// Example - analyzed
	exampleField := bleve.NewTextFieldMapping()
	exampleField.Analyzer = standard.Name
	exampleField.Store = true
	exampleField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(domain.DocFieldExample, exampleField)

	// Body - analyzed, the full source text
	bodyField := bleve.NewTextFieldMapping()
	bodyField.Analyzer = standard.Name
	bodyField.Store = true
	bodyField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(domain.DocFieldBody, bodyField)

	// ID - stored but not indexed (we use the document ID)
	idField := bleve.NewTextFieldMapping()
	idField.Index = false
	idField.Store = true
	docMapping.AddFieldMappingsAt(domain.DocFieldID, idField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// OpenForWrite opens or creates an index for writing.
func (i *Indexer) OpenForWrite(kind string) (bleve.Index, error) {
	indexPath := i.indexPath(kind)

	index, err := bleve.Open(indexPath)
	if err == nil {
		return index, nil
	}

	indexMapping := CreateIndexMapping()
	index, err = bleve.New(indexPath, indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return index, nil
}

// OpenForRead opens an existing index for reading.
func (i *Indexer) OpenForRead(kind string) (bleve.Index, error) {
	indexPath := i.indexPath(kind)

	index, err := bleve.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	return index, nil
}

// IndexExists checks if an index exists for the given kind.
func (i *Indexer) IndexExists(kind string) bool {
	_, err := os.Stat(i.indexPath(kind))
	return err == nil
}

// ListIndexes returns the kinds that have an on-disk index.
func (i *Indexer) ListIndexes() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(i.baseDir, "indexes"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}

	var kinds []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(entry.Name(), IndexSuffix); ok {
			kinds = append(kinds, name)
		}
	}
	return kinds, nil
}

// CreateAlias creates an IndexAlias combining the indexes of the given kinds.
func (i *Indexer) CreateAlias(kinds []string) (bleve.IndexAlias, error) {
	indexes := make([]bleve.Index, 0, len(kinds))

	for _, kind := range kinds {
		index, err := i.OpenForRead(kind)
		if err != nil {
			// Close already opened indexes
			for _, idx := range indexes {
				_ = idx.Close()
			}
			return nil, fmt.Errorf("failed to open index for %s: %w", kind, err)
		}
		indexes = append(indexes, index)
	}

	if len(indexes) == 0 {
		return nil, fmt.Errorf("no indexes to combine")
	}

	return bleve.NewIndexAlias(indexes...), nil
}

// Rebuild replaces the index for one kind with the given documents.
// Returns the number of documents indexed.
func (i *Indexer) Rebuild(kind string, docs []domain.DocDocument) (count int, err error) {
	if err := i.DeleteIndex(kind); err != nil {
		return 0, fmt.Errorf("failed to remove stale index for %s: %w", kind, err)
	}

	index, err := i.OpenForWrite(kind)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := index.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	batch := index.NewBatch()
	batchSize := 0
	batchBytes := 0

	for _, doc := range docs {
		if err := batch.Index(doc.ID, doc); err != nil {
			continue // Skip on indexing error
		}
		batchSize++
		batchBytes += len(doc.Body)
		count++

		if batchSize >= MaxBatchSize || batchBytes >= MaxBatchBytes {
			if err := index.Batch(batch); err != nil {
				return count, fmt.Errorf("batch index failed: %w", err)
			}
			batch = index.NewBatch()
			batchSize = 0
			batchBytes = 0
		}
	}

	if batchSize > 0 {
		if err := index.Batch(batch); err != nil {
			return count, fmt.Errorf("final batch index failed: %w", err)
		}
	}

	return count, nil
}

// RebuildAll rebuilds one index per doc kind and prunes indexes for kinds
// that no longer exist. Returns the rebuilt kinds in first-seen order.
func (i *Indexer) RebuildAll(documents []domain.DocDocument) ([]string, error) {
	byKind := make(map[string][]domain.DocDocument)
	var kinds []string
	for _, doc := range documents {
		if _, seen := byKind[doc.Kind]; !seen {
			kinds = append(kinds, doc.Kind)
		}
		byKind[doc.Kind] = append(byKind[doc.Kind], doc)
	}

	for _, kind := range kinds {
		if _, err := i.Rebuild(kind, byKind[kind]); err != nil {
			return nil, fmt.Errorf("failed to rebuild index for %s: %w", kind, err)
		}
	}

	existing, err := i.ListIndexes()
	if err != nil {
		return nil, err
	}
	for _, kind := range existing {
		if _, keep := byKind[kind]; !keep {
			if err := i.DeleteIndex(kind); err != nil {
				return nil, fmt.Errorf("failed to prune index for %s: %w", kind, err)
			}
		}
	}

	return kinds, nil
}

// DeleteIndex removes an index from disk.
func (i *Indexer) DeleteIndex(kind string) error {
	return os.RemoveAll(i.indexPath(kind))
}

// GetDocumentCount returns the number of documents in an index.
func (i *Indexer) GetDocumentCount(kind string) (count uint64, err error) {
	index, err := i.OpenForRead(kind)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := index.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return index.DocCount()
}
