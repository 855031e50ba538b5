package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/hyperjump/bunko/internal/models"
)

const (
	fieldPath    = "path"
	fieldContent = "content"
)

// chunkDoc is the shape indexed into Bleve: the chunk's source path (stored,
// returned with hits) and its text content (analyzed, not a hit field).
type chunkDoc struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Index is a Bleve-backed keyword index over chunk records.
type Index struct {
	dir   string
	index bleve.Index
}

// indexMapping builds the Bleve mapping: standard analyzer on content
// (lowercase + tokenize, no stemming, so exact words match), source path as
// a stored keyword field.
func indexMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	contentMapping := bleve.NewTextFieldMapping()
	contentMapping.Analyzer = standard.Name
	contentMapping.Store = false
	docMapping.AddFieldMappingsAt(fieldContent, contentMapping)

	pathMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt(fieldPath, pathMapping)

	im.DefaultMapping = docMapping
	return im
}

// Build wipes any index at dir and recreates it from the given chunks, one
// entry per chunk keyed by chunk ID. Chunks without an ID or content are
// still indexed; their path field carries provenance.
func Build(dir string, chunks []*models.Chunk) (*Index, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("remove keyword index dir: %w", err)
	}
	idx, err := bleve.New(dir, indexMapping())
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	batch := idx.NewBatch()
	for _, ch := range chunks {
		doc := chunkDoc{Path: ch.Source(), Content: ch.Content}
		if err := batch.Index(ch.ID(), doc); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("index chunk %s: %w", ch.ID(), err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("commit keyword batch: %w", err)
	}
	return &Index{dir: dir, index: idx}, nil
}

// OpenOrCreate opens the index at dir, creating an empty one when the
// directory does not exist yet.
func OpenOrCreate(dir string) (*Index, error) {
	if _, err := os.Stat(dir); err == nil {
		return Open(dir)
	}
	idx, err := bleve.New(dir, indexMapping())
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	return &Index{dir: dir, index: idx}, nil
}

// Open opens an existing keyword index at dir.
func Open(dir string) (*Index, error) {
	idx, err := bleve.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open keyword index: %w", err)
	}
	return &Index{dir: dir, index: idx}, nil
}

// Add appends chunks to an already-open index.
func (x *Index) Add(ctx context.Context, chunks []*models.Chunk) error {
	batch := x.index.NewBatch()
	for _, ch := range chunks {
		doc := chunkDoc{Path: ch.Source(), Content: ch.Content}
		if err := batch.Index(ch.ID(), doc); err != nil {
			return fmt.Errorf("index chunk %s: %w", ch.ID(), err)
		}
	}
	return x.index.Batch(batch)
}

// Search runs a match query over the content field (implicit OR of analyzed
// terms) and returns up to limit hits ordered by descending score.
func (x *Index) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	q := bleve.NewMatchQuery(query)
	q.SetField(fieldContent)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{fieldPath}
	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	out := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		r := Result{ChunkID: hit.ID, Score: hit.Score}
		if p, ok := hit.Fields[fieldPath].(string); ok {
			r.Source = p
		}
		out = append(out, r)
	}
	return out, nil
}

// DocCount returns the number of indexed chunks.
func (x *Index) DocCount() (uint64, error) {
	return x.index.DocCount()
}

// Reset closes the index, removes its directory, and recreates it empty.
func (x *Index) Reset() error {
	if err := x.index.Close(); err != nil {
		return fmt.Errorf("close keyword index: %w", err)
	}
	if err := os.RemoveAll(x.dir); err != nil {
		return fmt.Errorf("remove keyword index dir: %w", err)
	}
	idx, err := bleve.New(x.dir, indexMapping())
	if err != nil {
		return fmt.Errorf("recreate keyword index: %w", err)
	}
	x.index = idx
	return nil
}

// Close closes the underlying Bleve index.
func (x *Index) Close() error {
	return x.index.Close()
}
