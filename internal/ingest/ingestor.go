package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/bunko/internal/catalog"
	"github.com/hyperjump/bunko/internal/embedding"
	"github.com/hyperjump/bunko/internal/models"
)

// ChunkStore is the vector-store surface the pipeline writes to.
type ChunkStore interface {
	AddChunks(chunks []*models.Chunk) error
}

// KeywordWriter is the keyword-index surface the pipeline writes to.
type KeywordWriter interface {
	Add(ctx context.Context, chunks []*models.Chunk) error
}

// Result summarizes an ingest run.
type Result struct {
	RunID   string
	Files   int
	Skipped int
	Chunks  int
}

// Ingestor drives the load → normalize → chunk → embed → index pipeline.
type Ingestor struct {
	chunker  *Chunker
	embedder embedding.Embedder
	store    ChunkStore
	keyword  KeywordWriter    // optional
	catalog  *catalog.Catalog // optional; enables unchanged-file skipping
	logger   *zap.Logger      // optional
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithKeywordWriter mirrors ingested chunks into the keyword index.
func WithKeywordWriter(w KeywordWriter) IngestorOption {
	return func(in *Ingestor) { in.keyword = w }
}

// WithCatalog enables source bookkeeping and unchanged-file skipping.
func WithCatalog(c *catalog.Catalog) IngestorOption {
	return func(in *Ingestor) { in.catalog = c }
}

// WithLogger sets a logger for per-file progress.
func WithLogger(l *zap.Logger) IngestorOption {
	return func(in *Ingestor) { in.logger = l }
}

// NewIngestor creates the pipeline over a chunker, embedder, and chunk store.
func NewIngestor(chunker *Chunker, embedder embedding.Embedder, store ChunkStore, opts ...IngestorOption) *Ingestor {
	in := &Ingestor{chunker: chunker, embedder: embedder, store: store}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// IngestFolder ingests every supported file under folder. Files already
// cataloged with the same mtime and size are skipped. Returns a run summary;
// the run is also recorded in the catalog when one is configured.
func (in *Ingestor) IngestFolder(ctx context.Context, folder string) (*Result, error) {
	paths, err := ListSupportedFiles(folder)
	if err != nil {
		return nil, err
	}
	res := &Result{RunID: uuid.New().String()}
	started := time.Now()
	for _, path := range paths {
		n, err := in.ingestPath(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("ingest %s: %w", path, err)
		}
		if n < 0 {
			res.Skipped++
			continue
		}
		res.Files++
		res.Chunks += n
	}
	if in.catalog != nil {
		run := &catalog.RunRecord{
			ID:         res.RunID,
			StartedAt:  started,
			FinishedAt: time.Now(),
			Files:      res.Files,
			Chunks:     res.Chunks,
		}
		if err := in.catalog.RecordRun(ctx, run); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// IngestFile ingests a single file regardless of folder scanning. Returns the
// number of chunks indexed, or 0 with no error when the file was skipped as
// unchanged.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	n, err := in.ingestPath(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("ingest %s: %w", path, err)
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

// ingestPath runs the pipeline for one file. Returns -1 when the file was
// skipped as unchanged.
func (in *Ingestor) ingestPath(ctx context.Context, path string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	if in.catalog != nil {
		skip, err := in.catalog.Unchanged(ctx, absPath, info.ModTime().UnixNano(), info.Size())
		if err != nil {
			return 0, err
		}
		if skip {
			if in.logger != nil {
				in.logger.Debug("skipping unchanged file", zap.String("path", absPath))
			}
			return -1, nil
		}
	}

	src, err := LoadFile(absPath)
	if err != nil {
		return 0, err
	}
	chunks := in.chunker.Chunk(absPath, Normalize(src.Text))
	if len(chunks) == 0 {
		if in.logger != nil {
			in.logger.Debug("no text content", zap.String("path", absPath))
		}
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	embeddings, err := in.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	if err := in.store.AddChunks(chunks); err != nil {
		return 0, err
	}
	if in.keyword != nil {
		if err := in.keyword.Add(ctx, chunks); err != nil {
			return 0, fmt.Errorf("keyword index: %w", err)
		}
	}
	if in.catalog != nil {
		rec := &catalog.SourceRecord{
			Path:      absPath,
			ModTime:   info.ModTime().UnixNano(),
			Size:      info.Size(),
			Chunks:    len(chunks),
			IndexedAt: time.Now(),
		}
		if err := in.catalog.Upsert(ctx, rec); err != nil {
			return 0, err
		}
	}
	if in.logger != nil {
		in.logger.Debug("file indexed",
			zap.String("path", absPath),
			zap.Int("chunks", len(chunks)),
		)
	}
	return len(chunks), nil
}
