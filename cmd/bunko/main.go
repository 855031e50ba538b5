// Package main is the bunko CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/bunko/internal/catalog"
	"github.com/hyperjump/bunko/internal/cli"
	"github.com/hyperjump/bunko/internal/config"
	"github.com/hyperjump/bunko/internal/embedding"
	"github.com/hyperjump/bunko/internal/ingest"
	"github.com/hyperjump/bunko/internal/keyword"
	"github.com/hyperjump/bunko/internal/qa"
	"github.com/hyperjump/bunko/internal/retrieve"
	"github.com/hyperjump/bunko/internal/server"
	"github.com/hyperjump/bunko/internal/vector"
	"github.com/hyperjump/bunko/internal/watcher"
	"github.com/hyperjump/bunko/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "config.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "ingest":
		runIngest()
	case "search":
		runSearch()
	case "qa":
		runQA()
	case "reset":
		runReset()
	case "watch":
		runWatch()
	case "serve":
		runServe()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("bunko version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`bunko - local document retrieval

Usage:
  bunko ingest <folder>          index all supported documents under folder
  bunko search <query>           retrieve the most relevant chunks
  bunko qa <question>            answer a question over the indexed corpus
  bunko reset                    delete the index, keyword index, and catalog
  bunko watch                    re-ingest configured directories on change
  bunko serve                    run the HTTP API
  bunko status                   show corpus counts
  bunko version                  print version

Common flags:
  --config <path>  config file (default config.yaml)
  --debug          debug logging`)
}

// components bundles everything the commands wire together.
type components struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     *vector.Store
	keyword   *keyword.Index
	catalog   *catalog.Catalog
	embedder  embedding.Embedder
	retriever *retrieve.Retriever
	ingestor  *ingest.Ingestor
}

func (c *components) close() {
	if c.keyword != nil {
		_ = c.keyword.Close()
	}
	if c.catalog != nil {
		_ = c.catalog.Close()
	}
	if c.embedder != nil {
		_ = c.embedder.Close()
	}
	_ = c.logger.Sync()
}

// loadConfig loads the config file at path. When path is the default and no
// such file exists, built-in defaults are used instead of failing.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// initComponents loads config and opens the store, keyword index, catalog,
// and embedder. When needEmbedder is false the OpenAI key is not required
// and no embedder or retriever is built.
func initComponents(configPath string, debug, needEmbedder bool) (*components, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		return nil, err
	}

	store, err := vector.Open(cfg.Storage.IndexPath, cfg.Storage.MetadataPath)
	if err != nil {
		return nil, err
	}
	kw, err := keyword.OpenOrCreate(cfg.Storage.KeywordDirPath)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Open(cfg.Storage.CatalogPath)
	if err != nil {
		return nil, err
	}

	c := &components{cfg: cfg, logger: logger, store: store, keyword: kw, catalog: cat}
	if !needEmbedder {
		return c, nil
	}

	embedder, err := embedding.NewOpenAIEmbedder(config.APIKey(),
		cfg.Embedding.Model, cfg.Embedding.Dimensions, cfg.Embedding.CacheSize)
	if err != nil {
		return nil, err
	}
	c.embedder = embedder
	c.retriever = retrieve.New(embedder, store,
		retrieve.WithKeywordIndex(kw),
		retrieve.WithLogger(logger),
	)
	chunker, err := ingest.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	c.ingestor = ingest.NewIngestor(chunker, embedder, store,
		ingest.WithKeywordWriter(kw),
		ingest.WithCatalog(cat),
		ingest.WithLogger(logger),
	)
	return c, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fatal(fmt.Errorf("usage: bunko ingest <folder>"))
	}
	folder, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		fatal(err)
	}

	c, err := initComponents(*configPath, *debug, true)
	if err != nil {
		fatal(err)
	}
	defer c.close()

	res, err := c.ingestor.IngestFolder(context.Background(), folder)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Indexed %d chunks from %d files (%d unchanged, skipped)\n",
		res.Chunks, res.Files, res.Skipped)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	topK := fs.Int("top-k", 0, "number of hits to return")
	format := fs.String("format", "text", "output format: text or json")
	noFallback := fs.Bool("no-fallback", false, "disable the keyword fallback channel")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fatal(fmt.Errorf("usage: bunko search <query>"))
	}
	query := fs.Arg(0)

	c, err := initComponents(*configPath, *debug, true)
	if err != nil {
		fatal(err)
	}
	defer c.close()

	k := c.cfg.Search.ClampTopK(*topK)
	fallback := c.cfg.Search.FallbackOrDefault() && !*noFallback
	hits, err := c.retriever.Retrieve(context.Background(), query, k, fallback)
	if err != nil {
		fatal(err)
	}
	if err := cli.WriteHits(os.Stdout, query, hits, c.cfg.Search.MaxDistance, cli.OutputFormat(*format)); err != nil {
		fatal(err)
	}
}

func runQA() {
	fs := flag.NewFlagSet("qa", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	topK := fs.Int("top-k", 0, "number of chunks to retrieve for context")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fatal(fmt.Errorf("usage: bunko qa <question>"))
	}
	question := fs.Arg(0)

	c, err := initComponents(*configPath, *debug, true)
	if err != nil {
		fatal(err)
	}
	defer c.close()

	answerer, err := qa.NewAnswerer(config.APIKey(), c.cfg.QA.Model)
	if err != nil {
		fatal(err)
	}
	k := c.cfg.Search.ClampTopK(*topK)
	ctx := context.Background()
	hits, err := c.retriever.Retrieve(ctx, question, k, c.cfg.Search.FallbackOrDefault())
	if err != nil {
		fatal(err)
	}
	answer, used, err := answerer.Answer(ctx, question, hits)
	if err != nil {
		fatal(err)
	}
	cli.WriteAnswer(os.Stdout, answer, used)
}

func runReset() {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	c, err := initComponents(*configPath, *debug, false)
	if err != nil {
		fatal(err)
	}
	defer c.close()

	if err := c.store.Reset(); err != nil {
		fatal(err)
	}
	if err := c.keyword.Reset(); err != nil {
		fatal(err)
	}
	if err := c.catalog.Reset(context.Background()); err != nil {
		fatal(err)
	}
	fmt.Println("Index, keyword index, and catalog cleared.")
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	c, err := initComponents(*configPath, *debug, true)
	if err != nil {
		fatal(err)
	}
	defer c.close()

	if len(c.cfg.Watch.Directories) == 0 {
		fatal(fmt.Errorf("no watch directories configured"))
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := watcher.New(c.cfg.Watch.Directories, func(path string) {
		n, err := c.ingestor.IngestFile(ctx, path)
		if err != nil {
			c.logger.Warn("re-ingest failed", zap.String("path", path), zap.Error(err))
			return
		}
		if n > 0 {
			c.logger.Info("re-ingested", zap.String("path", path), zap.Int("chunks", n))
		}
	}, watcher.WithLogger(c.logger))

	c.logger.Info("watching", zap.Strings("directories", c.cfg.Watch.Directories))
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		fatal(err)
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	c, err := initComponents(*configPath, *debug, true)
	if err != nil {
		fatal(err)
	}
	defer c.close()

	answerer, err := qa.NewAnswerer(config.APIKey(), c.cfg.QA.Model)
	if err != nil {
		fatal(err)
	}
	srv := server.New(c.retriever, answerer, c.ingestor, c.store, c.keyword, c.catalog, c.cfg, c.logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			c.logger.Error("shutdown failed", zap.Error(err))
		}
	}()
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal(err)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	c, err := initComponents(*configPath, *debug, false)
	if err != nil {
		fatal(err)
	}
	defer c.close()

	ctx := context.Background()
	sources, chunks, err := c.catalog.Counts(ctx)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Indexed chunks:  %d\n", c.store.Len())
	fmt.Printf("Dimensions:      %d\n", c.store.Dims())
	fmt.Printf("Sources:         %d (%d cataloged chunks)\n", sources, chunks)
	if run, err := c.catalog.LastRun(ctx); err == nil && run != nil {
		fmt.Printf("Last ingest:     %s (%d files, %d chunks) at %s\n",
			run.ID, run.Files, run.Chunks, run.FinishedAt.Format(time.RFC3339))
	}
}
