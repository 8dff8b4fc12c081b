// Package main is the bitsir CLI entry point.
//
// The CLI owns flag parsing only; the core phases (build, trim, query,
// serve) are function calls into the internal packages so they can also be
// embedded elsewhere.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/cli"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/config"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/embedding"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/extract"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/index"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/query"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/server"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/storage"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/tokenizer"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/watcher"
	"github.com/vineelpeddi/BITS-IR-PROJECT/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "config.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "build":
		runBuild()
	case "trim-embeddings":
		runTrimEmbeddings()
	case "query":
		runQuery()
	case "serve":
		runServe()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("bitsir version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`bitsir - inverted index construction and ranked retrieval

Usage:
  bitsir build [--zoned]          Build the inverted index from the corpus
  bitsir trim-embeddings          Trim pretrained embeddings to the corpus vocabulary
  bitsir query [-q QUERY]         Evaluate queries (interactive when -q is omitted)
  bitsir serve                    Serve queries over HTTP
  bitsir watch                    Rebuild the index when the corpus changes
  bitsir status                   Show the latest build
  bitsir version                  Show version

Common flags (per subcommand):
  -config PATH                    Config file (default config.yaml)
  -debug                          Debug logging
`)
}

// loadConfig reads the config file at path. The default path is allowed to be
// absent, in which case built-in defaults apply; an explicitly given path must
// exist.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, cfg.Validate()
		}
	}
	return config.Load(path)
}

func mustSetup(fs *flag.FlagSet, configPath *string, debug *bool) (*config.Config, *zap.Logger) {
	_ = fs.Parse(os.Args[2:])
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger
}

func fatal(logger *zap.Logger, msg string, err error) {
	logger.Error(msg, zap.Error(err))
	_ = logger.Sync()
	os.Exit(1)
}

// buildOnce loads the corpus, builds the index, and persists all artifacts.
// Shared by the build and watch subcommands.
func buildOnce(cfg *config.Config, logger *zap.Logger, zoned bool) error {
	start := time.Now()
	loader := extract.NewLoader(cfg.Corpus.Extensions, extract.WithLogger(logger))
	docs, err := loader.LoadDir(cfg.Corpus.Path)
	if err != nil {
		return err
	}

	analyzer, err := tokenizer.NewAnalyzer(tokenizer.Options{
		StopWords: cfg.Index.StopWordsOrDefault(),
		Stemming:  cfg.Index.Stemming,
	})
	if err != nil {
		return err
	}
	builder := index.NewBuilder(analyzer, index.Options{
		Zoned:        zoned,
		ChampionSize: cfg.Index.ChampionSize,
	}, index.WithLogger(logger))
	ix, err := builder.Build(docs)
	if err != nil {
		return err
	}

	path := cfg.IndexPath(zoned)
	if err := storage.SaveIndex(ix, path); err != nil {
		return err
	}

	registry, err := storage.OpenRegistry(cfg.RegistryPath())
	if err != nil {
		return err
	}
	defer registry.Close()
	ctx := context.Background()
	if err := registry.ReplaceDocuments(ctx, docs); err != nil {
		return err
	}
	rec, err := registry.RecordBuild(ctx, zoned, ix.DocCount(), ix.VocabSize())
	if err != nil {
		return err
	}

	logger.Info("build complete",
		zap.String("build_id", rec.ID),
		zap.String("index", path),
		zap.Int("documents", ix.DocCount()),
		zap.Int("vocabulary", ix.VocabSize()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	zoned := fs.Bool("zoned", false, "build the zoned (title/body) index")
	debug := fs.Bool("debug", false, "enable debug logging")
	cfg, logger := mustSetup(fs, configPath, debug)
	defer logger.Sync()

	if err := buildOnce(cfg, logger, *zoned || cfg.Index.Zoned); err != nil {
		fatal(logger, "build failed", err)
	}
}

func runTrimEmbeddings() {
	fs := flag.NewFlagSet("trim-embeddings", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	zoned := fs.Bool("zoned", false, "take the vocabulary from the zoned index")
	debug := fs.Bool("debug", false, "enable debug logging")
	cfg, logger := mustSetup(fs, configPath, debug)
	defer logger.Sync()

	ix, err := storage.LoadIndex(cfg.IndexPath(*zoned))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fatal(logger, "inverted index not available, run \"bitsir build\" first", err)
		}
		fatal(logger, "load index failed", err)
	}

	full, err := embedding.LoadGloVe(cfg.Embedding.SourcePath, logger)
	if err != nil {
		fatal(logger, "load embeddings failed", err)
	}
	trimmed := full.Trim(ix.Vocabulary())
	if err := storage.SaveEmbeddings(trimmed, cfg.EmbeddingsPath()); err != nil {
		fatal(logger, "save trimmed embeddings failed", err)
	}
	logger.Info("embeddings trimmed",
		zap.Int("full_terms", full.Len()),
		zap.Int("trimmed_terms", trimmed.Len()),
		zap.String("path", cfg.EmbeddingsPath()),
	)
}

// loadProcessor loads the artifacts a query phase needs and builds the
// processor. scoreTitle selects the zoned artifact; expansion additionally
// loads the trimmed embedding table.
func loadProcessor(cfg *config.Config, logger *zap.Logger, scoreTitle, expand bool, limit int) (*query.Processor, *index.Index, error) {
	ix, err := storage.LoadIndex(cfg.IndexPath(scoreTitle))
	if err != nil {
		return nil, nil, err
	}
	var table *embedding.Table
	if expand {
		table, err = storage.LoadEmbeddings(cfg.EmbeddingsPath())
		if err != nil {
			return nil, nil, err
		}
	}
	processor, err := query.NewProcessor(ix, table, query.Options{
		ScoreTitle:  scoreTitle,
		ExpandQuery: expand,
		ExpansionK:  cfg.Search.ExpansionK,
		ZoneWeights: cfg.ZoneWeights(),
		Limit:       limit,
	}, query.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return processor, ix, nil
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	q := fs.String("q", "", "query to evaluate once (omit for interactive mode)")
	scoreTitle := fs.Bool("score-title", false, "use zone-weighted scoring against the zoned index")
	expand := fs.Bool("expand", false, "expand queries with embedding nearest neighbors")
	limit := fs.Int("limit", 0, "maximum results (default from config)")
	jsonOut := fs.Bool("json", false, "print results as JSON")
	debug := fs.Bool("debug", false, "enable debug logging")
	cfg, logger := mustSetup(fs, configPath, debug)
	defer logger.Sync()

	useTitle := *scoreTitle || cfg.Search.ScoreTitle
	useExpand := *expand || cfg.Search.ExpandQuery
	if *limit <= 0 {
		*limit = cfg.Search.DefaultLimit
	}

	processor, _, err := loadProcessor(cfg, logger, useTitle, useExpand, *limit)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fatal(logger, "index artifacts not available, run \"bitsir build\" (and \"bitsir trim-embeddings\" for expansion) first", err)
		}
		fatal(logger, "load artifacts failed", err)
	}

	format := cli.OutputText
	if *jsonOut {
		format = cli.OutputJSON
	}

	if *q != "" {
		resp, err := processor.Evaluate(*q)
		if err != nil {
			fatal(logger, "query failed", err)
		}
		_ = cli.WriteResults(os.Stdout, resp, format)
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Enter query: ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "exit" || line == "quit" {
			return
		}
		resp, err := processor.Evaluate(line)
		if err != nil {
			fatal(logger, "query failed", err)
		}
		_ = cli.WriteResults(os.Stdout, resp, format)
		fmt.Println()
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	cfg, logger := mustSetup(fs, configPath, debug)
	defer logger.Sync()

	// The processor carries the server-wide maximum; handlers trim to the
	// per-request limit.
	processor, ix, err := loadProcessor(cfg, logger, cfg.Search.ScoreTitle, cfg.Search.ExpandQuery, cfg.Search.MaxLimit)
	if err != nil {
		fatal(logger, "load artifacts failed", err)
	}
	registry, err := storage.OpenRegistry(cfg.RegistryPath())
	if err != nil {
		fatal(logger, "open registry failed", err)
	}
	defer registry.Close()

	srv := server.NewServer(processor, ix, registry, cfg, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		fatal(logger, "server failed", err)
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	}
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	zoned := fs.Bool("zoned", false, "build the zoned (title/body) index")
	debug := fs.Bool("debug", false, "enable debug logging")
	cfg, logger := mustSetup(fs, configPath, debug)
	defer logger.Sync()

	buildZoned := *zoned || cfg.Index.Zoned
	if err := buildOnce(cfg, logger, buildZoned); err != nil {
		fatal(logger, "initial build failed", err)
	}

	w := watcher.New(cfg.Corpus.Path, cfg.Corpus.Extensions, func() {
		if err := buildOnce(cfg, logger, buildZoned); err != nil {
			logger.Error("rebuild failed", zap.Error(err))
		}
	}, watcher.WithLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		fatal(logger, "watcher failed", err)
	}
	defer w.Stop()
	logger.Info("watching corpus", zap.String("path", cfg.Corpus.Path))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	cfg, logger := mustSetup(fs, configPath, debug)
	defer logger.Sync()

	registry, err := storage.OpenRegistry(cfg.RegistryPath())
	if err != nil {
		fatal(logger, "open registry failed", err)
	}
	defer registry.Close()

	ctx := context.Background()
	rec, err := registry.LatestBuild(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Println("No builds recorded yet. Run \"bitsir build\" first.")
			return
		}
		fatal(logger, "read registry failed", err)
	}
	count, err := registry.CountDocuments(ctx)
	if err != nil {
		fatal(logger, "read registry failed", err)
	}
	mode := "basic"
	if rec.Zoned {
		mode = "zoned"
	}
	fmt.Printf("Latest build: %s (%s)\n", rec.ID, mode)
	fmt.Printf("Built at:     %s\n", rec.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Documents:    %d\n", count)
	fmt.Printf("Vocabulary:   %d\n", rec.VocabSize)
	fmt.Printf("Artifacts:    %s\n", filepath.Dir(cfg.IndexPath(rec.Zoned)))
}
