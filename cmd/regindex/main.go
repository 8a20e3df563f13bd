// Package main is the regindex CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/clearhealth/regindex/internal/authority"
	"github.com/clearhealth/regindex/internal/chunker"
	"github.com/clearhealth/regindex/internal/cli"
	"github.com/clearhealth/regindex/internal/config"
	"github.com/clearhealth/regindex/internal/embedding"
	"github.com/clearhealth/regindex/internal/index"
	"github.com/clearhealth/regindex/internal/ingest"
	"github.com/clearhealth/regindex/internal/models"
	"github.com/clearhealth/regindex/internal/query"
	"github.com/clearhealth/regindex/internal/semantic"
	"github.com/clearhealth/regindex/internal/server"
	"github.com/clearhealth/regindex/internal/storage"
	"github.com/clearhealth/regindex/internal/watcher"
	"github.com/clearhealth/regindex/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/regindex/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists it
// is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "build":
		runBuild()
	case "search":
		runSearch()
	case "ask":
		runAsk()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("regindex version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Embedder embedding.Embedder
	Scorer   semantic.Scorer
	Pipeline *ingest.Pipeline
	Holder   *index.Holder
	Query    *query.Service
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func weightsFromConfig(cfg *config.Config) index.Weights {
	return index.Weights{
		Lexical:   cfg.Index.LexicalWeight,
		Semantic:  cfg.Index.SemanticWeight,
		Authority: cfg.Index.AuthorityWeight,
	}
}

func newScorer(cfg *config.Config, logger *zap.Logger) (semantic.Scorer, embedding.Embedder) {
	if cfg.Index.Scorer == "tfidf" {
		return semantic.NewTFIDFScorer(), nil
	}
	var embedder embedding.Embedder
	if cfg.Embedding.Backend == "onnx" {
		onnxEmbedder, err := embedding.NewONNXEmbedder(
			cfg.Embedding.ModelPath,
			cfg.Embedding.Dimensions,
			cfg.Embedding.MaxTokens,
			cfg.Embedding.CacheSize,
		)
		if err != nil {
			if logger != nil {
				logger.Warn("ONNX embedder unavailable, falling back to hashing embedder", zap.Error(err))
			}
		} else {
			embedder = onnxEmbedder
		}
	}
	if embedder == nil {
		embedder = embedding.NewHashingEmbedder(cfg.Embedding.Dimensions)
	}
	return semantic.NewDenseScorer(embedder), embedder
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	scorer, embedder := newScorer(cfg, logger)

	policy := authority.NewPolicy(authority.DefaultTable(), time.Now().UTC())
	ck := chunker.NewChunker(chunker.Config{
		MinChunkSize: cfg.Chunker.MinChunkSize,
		MaxChunkSize: cfg.Chunker.MaxChunkSize,
		OverlapSize:  cfg.Chunker.OverlapSize,
	})
	pipeline := ingest.NewPipeline(store, policy, ck, logger)

	holder := index.NewHolder()
	if _, err := os.Stat(cfg.Storage.IndexDir); err == nil {
		idx, loadErr := index.Load(context.Background(), cfg.Storage.IndexDir, scorer,
			index.WithAuthorityFallback(cfg.Index.AuthorityFallbackOrDefault()))
		if loadErr != nil {
			logger.Warn("index snapshot load skipped, rebuild to refresh",
				zap.String("dir", cfg.Storage.IndexDir), zap.Error(loadErr))
		} else {
			holder.Publish(idx)
			logger.Info("index snapshot loaded",
				zap.String("dir", cfg.Storage.IndexDir), zap.Int("chunks", idx.Size()))
		}
	}

	return &Components{
		Storage:  store,
		Embedder: embedder,
		Scorer:   scorer,
		Pipeline: pipeline,
		Holder:   holder,
		Query:    query.NewService(holder, store, logger),
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.DropWatcher
	if cfg.Watch.Enabled && cfg.Watch.DropDir != "" {
		pipeline := components.Pipeline
		onFile := func(path string) {
			ingested, skipped, err := pipeline.IngestFile(context.Background(), path)
			if err != nil {
				logger.Warn("drop ingest failed", zap.String("path", path), zap.Error(err))
				return
			}
			logger.Info("drop file processed",
				zap.String("path", path), zap.Int("ingested", ingested), zap.Int("skipped", skipped))
			if ingested == 0 {
				return
			}
			if _, err := pipeline.Rebuild(context.Background(), components.Scorer, weightsFromConfig(cfg),
				cfg.Storage.IndexDir, components.Holder,
				index.WithAuthorityFallback(cfg.Index.AuthorityFallbackOrDefault())); err != nil {
				logger.Warn("rebuild after drop ingest failed", zap.Error(err))
			}
		}
		watchOpts := []watcher.Option{
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMs) * time.Millisecond),
		}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc = watcher.NewDropWatcher(cfg.Watch.DropDir, cfg.Watch.Extensions, onFile, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExisting()
	}

	srv := server.NewServer(
		components.Query,
		components.Pipeline,
		components.Storage,
		components.Holder,
		components.Scorer,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	rebuild := fs.Bool("rebuild", true, "rebuild the index after ingesting")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: regindex ingest [flags] <file-or-directory>...")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	totalIngested, totalSkipped := 0, 0
	for _, arg := range fs.Args() {
		ingested, skipped, err := ingestPath(ctx, components.Pipeline, arg, cfg.Watch.Extensions)
		if err != nil {
			fmt.Printf("Ingest failed for %s: %v\n", arg, err)
			os.Exit(1)
		}
		totalIngested += ingested
		totalSkipped += skipped
	}
	fmt.Printf("Ingested %d document(s), skipped %d unchanged\n", totalIngested, totalSkipped)

	if *rebuild && totalIngested > 0 {
		count, err := components.Pipeline.Rebuild(ctx, components.Scorer, weightsFromConfig(cfg),
			cfg.Storage.IndexDir, components.Holder,
			index.WithAuthorityFallback(cfg.Index.AuthorityFallbackOrDefault()))
		if err != nil {
			fmt.Printf("Rebuild failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Index rebuilt: %d chunk(s)\n", count)
	}
}

// ingestPath ingests a single file, or every file with a supported extension
// under a directory.
func ingestPath(ctx context.Context, pipeline *ingest.Pipeline, path string, extensions []string) (int, int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, err
	}
	if !info.IsDir() {
		return pipeline.IngestFile(ctx, path)
	}
	ingested, skipped := 0, 0
	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if !extensionMatches(p, extensions) {
			return nil
		}
		in, sk, err := pipeline.IngestFile(ctx, p)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		ingested += in
		skipped += sk
		return nil
	})
	return ingested, skipped, walkErr
}

func extensionMatches(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	count, err := components.Pipeline.Rebuild(context.Background(), components.Scorer, weightsFromConfig(cfg),
		cfg.Storage.IndexDir, components.Holder,
		index.WithAuthorityFallback(cfg.Index.AuthorityFallbackOrDefault()))
	if err != nil {
		fmt.Printf("Build failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Index built: %d chunk(s), snapshot at %s\n", count, cfg.Storage.IndexDir)
}

// argsReorder moves any flags (and their values) that appear after positional
// arguments to the front of the slice so that flag.Parse() sees them. Go's
// flag package stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// joinArgs joins all positional args with spaces so multi-word queries work
// the same with or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = search the local snapshot directly)")
	topK := fs.Int("top-k", 10, "number of results")
	minScore := fs.Float64("min-score", 0, "minimum combined score in [0,1]")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Println("Usage: regindex search [flags] <query>")
		os.Exit(1)
	}
	queryStr := joinArgs(fs.Args())
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	req := &models.SearchRequest{Query: queryStr, TopK: *topK, MinScore: *minScore}

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()

		idx, err := components.Holder.Get()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Index not built; run: regindex build")
			os.Exit(1)
		}
		start := time.Now()
		results, err := idx.Search(context.Background(), req.Query, req.TopK, req.MinScore)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		response = &models.SearchResponse{
			Results:   results,
			Total:     len(results),
			QueryTime: time.Since(start).Milliseconds(),
			Query:     req.Query,
		}
	}

	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, req *models.SearchRequest) (*models.SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runAsk() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = answer from the local snapshot directly)")
	maxSources := fs.Int("max-sources", 5, "maximum number of cited sources")
	threshold := fs.Float64("authority-threshold", 0.5, "minimum authority for cited sources")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Println("Usage: regindex ask [flags] <question>")
		os.Exit(1)
	}
	question := joinArgs(fs.Args())
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	req := &models.QueryRequest{
		Question:           question,
		MaxSources:         *maxSources,
		AuthorityThreshold: *threshold,
	}

	var response *models.GroundedResponse
	if *serverURL != "" {
		response, err = askViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()

		response, err = components.Query.Ask(context.Background(), req)
		if err != nil {
			if err == index.ErrUnavailable {
				fmt.Fprintln(os.Stderr, "Index not built; run: regindex build")
			} else {
				fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			}
			os.Exit(1)
		}
	}

	if err := cli.WriteGroundedResponse(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL string, req *models.QueryRequest) (*models.GroundedResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.GroundedResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Documents      int64                  `json:"documents"`
	Chunks         int64                  `json:"chunks"`
	IndexSize      int                    `json:"index_size"`
	IndexAvailable bool                   `json:"index_available"`
	DiskUsageBytes *int64                 `json:"disk_usage_bytes,omitempty"`
	Config         map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		ctx := context.Background()
		docCount, err := components.Storage.CountDocuments(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count documents failed: %v\n", err)
			os.Exit(1)
		}
		chunkCount, err := components.Storage.CountChunks(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count chunks failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Documents: docCount,
			Chunks:    chunkCount,
			Config: map[string]interface{}{
				"scorer":        components.Scorer.Name(),
				"database_path": cfg.Storage.DatabasePath,
				"index_dir":     cfg.Storage.IndexDir,
			},
		}
		if idx, err := components.Holder.Get(); err == nil {
			status.IndexSize = idx.Size()
			status.IndexAvailable = true
		}
		if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.IndexDir); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("documents:        %d\n", status.Documents)
		fmt.Printf("chunks:           %d\n", status.Chunks)
		fmt.Printf("index_size:       %d\n", status.IndexSize)
		fmt.Printf("index_available:  %t\n", status.IndexAvailable)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes: %d\n", *status.DiskUsageBytes)
		}
		if len(status.Config) > 0 {
			fmt.Println()
			fmt.Println("# configuration")
			for _, key := range []string{"scorer", "lexical_weight", "semantic_weight", "authority_weight", "database_path", "index_dir"} {
				if v, ok := status.Config[key]; ok {
					fmt.Printf("%-17s %v\n", key+":", v)
				}
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func printUsage() {
	fmt.Println(`regindex - Healthcare regulation retrieval and authority ranking

Usage:
  regindex server [flags]             Start the HTTP server
  regindex ingest [flags] <path>...   Ingest document files or directories
  regindex build [flags]              Rebuild the index from the stored corpus
  regindex search [flags] <query>     Search indexed regulation chunks
  regindex ask [flags] <question>     Ask a question, answered with citations
  regindex status [flags]             Show corpus and index status
  regindex version                    Show version
  regindex help                       Show this help

Server Flags:
  --config string   Config file path (default: /usr/local/etc/regindex/config.yaml)
  --debug           Enable debug logging

Ingest Flags:
  --config string   Config file path
  --rebuild         Rebuild the index after ingesting (default: true)

Search Flags:
  --server string   Server URL (default: http://localhost:8080). Use --server "" for the local snapshot.
  --top-k int       Number of results (default: 10)
  --min-score float Minimum combined score (default: 0)
  --output string   Output format: text or json (default: text)

Ask Flags:
  --server string              Server URL (default: http://localhost:8080). Use --server "" for the local snapshot.
  --max-sources int            Maximum cited sources (default: 5)
  --authority-threshold float  Minimum authority for cited sources (default: 0.5)
  --output string              Output format: text or json (default: text)

Examples:
  regindex server
  regindex ingest ./fetched/ecfr-45.json
  regindex build
  regindex search "prior authorization timeline"
  regindex ask "How fast must urgent care claims be decided?"
  regindex status --output json`)
}
