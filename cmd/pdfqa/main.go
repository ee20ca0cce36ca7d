package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"pdf-rag/internal/config"
	"pdf-rag/internal/database"
	"pdf-rag/internal/logger"
	"pdf-rag/internal/metrics"
	"pdf-rag/internal/models"
	"pdf-rag/internal/rag"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	logLevel    string
	prettyLogs  bool
	metricsAddr string
)

// app holds what every subcommand needs once flags are parsed
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics
	engine  *rag.Engine
	db      *database.DB
	server  *http.Server
}

var current *app

var rootCmd = &cobra.Command{
	Use:   "pdfqa",
	Short: "Ask grounded questions about your documents",
	Long: `pdfqa extracts text from PDF and plain text files, indexes it in memory
and answers questions strictly from the indexed passages, citing the pages used.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty", false, "human-readable log output")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	teardown()
	if err != nil {
		if models.Kind(err) != nil {
			fmt.Fprintln(os.Stderr, "Error:", models.UserMessage(err))
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	cfg.Log.Pretty = cfg.Log.Pretty || prettyLogs
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}

	a := &app{
		cfg:     cfg,
		log:     logger.NewLogger(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty}),
		metrics: metrics.NewMetrics(),
	}
	mainLog := a.log.Component("main")

	if cfg.Metrics.Addr != "" {
		a.server = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(a.metrics.Registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				mainLog.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	var rec rag.Recorder
	if cfg.History.DSN != "" {
		db, err := openHistory(cmd.Context(), cfg.History.DSN)
		if err != nil {
			mainLog.Warn().Err(err).Msg("Answer history disabled")
		} else {
			a.db = db
			rec = db
		}
	}

	a.engine, err = rag.FromConfig(cfg, a.log, a.metrics, rec)
	if err != nil {
		return err
	}

	mainLog.Debug().
		Str("embedding_model", cfg.EmbeddingModelID).
		Str("llm_model", cfg.LLMModelID).
		Str("embedder", cfg.Embedder.Provider).
		Str("llm", cfg.LLM.Provider).
		Msg("Engine configured")

	current = a
	return nil
}

func openHistory(ctx context.Context, dsn string) (*database.DB, error) {
	db, err := database.NewDB(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// teardown releases what setup opened. It runs after every command, failed or not.
func teardown() {
	if current == nil {
		return
	}
	defer func() { current = nil }()
	if current.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = current.server.Shutdown(ctx)
	}
	if current.db != nil {
		current.db.Close()
	}
}

// readFiles loads documents from disk
func readFiles(paths []string) ([]models.SourceFile, error) {
	if len(paths) == 0 {
		return nil, errors.New("at least one document is required (use -d)")
	}
	files := make([]models.SourceFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		files = append(files, models.SourceFile{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

// indexDocuments builds a fresh session over paths and prints a short summary
func indexDocuments(cmd *cobra.Command, paths []string) (*rag.Session, error) {
	files, err := readFiles(paths)
	if err != nil {
		return nil, err
	}

	session := current.engine.NewSession()
	cmd.PrintErrf("Indexing %d document(s)...\n", len(files))
	stats, err := session.Index(cmd.Context(), files)
	if err != nil {
		return nil, err
	}
	cmd.PrintErrf("Indexed %d chunks from %d page(s) in %v\n", stats.Chunks, stats.Pages, stats.Duration.Round(time.Millisecond))
	return session, nil
}
