package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/scrapechat/api"
	"github.com/use-agent/scrapechat/chat"
	"github.com/use-agent/scrapechat/config"
	"github.com/use-agent/scrapechat/llm"
	"github.com/use-agent/scrapechat/orchestrator"
	"github.com/use-agent/scrapechat/output"
	"github.com/use-agent/scrapechat/spider"
	"github.com/use-agent/scrapechat/store"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("scrapechat starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Fetch.MaxPages,
	)

	// ── 3. Connect to the store ─────────────────────────────────────
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	st, err := store.New(ctx, cfg.DB.URL)
	cancel()
	if err != nil {
		slog.Error("failed to connect to store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	err = st.InitSchema(ctx)
	cancel()
	if err != nil {
		slog.Error("failed to initialise schema", "error", err)
		os.Exit(1)
	}

	// ── 4. Wire the extraction pipeline ─────────────────────────────
	registry := spider.NewRegistry()
	fetcher := spider.NewHTTPFetcher(cfg.Fetch)
	runner := orchestrator.New(fetcher, cfg.Fetch, "")

	writer, err := output.NewWriter(cfg.Output)
	if err != nil {
		slog.Error("failed to initialise output writer", "error", err)
		os.Exit(1)
	}

	validator := chat.NewURLValidator(cfg.Fetch)
	llmClient := llm.NewClient(nil, cfg.LLM)
	svc := chat.NewService(st, llmClient, registry, validator, runner, writer)

	// ── 5. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(svc, st, writer, cfg, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("scrapechat stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
