package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"layertree/core-go/internal/catalog"
	"layertree/core-go/internal/httpapi"
	"layertree/core-go/internal/metrics"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	addr := envOr("HTTP_ADDR", ":8082")
	logLevel := envOr("LOG_LEVEL", "info")
	logFile := envOr("LOG_FILE", "")
	catalogPath := envOr("TREE_CATALOG", "config/trees.yaml")
	watch := envBool("TREE_CATALOG_WATCH")

	logger := httpapi.NewLogger(logLevel, logFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	cat := catalog.New(logger, m)
	if err := cat.LoadFile(catalogPath); err != nil {
		logger.Fatal().Err(err).Str("path", catalogPath).Msg("failed to load tree catalog")
	}

	if watch {
		go func() {
			if err := cat.Watch(ctx, catalogPath); err != nil {
				logger.Error().Err(err).Msg("catalog watcher stopped")
			}
		}()
	}

	h := httpapi.NewHandler(logger, cat, m)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("layertree listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
}

func envOr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
