// cmd/server/main.go - results API server
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valpere/KOLMetrics/internal/api"
	"github.com/valpere/KOLMetrics/internal/config"
	"github.com/valpere/KOLMetrics/internal/monitoring"
	"github.com/valpere/KOLMetrics/internal/output"
	"github.com/valpere/KOLMetrics/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: kolmetrics-server <config.yaml>\n")
		os.Exit(1)
	}

	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler, st, err := buildHandler(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	server := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] results API listening on %s", cfg.Server.Listen)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("[INFO] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildHandler opens the store and assembles the API routes. The
// caller owns the returned store.
func buildHandler(ctx context.Context, cfg *config.Config) (http.Handler, store.Store, error) {
	st, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	exports, err := output.NewManager(cfg.Output.Format)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	health := monitoring.NewHealthManager()
	health.RegisterCheck("store", st.Ping)

	var metrics *monitoring.MetricsManager
	if cfg.Metrics.Enabled {
		metrics = monitoring.NewMetricsManager(monitoring.MetricsConfig{Namespace: cfg.Metrics.Namespace})
	}

	return api.NewServer(st, exports, health, metrics).Routes(), st, nil
}
