// Package main runs the asset ledger maintenance daemon:
// - Feed maintenance (scheduled): median recomputation over stale bitassets
// - Volume reset (scheduled): force-settlement counters per interval
// - HTTP: health, Prometheus metrics, status
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"bitasset-ledger/internal/maintenance"
	"bitasset-ledger/internal/observability"
	"bitasset-ledger/internal/storage"
	chstore "bitasset-ledger/internal/storage/clickhouse"
	"bitasset-ledger/internal/storage/memory"
	"bitasset-ledger/internal/storage/migrations"
	pgstore "bitasset-ledger/internal/storage/postgres"
)

// Server holds the daemon's stores, schedulers and state.
type Server struct {
	maintenanceInterval time.Duration
	volumeInterval      time.Duration

	assets    storage.AssetStore
	bitassets storage.BitassetStore
	feedHist  storage.FeedHistoryStore
	metrics   *observability.Metrics

	logger *log.Logger

	mu              sync.Mutex
	started         time.Time
	lastFeedRun     time.Time
	lastVolumeReset time.Time
	feedRuns        int
	feedsUpdated    int

	// lastArchive is the upper bound of the last archived publication
	// window; touched only by the scheduler goroutine.
	lastArchive int64
}

func main() {
	loadEnvFile()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	maintenanceInterval := flag.Duration("maintenance-interval", 1*time.Hour, "Feed maintenance interval")
	volumeInterval := flag.Duration("volume-reset-interval", 24*time.Hour, "Force-settlement volume reset interval")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address")

	flag.Parse()

	logger := log.New(os.Stdout, "[ledgerd] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())

	assets, bitassets, feedHist, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	server := &Server{
		maintenanceInterval: *maintenanceInterval,
		volumeInterval:      *volumeInterval,
		assets:              assets,
		bitassets:           bitassets,
		feedHist:            feedHist,
		metrics:             observability.NewMetrics(""),
		logger:              logger,
		started:             time.Now(),
	}

	if all, err := assets.ListAll(ctx); err != nil {
		logger.Printf("Failed to load asset catalog: %v", err)
	} else {
		logger.Printf("Loaded %d assets", len(all))
	}

	done := make(chan error, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	go server.startHTTPServer(*metricsAddr)

	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores connects the configured backends and applies migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (storage.AssetStore, storage.BitassetStore, storage.FeedHistoryStore, func(), error) {
	if useMemory {
		return memory.NewAssetStore(), memory.NewBitassetStore(), nil, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return pgstore.NewAssetStore(pool), pgstore.NewBitassetStore(pool), chstore.NewFeedHistoryStore(chConn), cleanup, nil
}

// Run drives the maintenance schedulers until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Printf("Starting maintenance schedulers (feed: %v, volume reset: %v)...",
		s.maintenanceInterval, s.volumeInterval)

	feedM := &maintenance.FeedMaintenance{
		Bitassets: s.bitassets,
		History:   s.feedHist,
		Metrics:   s.metrics,
	}

	// Run a feed pass immediately on start.
	s.runFeedPass(ctx, feedM)

	feedTicker := time.NewTicker(s.maintenanceInterval)
	defer feedTicker.Stop()
	volumeTicker := time.NewTicker(s.volumeInterval)
	defer volumeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-feedTicker.C:
			s.runFeedPass(ctx, feedM)
		case <-volumeTicker.C:
			if err := feedM.ResetSettlementVolumes(ctx); err != nil {
				s.logger.Printf("Volume reset error: %v", err)
				continue
			}
			s.mu.Lock()
			s.lastVolumeReset = time.Now()
			s.mu.Unlock()
		}
	}
}

func (s *Server) runFeedPass(ctx context.Context, m *maintenance.FeedMaintenance) {
	start := time.Now()
	updated, err := m.Run(ctx, start.Unix())
	if err != nil {
		s.logger.Printf("Feed maintenance error: %v", err)
		return
	}

	archived, err := m.ArchivePublications(ctx, s.lastArchive, start.Unix())
	if err != nil {
		s.logger.Printf("Feed archive error: %v", err)
	} else {
		s.lastArchive = start.Unix()
	}

	s.mu.Lock()
	s.lastFeedRun = start
	s.feedRuns++
	s.feedsUpdated += updated
	s.mu.Unlock()

	s.logger.Printf("Feed maintenance completed in %v: %d feeds recomputed, %d publications archived",
		time.Since(start), updated, archived)
}

// startHTTPServer starts the HTTP server for health/metrics/status.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("/status", s.handleStatus)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status          string    `json:"status"`
	Uptime          string    `json:"uptime"`
	Assets          int       `json:"assets"`
	Bitassets       int       `json:"bitassets"`
	LastFeedRun     time.Time `json:"last_feed_run,omitempty"`
	LastVolumeReset time.Time `json:"last_volume_reset,omitempty"`
	FeedRuns        int       `json:"feed_runs"`
	FeedsUpdated    int       `json:"feeds_updated"`
}

// handleStatus returns daemon status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var assetCount, bitassetCount int
	if all, err := s.assets.ListAll(r.Context()); err == nil {
		assetCount = len(all)
	}
	if all, err := s.bitassets.ListAll(r.Context()); err == nil {
		bitassetCount = len(all)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).String(),
		Assets:          assetCount,
		Bitassets:       bitassetCount,
		LastFeedRun:     s.lastFeedRun,
		LastVolumeReset: s.lastVolumeReset,
		FeedRuns:        s.feedRuns,
		FeedsUpdated:    s.feedsUpdated,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
