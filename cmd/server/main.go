// Package main provides the unified sale service:
// - Sale ledger: phases, purchases, escrow, claim/refund switching
// - Vesting ledger: pre-funded time-locked grants
// - Event surface: durable store, WebSocket feed, Prometheus metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"token-sale-ledger/internal/addr"
	"token-sale-ledger/internal/domain"
	"token-sale-ledger/internal/feed"
	"token-sale-ledger/internal/observability"
	"token-sale-ledger/internal/sale"
	"token-sale-ledger/internal/storage"
	chstore "token-sale-ledger/internal/storage/clickhouse"
	"token-sale-ledger/internal/storage/memory"
	"token-sale-ledger/internal/storage/migrations"
	pgstore "token-sale-ledger/internal/storage/postgres"
	"token-sale-ledger/internal/token"
	"token-sale-ledger/internal/vesting"
)

// Server holds all components of the sale service.
type Server struct {
	ledger  *sale.Ledger
	vesting *vesting.Ledger
	issuer  *token.MemoryIssuer
	bank    *token.MemoryBank
	events  storage.EventStore
	hub     *feed.Hub
	metrics *observability.Metrics
	logger  *log.Logger

	admin  addr.Address
	holder addr.Address
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional analytics mirror)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory event storage instead of PostgreSQL")
	adminAddr := flag.String("admin", os.Getenv("SALE_ADMIN"), "Base58 admin address")
	holderAddr := flag.String("vesting-holder", os.Getenv("VESTING_HOLDER"), "Base58 address backing vesting grants (defaults to admin)")
	softCap := flag.Uint64("soft-cap", 0, "Minimum cumulative raise for the sale to succeed")
	minBuy := flag.Uint64("min-buy", 0, "Smallest accepted contribution")
	maxPerWallet := flag.Uint64("max-per-wallet", 0, "Per-wallet cumulative contribution cap (0 = unlimited)")
	tokenDecimals := flag.Uint("token-decimals", 9, "Token decimals; token unit is 10^decimals")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *adminAddr == "" {
		logger.Fatal("--admin is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}
	if *tokenDecimals > 19 {
		logger.Fatal("--token-decimals must be at most 19")
	}

	admin, err := addr.Parse(*adminAddr)
	if err != nil {
		logger.Fatalf("Invalid --admin address: %v", err)
	}
	holder := admin
	if *holderAddr != "" {
		holder, err = addr.Parse(*holderAddr)
		if err != nil {
			logger.Fatalf("Invalid --vesting-holder address: %v", err)
		}
	}

	tokenUnit := uint64(1)
	for i := uint(0); i < *tokenDecimals; i++ {
		tokenUnit *= 10
	}
	walletCap := effectiveWalletCap(*maxPerWallet)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create event stores
	stores, cleanup, err := createEventStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Failed to create event stores: %v", err)
	}
	defer cleanup()

	// Metrics and feed
	metrics := observability.NewMetrics("")
	hub := feed.NewHub(nil, log.New(os.Stdout, "[feed] ", log.LstdFlags))
	defer hub.Close()

	// Every committed transition fans out to the durable store, the feed
	// and the metrics projection.
	recorder := multiRecorder{
		&storeRecorder{store: stores.primary, metrics: metrics, database: stores.primaryName, logger: logger},
	}
	if stores.analytics != nil {
		recorder = append(recorder, &storeRecorder{store: stores.analytics, metrics: metrics, database: "clickhouse", logger: logger})
	}
	recorder = append(recorder, hub, metrics)

	issuer := token.NewMemoryIssuer()
	bank := token.NewMemoryBank()

	saleLedger := sale.NewLedger(sale.Config{
		Admin: admin,
		Params: domain.SaleParams{
			SoftCap:      *softCap,
			MinBuy:       *minBuy,
			MaxPerWallet: walletCap,
			TokenUnit:    tokenUnit,
		},
		Issuer:   issuer,
		Payer:    bank,
		Recorder: recorder,
	})

	vestingLedger := vesting.NewLedger(vesting.Config{
		Admin:    admin,
		Holder:   holder,
		Issuer:   issuer,
		Recorder: recorder,
	})

	server := &Server{
		ledger:  saleLedger,
		vesting: vestingLedger,
		issuer:  issuer,
		bank:    bank,
		events:  stores.primary,
		hub:     hub,
		metrics: metrics,
		logger:  logger,
		admin:   admin,
		holder:  holder,
	}

	// Keep the subscriber gauge in sync with the hub.
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.FeedSubscribers.Set(float64(hub.ClientCount()))
			}
		}
	}()

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: server.routes(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}
	}()

	logger.Printf("Listening on %s (admin %s, token unit %d)", *listenAddr, admin, tokenUnit)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// eventStores bundles the primary durable store with an optional analytics
// mirror.
type eventStores struct {
	primary     storage.EventStore
	primaryName string
	analytics   storage.EventStore
}

// createEventStores creates the configured event stores and applies
// migrations.
func createEventStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, logger *log.Logger) (*eventStores, func(), error) {
	if useMemory {
		return &eventStores{primary: memory.NewEventStore(), primaryName: "memory"}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	stores := &eventStores{
		primary:     pgstore.NewEventStore(pool),
		primaryName: "postgres",
	}
	cleanup := func() { pool.Close() }

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		stores.analytics = chstore.NewEventStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
		logger.Println("ClickHouse analytics mirror enabled")
	}

	return stores, cleanup, nil
}

// multiRecorder fans one event out to every sink in order.
type multiRecorder []sale.Recorder

func (m multiRecorder) Record(ctx context.Context, ev *domain.SaleEvent) {
	for _, r := range m {
		r.Record(ctx, ev)
	}
}

// storeRecorder persists events to an EventStore. Insert failures are
// logged, never propagated; the ledger has already committed.
type storeRecorder struct {
	store    storage.EventStore
	metrics  *observability.Metrics
	database string
	logger   *log.Logger
}

func (s *storeRecorder) Record(ctx context.Context, ev *domain.SaleEvent) {
	start := time.Now()
	err := s.store.Insert(ctx, ev)
	s.metrics.RecordDBQuery(s.database, "insert_event", time.Since(start).Seconds(), err)
	if err != nil {
		s.logger.Printf("persist event %s (%s): %v", ev.EventID, ev.Kind, err)
	}
}

// envOr returns the environment value or a fallback.
// effectiveWalletCap maps the flag's 0 to an unbounded cap. The ledger
// treats the cap literally, so passing 0 through would reject every
// purchase.
func effectiveWalletCap(v uint64) uint64 {
	if v == 0 {
		return math.MaxUint64
	}
	return v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
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

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
