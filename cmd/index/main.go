// Command coldvault-index runs the allocation and quota coordinator: bucket
// registration, per-user byte allowances, hash-to-bucket routing, and
// reconciliation with every registered bucket.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/coldvault/core/internal/logger"
	"github.com/coldvault/core/internal/telemetry"
	"github.com/coldvault/core/pkg/config"
	"github.com/coldvault/core/pkg/ids"
	"github.com/coldvault/core/pkg/index"
	"github.com/coldvault/core/pkg/indexstore"
	indexstorememory "github.com/coldvault/core/pkg/indexstore/memory"
	indexstorepostgres "github.com/coldvault/core/pkg/indexstore/postgres"
	"github.com/coldvault/core/pkg/metrics"
	"github.com/coldvault/core/pkg/reconcile"
	"github.com/coldvault/core/pkg/transport/httpapi"
	"github.com/coldvault/core/pkg/transport/svcauth"
)

var (
	version    = "dev"
	configFile string
)

func main() {
	root := &cobra.Command{
		Use:   "coldvault-index",
		Short: "Run the coldvault index coordinator",
		RunE:  run,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled: cfg.Telemetry.Enabled, ServiceName: "coldvault-index", ServiceVersion: version,
		Endpoint: cfg.Telemetry.Endpoint, Insecure: cfg.Telemetry.Insecure, SampleRate: cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}
	indexMetrics := metrics.NewIndexMetrics()

	store, err := newIndexStore(cfg.Index.Persistence)
	if err != nil {
		return fmt.Errorf("init index store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("index store close error", logger.Err(err))
		}
	}()

	engine := index.NewEngine(indexMetrics)
	if snap, ok, err := store.Load(ctx); err != nil {
		return fmt.Errorf("load index snapshot: %w", err)
	} else if ok {
		engine.Restore(snap)
		logger.Info("restored index snapshot", "users", len(snap.Users), "buckets", len(snap.Buckets))
	}

	auth, err := svcauth.New(svcauth.Config{Secret: cfg.ServiceAuth.Secret, Issuer: cfg.ServiceAuth.Issuer, TokenTTL: cfg.ServiceAuth.TokenTTL})
	if err != nil {
		return fmt.Errorf("init service auth: %w", err)
	}

	for _, b := range cfg.Index.Buckets {
		bucketID, err := ids.ParseBucketId(b.ID)
		if err != nil {
			return fmt.Errorf("parse bucket id %q: %w", b.ID, err)
		}
		engine.RegisterBucket(bucketID, b.DataLimitBytes)
	}

	handler := httpapi.NewIndexHandler(engine, auth)
	router := httpapi.NewIndexRouter(handler)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("index server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	for _, b := range cfg.Index.Buckets {
		bucketID, err := ids.ParseBucketId(b.ID)
		if err != nil {
			return fmt.Errorf("parse bucket id %q: %w", b.ID, err)
		}
		token, err := auth.IssueToken(svcauth.Principal(cfg.ServiceAuth.Principal), "index")
		if err != nil {
			return fmt.Errorf("issue index identity token for bucket %s: %w", b.ID, err)
		}
		pusher := httpapi.NewBucketSyncClient(b.BaseURL, token)
		source := reconcile.Source[reconcile.IndexEvent]{
			Drain:   func(maxBatch int) ([]reconcile.IndexEvent, bool) { return engine.DrainOutbox(bucketID, maxBatch) },
			Ack:     func() { engine.AckOutbox(bucketID) },
			Requeue: func() { engine.RequeueOutbox(bucketID) },
		}
		group.Go(func() error {
			return reconcile.RunSourceLoop(gctx, source, pusher.Push, cfg.Reconcile.Interval, cfg.Reconcile.MaxBatchSize)
		})
	}

	group.Go(func() error {
		return runSnapshotLoop(gctx, engine, store, cfg.Index.Persistence.SnapshotInterval)
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		logger.Info("shutdown signal received")
	case <-gctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", logger.Err(err))
	}
	if err := store.Save(shutdownCtx, engine.Snapshot()); err != nil {
		logger.Error("final index snapshot save error", logger.Err(err))
	}
	cancel()

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newIndexStore picks the durable backend named by cfg.Type, defaulting to
// an in-process store that only survives as long as this run.
func newIndexStore(cfg config.PersistenceConfig) (indexstore.Store, error) {
	switch cfg.Type {
	case "", "memory":
		return indexstorememory.New(), nil
	case "postgres":
		return indexstorepostgres.Open(indexstorepostgres.Config{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
			MigrationsPath:  cfg.Postgres.MigrationsPath,
		})
	default:
		return nil, fmt.Errorf("unknown index persistence type %q", cfg.Type)
	}
}

// runSnapshotLoop periodically checkpoints the engine's state so a restart
// can resume from the last interval instead of an empty index.
func runSnapshotLoop(ctx context.Context, engine *index.Engine, store indexstore.Store, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := store.Save(ctx, engine.Snapshot()); err != nil {
				logger.Error("periodic index snapshot save error", logger.Err(err))
			}
		}
	}
}
