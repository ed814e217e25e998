// Command coldvault-bucket runs one bucket storage shard: chunked blob
// ingest, content-addressed dedup, and reconciliation with the index.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/coldvault/core/internal/logger"
	"github.com/coldvault/core/internal/telemetry"
	"github.com/coldvault/core/pkg/bucketstore"
	badgerbackend "github.com/coldvault/core/pkg/bucketstore/store/badger"
	memorybackend "github.com/coldvault/core/pkg/bucketstore/store/memory"
	s3backend "github.com/coldvault/core/pkg/bucketstore/store/s3"
	"github.com/coldvault/core/pkg/config"
	"github.com/coldvault/core/pkg/metrics"
	"github.com/coldvault/core/pkg/reconcile"
	"github.com/coldvault/core/pkg/transport/httpapi"
	"github.com/coldvault/core/pkg/transport/svcauth"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

var (
	version    = "dev"
	configFile string
)

func main() {
	root := &cobra.Command{
		Use:   "coldvault-bucket",
		Short: "Run a coldvault bucket storage shard",
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
		Enabled: cfg.Telemetry.Enabled, ServiceName: "coldvault-bucket", ServiceVersion: version,
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
	bucketMetrics := metrics.NewBucketMetrics()

	backend, err := newBlobBackend(ctx, cfg.Bucket.Backend)
	if err != nil {
		return fmt.Errorf("create blob backend: %w", err)
	}

	store := bucketstore.NewStore(bucketstore.SystemEnvironment{}, backend, bucketstore.Config{
		MaxBlobSizeBytes: cfg.Bucket.MaxBlobSizeBytes,
		DataLimitBytes:   cfg.Bucket.DataLimitBytes,
	}, bucketMetrics)

	auth, err := svcauth.New(svcauth.Config{Secret: cfg.ServiceAuth.Secret, Issuer: cfg.ServiceAuth.Issuer, TokenTTL: cfg.ServiceAuth.TokenTTL})
	if err != nil {
		return fmt.Errorf("init service auth: %w", err)
	}

	handler := httpapi.NewBucketHandler(store, auth, svcauth.Principal(cfg.Bucket.IndexPrincipal))
	router := httpapi.NewBucketRouter(handler)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("bucket server listening", "addr", cfg.HTTPAddr, "bucket_id", cfg.Bucket.ID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	if cfg.Bucket.IndexBaseURL != "" {
		token, err := auth.IssueToken(svcauth.Principal(cfg.Bucket.ID), "bucket")
		if err != nil {
			return fmt.Errorf("issue bucket identity token: %w", err)
		}
		pusher := httpapi.NewIndexSyncClient(cfg.Bucket.IndexBaseURL, token)
		source := reconcile.Source[bucketstore.BlobEvent]{
			Drain:   store.DrainOutbox,
			Ack:     store.AckOutbox,
			Requeue: store.RequeueOutbox,
		}
		group.Go(func() error {
			return reconcile.RunSourceLoop(gctx, source, pusher.Push, cfg.Reconcile.Interval, cfg.Reconcile.MaxBatchSize)
		})
	}

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
	cancel()

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newBlobBackend(ctx context.Context, cfg config.BackendConfig) (bucketstore.BlobBackend, error) {
	switch cfg.Type {
	case "", "memory":
		return memorybackend.New(), nil
	case "badger":
		return badgerbackend.Open(cfg.Badger.Dir)
	case "s3":
		opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3.Region)}
		if cfg.S3.AccessKeyID != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, ""),
			))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3.Endpoint != "" {
				o.BaseEndpoint = &cfg.S3.Endpoint
				o.UsePathStyle = true
			}
		})
		return s3backend.New(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown backend type %q", cfg.Type)
	}
}
