package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"clarity/internal/kv"
	"clarity/internal/platform/config"
	"clarity/internal/platform/httpserver"
	"clarity/internal/platform/logger"
	platformmetrics "clarity/internal/platform/metrics"
	platformredis "clarity/internal/platform/redis"
	"clarity/internal/process/handler"
	"clarity/internal/process/metrics"
	"clarity/internal/process/service"
	"clarity/internal/process/store"
	"clarity/internal/process/workflow"
	"clarity/pkg/platform/httputil"
	"clarity/pkg/platform/middleware/requestid"
	"clarity/pkg/platform/middleware/requesttime"
)

// main wires configuration, storage and the HTTP surface. Business logic
// lives in the internal/process packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}
	flagSet := pflag.NewFlagSet("clarity", pflag.ContinueOnError)
	cfg.AddFlags(flagSet)
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := platformmetrics.NewRegistry()
	processMetrics := metrics.New(reg)

	backend, health, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	persister, err := store.New(backend,
		store.WithKey(cfg.Storage.Key),
		store.WithLogger(log),
		store.WithMetrics(processMetrics),
	)
	if err != nil {
		return err
	}

	var templates *workflow.Templates
	if cfg.TemplatesFile != "" {
		templates, err = workflow.LoadTemplatesFile(cfg.TemplatesFile)
		if err != nil {
			return fmt.Errorf("load workflow templates: %w", err)
		}
		log.Info("workflow templates loaded", "path", cfg.TemplatesFile, "types", templates.Types())
	}

	svc, err := service.New(persister,
		service.WithLogger(log),
		service.WithMetrics(processMetrics),
		service.WithTemplates(templates),
		service.WithDataExpiryDays(cfg.DataExpiryDays),
	)
	if err != nil {
		return err
	}
	restored := svc.Load(ctx)
	log.Info("process store loaded", "backend", cfg.Storage.Backend, "processes", restored)

	router := chi.NewRouter()
	router.Use(requestid.Middleware, requesttime.Middleware)
	router.Get("/healthz", healthHandler(health))
	router.Method(http.MethodGet, "/metrics", platformmetrics.Handler(reg))
	handler.New(svc, log).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return persister.Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting clarity", "addr", cfg.Server.Addr)
		return httpserver.Serve(gctx, srv, cfg.Server.ShutdownTimeout)
	})
	return g.Wait()
}

// openBackend returns the byte store for cfg plus its health probe and a
// release function.
func openBackend(ctx context.Context, cfg config.Config) (kv.Store, func(context.Context) error, func(), error) {
	ok := func(context.Context) error { return nil }
	noop := func() {}

	switch cfg.Storage.Backend {
	case config.BackendFile:
		fs, err := kv.NewFileStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open file store: %w", err)
		}
		return fs, ok, noop, nil
	case config.BackendRedis:
		client, err := platformredis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		return kv.NewRedisStore(client, "clarity:"), client.Health, func() { _ = client.Close() }, nil
	case config.BackendPostgres:
		db, err := kv.OpenPostgres(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		pg := kv.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("ensure kv schema: %w", err)
		}
		return pg, db.PingContext, func() { _ = db.Close() }, nil
	case config.BackendS3:
		bucket, err := kv.OpenS3(ctx, kv.S3Config{
			Bucket:   cfg.Storage.S3.Bucket,
			Region:   cfg.Storage.S3.Region,
			Endpoint: cfg.Storage.S3.Endpoint,
			Prefix:   cfg.Storage.S3.Prefix,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return bucket, ok, noop, nil
	default:
		return kv.NewInMemory(), ok, noop, nil
	}
}

func healthHandler(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := check(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
