package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/medimage-analyzer/internal/application"
	appanalysis "github.com/bryanwahyu/medimage-analyzer/internal/application/analysis"
	appreports "github.com/bryanwahyu/medimage-analyzer/internal/application/reports"
	"github.com/bryanwahyu/medimage-analyzer/internal/config"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/reports"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/ai/provider"
	mysqlp "github.com/bryanwahyu/medimage-analyzer/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/medimage-analyzer/internal/infra/db/postgres"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/httpserver"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/imaging"
	minioStore "github.com/bryanwahyu/medimage-analyzer/internal/infra/storage"
	"github.com/bryanwahyu/medimage-analyzer/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("config load error", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx := context.Background()

	// init model client + normalizer
	client := provider.New(cfg.Model, logger)
	normalizer := imaging.New(cfg.Imaging.Size, cfg.Imaging.JPEGQuality, cfg.MaxUploadBytes())

	// init service
	svc := &appanalysis.Service{
		Client:     client,
		Normalizer: normalizer,
		Clock:      application.SystemClock{},
		Logger:     logger,
	}

	checkers := map[string]middleware.HealthChecker{}

	// arsip report opsional (database + minio)
	var archive httpserver.Archive
	if cfg.ArchiveEnabled() {
		db, repo, err := openRepository(ctx, cfg)
		if err != nil {
			logger.Error("database init error", "driver", cfg.Database.Driver, "error", err)
			os.Exit(1)
		}
		defer db.Close()

		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Error("minio init error", "error", err)
			os.Exit(1)
		}

		archive = &appreports.Service{Repo: repo, Store: store, Clock: application.SystemClock{}}
		checkers["database"] = middleware.PingChecker{Target: repo}
		checkers["storage"] = middleware.PingChecker{Target: store}
		logger.Info("report archive enabled", "driver", cfg.Database.Driver, "bucket", cfg.Minio.BucketName)
	}

	// per-client HTTP rate limit
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	stopSweeper := make(chan struct{})
	go limiter.RunSweeper(time.Minute, stopSweeper)
	defer close(stopSweeper)

	// init router
	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(svc, archive, httpserver.Options{
		Logger:         logger,
		APIKeys:        middleware.KeysFromList(cfg.Auth.APIKeys),
		RateLimiter:    limiter,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Health:         middleware.HealthHandler(client.Name(), checkers),
		DownloadKey:    []byte(cfg.Server.DownloadSecret),
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server listening", "addr", addr, "model", client.Name())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// openRepository connects the configured driver and creates the index table.
func openRepository(ctx context.Context, cfg *config.Config) (*sql.DB, reports.Repository, error) {
	var (
		db   *sql.DB
		repo reports.Repository
		err  error
	)
	switch cfg.Database.Driver {
	case "postgres":
		if db, err = postgresp.Connect(ctx, cfg.PostgresDSN()); err != nil {
			return nil, nil, err
		}
		repo = postgresp.NewReportRepository(db)
	default:
		if db, err = mysqlp.Connect(ctx, cfg.MySQLDSN()); err != nil {
			return nil, nil, err
		}
		repo = mysqlp.NewReportRepository(db)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, repo, nil
}
