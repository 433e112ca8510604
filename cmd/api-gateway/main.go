package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	_ "github.com/noah-isme/uniattend-api/api/swagger"
	"github.com/noah-isme/uniattend-api/internal/repository"
	"github.com/noah-isme/uniattend-api/internal/router"
	"github.com/noah-isme/uniattend-api/internal/service"
	"github.com/noah-isme/uniattend-api/pkg/cache"
	"github.com/noah-isme/uniattend-api/pkg/config"
	"github.com/noah-isme/uniattend-api/pkg/database"
	"github.com/noah-isme/uniattend-api/pkg/logger"
)

// @title UniAttend API
// @version 1.0.0
// @description University attendance tracking for admins, faculty and students
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logr); err != nil {
		logr.Error("server stopped", zap.Error(err))
		_ = logr.Sync()
		os.Exit(1)
	}
	_ = logr.Sync()
}

// run serves until a signal or a fatal error. Storage is released on every
// return path.
func run(cfg *config.Config, logr *zap.Logger) error {
	ctx := context.Background()
	metrics := service.NewMetricsService()

	slots, closeSlots, err := openSlots(ctx, cfg, logr)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	defer closeSlots()

	store := repository.NewEntityStore(repository.Observe(slots, metrics), logr)
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("load collections: %w", err)
	}

	validate := validator.New()
	deps := router.Dependencies{
		Auth: service.NewAuthService(store, metrics, validate, logr, service.AuthConfig{
			Secret: cfg.JWT.Secret,
			Expiry: cfg.JWT.Expiration,
			Issuer: cfg.JWT.Issuer,
		}),
		Students:   service.NewStudentService(store, validate, logr),
		Subjects:   service.NewSubjectService(store, validate, logr),
		Attendance: service.NewAttendanceService(store, metrics, validate, logr),
		Dashboard:  service.NewDashboardService(store, logr),
		Exports:    service.NewExportService(store, logr, nil, nil),
		Metrics:    metrics,
		Ready: func(ctx context.Context) error {
			_, _, err := slots.Read(ctx, repository.KeyStudents)
			return err
		},
		Logger: logr,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router.New(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	logr.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced shutdown", zap.Error(err))
	}
	return nil
}

var openSlots = openSlotStore

// openSlotStore connects the configured backend. The returned func releases it.
func openSlotStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (repository.SlotStore, func(), error) {
	noop := func() {}
	switch cfg.Storage.Driver {
	case config.StorageFile:
		store, err := repository.NewFileSlotStore(afero.NewOsFs(), cfg.Storage.Dir)
		if err != nil {
			return nil, noop, err
		}
		logr.Info("using file storage", zap.String("dir", cfg.Storage.Dir))
		return store, noop, nil
	case config.StorageRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		logr.Info("using redis storage", zap.String("host", cfg.Redis.Host), zap.String("prefix", cfg.Storage.KeyPrefix))
		return repository.NewRedisSlotStore(client, cfg.Storage.KeyPrefix), func() { _ = client.Close() }, nil
	case config.StoragePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		store := repository.NewPostgresSlotStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		logr.Info("using postgres storage", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.Name))
		return store, func() { _ = db.Close() }, nil
	default:
		logr.Warn("using in-memory storage; data is lost on restart")
		return repository.NewMemorySlotStore(), noop, nil
	}
}
