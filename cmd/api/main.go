package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"dossierapi/internal/auth"
	"dossierapi/internal/config"
	"dossierapi/internal/database"
	"dossierapi/internal/database/migration"
	handlers "dossierapi/internal/http/handler"
	"dossierapi/internal/http/middleware"
	"dossierapi/internal/otel"
	"dossierapi/internal/repository/postgres"
	"dossierapi/internal/service"
	"dossierapi/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Visa Dossier API
// @version 1.0
// @description Visa application dossiers with a status lifecycle and multi-file document uploads.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server stopped", "error", err.Error())
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	loc := cfg.Location()
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Error("tracer shutdown failed", "error", err.Error())
		}
	}()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
		return err
	}

	objects, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return err
	}

	metrics, err := service.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	store := postgres.NewStore(db)
	clock := service.Clock{Location: loc}
	limits := service.UploadLimits{MaxFiles: cfg.Upload.MaxFiles, MaxFileBytes: cfg.Upload.MaxFileBytes}

	authSvc := service.NewAuthService(store, auth.NewHasher(),
		auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL), clock, logger)
	dossierSvc := service.NewDossierService(store, objects, metrics, clock, logger)
	documentSvc := service.NewDocumentService(store, objects, limits, clock, logger)

	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.Upload.BodyLimitBytes,
		ErrorHandler: handlers.ErrorHandler(),
	})

	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || c.Path() == "/healthz"
	})))
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(loc))
	app.Use(httpMetrics.Handler())

	handlers.RegisterRoutes(app, handlers.Dependencies{
		DB:        db,
		Storage:   objects,
		Gatherer:  prometheus.DefaultGatherer,
		Auth:      authSvc,
		Dossiers:  dossierSvc,
		Documents: documentSvc,
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", ":"+cfg.Port, "app_host", cfg.AppHost, "timezone", loc.String())
		serveErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(sctx)
}
