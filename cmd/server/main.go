package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mesikahq/patient-dashboard/internal/api"
	"github.com/mesikahq/patient-dashboard/internal/audit"
	"github.com/mesikahq/patient-dashboard/internal/config"
	"github.com/mesikahq/patient-dashboard/internal/dashboard"
	"github.com/mesikahq/patient-dashboard/internal/patient"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Error loading .env file: %v", err)
	}

	cfg, err := config.Load(os.Getenv("DASHBOARD_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.Server.Mode)

	ctx := context.Background()

	sink, err := audit.OpenSink(ctx, cfg.Audit)
	if err != nil {
		logger.Fatal("Failed to open audit sink", zap.String("sink", cfg.Audit.Sink), zap.Error(err))
	}
	auditService := audit.NewService(sink)
	defer func() {
		if err := auditService.Close(context.Background()); err != nil {
			logger.Warn("Failed to close audit sink", zap.Error(err))
		}
	}()

	policy, err := patient.ParseOrderPolicy(cfg.Ingest.OrderPolicy)
	if err != nil {
		logger.Fatal("Invalid ingest policy", zap.Error(err))
	}
	client := patient.NewClient(patient.ClientConfig{
		Endpoint:    cfg.Upstream.Endpoint,
		Username:    cfg.Upstream.Username,
		Password:    cfg.Upstream.Password,
		Timeout:     cfg.Upstream.Timeout,
		OrderPolicy: policy,
	}, logger)

	// One fetch per process. On failure the dashboard stays empty and the
	// server starts anyway.
	records, err := dashboard.LoadRecords(ctx, client, auditService, "server", logger)
	loaded := err == nil

	handler, err := api.NewHandler(records, loaded, auditService, logger, cfg.Assets.DefaultImage)
	if err != nil {
		logger.Fatal("Failed to initialize handler", zap.Error(err))
	}

	router := api.NewRouter(handler, cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
	engine := router.SetupRouter(logger)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	go func() {
		logger.Info("Starting server",
			zap.String("addr", srv.Addr),
			zap.Bool("tls", cfg.Server.TLS.Enabled),
			zap.Int("patients", len(records)),
		)
		var err error
		if cfg.Server.TLS.Enabled {
			err = srv.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
