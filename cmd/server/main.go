package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storya/config"
	"storya/internal/database"
	"storya/internal/router"
	"storya/internal/scheduler"
	"storya/pkg/cloudinary"
	"storya/pkg/payment"
	"storya/pkg/verify"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.Server.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}
	database.Seed(db, cfg)

	cloud, err := cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	if err != nil {
		logger.Fatal("cloudinary init failed", zap.Error(err))
	}

	var provider payment.Provider
	if cfg.Payment.BaseURL != "" {
		provider = payment.NewGatewayProvider(cfg.Payment.BaseURL, cfg.Payment.APIKey)
	} else {
		logger.Warn("no payment gateway configured, using stub provider")
		provider = &payment.StubProvider{}
	}

	engine, services := router.Setup(cfg, db, cloud, provider, verify.StubVerifier{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler.New(&cfg.Ledger, services.Refund, services.Trust, logger).Start(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
