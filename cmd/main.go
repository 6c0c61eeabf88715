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

	"github.com/portfolio-tracker/config"
	"github.com/portfolio-tracker/data"
	"github.com/portfolio-tracker/data/cache"
	"github.com/portfolio-tracker/data/repository/postgres"
	"github.com/portfolio-tracker/internal/externalApi/bcraApi"
	"github.com/portfolio-tracker/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/portfolio-tracker/internal/externalApi/cryptoPriceApi"
	"github.com/portfolio-tracker/internal/externalApi/ppiApi"
	"github.com/portfolio-tracker/internal/reportGenerator/xlsxGenerator"
	"github.com/portfolio-tracker/internal/scheduler"
	"github.com/portfolio-tracker/internal/service/ledger"
	"github.com/portfolio-tracker/internal/service/marketdata"
	transportHttp "github.com/portfolio-tracker/internal/transport/http"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)

	// Provider order matters: the first provider claiming a code wins,
	// so crypto coins must be checked before the catch-all ticker provider.
	marketDataSrv := marketdata.New(
		redisCache,
		cryptoPriceApi.New(cfg),
		bcraApi.New(cfg),
		ppiApi.New(cfg),
	)

	reportGenerator := xlsxGenerator.New()

	googleCloudStorage := googleDriveApi.New(ctx, cfg)

	ledgerSrv := ledger.New(pgRepo, marketDataSrv, reportGenerator, googleCloudStorage)

	sched := scheduler.New()
	sched.NewIntervalJob("refresh prices", ledgerSrv.RefreshPrices, cfg.Jobs.RefreshPricesInterval, false)
	sched.NewIntervalJob("cleanup drive reports", googleCloudStorage.DeleteOldFiles, cfg.Jobs.DriveCleanupInterval, false)
	sched.Start()
	defer sched.Stop()

	ctrl := transportHttp.NewController(ledgerSrv, marketDataSrv)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPServer.Port),
		Handler:      transportHttp.NewRouter(ctrl),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	go func() {
		slog.Info("http server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", slog.String("err", err.Error()))
			cancel()
		}
	}()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-interrupt:
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", slog.String("err", err.Error()))
	}
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
