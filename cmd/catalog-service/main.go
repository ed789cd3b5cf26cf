package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/affiliate-catalog/internal/config"
	httpAPI "github.com/iyhunko/affiliate-catalog/internal/http"
	"github.com/iyhunko/affiliate-catalog/internal/http/controller"
	"github.com/iyhunko/affiliate-catalog/internal/logger"
	"github.com/iyhunko/affiliate-catalog/internal/metadata"
	"github.com/iyhunko/affiliate-catalog/internal/metrics"
	"github.com/iyhunko/affiliate-catalog/internal/service"
	sqspkg "github.com/iyhunko/affiliate-catalog/internal/sqs"
	"github.com/iyhunko/affiliate-catalog/internal/store"
)

const notificationBufferSize = 64

func main() {
	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	logger.InitJSONLogger(conf.DebugMode)
	if !conf.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalogStore, err := store.NewGitHubStore(conf.GitHub, conf.OutboundTimeout)
	handleErr("creating catalog store", err)
	if !catalogStore.CanWrite() {
		slog.Warn("GITHUB_TOKEN is not set, catalog writes will be refused")
	}
	if conf.AdminPassword == "" {
		slog.Warn("ADMIN_PASSWORD is not set, catalog writes will be refused")
	}

	var notifier service.Notifier
	var worker *service.NotificationWorker
	if conf.AWS.NotificationsEnabled() {
		sqsClient, err := sqspkg.NewClient(ctx, conf.AWS.Region, conf.AWS.Endpoint)
		handleErr("creating SQS client", err)
		worker = service.NewNotificationWorker(sqspkg.NewPublisher(sqsClient, conf.AWS.SQSQueueURL), notificationBufferSize)
		go worker.Start(ctx)
		notifier = worker
	}

	catalogService := service.NewCatalogService(catalogStore, metadata.NewFetcher(conf.OutboundTimeout), notifier, conf.AdminPassword)

	ctr := controller.New()
	catalogCtr := controller.NewCatalogController(catalogService)
	engine := httpAPI.InitRouter(gin.New(), ctr, catalogCtr)

	httpServer := &http.Server{
		Addr:              ":" + conf.HTTPServer.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2*conf.OutboundTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		slog.Info("HTTP server starting", slog.String("port", conf.HTTPServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			handleErr("listening to HTTP requests", err)
		}
	}()

	metricsServer := metrics.StartMetricsServer(conf)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	slog.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", slog.Any("err", err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Metrics server shutdown failed", slog.Any("err", err))
	}
	if worker != nil {
		worker.Stop()
	}
}

func handleErr(msg string, err error) {
	if err != nil {
		slog.Error("error while "+msg, slog.Any("err", err))
		os.Exit(1)
	}
}
