package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/007AHA007/Inventory/internal/config"
	eventsrabbit "github.com/007AHA007/Inventory/internal/events/rabbitmq"
	"github.com/007AHA007/Inventory/internal/metrics"
	"github.com/007AHA007/Inventory/internal/repository/mongodb"
	"github.com/007AHA007/Inventory/internal/repository/sheets"
	"github.com/007AHA007/Inventory/internal/scheduler"
	"github.com/007AHA007/Inventory/internal/server/handlers"
	"github.com/007AHA007/Inventory/internal/server/router"
	fulfillmentsvc "github.com/007AHA007/Inventory/internal/service/fulfillment"
	inventorysvc "github.com/007AHA007/Inventory/internal/service/inventory"
	reportingsvc "github.com/007AHA007/Inventory/internal/service/reporting"
	"github.com/007AHA007/Inventory/pkg/clients/alert"
	"github.com/007AHA007/Inventory/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)
	metrics.Register()

	store, err := mongodb.NewStore(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	if err := store.EnsureIndexes(context.Background()); err != nil {
		baseLogger.Fatal("failed to ensure indexes", zap.Error(err))
	}

	var invOpts []inventorysvc.Option
	if cfg.Alerts.WebhookURL != "" {
		invOpts = append(invOpts, inventorysvc.WithLowStockAlerts(alert.NewWebhookClient(cfg.Alerts), cfg.Alerts.LowStockThreshold))
		baseLogger.Info("low-stock alerts enabled", zap.Int("threshold", cfg.Alerts.LowStockThreshold))
	} else {
		baseLogger.Warn("low-stock webhook not configured, alerts disabled")
	}

	if cfg.Events.AMQPURL != "" {
		conn, ch, err := eventsrabbit.SetupConn(cfg.Events.AMQPURL, cfg.Events.Exchange, baseLogger.Named("events.rabbitmq"))
		if err != nil {
			baseLogger.Fatal("failed to init rabbitmq publisher", zap.Error(err))
		}
		defer func() {
			_ = ch.Close()
			_ = conn.Close()
		}()
		invOpts = append(invOpts, inventorysvc.WithMovementPublisher(eventsrabbit.NewPublisher(ch, cfg.Events.Exchange)))
		baseLogger.Info("movement event publishing enabled", zap.String("exchange", cfg.Events.Exchange))
	} else {
		baseLogger.Warn("amqp url not configured, movement events disabled")
	}

	inventoryService := inventorysvc.NewService(store, store.Audit(), baseLogger.Named("svc.inventory"), invOpts...)
	fulfillmentService := fulfillmentsvc.NewService(inventoryService, baseLogger.Named("svc.fulfillment"))

	var exporter sheets.Exporter
	if cfg.Sheets.SpreadsheetID != "" {
		exporter, err = sheets.NewGoogleSheetExporter(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
	} else {
		baseLogger.Warn("sheets ledger not configured, snapshot export disabled")
	}
	reportingService := reportingsvc.NewService(store.Audit(), exporter, baseLogger.Named("svc.reporting"))

	inventoryHandler := handlers.NewInventoryHandler(inventoryService, baseLogger.Named("handlers.inventory"))
	orderHandler := handlers.NewOrderHandler(fulfillmentService, baseLogger.Named("handlers.orders"))
	engine := router.New(inventoryHandler, orderHandler, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(*cfg, reportingService, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
