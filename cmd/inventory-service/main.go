package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gluglu/gluglu-backend/internal/inventory/events"
	"github.com/gluglu/gluglu-backend/internal/inventory/handler"
	"github.com/gluglu/gluglu-backend/internal/inventory/repository"
	"github.com/gluglu/gluglu-backend/internal/inventory/service"
	"github.com/gluglu/gluglu-backend/pkg/config"
	"github.com/gluglu/gluglu-backend/pkg/database"
	"github.com/gluglu/gluglu-backend/pkg/httputil"
	"github.com/gluglu/gluglu-backend/pkg/logger"
	"github.com/gluglu/gluglu-backend/pkg/messaging"
	"github.com/gluglu/gluglu-backend/pkg/metrics"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("inventory-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("inventory-service", cfg.Server.Environment)
	log.Info().Msg("starting Inventory Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewInventoryEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	itemRepo := repository.NewItemRepository(db)
	lotRepo := repository.NewLotRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	stockRepo := repository.NewStockRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	batchRepo := repository.NewBatchRepository(db)

	// Initialize services
	inventoryService := service.NewInventoryService(db, itemRepo, lotRepo, movementRepo, publisher, log)
	ledgerService := service.NewLedgerService(db, movementRepo, itemRepo, shiftRepo, publisher, log)
	stockService := service.NewStockService(stockRepo, itemRepo)
	shiftService := service.NewShiftService(shiftRepo, log)
	productionService := service.NewProductionService(
		db, batchRepo, movementRepo, itemRepo, lotRepo, shiftRepo,
		publisher, cfg.Database.TxTimeout, log,
	)
	scanner := service.NewAlertScanner(stockRepo, publisher, log)

	if cfg.Alerts.Enabled {
		if err := scanner.Start(cfg.Alerts.CronSpec); err != nil {
			log.Fatal().Err(err).Msg("failed to start low stock scanner")
		}
		defer scanner.Stop()
	}

	// Initialize handlers
	itemHandler := handler.NewItemHandler(inventoryService, log)
	lotHandler := handler.NewLotHandler(inventoryService, log)
	movementHandler := handler.NewMovementHandler(ledgerService, log)
	stockHandler := handler.NewStockHandler(stockService, log)
	shiftHandler := handler.NewShiftHandler(shiftService, log)
	productionHandler := handler.NewProductionHandler(productionService, log)
	exportHandler := handler.NewExportHandler(ledgerService, log)
	alertHandler := handler.NewAlertHandler(scanner, log)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "inventory-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Catalog routes
		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandler.List)
			r.Post("/", itemHandler.Create)
			r.Get("/{id}", itemHandler.Get)
			r.Put("/{id}", itemHandler.Update)
			r.Delete("/{id}", itemHandler.Deactivate)
			r.Get("/{id}/lots", lotHandler.ListByItem)
			r.Post("/{id}/lots", lotHandler.Create)
			r.Get("/{id}/stock", stockHandler.ItemStock)
		})

		// Lot routes
		r.Route("/lots", func(r chi.Router) {
			r.Get("/{id}", lotHandler.Get)
			r.Patch("/{id}", lotHandler.Update)
		})

		// Ledger routes
		r.Route("/movements", func(r chi.Router) {
			r.Get("/", movementHandler.List)
			r.Post("/", movementHandler.Create)
			r.Get("/ledger", movementHandler.Ledger)
			r.Get("/export", exportHandler.ExportLedgerCSV)
			r.Get("/{id}", movementHandler.Get)
		})

		// Stock projection routes
		r.Route("/stock", func(r chi.Router) {
			r.Get("/", stockHandler.Totals)
			r.Get("/low", stockHandler.Low)
		})

		// Shift routes
		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", shiftHandler.List)
			r.Post("/", shiftHandler.Open)
			r.Get("/current", shiftHandler.Current)
			r.Get("/{id}", shiftHandler.Get)
			r.Post("/{id}/close", shiftHandler.Close)
		})

		// Production routes
		r.Route("/production/batches", func(r chi.Router) {
			r.Get("/", productionHandler.List)
			r.Post("/", productionHandler.Create)
			r.Get("/{id}", productionHandler.Get)
		})

		// Alert routes
		r.Post("/alerts/scan", alertHandler.Scan)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
