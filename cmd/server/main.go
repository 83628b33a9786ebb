package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/logistics-erp/backend/internal/application/billing"
	ledgerapp "github.com/logistics-erp/backend/internal/application/ledger"
	"github.com/logistics-erp/backend/internal/infrastructure/config"
	"github.com/logistics-erp/backend/internal/infrastructure/event"
	"github.com/logistics-erp/backend/internal/infrastructure/logger"
	"github.com/logistics-erp/backend/internal/infrastructure/persistence"
	"github.com/logistics-erp/backend/internal/interfaces/http/handler"
	"github.com/logistics-erp/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const gormSlowThreshold = 200 * time.Millisecond

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting billing backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), gormSlowThreshold)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	ruleRepo := persistence.NewGormRuleRepository(db.DB)
	recordRepo := persistence.NewGormPerformanceRecordRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	documentRepo := persistence.NewGormLedgerDocumentRepository(db.DB)
	sequenceRepo := persistence.NewGormSequenceRepository(db.DB)
	taskRepo := persistence.NewGormReconciliationTaskRepository(db.DB)
	orderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)

	txManager := persistence.NewGormTransactionManager(db.DB)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Initialize application services
	invoiceService := billingapp.NewInvoiceService(
		invoiceRepo,
		ruleRepo,
		recordRepo,
		sequenceRepo,
		txManager,
		eventBus,
		cfg.Billing.TaxRate,
		cfg.Billing.PaymentTermsDays,
		log,
	)
	paymentService := ledgerapp.NewPaymentService(documentRepo, eventBus, log)
	autoCreateService := ledgerapp.NewAutoCreateService(
		documentRepo,
		sequenceRepo,
		taskRepo,
		orderRepo,
		invoiceRepo,
		eventBus,
		log,
	)

	// Ledger documents follow the source documents: approvals create them,
	// cancellations cascade into them.
	eventBus.Subscribe(ledgerapp.NewPurchaseOrderApprovedHandler(autoCreateService, log))
	eventBus.Subscribe(ledgerapp.NewInvoiceApprovedHandler(autoCreateService, log))
	eventBus.Subscribe(ledgerapp.NewSourceCancelledHandler(paymentService, log))

	// Initialize HTTP layer
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.NewEngine(log)
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	ledgerHandler := handler.NewLedgerHandler(paymentService, autoCreateService)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(invoiceHandler).
		Register(ledgerHandler).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports liveness of the process and its database connection.
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
