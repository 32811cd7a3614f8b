package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sharingapp "github.com/erp/supply-portal/internal/application/sharing"
	"github.com/erp/supply-portal/internal/domain/sharing"
	"github.com/erp/supply-portal/internal/infrastructure/audit"
	"github.com/erp/supply-portal/internal/infrastructure/cache"
	"github.com/erp/supply-portal/internal/infrastructure/config"
	"github.com/erp/supply-portal/internal/infrastructure/logger"
	"github.com/erp/supply-portal/internal/infrastructure/persistence"
	"github.com/erp/supply-portal/internal/interfaces/http/handler"
	"github.com/erp/supply-portal/internal/interfaces/http/middleware"
	"github.com/erp/supply-portal/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Supply Portal",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with SQL logging routed through zap
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Verification attempt limiter: Redis when reachable, in-memory otherwise
	var attemptLimiter sharing.VerifyAttemptLimiter
	if cfg.Share.VerifyRateLimiting {
		factory := cache.NewAttemptLimiterFactory(
			cfg.Redis,
			cfg.Share.VerifyRateLimit,
			cfg.Share.VerifyRateWindow,
			cache.WithLogger(log),
		)
		attemptLimiter, err = factory.CreateLimiter()
		if err != nil {
			log.Fatal("Failed to create verify attempt limiter", zap.Error(err))
		}
		defer func() {
			if closer, ok := attemptLimiter.(io.Closer); ok {
				_ = closer.Close()
			}
		}()
	} else {
		log.Warn("Verification rate limiting is disabled")
	}

	// Async audit trail
	auditLogger := audit.NewZapAuditLogger(log, cfg.Audit.BufferSize)
	defer auditLogger.Close()

	// Repositories
	shareLinkRepo := persistence.NewGormShareLinkRepository(db.DB)
	supplyRecordRepo := persistence.NewGormSupplyRecordRepository(db.DB)
	purchaseOrderRepo := persistence.NewGormPurchaseOrderReader(db.DB)
	txScope := persistence.NewGormSharingTransactionScope(db.DB)

	// Application services
	accessService := sharingapp.NewAccessService(shareLinkRepo, sharing.SystemClock{}, attemptLimiter, log)
	shareLinkService := sharingapp.NewShareLinkService(shareLinkRepo, purchaseOrderRepo, auditLogger, log)
	shareLinkService.SetCodeLength(cfg.Share.CodeLength)
	shareLinkService.SetDefaultExpiry(cfg.Share.DefaultExpiry)
	supplyRecordService := sharingapp.NewSupplyRecordService(txScope, accessService, supplyRecordRepo, auditLogger, log)
	supplyRecordService.SetSubmitTimeout(cfg.Share.SubmitTimeout)

	// Handlers
	portalHandler := handler.NewPortalHandler(accessService, supplyRecordService)
	shareAdminHandler := handler.NewShareAdminHandler(shareLinkService, supplyRecordService)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, in order: request ID, panic recovery, request
	// logging, security headers, CORS, body limit, IP rate limit.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Public supplier portal
	portalRoutes := router.NewDomainGroup("portal", "/portal")
	shareRoutes := portalRoutes.Group("share", "/share/:code")
	shareRoutes.POST("/verify", portalHandler.Verify)
	shareRoutes.GET("/order", portalHandler.GetOrder)
	shareRoutes.GET("/records", portalHandler.ListRecords)
	shareRoutes.GET("/records/:id", portalHandler.GetRecord)
	shareRoutes.POST("/records", portalHandler.CreateRecord)
	shareRoutes.PUT("/records/:id", portalHandler.UpdateRecord)
	r.Register(portalRoutes)

	// Staff share-link administration; staff authentication is enforced by
	// the gateway in front of this service.
	tradeRoutes := router.NewDomainGroup("trade", "/trade")
	adminRoutes := tradeRoutes.Group("share", "/purchase-orders/:id/share")
	adminRoutes.POST("", shareAdminHandler.CreateShareLink)
	adminRoutes.PUT("", shareAdminHandler.ConfigureShareLink)
	adminRoutes.DELETE("", shareAdminHandler.DisableShareLink)
	adminRoutes.GET("", shareAdminHandler.GetShareLink)
	adminRoutes.PUT("/records/:recordId/disable", shareAdminHandler.DisableSupplyRecord)
	r.Register(tradeRoutes)

	r.Setup()

	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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

// healthHandler reports liveness of the service and its database
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
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
