package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	analyticsapp "github.com/ams/backend/internal/application/analytics"
	billingapp "github.com/ams/backend/internal/application/billing"
	catalogapp "github.com/ams/backend/internal/application/catalog"
	communicationapp "github.com/ams/backend/internal/application/communication"
	subscriptionapp "github.com/ams/backend/internal/application/subscription"
	"github.com/ams/backend/internal/infrastructure/auth"
	"github.com/ams/backend/internal/infrastructure/cache"
	"github.com/ams/backend/internal/infrastructure/config"
	"github.com/ams/backend/internal/infrastructure/event"
	"github.com/ams/backend/internal/infrastructure/logger"
	"github.com/ams/backend/internal/infrastructure/mail"
	"github.com/ams/backend/internal/infrastructure/payment"
	"github.com/ams/backend/internal/infrastructure/persistence"
	"github.com/ams/backend/internal/infrastructure/scheduler"
	"github.com/ams/backend/internal/infrastructure/telemetry"
	"github.com/ams/backend/internal/interfaces/http/handler"
	"github.com/ams/backend/internal/interfaces/http/middleware"
	"github.com/ams/backend/internal/interfaces/http/router"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
	)

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	// Database
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLogger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("failed to initialize meter provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down meter provider", zap.Error(err))
		}
	}()

	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			SlowQueryThresh: 200 * time.Millisecond,
			DBSystem:        cfg.Database.DBName,
		}, log)
		if err := dbTracing.Register(db.DB); err != nil {
			return fmt.Errorf("failed to register database tracing: %w", err)
		}
	}

	// Repositories
	planRepo := persistence.NewGormPlanRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	renewalRepo := persistence.NewGormRenewalRepository(db.DB)
	backupRepo := persistence.NewGormBackupRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	scheduleRepo := persistence.NewGormScheduleRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRecordRepository(db.DB)
	commRepo := persistence.NewGormCommunicationRepository(db.DB)
	analyticsRepo := persistence.NewGormAnalyticsReadRepository(db.DB)
	tenantProvider := persistence.NewGormTenantProvider(db.DB)

	// Event bus with lifecycle audit trail
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewLifecycleAuditHandler(log))
	if err := eventBus.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := eventBus.Stop(stopCtx); err != nil {
			log.Error("failed to stop event bus", zap.Error(err))
		}
	}()

	// Membership metrics, fed by the event bus
	membershipMetrics, err := telemetry.NewMembershipMetrics(telemetry.MembershipMetricsConfig{
		Meter:         meterProvider.Meter("ams"),
		Logger:        log,
		CountProvider: tenantProvider,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize membership metrics: %w", err)
	}
	defer membershipMetrics.Stop()
	eventBus.Subscribe(event.NewMetricsHandler(membershipMetrics))

	// Outbound adapters. Both log-only implementations stand in for the
	// payment gateway and mail provider integrations.
	charger := payment.NewLoggingCharger(log)
	sender := mail.NewLoggingSender(log)

	// Dashboard cache: Redis when reachable, in-memory otherwise
	dashboardCache, err := cache.NewDashboardCacheFactory(
		cfg.Redis,
		cfg.Billing.DashboardCacheTTL,
		cache.WithLogger(log),
	).Create()
	if err != nil {
		return fmt.Errorf("failed to create dashboard cache: %w", err)
	}

	// Application services
	planService := catalogapp.NewPlanService(planRepo)
	planService.SetEventPublisher(eventBus)

	subscriptionService := subscriptionapp.NewSubscriptionService(subscriptionRepo, planRepo, scheduleRepo, log)
	subscriptionService.SetEventPublisher(eventBus)

	renewalService := subscriptionapp.NewRenewalService(subscriptionRepo, renewalRepo, backupRepo, planRepo, log)
	seatService := subscriptionapp.NewSeatService(subscriptionRepo, planRepo, log)
	lifecycleService := subscriptionapp.NewLifecycleService(subscriptionRepo, scheduleRepo, cfg.Billing.TerminateDays, log)
	billingService := billingapp.NewBillingService(subscriptionRepo, planRepo, invoiceRepo, scheduleRepo, log)
	dunningService := billingapp.NewDunningService(subscriptionRepo, paymentRepo, invoiceRepo, commRepo, charger, cfg.Billing.RetryBackoffMap(), log)
	commsService := communicationapp.NewCommsService(subscriptionRepo, commRepo, sender, cfg.Billing.RenewalReminderOffsets, log)
	analyticsService := analyticsapp.NewAnalyticsService(analyticsRepo, dashboardCache, log)

	// Lifecycle scheduler
	var cronTrigger *scheduler.CronTrigger
	if cfg.Scheduler.Enabled {
		executor := scheduler.NewSweepExecutor(lifecycleService, billingService, dunningService, commsService, log)
		sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
			Enabled:           cfg.Scheduler.Enabled,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
		}, executor, log)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := sched.Stop(stopCtx); err != nil {
				log.Error("failed to stop scheduler", zap.Error(err))
			}
		}()

		triggerCfg := scheduler.DefaultCronTriggerConfig()
		if cfg.Scheduler.TickInterval > 0 {
			triggerCfg.CheckInterval = cfg.Scheduler.TickInterval
		}
		cronTrigger = scheduler.NewCronTrigger(triggerCfg, sched, tenantProvider, log)
		if err := cronTrigger.Start(ctx); err != nil {
			return fmt.Errorf("failed to start cron trigger: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := cronTrigger.Stop(stopCtx); err != nil {
				log.Error("failed to stop cron trigger", zap.Error(err))
			}
		}()
	} else {
		log.Info("scheduler disabled, lifecycle sweeps must be triggered manually")
	}

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT)

	// Handlers
	planHandler := handler.NewPlanHandler(planService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)
	seatHandler := handler.NewSeatHandler(seatService)
	renewalHandler := handler.NewRenewalHandler(renewalService)
	billingHandler := handler.NewBillingHandler(billingService)
	paymentHandler := handler.NewPaymentHandler(dunningService)
	communicationHandler := handler.NewCommunicationHandler(commsService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	lifecycleHandler := handler.NewLifecycleHandler(lifecycleService, cronTrigger)
	portalHandler := handler.NewPortalHandler(subscriptionService, renewalService, billingService, commsService)
	authHandler := handler.NewAuthHandler(jwtService)
	systemHandler := handler.NewSystemHandler(version)

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequest, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	engine.GET("/health", healthHandler(db))

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Logger = log
	jwtConfig.SkipPaths = append(jwtConfig.SkipPaths,
		"/api/v1/system/ping",
		"/api/v1/auth/refresh",
	)
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	catalogGroup := router.NewDomainGroup("catalog", "/catalog")
	catalogGroup.
		POST("/plans", planHandler.Create).
		GET("/plans", planHandler.List).
		GET("/plans/:id", planHandler.GetByID).
		GET("/plans/code/:code", planHandler.GetByCode).
		PUT("/plans/:id", planHandler.Update).
		POST("/plans/:id/activate", planHandler.Activate).
		POST("/plans/:id/deactivate", planHandler.Deactivate).
		POST("/plans/:id/seats", planHandler.ConfigureSeats).
		DELETE("/plans/:id/seats", planHandler.DisableSeats)

	subscriptionGroup := router.NewDomainGroup("subscriptions", "/subscriptions")
	subscriptionGroup.
		POST("", subscriptionHandler.Create).
		GET("", subscriptionHandler.List).
		GET("/at-risk", subscriptionHandler.ListAtRisk).
		GET("/number/:number", subscriptionHandler.GetByNumber).
		GET("/:id", subscriptionHandler.GetByID).
		POST("/:id/activate", subscriptionHandler.Activate).
		POST("/:id/trial", subscriptionHandler.StartTrial).
		POST("/:id/suspend", subscriptionHandler.Suspend).
		POST("/:id/resume", subscriptionHandler.Resume).
		POST("/:id/cancel", subscriptionHandler.Cancel).
		POST("/:id/expire", subscriptionHandler.Expire).
		PUT("/:id/auto-renew", subscriptionHandler.SetAutoRenew).
		PUT("/:id/notes", subscriptionHandler.UpdateNotes).
		POST("/:id/seats", seatHandler.Allocate).
		POST("/:id/seats/batch", seatHandler.BatchAllocate).
		GET("/:id/seats", seatHandler.ListSeats).
		DELETE("/seats/:seat_id", seatHandler.Deallocate).
		POST("/:id/renewals", renewalHandler.CreateRenewal).
		GET("/:id/renewals", renewalHandler.ListRenewals).
		POST("/renewals/:renewal_id/confirm", renewalHandler.ConfirmRenewal).
		POST("/renewals/:renewal_id/cancel", renewalHandler.CancelRenewal).
		GET("/:id/proration", renewalHandler.PreviewProration).
		POST("/:id/backups", renewalHandler.CreateBackup).
		GET("/:id/backups", renewalHandler.ListBackups).
		POST("/backups/:backup_id/restore", renewalHandler.RestoreBackup)

	billingGroup := router.NewDomainGroup("billing", "/billing")
	billingGroup.
		POST("/runs", billingHandler.RunBilling).
		POST("/invoices", billingHandler.ManualBilling).
		GET("/invoices/:id", billingHandler.GetInvoice).
		GET("/invoices/overdue", billingHandler.ListOverdueInvoices).
		POST("/subscriptions/:id/run", billingHandler.ProcessBilling).
		GET("/subscriptions/:id/invoices", billingHandler.ListInvoices).
		GET("/subscriptions/:id/payments", paymentHandler.ListBySubscription).
		POST("/invoices/:id/payments", paymentHandler.OpenPayment).
		POST("/payments/:id/success", paymentHandler.RecordSuccess).
		POST("/payments/:id/failure", paymentHandler.RecordFailure).
		POST("/payments/retries", paymentHandler.ProcessRetries)

	communicationGroup := router.NewDomainGroup("communications", "/communications")
	communicationGroup.
		POST("/reminders", communicationHandler.GenerateRenewalReminders).
		POST("/lapsed", communicationHandler.GenerateLapsedNotices).
		POST("/welcome", communicationHandler.GenerateWelcomeMessages).
		POST("/send", communicationHandler.SendScheduled).
		GET("/subscriptions/:id", communicationHandler.ListBySubscription).
		GET("/partners/:partner_id", communicationHandler.ListByPartner).
		POST("/:id/cancel", communicationHandler.Cancel)

	analyticsGroup := router.NewDomainGroup("analytics", "/analytics")
	analyticsGroup.
		GET("/dashboard", analyticsHandler.GetDashboard).
		GET("/cohorts", analyticsHandler.GetCohortRetention).
		GET("/churn", analyticsHandler.GetChurnRate)

	lifecycleGroup := router.NewDomainGroup("lifecycle", "/lifecycle")
	lifecycleGroup.
		POST("/check-expiries", lifecycleHandler.CheckExpiries).
		POST("/sweeps", lifecycleHandler.TriggerSweep)

	portalGroup := router.NewDomainGroup("portal", "/portal")
	portalGroup.Use(middleware.RequirePortalSession())
	portalGroup.
		GET("/subscriptions", portalHandler.ListSubscriptions).
		GET("/subscriptions/:id", portalHandler.GetSubscription).
		POST("/subscriptions/:id/renew", portalHandler.Renew).
		POST("/subscriptions/:id/pause", portalHandler.Pause).
		POST("/subscriptions/:id/resume", portalHandler.Resume).
		POST("/subscriptions/:id/cancel", portalHandler.Cancel).
		GET("/subscriptions/:id/invoices", portalHandler.ListInvoices).
		GET("/communications", portalHandler.ListCommunications)

	authGroup := router.NewDomainGroup("auth", "/auth")
	authGroup.POST("/refresh", authHandler.Refresh)

	systemGroup := router.NewDomainGroup("system", "/system")
	systemGroup.
		GET("/ping", systemHandler.Ping).
		GET("/info", systemHandler.Info)

	r.Register(catalogGroup).
		Register(subscriptionGroup).
		Register(billingGroup).
		Register(communicationGroup).
		Register(analyticsGroup).
		Register(lifecycleGroup).
		Register(portalGroup).
		Register(authGroup).
		Register(systemGroup)
	r.Setup()

	// HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// healthHandler reports liveness including database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
		resp := gin.H{"status": "healthy"}
		if stats, err := db.Stats(); err == nil {
			resp["db_pool"] = gin.H{
				"open":    stats.OpenConnections,
				"in_use":  stats.InUse,
				"idle":    stats.Idle,
				"waiting": stats.WaitCount,
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}
