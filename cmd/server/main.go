package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	identityapp "github.com/helpdesk/backend/internal/application/identity"
	inventoryapp "github.com/helpdesk/backend/internal/application/inventory"
	notificationapp "github.com/helpdesk/backend/internal/application/notification"
	tenancyapp "github.com/helpdesk/backend/internal/application/tenancy"
	ticketapp "github.com/helpdesk/backend/internal/application/ticket"
	"github.com/helpdesk/backend/internal/infrastructure/auth"
	"github.com/helpdesk/backend/internal/infrastructure/cache"
	"github.com/helpdesk/backend/internal/infrastructure/config"
	"github.com/helpdesk/backend/internal/infrastructure/event"
	"github.com/helpdesk/backend/internal/infrastructure/logger"
	"github.com/helpdesk/backend/internal/infrastructure/notification"
	"github.com/helpdesk/backend/internal/infrastructure/persistence"
	"github.com/helpdesk/backend/internal/infrastructure/scheduler"
	"github.com/helpdesk/backend/internal/infrastructure/storage"
	"github.com/helpdesk/backend/internal/infrastructure/telemetry"
	"github.com/helpdesk/backend/internal/interfaces/http/handler"
	"github.com/helpdesk/backend/internal/interfaces/http/middleware"
	"github.com/helpdesk/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//	@title			Helpdesk API
//	@version		1.0
//	@description	Multi-tenant maintenance ticketing: sites, budgets, contractors and assets

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

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
		_ = logger.Sync(log)
	}()

	log.Info("Starting helpdesk backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	metrics := telemetry.NewMetrics()
	if sqlDB, err := db.DB.DB(); err == nil {
		if err := metrics.RegisterDB(sqlDB, cfg.Database.DBName); err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		}
	}

	// Token revocation lives in Redis when configured, otherwise in process
	var (
		blacklist   auth.TokenBlacklist
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled {
		redisClient, err = auth.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		log.Info("Token blacklist backed by redis", zap.String("addr", cfg.Redis.Addr()))
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
		log.Warn("Redis disabled, revoked tokens are kept in memory")
	}

	files, err := storage.New(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize file storage", zap.Error(err))
	}

	// Repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	siteRepo := persistence.NewGormSiteRepository(db.DB)
	budgetRepo := persistence.NewGormSiteBudgetRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	otpRepo := persistence.NewGormPasswordResetOTPRepository(db.DB)
	ticketRepo := persistence.NewGormTicketRepository(db.DB)
	attachmentRepo := persistence.NewGormAttachmentRepository(db.DB)
	assetRepo := persistence.NewGormAssetRepository(db.DB)

	// Notifications
	whatsapp, email := notification.NewSenders(cfg.Notification, log)
	dispatcher := notificationapp.NewDispatcher(userRepo, ticketRepo, siteRepo, whatsapp, email,
		notificationapp.Config{
			WhatsAppEnabled: cfg.Notification.WhatsApp.Enabled,
			EmailEnabled:    cfg.Notification.Email.Enabled,
		}, log).WithMetrics(metrics)

	deliveryLog := cache.NewDeliveryLog(redisClient)
	defer func() {
		_ = deliveryLog.Close()
	}()
	dispatcher.WithDeliveryLog(deliveryLog, cfg.Notification.DedupWindow)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(dispatcher)
	eventBus.Subscribe(metrics)
	log.Info("Event handlers registered",
		zap.Strings("notification_events", dispatcher.EventTypes()),
		zap.Strings("metrics_events", metrics.EventTypes()),
	)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	revokeTTL := cfg.JWT.RefreshTokenExpiration
	authService := identityapp.NewAuthService(tenantRepo, userRepo, jwtService, blacklist, metrics, log)
	userService := identityapp.NewUserService(userRepo, siteRepo, blacklist, revokeTTL, log)
	resetService := identityapp.NewPasswordResetService(userRepo, otpRepo, dispatcher, blacklist, metrics,
		identityapp.PasswordResetConfig{
			MaxRequestsPerHour: cfg.OTP.MaxRequestsPerHour,
			RevokeTTL:          revokeTTL,
			Retention:          cfg.OTP.Retention,
		}, log)
	tenantService := tenancyapp.NewTenantService(tenantRepo, userRepo, log)
	siteService := tenancyapp.NewSiteService(siteRepo, log)
	budgetService := tenancyapp.NewBudgetService(siteRepo, budgetRepo, ticketRepo, log)
	ticketService := ticketapp.NewTicketService(ticketRepo, attachmentRepo, userRepo, siteRepo, assetRepo, files, log)
	ticketService.SetEventPublisher(eventBus)
	assetService := inventoryapp.NewAssetService(assetRepo, files, log)

	// Housekeeping
	jobs := scheduler.New(log).WithMetrics(metrics)
	if err := jobs.Register(scheduler.Task{
		Name:       "purge-reset-codes",
		Interval:   cfg.OTP.PurgeInterval,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			_, err := resetService.PurgeExpired(ctx)
			return err
		},
	}); err != nil {
		log.Fatal("Failed to register scheduled task", zap.Error(err))
	}
	if err := jobs.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := jobs.Stop(stopCtx); err != nil {
			log.Warn("Scheduler did not stop cleanly", zap.Error(err))
		}
	}()

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(metrics.GinMiddleware())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORS(corsConfig))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize, cfg.HTTP.MaxUploadSize))

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		go limiter.Run(ctx)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Login, refresh and OTP endpoints get their own, tighter budget
	authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
	go authLimiter.Run(ctx)
	otpLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
	go otpLimiter.Run(ctx)

	// Locally stored uploads are served by the API itself
	if local, ok := files.(*storage.LocalStorage); ok {
		engine.Static(local.PublicPath(), local.Root())
		log.Info("Serving uploads from local disk",
			zap.String("path", local.PublicPath()),
			zap.String("root", local.Root()),
		)
	}

	metricsGuard, err := middleware.AllowIPs(cfg.Telemetry.MetricsAllowedIPs)
	if err != nil {
		log.Fatal("Invalid telemetry.metrics_allowed_ips", zap.Error(err))
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterAPI(r, router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Tenant:        handler.NewTenantHandler(tenantService),
		User:          handler.NewUserHandler(userService),
		PasswordReset: handler.NewPasswordResetHandler(resetService),
		Site:          handler.NewSiteHandler(siteService, budgetService),
		Ticket:        handler.NewTicketHandler(ticketService, files, cfg.HTTP.MaxUploadSize),
		Asset:         handler.NewAssetHandler(assetService, files, cfg.HTTP.MaxUploadSize),
		System:        handler.NewSystemHandler(telemetry.ServiceVersion),
		Metrics:       metricsHandler(cfg, metrics),
	}, router.Guards{
		Auth:          middleware.JWTAuth(authService, log),
		OptionalAuth:  middleware.OptionalJWTAuth(authService, log),
		Tenant:        middleware.TenantGate(tenantService, log),
		AuthRateLimit: middleware.RateLimit(authLimiter),
		Metrics:       metricsGuard,
		OTPRateLimit: middleware.RateLimitByKey(otpLimiter, func(c *gin.Context) string {
			return "otp:" + c.Param(middleware.TenantSlugParam) + ":" + c.ClientIP()
		}),
	}).Setup()

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Server exited gracefully")
}

// metricsHandler exposes the Prometheus registry unless metrics are switched off
func metricsHandler(cfg *config.Config, metrics *telemetry.Metrics) http.Handler {
	if !cfg.Telemetry.MetricsEnabled {
		return nil
	}
	return metrics.Handler()
}
