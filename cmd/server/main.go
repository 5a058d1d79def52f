package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"user-management-svc/docs"
	"user-management-svc/internal/cache"
	"user-management-svc/internal/config"
	"user-management-svc/internal/database"
	"user-management-svc/internal/handler"
	"user-management-svc/internal/middleware"
	"user-management-svc/internal/repository"
	"user-management-svc/internal/scheduler"
	"user-management-svc/internal/service"
	"user-management-svc/pkg/logger"
	"user-management-svc/pkg/security"
	"user-management-svc/pkg/storage"
)

// @title User Management Service API
// @version 1.0
// @description RESTful API for managing users, their trash and their details log
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name auth-token

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Swagger documentation
	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%s", cfg.Server.Port)
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Schemes = []string{"http"}

	// Initialize logger
	appLogger := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	appLogger.Info("Starting User Management Service...")

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// Initialize database
	db, err := database.NewDatabase(&cfg.Database, appLogger)
	if err != nil {
		appLogger.WithField("error", err).Fatal("Failed to connect to database")
	}
	appLogger.Info("Database connected successfully")

	// Run auto migration
	if err := db.AutoMigrate(); err != nil {
		appLogger.WithField("error", err).Fatal("Failed to run database migrations")
	}
	appLogger.Info("Database migrations completed successfully")

	// Initialize avatar storage
	var store storage.Store
	publicDir := ""
	switch cfg.Storage.Driver {
	case "minio":
		store, err = storage.NewMinIOStore(startupCtx, storage.MinIOOptions{
			Endpoint:  cfg.Storage.MinIO.Endpoint,
			AccessKey: cfg.Storage.MinIO.AccessKey,
			SecretKey: cfg.Storage.MinIO.SecretKey,
			Bucket:    cfg.Storage.MinIO.Bucket,
			UseSSL:    cfg.Storage.MinIO.UseSSL,
		})
	default:
		store, err = storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicURL)
		publicDir = cfg.Storage.LocalDir
	}
	if err != nil {
		appLogger.WithField("error", err).Fatal("Failed to initialize storage")
	}
	appLogger.WithField("driver", cfg.Storage.Driver).Info("Storage initialized successfully")

	// Initialize token revocation
	var rdb *redis.Client
	blacklist := cache.NewNoopBlacklist()
	if cfg.Redis.Addr != "" {
		rdb, err = cache.NewRedisClient(startupCtx, cfg.Redis)
		if err != nil {
			appLogger.WithField("error", err).Fatal("Failed to connect to redis")
		}
		blacklist = cache.NewRedisBlacklist(rdb)
		appLogger.Info("Redis connected successfully")
	} else {
		appLogger.Warn("REDIS_ADDR is empty, logged out tokens stay valid until they expire")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	detailRepo := repository.NewDetailRepository(db.DB)
	schedulerLogRepo := repository.NewSchedulerLogRepository(db.DB)

	// Initialize services
	hasher := security.NewBcryptHasher(cfg.Password.BcryptCost)
	tokens := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	rules := service.NewRuleValidator(userRepo, security.PasswordPolicy{
		MinLength:        cfg.Password.MinLength,
		RequireMixedCase: cfg.Password.RequireMixedCase,
		RequireNumbers:   cfg.Password.RequireNumbers,
		RequireSymbols:   cfg.Password.RequireSymbols,
	})
	events := service.NewEventDispatcher()
	userService := service.NewUserService(userRepo, detailRepo, rules, hasher, store, events, appLogger)
	events.Subscribe(service.NewUserDetailsListener(userService))

	if cfg.Seed.Enabled {
		seedDefaultUser(startupCtx, userService, cfg.Seed, appLogger)
	}

	// Initialize scheduler
	var purgeScheduler *scheduler.PurgeScheduler
	if cfg.Scheduler.PurgeCronExpression != "" {
		purgeScheduler = scheduler.NewPurgeScheduler(
			userService,
			schedulerLogRepo,
			appLogger,
			cfg.Scheduler.PurgeCronExpression,
			cfg.Scheduler.TrashRetentionDays,
		)
		if err := purgeScheduler.Start(); err != nil {
			appLogger.WithField("error", err).Fatal("Failed to start purge scheduler")
		}
	}

	// Initialize Gin router
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Add middleware
	router.Use(middleware.TraceMiddleware())
	router.Use(middleware.CORS(cfg.CORS.AllowedOriginList()))
	router.Use(middleware.LoggerMiddleware(appLogger))
	router.Use(middleware.ErrorHandler(appLogger))
	router.NoRoute(middleware.NoRouteHandler())
	router.NoMethod(middleware.NoMethodHandler())

	// Setup routes
	handler.SetupRoutes(router, userService, tokens, blacklist, cfg.JWT, publicDir, appLogger)

	// Create HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		appLogger.WithField("port", cfg.Server.Port).Info("Server starting...")
		appLogger.WithField("swagger", fmt.Sprintf("http://localhost:%s/swagger/index.html", cfg.Server.Port)).Info("Swagger documentation available")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithField("error", err).Fatal("Failed to start server")
		}
	}()

	appLogger.WithField("port", cfg.Server.Port).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := server.Shutdown(ctx); err != nil {
		appLogger.WithField("error", err).Fatal("Server forced to shutdown")
	}

	if purgeScheduler != nil {
		purgeScheduler.Stop()
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			appLogger.WithField("error", err).Error("Failed to close redis connection")
		}
	}

	// Close database connection
	if err := db.Close(); err != nil {
		appLogger.WithField("error", err).Error("Failed to close database connection")
	}

	appLogger.Info("Server exited successfully")
}

// seedDefaultUser creates the initial account when it does not exist yet
func seedDefaultUser(ctx context.Context, userService service.UserService, seed config.SeedConfig, appLogger *logger.Logger) {
	hash, err := userService.Hash(seed.Password)
	if err != nil {
		appLogger.WithField("error", err).Fatal("Failed to hash seed password")
	}

	now := time.Now()
	user, created, err := userService.EnsureDefaultUser(ctx, service.UserAttributes{
		Prefix:       &seed.Prefix,
		FirstName:    &seed.First,
		LastName:     &seed.Last,
		Username:     &seed.Username,
		Email:        &seed.Email,
		PasswordHash: &hash,
		VerifiedAt:   &now,
	})
	if err != nil {
		appLogger.WithField("error", err).Fatal("Failed to seed default user")
	}

	appLogger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"created": created,
	}).Info("Default user ready")
}
