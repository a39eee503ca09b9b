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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/staynest/service-booking/internal/application"
	"github.com/staynest/service-booking/internal/auth"
	"github.com/staynest/service-booking/internal/availability"
	"github.com/staynest/service-booking/internal/config"
	"github.com/staynest/service-booking/internal/database"
	bookingDomain "github.com/staynest/service-booking/internal/domain/booking"
	"github.com/staynest/service-booking/internal/events"
	"github.com/staynest/service-booking/internal/handler"
	"github.com/staynest/service-booking/internal/health"
	"github.com/staynest/service-booking/internal/logger"
	"github.com/staynest/service-booking/internal/middleware"
	"github.com/staynest/service-booking/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, cfg.AppEnv)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.PropertyModel{},
			&repository.BookingModel{},
			&repository.MessageModel{},
			&repository.ReviewModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		if err := repository.EnsureApprovedOverlapConstraint(db); err != nil {
			log.Fatal("failed to install approved-overlap constraint", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.URL(), "migrations"); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
		log.Info("database migrations applied")
	}

	// Connect to Redis for the availability display cache. The service runs
	// without it, availability falls back to the database.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, availability cache disabled", zap.Error(err))
		redisClient = nil
	}
	pingCancel()
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, 24*time.Hour)

	// Initialize Kafka producer
	kafkaProducer := events.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	propertyRepo := repository.NewGormPropertyRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)
	reviewRepo := repository.NewGormReviewRepository(db)

	// Initialize availability store
	availabilityStore := availability.NewStore(bookingRepo, propertyRepo, redisClient, log)

	// Initialize application services
	bookingService := application.NewBookingService(
		bookingRepo,
		propertyRepo,
		availabilityStore,
		kafkaProducer,
		bookingDomain.SystemClock(),
		log,
	)
	messageService := application.NewMessageService(messageRepo, bookingService, log)
	reviewService := application.NewReviewService(reviewRepo, bookingService, log)

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	messageHandler := handler.NewMessageHandler(messageService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityStore)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-booking")
	healthHandler.RegisterRoutes(router)

	// Register routes
	api := router.Group("/api/v1")
	bookingHandler.RegisterRoutes(api, jwtManager)
	messageHandler.RegisterRoutes(api, jwtManager)
	reviewHandler.RegisterRoutes(api, jwtManager)
	availabilityHandler.RegisterRoutes(api)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
