package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ParkEase/service-parking/internal/application"
	"github.com/ParkEase/service-parking/internal/common/auth"
	"github.com/ParkEase/service-parking/internal/common/database"
	"github.com/ParkEase/service-parking/internal/common/health"
	"github.com/ParkEase/service-parking/internal/common/kafka"
	"github.com/ParkEase/service-parking/internal/common/lock"
	"github.com/ParkEase/service-parking/internal/common/logger"
	"github.com/ParkEase/service-parking/internal/common/middleware"
	"github.com/ParkEase/service-parking/internal/config"
	bookingDomain "github.com/ParkEase/service-parking/internal/domain/booking"
	parkingEvents "github.com/ParkEase/service-parking/internal/events"
	"github.com/ParkEase/service-parking/internal/handler"
	"github.com/ParkEase/service-parking/internal/repository"
	"github.com/ParkEase/service-parking/migrations"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "service-parking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.IsDevelopment() {
		if err := db.AutoMigrate(
			&repository.UserModel{},
			&repository.LocationModel{},
			&repository.SlotModel{},
			&repository.BookingModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else if err := database.RunMigrations(ctx, db, migrations.FS, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	reader, err := database.Reader(db)
	if err != nil {
		log.Fatal("failed to open report reader", zap.Error(err))
	}

	reportLocation, err := time.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		log.Fatal("invalid report timezone", zap.Error(err))
	}

	// Initialize slot locker
	healthHandler := health.NewHandler(db, serviceName)
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.RedisConfig.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		defer func() { _ = redisClient.Close() }()
		locker = lock.NewRedisLocker(redisClient, "parking:lock:", cfg.RedisConfig.LockTTL, log)
		healthHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		log.Info("using redis slot locks", zap.String("addr", cfg.RedisConfig.Addr))
	}

	// Initialize Kafka producer
	var publisher application.EventPublisher
	if cfg.KafkaConfig.Enabled {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = kafkaProducer
	}

	// Initialize repositories
	tx := repository.NewGormTransactor(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	slotRepo := repository.NewGormSlotRepository(db)
	locationRepo := repository.NewGormLocationRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	reportRepo := repository.NewSQLReportRepository(reader)

	// Initialize application services
	ledger := application.NewCapacityLedger(slotRepo, locationRepo, log)
	bookingService := application.NewBookingService(
		bookingRepo,
		slotRepo,
		locationRepo,
		userRepo,
		ledger,
		tx,
		locker,
		bookingDomain.NewIntervalPricingStrategy(),
		publisher,
		application.BookingSettings{
			ExtensionMinutes: cfg.Booking.ExtensionMinutes,
			ExtensionFee:     cfg.Booking.ExtensionFee,
			DefaultRate:      cfg.Booking.DefaultRate,
			Currency:         cfg.Booking.Currency,
		},
		log,
	)
	slotService := application.NewSlotService(slotRepo, locationRepo, ledger, tx, locker, publisher, log)
	locationService := application.NewLocationService(locationRepo, slotRepo, log)
	userService := application.NewUserService(userRepo, bookingRepo, ledger, tx, log)
	reportService := application.NewReportService(reportRepo, reportLocation, log)

	// Start reconciliation consumer
	if cfg.KafkaConfig.Enabled {
		groupID := cfg.KafkaConfig.GroupPrefix + serviceName
		reconciliationConsumer := parkingEvents.NewReconciliationConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			bookingService,
			log,
		)
		defer func() { _ = reconciliationConsumer.Close() }()

		go func() {
			log.Info("starting reconciliation consumer")
			if err := reconciliationConsumer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("reconciliation consumer error", zap.Error(err))
			}
		}()
	}

	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL, cfg.JWTConfig.RefreshTTL)
	authenticator := auth.NewTokenAuthenticator(jwtManager, userService)

	if err := handler.RegisterValidators(); err != nil {
		log.Fatal("failed to register validators", zap.Error(err))
	}

	// Setup Gin router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins...))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware())

	// Register health check routes
	healthHandler.RegisterRoutes(router)

	// Register routes
	api := router.Group("/api/v1")
	handler.NewBookingHandler(bookingService).RegisterRoutes(api, authenticator)
	handler.NewLocationHandler(locationService).RegisterRoutes(api, authenticator)
	handler.NewSlotHandler(slotService).RegisterRoutes(api, authenticator)
	handler.NewAdminHandler(bookingService, userService).RegisterRoutes(api, authenticator)
	handler.NewReportHandler(reportService).RegisterRoutes(api, authenticator)

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

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
