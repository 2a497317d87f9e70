package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeduel/internal/api/handlers"
	"codeduel/internal/config"
	"codeduel/internal/jobs"
	"codeduel/internal/ledger"
	"codeduel/internal/problems"
	"codeduel/internal/repository"
	"codeduel/internal/service"
	"codeduel/internal/telemetry"
	"codeduel/internal/websocket"
	"codeduel/internal/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize PostgreSQL with connection pooling
	db, err := initPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Println("✓ Connected to PostgreSQL")

	// Initialize Redis
	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("✓ Connected to Redis")

	store := repository.NewStore(db)
	ratingCache := repository.NewRatingCache(redisClient)

	// Run migrations
	if err := store.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("✓ Database migrations completed")

	// The platform account collects the retained prize pool share
	platform, err := ledger.EnsurePlatformAccount(context.Background(), store)
	if err != nil {
		log.Fatalf("Failed to ensure platform account: %v", err)
	}

	// Error reporter drains off the request path
	reporter := telemetry.NewLogReporter(256)
	reporter.Start()

	// Worker pool pushes rating changes into the Redis leaderboard
	workerPool := worker.NewPool(20, 1000, ratingCache)
	workerPool.Start()

	// WebSocket hub broadcasts match events and leaderboard heartbeats
	hub := websocket.NewHub(ratingCache)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	catalog := problems.NewCatalog(store)

	matchmakingService := service.NewMatchmakingService(store, catalog, reporter, hub, workerPool, cfg.Matchmaking.RatingBand)
	matchService := service.NewMatchService(store, reporter, hub, workerPool, platform.ID)
	leaderboardService := service.NewLeaderboardService(ratingCache, store)

	// Background sweeper enforces queue and match TTLs
	sweeper := jobs.NewSweeper(matchmakingService, matchService, cfg.Matchmaking)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("Failed to start sweeper: %v", err)
	}

	// Initialize handlers
	matchmakingHandler := handlers.NewMatchmakingHandler(matchmakingService)
	matchHandler := handlers.NewMatchHandler(matchService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, catalog)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "CodeDuel Arena",
		DisableStartupMessage: false,
		ErrorHandler:          customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Users and matchmaking queue
	api.Post("/users", matchmakingHandler.CreateUser)
	api.Get("/users/:id", matchmakingHandler.GetUser)
	api.Get("/users/:id/transactions", matchHandler.GetUserTransactions)
	api.Post("/queue/join", matchmakingHandler.JoinQueue)
	api.Post("/queue/leave", matchmakingHandler.LeaveQueue)

	// Matches and submissions
	api.Get("/matches/:id", matchHandler.GetMatch)
	api.Get("/matches/:id/transactions", matchHandler.GetMatchTransactions)
	api.Post("/matches/:id/submissions", matchHandler.SubmitSolution)

	// Leaderboard and catalog
	api.Get("/leaderboard", leaderboardHandler.GetLeaderboard)
	api.Get("/search/:username", leaderboardHandler.SearchPlayer)
	api.Get("/problems", leaderboardHandler.ListProblems)
	api.Get("/health", leaderboardHandler.HealthCheck)

	// WebSocket route with upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", fiberws.New(func(c *fiberws.Conn) {
		websocket.ServeWS(hub, c)
	}))

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "CodeDuel Arena API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/users",
				"GET /api/v1/users/:id",
				"GET /api/v1/users/:id/transactions",
				"POST /api/v1/queue/join",
				"POST /api/v1/queue/leave",
				"GET /api/v1/matches/:id",
				"GET /api/v1/matches/:id/transactions",
				"POST /api/v1/matches/:id/submissions",
				"GET /api/v1/leaderboard",
				"GET /api/v1/search/:username",
				"GET /api/v1/problems",
				"GET /api/v1/health",
				"WS /ws (WebSocket)",
			},
			"websocket_clients": hub.GetClientCount(),
		})
	})

	// Graceful shutdown with worker pool flushing
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("\n🛑 Shutting down server...")

		// First, stop the sweeper so no new settlements start
		log.Println("⏹️ Stopping sweeper...")
		if err := sweeper.Stop(); err != nil {
			log.Printf("Sweeper shutdown error: %v", err)
		}

		// Second, stop accepting new HTTP requests
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
		}

		// Third, flush pending rating syncs
		log.Println("🔄 Flushing worker pool (pending rating syncs)...")
		if err := workerPool.Shutdown(30 * time.Second); err != nil {
			log.Printf("Worker pool shutdown error: %v", err)
		}

		reporter.Close()

		// Finally, close connections
		if err := store.Close(); err != nil {
			log.Printf("Error closing PostgreSQL: %v", err)
		}
		if err := ratingCache.Close(); err != nil {
			log.Printf("Error closing Redis: %v", err)
		}

		log.Println("✓ Server shutdown complete")
	}()

	// Start server
	port := cfg.Server.Port
	log.Printf("🚀 Server starting on port %d...", port)
	if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initPostgres initializes PostgreSQL connection with connection pooling
func initPostgres(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Max connections should cover the worker pool plus request handling
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(2 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// initRedis initializes Redis connection with connection pooling
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.Redis.Username,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     20,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   "Request failed",
		"message": err.Error(),
	})
}
