package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"codeduel/internal/config"
	"codeduel/internal/ledger"
	"codeduel/internal/models"
	"codeduel/internal/rating"
	"codeduel/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DemoUsers      = 20
	StartingCredit = 500
	UsernamePrefix = "duelist_"
)

// problemCatalog is the starter set of duel problems
var problemCatalog = []models.Problem{
	{Title: "Two Sum", Slug: "two-sum", Difficulty: "easy"},
	{Title: "Valid Parentheses", Slug: "valid-parentheses", Difficulty: "easy"},
	{Title: "Merge Intervals", Slug: "merge-intervals", Difficulty: "medium"},
	{Title: "Longest Substring Without Repeating Characters", Slug: "longest-substring-without-repeating", Difficulty: "medium"},
	{Title: "LRU Cache", Slug: "lru-cache", Difficulty: "medium"},
	{Title: "Course Schedule", Slug: "course-schedule", Difficulty: "medium"},
	{Title: "Word Ladder", Slug: "word-ladder", Difficulty: "hard"},
	{Title: "Trapping Rain Water", Slug: "trapping-rain-water", Difficulty: "hard"},
	{Title: "Median of Two Sorted Arrays", Slug: "median-of-two-sorted-arrays", Difficulty: "hard"},
	{Title: "Number of Islands", Slug: "number-of-islands", Difficulty: "medium"},
	{Title: "Coin Change", Slug: "coin-change", Difficulty: "medium"},
	{Title: "Serialize and Deserialize Binary Tree", Slug: "serialize-deserialize-binary-tree", Difficulty: "hard"},
}

func main() {
	log.Println("🌱 Starting seeder for CodeDuel Arena...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Println("✓ Connected to PostgreSQL")

	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("✓ Connected to Redis")

	store := repository.NewStore(db)
	ratingCache := repository.NewRatingCache(redisClient)

	if err := store.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("✓ Database migrations completed")

	ctx := context.Background()

	if _, err := ledger.EnsurePlatformAccount(ctx, store); err != nil {
		log.Fatalf("Failed to ensure platform account: %v", err)
	}

	if err := seedProblems(ctx, store); err != nil {
		log.Fatalf("Failed to seed problems: %v", err)
	}

	users, err := seedUsers(ctx, store)
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	if err := seedRatings(ctx, ratingCache, users); err != nil {
		log.Fatalf("Failed to seed Redis ratings: %v", err)
	}

	total, err := ratingCache.GetTotalPlayers(ctx)
	if err != nil {
		log.Fatalf("Failed to verify Redis: %v", err)
	}

	log.Printf("✅ Seeding completed successfully!")
	log.Printf("   - Problems: %d", len(problemCatalog))
	log.Printf("   - Users: %d (each with %d credits)", len(users), StartingCredit)
	log.Printf("   - Redis leaderboard: %d players", total)

	store.Close()
	ratingCache.Close()

	log.Println("\n🎉 Seeder finished!")
}

// seedProblems inserts the starter catalog, skipping slugs that already exist
func seedProblems(ctx context.Context, store *repository.Store) error {
	existing, err := store.ListProblems(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.Slug] = true
	}

	inserted := 0
	for _, p := range problemCatalog {
		if seen[p.Slug] {
			continue
		}
		p.ID = uuid.NewString()
		if err := store.CreateProblem(ctx, &p); err != nil {
			return err
		}
		inserted++
	}

	log.Printf("   ✓ Inserted %d problems (%d already present)", inserted, len(problemCatalog)-inserted)
	return nil
}

// seedUsers provisions demo duelists with starting credit, skipping external
// IDs that already exist
func seedUsers(ctx context.Context, store *repository.Store) ([]models.User, error) {
	users := make([]models.User, 0, DemoUsers)

	for i := 1; i <= DemoUsers; i++ {
		externalID := fmt.Sprintf("seed:%s%d", UsernamePrefix, i)

		existing, err := store.GetUserByExternalID(ctx, externalID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			users = append(users, *existing)
			continue
		}

		user := models.User{
			ID:            uuid.NewString(),
			ExternalID:    externalID,
			Email:         fmt.Sprintf("%s%d@codeduel.dev", UsernamePrefix, i),
			Username:      fmt.Sprintf("%s%d", UsernamePrefix, i),
			Rating:        rating.Initial,
			WalletBalance: decimal.NewFromInt(StartingCredit),
		}
		if err := store.CreateUser(ctx, &user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	log.Printf("   ✓ Provisioned %d demo users", len(users))
	return users, nil
}

// seedRatings populates the Redis leaderboard using pipelining
func seedRatings(ctx context.Context, cache *repository.RatingCache, users []models.User) error {
	startTime := time.Now()

	playerMap := make(map[string]int, len(users))
	for _, user := range users {
		playerMap[user.Username] = user.Rating
	}

	if err := cache.BulkUpdateRatings(ctx, playerMap); err != nil {
		return fmt.Errorf("bulk update failed: %w", err)
	}

	log.Printf("   ✓ Populated Redis with %d players in %v", len(users), time.Since(startTime))
	return nil
}

// initPostgres initializes PostgreSQL connection
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

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// initRedis initializes Redis connection
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.Redis.Username,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
