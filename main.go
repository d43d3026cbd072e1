package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/krshsl/interview-coach/llm"
	"github.com/krshsl/interview-coach/repository"
	"github.com/krshsl/interview-coach/services"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Setup structured logging with JSON format
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	config := services.LoadConfig()
	ctx := context.Background()

	repo, err := newStore(config)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if config.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.Warn("Redis not reachable, token revocation and rate limiting are degraded", "error", err)
		} else {
			slog.Info("Connected to redis", "addr", config.Redis.Addr)
		}
	}

	generator, err := newGenerator(ctx, config.LLM)
	if err != nil {
		slog.Error("Failed to initialize reply generator", "error", err)
		os.Exit(1)
	}

	server := services.NewServer(config, repo, generator, redisClient)

	if config.Database.Seed {
		seeder := services.NewDatabaseSeeder(repo, server.SessionService())
		if err := seeder.SeedDatabase(ctx); err != nil {
			slog.Error("Failed to seed database", "error", err)
		}
	}

	server.Start()
}

// newStore returns the Postgres repository when DATABASE_URL is set and an
// in-memory one otherwise.
func newStore(config *services.Config) (repository.Store, error) {
	if config.Database.URL == "" {
		slog.Warn("Database URL not configured, using in-memory storage")
		return repository.NewMemoryRepository(), nil
	}

	db, err := repository.NewPostgres(repository.PostgresOptions{
		URL:          config.Database.URL,
		LogLevel:     config.Database.LogLevel,
		MaxIdleConns: config.Database.MaxIdleConns,
		MaxOpenConns: config.Database.MaxOpenConns,
	})
	if err != nil {
		return nil, err
	}

	repo := repository.NewGORMRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Info("Connected to database")
	return repo, nil
}

func newGenerator(ctx context.Context, cfg services.LLMConfig) (llm.Generator, error) {
	var generator llm.Generator
	switch cfg.Provider {
	case "", "stub":
		generator = llm.NewStub()
	case "openai", "vllm":
		generator = llm.NewOpenAI(llm.OpenAIConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: float32(cfg.Temperature),
		})
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
		gemini, err := llm.NewGemini(ctx, cfg.GeminiAPIKey, "")
		if err != nil {
			return nil, err
		}
		generator = gemini
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	slog.Info("Reply generator initialized", "provider", cfg.Provider, "timeout", cfg.Timeout.String())
	return llm.WithTimeout(generator, cfg.Timeout), nil
}
