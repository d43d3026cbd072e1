package services

import (
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	LLM       LLMConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port string
	// FrontendURL is a comma-separated list of allowed browser origins.
	FrontendURL string
}

type DatabaseConfig struct {
	URL          string
	Seed         bool
	LogLevel     string
	MaxIdleConns int
	MaxOpenConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LLMConfig struct {
	Provider     string
	BaseURL      string
	APIKey       string
	Model        string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
	GeminiAPIKey string
}

type JWTConfig struct {
	Secret string
}

type RateLimitConfig struct {
	LoginLimit  int
	LoginWindow time.Duration
}

// LoadConfig loads configuration from environment variables and config files
func LoadConfig() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.frontend_url", "http://localhost:3000")
	viper.SetDefault("jwt.secret", "fallback-dev-secret")
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.seed", "false")
	viper.SetDefault("database.log_level", "silent")
	viper.SetDefault("database.max_idle_conns", "10")
	viper.SetDefault("database.max_open_conns", "100")
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", "0")
	viper.SetDefault("llm.provider", "stub")
	viper.SetDefault("llm.base_url", "http://localhost:8000/v1")
	viper.SetDefault("llm.api_key", "EMPTY")
	viper.SetDefault("llm.model", "UI-TARS-1.5-7B")
	viper.SetDefault("llm.max_tokens", "512")
	viper.SetDefault("llm.temperature", "0.7")
	viper.SetDefault("llm.timeout", "60s")
	viper.SetDefault("gemini.api_key", "")
	viper.SetDefault("ratelimit.login_limit", "10")
	viper.SetDefault("ratelimit.login_window", "1m")

	// Map environment variables to config keys
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.frontend_url", "FRONTEND_URL")
	viper.BindEnv("jwt.secret", "SECRET_KEY")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("database.seed", "DATABASE_SEED")
	viper.BindEnv("database.log_level", "DATABASE_LOG_LEVEL")
	viper.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")
	viper.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")
	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("llm.provider", "LLM_PROVIDER")
	viper.BindEnv("llm.base_url", "VLLM_BASE_URL")
	viper.BindEnv("llm.api_key", "LLM_API_KEY")
	viper.BindEnv("llm.model", "LLM_MODEL")
	viper.BindEnv("llm.max_tokens", "LLM_MAX_TOKENS")
	viper.BindEnv("llm.temperature", "LLM_TEMPERATURE")
	viper.BindEnv("llm.timeout", "LLM_TIMEOUT")
	viper.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	viper.BindEnv("ratelimit.login_limit", "LOGIN_RATE_LIMIT")
	viper.BindEnv("ratelimit.login_window", "LOGIN_RATE_WINDOW")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("Config file not found, using defaults and environment variables")
		} else {
			slog.Error("Error reading config file", "error", err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:        viper.GetString("server.port"),
			FrontendURL: viper.GetString("server.frontend_url"),
		},
		Database: DatabaseConfig{
			URL:          viper.GetString("database.url"),
			Seed:         viper.GetBool("database.seed"),
			LogLevel:     viper.GetString("database.log_level"),
			MaxIdleConns: viper.GetInt("database.max_idle_conns"),
			MaxOpenConns: viper.GetInt("database.max_open_conns"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		LLM: LLMConfig{
			Provider:     viper.GetString("llm.provider"),
			BaseURL:      viper.GetString("llm.base_url"),
			APIKey:       viper.GetString("llm.api_key"),
			Model:        viper.GetString("llm.model"),
			MaxTokens:    viper.GetInt("llm.max_tokens"),
			Temperature:  viper.GetFloat64("llm.temperature"),
			Timeout:      viper.GetDuration("llm.timeout"),
			GeminiAPIKey: viper.GetString("gemini.api_key"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("jwt.secret"),
		},
		RateLimit: RateLimitConfig{
			LoginLimit:  viper.GetInt("ratelimit.login_limit"),
			LoginWindow: viper.GetDuration("ratelimit.login_window"),
		},
	}
}
