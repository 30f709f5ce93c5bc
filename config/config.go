package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	ServerPort        int           `env:"SERVER_PORT" envDefault:"8080"`
	DataDir           string        `env:"DATA_DIR" envDefault:"./data"`
	Symbols           []string      `env:"SYMBOLS" envDefault:"EURUSD,GBPUSD,USDJPY,BTCUSDT,ETHUSDT"`
	BaseResolutionMin int           `env:"BASE_RESOLUTION_MIN" envDefault:"5"`
	SeedURL           string        `env:"SEED_URL" envDefault:""`
	SeedAPIKey        string        `env:"SEED_API_KEY" envDefault:""`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	RateLimitRPS      int           `env:"RATE_LIMIT_RPS" envDefault:"20"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := Config{
		ServerPort:        getEnvIntWithDefault("SERVER_PORT", 8080),
		DataDir:           getEnvWithDefault("DATA_DIR", "./data"),
		Symbols:           getEnvListWithDefault("SYMBOLS", []string{"EURUSD", "GBPUSD", "USDJPY", "BTCUSDT", "ETHUSDT"}),
		BaseResolutionMin: getEnvIntWithDefault("BASE_RESOLUTION_MIN", 5),
		SeedURL:           os.Getenv("SEED_URL"),
		SeedAPIKey:        os.Getenv("SEED_API_KEY"),
		RequestTimeout:    getEnvDurationWithDefault("REQUEST_TIMEOUT", 30*time.Second),
		RateLimitRPS:      getEnvIntWithDefault("RATE_LIMIT_RPS", 20),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
	}

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvListWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
