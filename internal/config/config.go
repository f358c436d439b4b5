package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host string
		Port string
	}

	AMQP struct {
		URL   string
		Queue string
	}

	// Scoring holds the compatibility weights. Weights are relative;
	// the scorer normalizes against their sum.
	Scoring struct {
		DistanceWeight  float64
		AgeWeight       float64
		InterestWeight  float64
		AttributeWeight float64
		// AgeDecayPerYear is the per-year penalty applied to the age
		// sub-score for candidates outside the preferred range.
		AgeDecayPerYear float64
	}

	Queue struct {
		Freshness    time.Duration
		CandidateCap int
		MaxLength    int
	}

	Swipe struct {
		IdempotencyWindow time.Duration
		UndoWindow        time.Duration
		DailyLimit        int64
	}
}

func New() *Config {
	// Optional .env for local development; real env vars win.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "production")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "match_engine")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "matchcore")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	// AMQP (optional; empty URL disables the publisher)
	cfg.AMQP.URL = os.Getenv("AMQP_URL")
	cfg.AMQP.Queue = getEnvDefault("AMQP_MATCH_QUEUE", "match_events")

	// Scoring weights
	cfg.Scoring.DistanceWeight = getEnvFloat("SCORE_WEIGHT_DISTANCE", 35)
	cfg.Scoring.AgeWeight = getEnvFloat("SCORE_WEIGHT_AGE", 25)
	cfg.Scoring.InterestWeight = getEnvFloat("SCORE_WEIGHT_INTERESTS", 25)
	cfg.Scoring.AttributeWeight = getEnvFloat("SCORE_WEIGHT_ATTRIBUTES", 15)
	cfg.Scoring.AgeDecayPerYear = getEnvFloat("SCORE_AGE_DECAY_PER_YEAR", 0.2)

	// Queue building
	cfg.Queue.Freshness = getEnvDuration("QUEUE_FRESHNESS", 10*time.Minute)
	cfg.Queue.CandidateCap = getEnvInt("QUEUE_CANDIDATE_CAP", 500)
	cfg.Queue.MaxLength = getEnvInt("QUEUE_LENGTH", 50)

	// Swipe processing
	cfg.Swipe.IdempotencyWindow = getEnvDuration("SWIPE_IDEMPOTENCY_WINDOW", 10*time.Second)
	cfg.Swipe.UndoWindow = getEnvDuration("UNDO_WINDOW", 5*time.Minute)
	cfg.Swipe.DailyLimit = int64(getEnvInt("SWIPE_DAILY_LIMIT", 100))

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
