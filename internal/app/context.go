package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/sparkvine/matchcore/internal/cache"
	"github.com/sparkvine/matchcore/internal/config"
)

// AppContext holds shared dependencies (DB, Redis, Logger, Config)
// constructed once in main and passed explicitly to services.
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Config     *config.Config
}

// New creates a new AppContext
func New(database *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, cfg *config.Config) *AppContext {
	return &AppContext{
		DB:         database,
		RedisCache: rdb,
		Logger:     logger,
		Config:     cfg,
	}
}
