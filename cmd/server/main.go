package main

import (
	"context"

	"github.com/gorilla/mux"

	"github.com/sparkvine/matchcore/internal/app"
	"github.com/sparkvine/matchcore/internal/cache"
	"github.com/sparkvine/matchcore/internal/config"
	"github.com/sparkvine/matchcore/internal/db"
	"github.com/sparkvine/matchcore/internal/events"
	"github.com/sparkvine/matchcore/internal/handler"
	"github.com/sparkvine/matchcore/internal/logger"
	"github.com/sparkvine/matchcore/internal/policy"
	"github.com/sparkvine/matchcore/internal/scoring"
	"github.com/sparkvine/matchcore/internal/server"
	matchsvc "github.com/sparkvine/matchcore/internal/service/match"
	queuesvc "github.com/sparkvine/matchcore/internal/service/queue"
	swipesvc "github.com/sparkvine/matchcore/internal/service/swipe"
)

func main() {
	cfg := config.New()

	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log, cfg)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	var emitter events.Emitter = events.NewLogEmitter(log)
	if cfg.AMQP.URL != "" {
		amqpEmitter, err := events.NewAMQPEmitter(cfg.AMQP.URL, cfg.AMQP.Queue, log)
		if err != nil {
			log.Error("failed to init amqp emitter", "err", err)
			return
		}
		defer amqpEmitter.Close()
		emitter = amqpEmitter
	}

	checker := policy.NewDailyLimit(redisCache, cfg.Swipe.DailyLimit)
	scorer := scoring.NewScorer(scoring.WeightsFromConfig(cfg))

	swipes := swipesvc.NewService(appCtx, emitter, checker)
	queues := queuesvc.NewService(appCtx, scorer)
	matches := matchsvc.NewService(appCtx)

	router := mux.NewRouter()
	handler.RegisterRoutes(router,
		handler.NewSwipeHandler(swipes),
		handler.NewQueueHandler(queues),
		handler.NewMatchHandler(matches),
	)

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting http server", "addr", addr)

	if err := server.StartHTTPServer(cfg, router); err != nil {
		log.Error("http server stopped", "err", err)
	}
}
