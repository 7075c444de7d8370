package main

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"unotable/internal/auth"
	"unotable/internal/config"
	"unotable/internal/deck"
	"unotable/internal/game"
	"unotable/internal/handlers"
	"unotable/internal/history"
	"unotable/internal/players"
	"unotable/internal/store"
	"unotable/internal/timer"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Fatalf("connect to redis at %s: %v", cfg.RedisAddr, err)
	}
	cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	sessions, err := auth.NewSessions(0)
	if err != nil {
		logger.Fatalf("init session tokens: %v", err)
	}

	hub := handlers.NewHub()
	directory := players.NewDirectory(pool)

	engine := game.NewEngine(
		game.Config{
			MaxPlayers:           cfg.MaxPlayers,
			HandSize:             cfg.HandSize,
			RoundDurationSeconds: cfg.RoundDurationSeconds,
			DiscardPileCap:       cfg.DiscardPileCap,
			AutoPlayDelay:        time.Second,
		},
		logger,
		store.NewRedis(rdb),
		deck.New(),
		directory,
		hub,
		timer.NewManager(),
		&handlers.SideChannels{
			History: history.NewPublisher(rdb, cfg.HistoryQueue),
			Hub:     hub,
		},
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/game/ws/", handlers.GameWSHandler(logger, engine, hub, directory, sessions))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	logger.Infof("listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
