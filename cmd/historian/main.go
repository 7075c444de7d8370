// The historian drains session-update records from the Redis history
// queue and consolidates them into Postgres in batches.
//
// Expected schema:
//
//	CREATE TABLE session_history (
//	    session_id UUID NOT NULL,
//	    occurred_at TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (session_id, occurred_at)
//	);
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"unotable/internal/config"
	"unotable/internal/history"
)

type historian struct {
	log   *logrus.Logger
	rdb   *redis.Client
	pool  *pgxpool.Pool
	queue string

	batchSize  int
	flushDelay time.Duration

	mu    sync.Mutex
	batch []history.SessionUpdateRecord
}

func main() {
	cfg := config.Load()
	logger := logrus.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	queue := cfg.HistoryQueue
	if queue == "" {
		queue = history.DefaultQueueName
	}
	h := &historian{
		log:        logger,
		rdb:        rdb,
		pool:       pool,
		queue:      queue,
		batchSize:  20,
		flushDelay: 500 * time.Millisecond,
	}

	go h.flushLoop(ctx)
	logger.Infof("historian draining %q", queue)
	h.readLoop(ctx)

	// Final flush on shutdown.
	h.flush(context.Background())
}

func (h *historian) readLoop(ctx context.Context) {
	for {
		res, err := h.rdb.BLPop(ctx, 2*time.Second, h.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			h.log.WithError(err).Warn("pop history record")
			time.Sleep(time.Second)
			continue
		}
		// res[0] is the queue name, res[1] the payload.
		var rec history.SessionUpdateRecord
		if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
			h.log.WithError(err).Warn("malformed history record")
			continue
		}

		h.mu.Lock()
		h.batch = append(h.batch, rec)
		full := len(h.batch) >= h.batchSize
		h.mu.Unlock()
		if full {
			h.flush(ctx)
		}
	}
}

func (h *historian) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(h.flushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.flush(ctx)
		}
	}
}

func (h *historian) flush(ctx context.Context) {
	h.mu.Lock()
	batch := h.batch
	h.batch = nil
	h.mu.Unlock()
	if len(batch) == 0 {
		return
	}

	err := pgx.BeginTxFunc(ctx, h.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batch {
			q := `
				INSERT INTO session_history (session_id, occurred_at)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`
			if _, err := tx.Exec(ctx, q, rec.SessionID, time.UnixMilli(rec.Timestamp)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.log.WithError(err).Errorf("flush %d history record(s)", len(batch))
		return
	}
	h.log.Debugf("flushed %d history record(s)", len(batch))
}
