package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/cadence/pkg/lifecycle"
)

// RedisConfig holds the connection settings for RedisQueue.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	Key          string
	BlockTimeout time.Duration
}

// RedisQueue is a Queue backed by a Redis list. Producers LPUSH and
// consumers BRPOP, giving FIFO delivery across processes.
type RedisQueue struct {
	client       *redis.Client
	key          string
	blockTimeout time.Duration
	closed       atomic.Bool
	logger       *slog.Logger
}

// NewRedisQueue creates a RedisQueue. The connection is verified by the
// startup hook registered in Start.
func NewRedisQueue(cfg RedisConfig, logger *slog.Logger) *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisQueue{
		client:       client,
		key:          cfg.Key,
		blockTimeout: cfg.BlockTimeout,
		logger:       logger.With("system", "queue", "backend", "redis"),
	}
}

func (q *RedisQueue) Start(lc *lifecycle.Coordinator) error {
	q.logger.Info("starting job queue", "key", q.key)

	lc.OnStartup("queue", func(ctx context.Context) error {
		if err := q.client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		q.logger.Info("redis connection established")
		return nil
	})

	lc.OnShutdown(func() {
		q.closed.Store(true)
		if err := q.client.Close(); err != nil {
			q.logger.Error("redis close failed", "error", err)
			return
		}
		q.logger.Info("redis connection closed")
	})

	return nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// Dequeue polls with BRPOP in BlockTimeout slices so that cancellation of
// ctx is observed between polls.
func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Job{}, err
		}
		if q.closed.Load() {
			return Job{}, ErrQueueClosed
		}

		res, err := q.client.BRPop(ctx, q.blockTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Job{}, ctx.Err()
			}
			return Job{}, fmt.Errorf("dequeue job: %w", err)
		}

		// BRPOP returns [key, value].
		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			q.logger.Warn("discarding malformed job", "payload", res[1], "error", err)
			continue
		}
		return job, nil
	}
}

// Len returns the number of pending jobs.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
