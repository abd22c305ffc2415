package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/openlearn/catalog-backend/internal/platform/envutil"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
)

// Task is one deferred index operation. Tasks that failed synchronously are
// parked on a durable queue and replayed by the retry consumer.
type Task struct {
	Op       string `json:"op"` // "upsert" or "deindex"
	Kind     string `json:"kind"`
	ID       string `json:"id"`
	Attempts int    `json:"attempts"`
}

type RetryQueue interface {
	Enqueue(ctx context.Context, task Task) error
	// Dequeue blocks up to the queue's poll timeout; returns nil when nothing
	// arrived before the timeout.
	Dequeue(ctx context.Context) (*Task, error)
	Close() error
}

type redisQueue struct {
	log *logger.Logger
	rdb *goredis.Client
	key string
}

func NewRedisRetryQueue(log *logger.Logger) (RetryQueue, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := envutil.Str("REDIS_ADDR", "")
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	key := envutil.Str("INDEX_RETRY_QUEUE_KEY", "search:index-retry")

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisQueue{
		log: log.With("service", "IndexRetryQueue"),
		rdb: rdb,
		key: key,
	}, nil
}

func (q *redisQueue) Enqueue(ctx context.Context, task Task) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal retry task: %w", err)
	}
	return q.rdb.LPush(ctx, q.key, raw).Err()
}

func (q *redisQueue) Dequeue(ctx context.Context) (*Task, error) {
	res, err := q.rdb.BRPop(ctx, 5*time.Second, q.key).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPop returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply length %d", len(res))
	}
	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("unmarshal retry task: %w", err)
	}
	return &task, nil
}

func (q *redisQueue) Close() error {
	return q.rdb.Close()
}
