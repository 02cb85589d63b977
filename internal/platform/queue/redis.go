package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kaab_hub/internal/domain/model"
	"kaab_hub/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// ErrEmpty is returned by Pop when the wait elapsed with nothing queued.
var ErrEmpty = errors.New("queue: no job available")

func Connect(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to redis: %w", err)
	}
	return rdb, nil
}

// NotificationQueue is a Redis list of JSON-encoded notification jobs.
// Producers LPUSH, the worker BRPOPs, so jobs are handled in FIFO order.
type NotificationQueue struct {
	rdb  redis.Cmdable
	name string
}

func NewNotificationQueue(rdb redis.Cmdable, name string) *NotificationQueue {
	return &NotificationQueue{rdb: rdb, name: name}
}

func (q *NotificationQueue) Name() string { return q.name }

func (q *NotificationQueue) Dispatch(ctx context.Context, job model.NotificationJob) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("NotificationQueue.Dispatch: marshal: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("NotificationQueue.Dispatch: %w", err)
	}
	return nil
}

// Pop blocks for up to wait for the next job. A zero wait blocks until a job
// arrives or ctx is cancelled.
func (q *NotificationQueue) Pop(ctx context.Context, wait time.Duration) (model.NotificationJob, error) {
	var job model.NotificationJob
	res, err := q.rdb.BRPop(ctx, wait, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return job, ErrEmpty
		}
		return job, fmt.Errorf("NotificationQueue.Pop: %w", err)
	}
	// res is [queueName, value]
	if len(res) < 2 || res[1] == "" {
		return job, ErrEmpty
	}
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return job, fmt.Errorf("NotificationQueue.Pop: decode %q: %w", res[1], err)
	}
	return job, nil
}
