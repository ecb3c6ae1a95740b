package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jalansafe/routeintel/internal/domain"
)

const (
	redisKeyPrefix = "routeintel:task:"
	// optimistic update retries when a concurrent writer touches the key
	redisUpdateRetries = 5
)

// RedisStore keeps task records as JSON strings so several server
// instances can answer polls for the same task
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisStore creates a store whose records expire retention after their last write
func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		retention: retention,
	}
}

func taskKey(id string) string {
	return redisKeyPrefix + id
}

// Create stores a new record
func (s *RedisStore) Create(ctx context.Context, task domain.AnalysisTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("task: failed to marshal record: %w", err)
	}

	ok, err := s.client.SetNX(ctx, taskKey(task.ID), data, s.retention).Result()
	if err != nil {
		return fmt.Errorf("task: failed to store record: %w", err)
	}
	if !ok {
		return fmt.Errorf("task %s: already exists", task.ID)
	}
	return nil
}

// Get loads a record
func (s *RedisStore) Get(ctx context.Context, id string) (domain.AnalysisTask, error) {
	return s.load(ctx, s.client, id)
}

// Update mutates a non-terminal record under WATCH
func (s *RedisStore) Update(ctx context.Context, id string, mutate func(*domain.AnalysisTask)) error {
	key := taskKey(id)

	txf := func(tx *redis.Tx) error {
		cur, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		next, err := applyUpdate(cur, mutate)
		if err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("task: failed to marshal record: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.retention)
			return nil
		})
		return err
	}

	for i := 0; i < redisUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("task %s: update retries exhausted", id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) load(ctx context.Context, c getter, id string) (domain.AnalysisTask, error) {
	data, err := c.Get(ctx, taskKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.AnalysisTask{}, notFound(id)
	}
	if err != nil {
		return domain.AnalysisTask{}, fmt.Errorf("task: failed to load record: %w", err)
	}

	var task domain.AnalysisTask
	if err := json.Unmarshal(data, &task); err != nil {
		return domain.AnalysisTask{}, fmt.Errorf("task: failed to decode record %s: %w", id, err)
	}
	return task, nil
}
