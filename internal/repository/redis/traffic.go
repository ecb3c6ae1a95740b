package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const trafficKeyPrefix = "routeintel:route_choices:"

// TrafficRepository keeps route choices in one sorted set per route:
// member = observer id, score = unix microseconds of the latest choice
type TrafficRepository struct {
	client *goredis.Client
	window time.Duration
	now    func() time.Time
}

// NewTrafficRepository creates a traffic store. Observations older than
// window are trimmed on write and the key expires after a quiet window.
func NewTrafficRepository(client *goredis.Client, window time.Duration) *TrafficRepository {
	return &TrafficRepository{
		client: client,
		window: window,
		now:    time.Now,
	}
}

func trafficKey(routeID string) string {
	return trafficKeyPrefix + routeID
}

// Record stores the observer's latest choice of routeID
func (r *TrafficRepository) Record(ctx context.Context, routeID, observerID string) error {
	key := trafficKey(routeID)
	now := r.now()
	cutoff := now.Add(-r.window).UnixMicro()

	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixMicro()), Member: observerID})
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
		pipe.Expire(ctx, key, r.window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: failed to save route choice: %w", err)
	}
	return nil
}

// CountSince counts distinct observers whose latest choice of routeID is at or after since
func (r *TrafficRepository) CountSince(ctx context.Context, routeID string, since time.Time) (int, error) {
	n, err := r.client.ZCount(ctx, trafficKey(routeID), strconv.FormatInt(ceilMicro(since), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("redis: failed to count route choices: %w", err)
	}
	return int(n), nil
}

// ceilMicro rounds t up to a whole microsecond so CountSince never reaches
// before since
func ceilMicro(t time.Time) int64 {
	us := t.UnixMicro()
	if t.Nanosecond()%int(time.Microsecond) != 0 {
		us++
	}
	return us
}

// Health pings the server
func (r *TrafficRepository) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: health check failed: %w", err)
	}
	return nil
}
