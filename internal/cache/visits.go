// Package cache mirrors hot counters in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// VisitCounterTTL keeps daily counters around long enough for weekly views.
const VisitCounterTTL = 14 * 24 * time.Hour

// VisitCounter counts page views per day.
type VisitCounter interface {
	Incr(ctx context.Context, day string) error
	// Get returns the count for day; ok is false when the counter is
	// unavailable or holds nothing for day.
	Get(ctx context.Context, day string) (n int64, ok bool, err error)
}

// Visits is used by the handlers; it counts nothing until replaced.
var Visits VisitCounter = NopCounter{}

type NopCounter struct{}

func (NopCounter) Incr(context.Context, string) error { return nil }
func (NopCounter) Get(context.Context, string) (int64, bool, error) {
	return 0, false, nil
}

// RedisCounter stores one INCR key per day.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter connects and pings Redis.
func NewRedisCounter(ctx context.Context, addr, password string, db int) (*RedisCounter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &RedisCounter{client: client}, nil
}

func visitKey(day string) string {
	return "clinic:visits:" + day
}

func (r *RedisCounter) Incr(ctx context.Context, day string) error {
	key := visitKey(day)
	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, VisitCounterTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisCounter) Get(ctx context.Context, day string) (int64, bool, error) {
	n, err := r.client.Get(ctx, visitKey(day)).Int64()
	if errors.Is(err, redis.Nil) {
		// a missing key means Redis has not seen today, not zero visits
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (r *RedisCounter) Close() error {
	return r.client.Close()
}
