package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients holds the two connections the backend needs: Queue for the
// job list and cached coach stats, PubSub for the session event feed. The
// pub/sub subscription blocks its connection, so it never shares one with
// the queue.
type RedisClients struct {
	Queue  *redis.Client
	PubSub *redis.Client
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Single-user dashboard, a handful of connections is plenty.
	opt.PoolSize = 5

	queue, err := newClient(opt, "queue")
	if err != nil {
		return nil, err
	}

	pubsubOpt := *opt
	pubsub, err := newClient(&pubsubOpt, "pubsub")
	if err != nil {
		queue.Close()
		return nil, err
	}

	return &RedisClients{Queue: queue, PubSub: pubsub}, nil
}

func newClient(opt *redis.Options, role string) (*redis.Client, error) {
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis (%s): %w", role, err)
	}
	return client, nil
}

func (r *RedisClients) Close() {
	r.Queue.Close()
	r.PubSub.Close()
}
