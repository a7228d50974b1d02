// Package db opens the optional PostgreSQL pool and Redis client.
// Either backend may be left unconfigured; callers check for nil.
package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Conns groups the connections opened at startup.
type Conns struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// Open connects to every backend whose URL is non-empty.
// On error, anything already opened is closed.
func Open(ctx context.Context, databaseURL, redisURL string) (*Conns, error) {
	c := &Conns{}

	if databaseURL != "" {
		log.Println("[db] Connecting to PostgreSQL…")
		pool, err := NewPostgresPool(ctx, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		c.Pool = pool
		log.Println("[db] PostgreSQL connected ✓")
	} else {
		log.Println("[db] DATABASE_URL not set — snapshot archive and watch list disabled")
	}

	if redisURL != "" {
		log.Println("[db] Connecting to Redis…")
		rdb, err := NewRedisClient(ctx, redisURL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		c.Redis = rdb
		log.Println("[db] Redis connected ✓")
	} else {
		log.Println("[db] REDIS_URL not set — batch results kept in memory")
	}

	return c, nil
}

// Close releases whatever Open managed to connect.
func (c *Conns) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
