package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/osr-alliance/backend-lead-tracker/internal/config"
	"github.com/osr-alliance/backend-lead-tracker/internal/leads"
)

type conns struct {
	write *sqlx.DB
	read  *sqlx.DB
	redis *redis.Client // nil when no REDIS_ADDR is set
}

func (c *conns) Close() {
	if c.read != c.write {
		_ = c.read.Close()
	}
	_ = c.write.Close()
	if c.redis != nil {
		_ = c.redis.Close()
	}
}

func createConns(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*conns, error) {
	write, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	read := write
	if cfg.ReadDSN() != cfg.DSN() {
		read, err = sqlx.ConnectContext(ctx, "postgres", cfg.ReadDSN())
		if err != nil {
			_ = write.Close()
			return nil, fmt.Errorf("connect to read replica: %w", err)
		}
	}

	c := &conns{write: write, read: read}
	if cfg.Redis.Addr == "" {
		log.Warn("REDIS_ADDR not set; cache disabled")
		return c, nil
	}

	c.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := c.redis.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return c, nil
}

// openStore connects and builds the lead store; close the returned conns when done
func openStore(ctx context.Context, cfg *config.Config, log *logrus.Entry) (leads.Store, *conns, error) {
	c, err := createConns(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	st, err := leads.New(&leads.Config{
		ReadConn:  c.read,
		WriteConn: c.write,
		Redis:     c.redis,
		CacheTTL:  cfg.CacheTTLSeconds,
		Debugger:  cfg.StorageDebug,
		Logger:    log,
	})
	if err != nil {
		c.Close()
		return nil, nil, err
	}
	return st, c, nil
}
