package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	redisad "reviewsync/internal/adapters/redis"
	"reviewsync/internal/domain"
	"reviewsync/internal/shared"
	mysqlrepo "reviewsync/internal/storage/mysql"
	"reviewsync/internal/storage/sqlite"
	"reviewsync/internal/storage/sqlstore"
)

// openStore opens and migrates the configured database.
func openStore(ctx context.Context, c shared.Config) (*sqlstore.Repo, error) {
	switch c.DBDriver {
	case "mysql":
		repo, err := mysqlrepo.Open(ctx, c.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		log.Info().Str("driver", "mysql").Msg("database ready")
		return repo, nil
	default:
		repo, err := sqlite.Open(ctx, c.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", c.SQLitePath, err)
		}
		log.Info().Str("driver", "sqlite").Str("path", c.SQLitePath).Msg("database ready")
		return repo, nil
	}
}

// openCache connects to Redis when REDIS_ADDR is set. An unreachable Redis is
// logged and treated as no cache; the returned cleanup is always safe to call.
func openCache(ctx context.Context, c shared.Config) (domain.Cache, func()) {
	if c.RedisAddr == "" {
		return nil, func() {}
	}
	rc := redisad.New(c.RedisAddr, c.RedisPass, c.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", c.RedisAddr).Msg("redis unavailable, continuing without cache")
		_ = rc.Close()
		return nil, func() {}
	}
	return rc, func() { _ = rc.Close() }
}
