package session

import (
	"context"
	"fmt"

	"github.com/pribylovaa/paybudz-client/internal/config"
)

// Идентификаторы поддерживаемых драйверов.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// New создаёт хранилище по конфигурации. Пустой драйвер — memory.
func New(ctx context.Context, cfg config.SessionConfig) (Store, error) {
	const op = "session.New"

	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		return NewFile(cfg.FilePath)
	case DriverSQLite:
		db, err := OpenSQLite(cfg.SQLiteDSN)
		if err != nil {
			return nil, err
		}
		st, err := NewSQLite(db)
		if err != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
			return nil, err
		}
		return st, nil
	case DriverRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("%s: redis driver requires redis_url", op)
		}
		return NewRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("%s: %w: %s", op, ErrUnsupportedDriver, driver)
	}
}
