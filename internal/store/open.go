package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Skufu/glucocheck/internal/config"
)

// Open builds the store selected by cfg.HistoryDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.HistoryDriver {
	case config.DriverMemory:
		return NewMemory(cfg.HistorySize), nil
	case config.DriverSQLite:
		s, err := NewSQLite(cfg.SQLitePath, cfg.HistorySize)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := ConnectPostgres(ctx, cfg.DatabaseURL, cfg.HistorySize)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverRedis:
		s := NewRedis(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      30 * 24 * time.Hour,
		}, cfg.HistorySize)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.Ping(pingCtx); err != nil {
			s.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.HistoryDriver)
	}
}
