package dao

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/metrics"
	"github.com/lk2023060901/cardforge/pkg/database/postgres"
	"github.com/lk2023060901/cardforge/pkg/logger"
)

// Config 存储配置
type Config struct {
	// Backend memory | sqlite | postgres，sql 与 sqlalchemy 为 sqlite 的别名
	Backend string `mapstructure:"backend"`
	DSN     string `mapstructure:"dsn"`
	EchoSQL bool   `mapstructure:"echo_sql"`
}

// Open 按配置创建存储；postgres 后端的连接池参数取自 pg，DSN 为空时使用 cfg.DSN
func Open(ctx context.Context, cfg Config, pg *postgres.Config, l logger.Logger, m *metrics.CardMetrics) (Store, error) {
	backend, err := NormalizeBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendSQLite:
		return NewSQLiteStore(ctx, cfg.DSN, cfg.EchoSQL, l, m)
	case BackendPostgres:
		pgCfg := postgres.DefaultConfig()
		if pg != nil {
			cp := *pg
			pgCfg = &cp
		}
		if pgCfg.DSN == "" {
			pgCfg.DSN = cfg.DSN
		}
		client, err := postgres.New(pgCfg)
		if err != nil {
			return nil, errors.Wrap(err, "connect postgres store")
		}
		store, err := NewPostgresStore(ctx, client, cfg.EchoSQL, l, m)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return store, nil
	default:
		return NewMemoryStore(), nil
	}
}
