package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lk2023060901/cardforge/pkg/config"
)

// Client PostgreSQL 客户端
type Client struct {
	pool *pgxpool.Pool
	cfg  *Config
}

// New 创建客户端并检查连通性
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	if err := merged.validate(); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(merged.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}
	poolConfig.MaxConns = merged.Pool.MaxConns
	poolConfig.MinConns = merged.Pool.MinConns
	poolConfig.MaxConnLifetime = merged.Pool.MaxConnLifetime
	poolConfig.MaxConnIdleTime = merged.Pool.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = merged.Pool.HealthCheckPeriod

	ctx, cancel := context.WithTimeout(context.Background(), merged.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{pool: pool, cfg: merged}, nil
}

// Close 关闭连接池
func (c *Client) Close() error {
	c.pool.Close()
	return nil
}

// Ping 检查数据库连接
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *Client) applyQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.QueryTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.QueryTimeout)
	}
	return ctx, func() {}
}

// Exec 执行写操作，返回影响行数
func (c *Client) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	result, err := c.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	return result.RowsAffected(), nil
}

// QueryRow 查询单行并扫描到 dest，没有数据时返回 ErrNoRows
func (c *Client) QueryRow(ctx context.Context, sql string, args []any, dest ...any) error {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	if err := c.pool.QueryRow(ctx, sql, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoRows
		}
		return fmt.Errorf("query row failed: %w", err)
	}
	return nil
}

// Query 查询多行，每行回调一次 fn
func (c *Client) Query(ctx context.Context, sql string, args []any, fn func(pgx.Rows) error) error {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// WithTx 在事务中执行 fn，fn 返回错误时回滚
func (c *Client) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx failed: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx failed: %w", err)
	}
	return nil
}
