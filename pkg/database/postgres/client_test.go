package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"ok", func(c *Config) { c.DSN = "postgres://localhost/cardforge" }, false},
		{"empty dsn", func(c *Config) {}, true},
		{"min above max", func(c *Config) {
			c.DSN = "postgres://localhost/cardforge"
			c.Pool.MinConns = 50
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilConfig)
}

// 需要设置 CARDFORGE_TEST_POSTGRES_DSN 才会运行
func TestClient_Integration(t *testing.T) {
	dsn := os.Getenv("CARDFORGE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CARDFORGE_TEST_POSTGRES_DSN not set")
	}

	c, err := New(&Config{DSN: dsn})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	_, err = c.Exec(ctx, `CREATE TABLE IF NOT EXISTS pg_client_check (id INT PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = c.Exec(context.Background(), `DROP TABLE pg_client_check`) })

	require.NoError(t, c.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO pg_client_check (id, name) VALUES (1, 'alpha')`)
		return err
	}))

	var name string
	require.NoError(t, c.QueryRow(ctx, `SELECT name FROM pg_client_check WHERE id = $1`, []any{1}, &name))
	assert.Equal(t, "alpha", name)

	err = c.QueryRow(ctx, `SELECT name FROM pg_client_check WHERE id = $1`, []any{2}, &name)
	assert.ErrorIs(t, err, ErrNoRows)
}
