package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lk2023060901/cardforge/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = "testdata/catalog.json"

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunUsage(t *testing.T) {
	code, _, stderr := execute(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: cardforge")

	code, _, stderr = execute(t, "deploy")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "deploy"`)
}

func TestSimulateCommand(t *testing.T) {
	t.Setenv("CARDFORGE_RNG_SEED", "7")
	code, out, _ := execute(t, "simulate", testCatalog, "starters", "--pulls=25")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Simulated 25 drops.")
	assert.Contains(t, out, "  coins: ")
	assert.Contains(t, out, "Unique cards: ")

	code, _, stderr := execute(t, "simulate", testCatalog, "missing")
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr)

	code, _, stderr = execute(t, "simulate", testCatalog)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "usage: cardforge simulate")
}

func TestChecklistCommand(t *testing.T) {
	code, out, _ := execute(t, "checklist", testCatalog)
	assert.Equal(t, 0, code)
	assert.Equal(t, "No issues found ✅\n", out)

	var cards []string
	for i, exp := range []int{1, 1, 1, 1, 1, 100} {
		cards = append(cards, fmt.Sprintf(
			`{"id": "c%d", "name": "C%d", "description": "d", "rarity": "common", "reward": {"experience": %d, "currencies": {"coins": 1}}}`, i, i, exp))
	}
	doc := fmt.Sprintf(`{"currencies": [{"code": "coins"}], "cards": [%s], "packs": [{"id": "p", "cards": ["c0"]}]}`,
		strings.Join(cards, ","))
	skewed := filepath.Join(t.TempDir(), "skewed.json")
	require.NoError(t, os.WriteFile(skewed, []byte(doc), 0o600))

	code, out, _ = execute(t, "checklist", skewed)
	assert.Equal(t, 1, code)
	assert.Equal(t, "[WARNING] Some cards grant far more experience than the average.\n", out)

	code, _, stderr := execute(t, "checklist", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr)
}

func TestValidateCommand(t *testing.T) {
	code, out, _ := execute(t, "validate", "--catalog", testCatalog)
	assert.Equal(t, 0, code)
	assert.Equal(t, "Catalog is valid ✅\n", out)

	code, out, _ = execute(t, "validate", "--app", testCatalog)
	assert.Equal(t, 0, code)
	assert.Equal(t, "Bot configuration is valid ✅\n", out)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"cards": [{"id": "x"}], "packs": []}`), 0o600))
	code, out, _ = execute(t, "validate", "--catalog", bad)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Catalog errors:\n- ")

	code, _, stderr := execute(t, "validate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "exactly one of --catalog or --app")

	code, _, _ = execute(t, "validate", "--catalog", testCatalog, "--app", testCatalog)
	assert.Equal(t, 1, code)
}

func TestValidateAppReportsDropRules(t *testing.T) {
	t.Setenv("CARDFORGE_DROP_RARITY_WEIGHTS", `{"mythic": 1}`)
	code, out, _ := execute(t, "validate", "--app", testCatalog)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Configuration errors found:")
	assert.Contains(t, out, "- Drop configuration rarity weight contains invalid rarity 'mythic'.")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("CARDFORGE_ADMIN_IDS", "5")
	t.Setenv("CARDFORGE_JWT_SECRET_KEY", "cli-secret")

	code, out, _ := execute(t, "token", "--admin-id", "5", "--username", "ops")
	require.Equal(t, 0, code)

	m, err := security.NewJWTManager(&security.JWTConfig{SecretKey: "cli-secret"})
	require.NoError(t, err)
	claims, err := m.ValidateToken("Bearer " + out[:len(out)-1])
	require.NoError(t, err)
	assert.EqualValues(t, 5, claims.AdminID)
	assert.Equal(t, "ops", claims.Username)

	code, _, stderr := execute(t, "token", "--admin-id", "6")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not listed")
}

func TestVersionCommand(t *testing.T) {
	code, out, _ := execute(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "cardforge")
}
