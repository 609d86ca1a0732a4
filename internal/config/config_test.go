package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should use defaults when the file is missing", func(t *testing.T) {
		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:8181", cfg.Host)
		assert.Equal(t, "sqlite", cfg.Storage.Backend)
		assert.Equal(t, "0", cfg.Ledger.InitialBalance)
		assert.Empty(t, cfg.Categories.Rules)
	})

	t.Run("should read yaml and let env override it", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		yaml := `
storage:
  backend: file
  path: /tmp/monargent
ledger:
  initialbalance: "150.25"
categories:
  rules:
    - category: groceries
      keywords: [lidl, monoprix]
`
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
		t.Setenv("MONARGENT_STORAGE_BACKEND", "memory")

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.Storage.Backend)
		assert.Equal(t, "/tmp/monargent", cfg.Storage.Path)
		assert.Equal(t, "150.25", cfg.Ledger.InitialBalance)
		require.Len(t, cfg.Categories.Rules, 1)
		assert.Equal(t, "groceries", cfg.Categories.Rules[0].CategoryID)
		assert.Equal(t, []string{"lidl", "monoprix"}, cfg.Categories.Rules[0].Keywords)
	})
}
