package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbmap/dialect"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "mapping.xml", cfg.Mapping)
	assert.Equal(t, dialect.SQLite, cfg.Dialect)
	assert.Equal(t, 200*time.Millisecond, cfg.Database.SlowThreshold)
	assert.Empty(t, cfg.Database.Tables)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.NotNil(t, cfg.Logger())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	content := `
mapping: northwind.xml
dialect: postgresql
database:
  dsn: postgres://localhost/northwind
  slow_threshold: 1s
  tables: Customers,Orders
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dbmap.yaml"), []byte(content), 0o644))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "northwind.xml", cfg.Mapping)
	assert.Equal(t, dialect.Postgres, cfg.Dialect)
	assert.Equal(t, "postgres://localhost/northwind", cfg.Database.DSN)
	assert.Equal(t, time.Second, cfg.Database.SlowThreshold)
	assert.Equal(t, []string{"Customers", "Orders"}, cfg.Database.Tables)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnvAndOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DBMAP_DIALECT", "mysql")
	t.Setenv("DBMAP_DATABASE_DSN", "root@/shop")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, dialect.MySQL, cfg.Dialect)
	assert.Equal(t, "root@/shop", cfg.Database.DSN)

	cfg, err = Load("", map[string]any{"dialect": "sqlite3", "no_color": true})
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, cfg.Dialect)
	assert.True(t, cfg.NoColor)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := Load(filepath.Join(dir, "missing.yaml"), nil)
	require.Error(t, err, "an explicit path must exist")

	_, err = Load("", map[string]any{"dialect": "oracle"})
	require.ErrorContains(t, err, "dialect")

	_, err = Load("", map[string]any{"log.level": "loud"})
	require.ErrorContains(t, err, "log.level")

	_, err = Load("", map[string]any{"database.slow_threshold": "-1s"})
	require.ErrorContains(t, err, "slow_threshold")
}
