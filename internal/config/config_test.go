package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("celestial", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func writeJSON(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "celestial.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefaults(t *testing.T) {
	cfg := load(filepath.Join(t.TempDir(), "missing.json"), newFlags(), nil)
	assert.Equal(t, def(), cfg)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, 2, cfg.ManyPlanetsThreshold)
}

func TestFileEnvFlagsPrecedence(t *testing.T) {
	p := writeJSON(t, `{
		"port": "9000",
		"dbDriver": "sqlite",
		"dbUrl": "file.db",
		"acquireTimeout": "15",
		"shutdownGrace": "3s",
		"seed": true,
		"manyPlanetsThreshold": 4
	}`)
	t.Setenv("CELESTIAL_DB_URL", "env.db")
	t.Setenv("CELESTIAL_MANY_PLANETS", "5")
	t.Setenv("CELESTIAL_DEBUG", "yes")

	cfg := load(p, newFlags(), []string{"-many-planets", "7", "-seed=false"})

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "env.db", cfg.DBURL)
	assert.Equal(t, 15*time.Second, cfg.AcquireTimeout)
	assert.Equal(t, 3*time.Second, cfg.ShutdownGrace)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxLifetime)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.Seed)
	assert.Equal(t, 7, cfg.ManyPlanetsThreshold)
}

func TestConfigFlagRereadsFile(t *testing.T) {
	other := writeJSON(t, `{"port": "7070", "autoMigrate": true}`)
	cfg := load(filepath.Join(t.TempDir(), "missing.json"), newFlags(), []string{"-config", other, "-port", "6060"})
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, "6060", cfg.Port)
}

func TestBrokenFileFallsBackToDefaults(t *testing.T) {
	p := writeJSON(t, `{"port": `)
	cfg := load(p, newFlags(), nil)
	assert.Equal(t, "8080", cfg.Port)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, parseDuration("1m30s", time.Second))
	assert.Equal(t, 20*time.Second, parseDuration(" 20 ", time.Second))
	assert.Equal(t, time.Second, parseDuration("soon", time.Second))
	assert.Equal(t, time.Second, parseDuration("-5s", time.Second))
	assert.Equal(t, time.Second, parseDuration("", time.Second))
}

func TestParseBool(t *testing.T) {
	assert.True(t, parseBool("TRUE", false))
	assert.False(t, parseBool("no", true))
	assert.True(t, parseBool("maybe", true))
}
