package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "novapool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	require.Equal(t, "novapool", cfg.AppName)
	require.Equal(t, 128, cfg.BufferPool.Frames)
	require.Equal(t, "clock", cfg.BufferPool.Policy)
	require.True(t, cfg.BufferPool.ReferenceOnHit)
	require.Equal(t, "pages", cfg.Storage.Base)

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelInfo, lvl)
}

func TestLoadConfig_FileEnvAndFlags(t *testing.T) {
	path := writeConfig(t, `
storage:
  workdir: /var/lib/novapool
  pages_per_segment: 64
buffer_pool:
  frames: 16
  policy: lru
  reference_on_hit: false
log:
  level: debug
`)
	t.Setenv("NOVAPOOL_BUFFER_POOL_FRAMES", "32")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("policy", "clock", "")
	flags.Int("frames", 128, "")
	require.NoError(t, flags.Parse([]string{"--policy=clock"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	require.Equal(t, "/var/lib/novapool", cfg.Storage.Workdir)
	require.Equal(t, int32(64), cfg.Storage.PagesPerSegment)
	// env beats file, an unset flag does not override either
	require.Equal(t, 32, cfg.BufferPool.Frames)
	// an explicit flag beats file
	require.Equal(t, "clock", cfg.BufferPool.Policy)
	require.False(t, cfg.BufferPool.ReferenceOnHit)

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "buffer_pool:\n  frames: 0\n"), nil)
	require.ErrorContains(t, err, "frames must be positive")

	_, err = LoadConfig(writeConfig(t, "log:\n  level: loud\n"), nil)
	require.ErrorContains(t, err, "log.level")
}
