package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Service.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.MySQL.Enabled)
}

func TestLoadConfigOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service:
  port: 9090
mysql:
  enabled: true
  dsn: "user:pass@tcp(db:3306)/bazaar"
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Service.Port)
	assert.True(t, cfg.MySQL.Enabled)
	// 未覆盖的字段保留缺省值
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service:\n  port: 7070\n"), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := LoadConfig("ignored.yaml")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Service.Port)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service: ["), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
