package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("STOREFRONT_REDIS_ADDR", "localhost:6380")
	t.Setenv("STOREFRONT_TIMEOUT", "5s")

	p := writeConfig(t, `
apiURL: "https://shop.example.com"
logLevel: "debug"
storage: "redis"
redisAddr: "localhost:6379"
debounceDelay: 250ms
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "https://shop.example.com", cfg.APIURL)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, StorageRedis, cfg.Storage)
	require.Equal(t, "localhost:6380", cfg.RedisAddr)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.Equal(t, 250*time.Millisecond, cfg.DebounceDelay)
	require.Equal(t, 32, cfg.NotifyCapacity)
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, cfg.Timeout)
	require.Equal(t, StorageFile, cfg.Storage)
	require.Equal(t, filepath.Join(dir, "storefront"), cfg.StorageDir)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	bad := []func(*Config){
		func(c *Config) { c.APIURL = "not a url" },
		func(c *Config) { c.Timeout = 0 },
		func(c *Config) { c.LogLevel = "loud" },
		func(c *Config) { c.Storage = "s3" },
		func(c *Config) { c.Storage = StorageRedis; c.RedisAddr = "" },
		func(c *Config) { c.Storage = StoragePostgres; c.PostgresDSN = "" },
		func(c *Config) { c.NotifyCapacity = 0 },
	}
	for i, mut := range bad {
		c := Default()
		mut(&c)
		require.Errorf(t, c.Validate(), "case %d", i)
	}
	require.NoError(t, Default().Validate())
}
