package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE", "")
	t.Setenv("ENVIRONMENT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.Equal(t, 20.0, cfg.Domain.AutoFinishTolerance)
	assert.Equal(t, 6.0, cfg.Domain.NodeHitRadius)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wayfinder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store: dynamodb
table_name: from-file
lock_ttl: 45s
allowed_origins: ["http://localhost:5173"]
domain:
  angle_epsilon_degrees: 3
  distance_epsilon: 0.01
  auto_finish_tolerance: 25
  node_hit_radius: 8
  default_floor: 1
  max_alias_length: 100
  default_search_limit: 5
  max_search_limit: 50
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TABLE_NAME", "from-env")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreDynamoDB, cfg.Store)
	assert.Equal(t, "from-env", cfg.TableName)
	assert.Equal(t, 45*time.Second, cfg.LockTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, 3.0, cfg.Domain.AngleEpsilonDegrees)
	assert.Equal(t, 25.0, cfg.Domain.AutoFinishTolerance)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "read config file")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"dynamodb without table": func(c *Config) { c.Store = StoreDynamoDB },
		"unknown store":          func(c *Config) { c.Store = "postgres" },
		"zero lock ttl":          func(c *Config) { c.LockTTL = 0 },
		"bad log level":          func(c *Config) { c.LogLevel = "chatty" },
		"bad domain":             func(c *Config) { c.Domain.NodeHitRadius = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("WF_LIST", " a, ,b ")
	t.Setenv("WF_DURATION", "bogus")
	t.Setenv("WF_BOOL", "yes")

	assert.Equal(t, []string{"a", "b"}, getEnvList("WF_LIST", nil))
	assert.Equal(t, time.Second, getEnvDuration("WF_DURATION", time.Second))
	assert.True(t, getEnvBool("WF_BOOL", false))
	assert.Equal(t, 7, getEnvInt("WF_UNSET", 7))
}
