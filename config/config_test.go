package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/points-engine/config"
	"github.com/warp/points-engine/rewards"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, config.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "points.db", cfg.Store.Path)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, rewards.ConsumeResidual, cfg.ConsumptionMode())
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "pointsd.toml", `
[server]
port = 9090
read_timeout = "5s"

[store]
driver = "memory"

[kafka]
brokers = ["k1:9092", "k2:9092"]
topic = "spends"

[spend]
mode = "stale"
`)

	cfg, err := config.Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "spends", cfg.Kafka.Topic)
	assert.Equal(t, rewards.ConsumeStale, cfg.ConsumptionMode())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "pointsd.toml", "[server]\nport = 9090\n")
	t.Setenv("POINTS_PORT", "7070")
	t.Setenv("POINTS_DB", "/tmp/other.db")
	t.Setenv("POINTS_KAFKA_BROKERS", "a:1, b:2,")

	cfg, err := config.Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/tmp/other.db", cfg.Store.Path)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Kafka.Brokers)
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "POINTS_SPEND_MODE=stale\n")
	t.Setenv("POINTS_SPEND_MODE", "")
	os.Unsetenv("POINTS_SPEND_MODE")

	cfg, err := config.Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, rewards.ConsumeStale, cfg.ConsumptionMode())
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	_, err := config.Load("", filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"bad port", "[server]\nport = 70000\n"},
		{"bad driver", "[store]\ndriver = \"mongo\"\n"},
		{"bad mode", "[spend]\nmode = \"lifo\"\n"},
		{"sqlite without path", "[store]\ndriver = \"sqlite\"\npath = \"\"\n"},
		{"syntax", "[server\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, "c.toml", tt.toml), "")
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadPortEnv(t *testing.T) {
	t.Setenv("POINTS_PORT", "eighty")
	_, err := config.Load("", "")
	assert.Error(t, err)
}
