/*
Package config loads pointsd settings.

SOURCES (later wins):
  1. Default()
  2. TOML file (--config), e.g.

       [server]
       port = 8080
       read_timeout = "15s"

       [store]
       driver = "sqlite"
       path = "points.db"

       [kafka]
       brokers = ["localhost:9092"]

       [spend]
       mode = "residual"

  3. Environment, optionally seeded from a .env file:
       POINTS_HOST, POINTS_PORT, POINTS_DB, POINTS_STORE,
       POINTS_LOG_LEVEL, POINTS_LOG_FORMAT,
       POINTS_KAFKA_BROKERS (comma separated), POINTS_KAFKA_TOPIC,
       POINTS_SPEND_MODE
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/warp/points-engine/rewards"
)

type Config struct {
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Kafka  KafkaConfig  `toml:"kafka"`
	Log    LogConfig    `toml:"log"`
	Spend  SpendConfig  `toml:"spend"`
}

type ServerConfig struct {
	Host            string        `toml:"host"`
	Port            int           `toml:"port"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	IdleTimeout     time.Duration `toml:"idle_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	AllowedOrigins  []string      `toml:"allowed_origins"`
}

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type StoreConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
}

// KafkaConfig enables event publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type SpendConfig struct {
	Mode string `toml:"mode"`
}

// Default returns production defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Store: StoreConfig{Driver: DriverSQLite, Path: "points.db"},
		Log:   LogConfig{Level: "info", Format: "json"},
		Spend: SpendConfig{Mode: string(rewards.ConsumeResidual)},
	}
}

// Load reads path (skipped when empty) on top of Default, then applies the
// environment. envFile, when non-empty, is loaded first; a missing file is
// not an error.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read env file %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("POINTS_HOST"); ok {
		c.Server.Host = v
	}
	if v, ok := os.LookupEnv("POINTS_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POINTS_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := os.LookupEnv("POINTS_STORE"); ok {
		c.Store.Driver = v
	}
	if v, ok := os.LookupEnv("POINTS_DB"); ok {
		c.Store.Path = v
	}
	if v, ok := os.LookupEnv("POINTS_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv("POINTS_LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	if v, ok := os.LookupEnv("POINTS_KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
	}
	if v, ok := os.LookupEnv("POINTS_KAFKA_TOPIC"); ok {
		c.Kafka.Topic = v
	}
	if v, ok := os.LookupEnv("POINTS_SPEND_MODE"); ok {
		c.Spend.Mode = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return errors.New("store.path is required for the sqlite driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if _, err := rewards.ParseConsumptionMode(c.Spend.Mode); err != nil {
		return fmt.Errorf("spend.mode: %w", err)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ConsumptionMode returns the validated spend mode.
func (c Config) ConsumptionMode() rewards.ConsumptionMode {
	mode, _ := rewards.ParseConsumptionMode(c.Spend.Mode)
	return mode
}
