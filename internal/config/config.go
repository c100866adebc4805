// Package config loads settings from an optional YAML file with environment
// overrides, after pulling a .env file into the environment if one exists.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Feed      FeedConfig      `yaml:"feed"`
	Exchanges ExchangesConfig `yaml:"exchanges"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

type FeedConfig struct {
	// Pairs is the comma-separated currency pair list, e.g. "XRPBTC,ETHBTC".
	Pairs          string        `yaml:"pairs"`
	Multiplier     int64         `yaml:"multiplier"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

type ExchangesConfig struct {
	Bitfinex   ExchangeConfig `yaml:"bitfinex"`
	BTCMarkets ExchangeConfig `yaml:"btcmarkets"`
}

type ExchangeConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              "127.0.0.1:60400",
			HeartbeatInterval: time.Second,
		},
		Feed: FeedConfig{
			Pairs:          "XRPBTC",
			Multiplier:     100_000_000,
			ReconnectDelay: 10 * time.Second,
		},
		Exchanges: ExchangesConfig{
			Bitfinex:   ExchangeConfig{Enabled: true, Addr: "wss://api.bitfinex.com/ws/2"},
			BTCMarkets: ExchangeConfig{Enabled: true, Addr: "wss://socket.btcmarkets.net"},
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file if
// given, then environment variables. Errors here are the one process-fatal
// path in the system.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.Feed.Multiplier <= 0 {
		return Config{}, fmt.Errorf("config: multiplier must be positive, got %d", cfg.Feed.Multiplier)
	}
	if cfg.Server.Addr == "" {
		return Config{}, fmt.Errorf("config: server addr is required")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "SERVER_ADDR")
	setString(&cfg.Feed.Pairs, "PAIRS")
	setString(&cfg.Exchanges.Bitfinex.Addr, "BITFINEX_ADDR")
	setString(&cfg.Exchanges.BTCMarkets.Addr, "BTCMARKETS_ADDR")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.File, "LOG_FILE")
	if err := setInt64(&cfg.Feed.Multiplier, "MULTIPLIER"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Feed.ReconnectDelay, "RECONNECT_DELAY"); err != nil {
		return err
	}
	return setDuration(&cfg.Server.HeartbeatInterval, "HEARTBEAT_INTERVAL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt64(dst *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
