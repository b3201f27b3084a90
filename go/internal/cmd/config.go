package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/mcdev12/pairmatch/go/internal/game/session"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel string         `yaml:"log_level"`
	Game     session.Config `yaml:"game"`
	Ledger   struct {
		Owner string `yaml:"owner"`
		Fund  int64  `yaml:"fund"`
	} `yaml:"ledger"`
	Autoplay struct {
		Players           []string      `yaml:"players"`
		Strategy          string        `yaml:"strategy"`
		ThinkTime         time.Duration `yaml:"think_time"`
		SessionsPerPlayer int           `yaml:"sessions_per_player"`
	} `yaml:"autoplay"`
}

func defaultConfig() *Config {
	cfg := &Config{
		LogLevel: "info",
		Game:     session.DefaultConfig(),
	}
	cfg.Ledger.Owner = "house"
	cfg.Ledger.Fund = 500
	cfg.Autoplay.Players = []string{"alice", "bob", "carol"}
	cfg.Autoplay.Strategy = "memory"
	cfg.Autoplay.ThinkTime = 50 * time.Millisecond
	cfg.Autoplay.SessionsPerPlayer = 1
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadConfig overlays the YAML file at path on the defaults. A missing file
// yields the defaults.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if err := c.Game.Validate(); err != nil {
		return err
	}
	if c.Ledger.Owner == "" {
		return errors.New("ledger.owner is required")
	}
	if c.Ledger.Fund < 0 {
		return errors.New("ledger.fund must not be negative")
	}
	switch c.Autoplay.Strategy {
	case "memory", "random":
	default:
		return fmt.Errorf("unknown autoplay strategy %q", c.Autoplay.Strategy)
	}
	if c.Autoplay.ThinkTime <= 0 {
		return errors.New("autoplay.think_time must be positive")
	}
	return nil
}
