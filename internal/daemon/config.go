// Package daemon wires the job pool, ledger, HTTP API, and
// schedules into the jobd runtime.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/EvanAranda/go-ext/logx"
)

// Config holds all jobd configuration.
type Config struct {
	Pool      PoolConfig       `toml:"pool"`
	API       APIConfig        `toml:"api"`
	Ledger    LedgerConfig     `toml:"ledger"`
	Logging   logx.Config      `toml:"logging"`
	Schedules []ScheduleConfig `toml:"schedule"`
}

// PoolConfig controls the worker pool.
type PoolConfig struct {
	// Workers is the worker process count. Zero means GOMAXPROCS.
	Workers int `toml:"workers"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LedgerConfig controls job history storage.
type LedgerConfig struct {
	Path string `toml:"path"`
}

// ScheduleConfig is one recurring submission: the named task runs
// with the given args on the cron expression.
type ScheduleConfig struct {
	Task string `toml:"task"`
	Cron string `toml:"cron"`
	Args []any  `toml:"args"`
}

func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	home := goextHome()
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8640,
		},
		Ledger: LedgerConfig{
			Path: filepath.Join(home, "ledger.db"),
		},
		Logging: logx.Config{
			File:  filepath.Join(home, "jobd.log"),
			Level: "debug",
		},
	}
}

// LoadConfig reads config from path, or from the home directory's
// config.toml when path is empty, falling back to defaults when no
// file exists.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if path == "" {
		path = filepath.Join(goextHome(), "config.toml")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return cfg, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// goextHome returns the jobd data directory.
func goextHome() string {
	if env := os.Getenv("GOEXT_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".goext")
}
