package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	t.Setenv("GOEXT_HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 8640 {
		t.Fatalf("port = %d; want default 8640", cfg.API.Port)
	}
	if cfg.Ledger.Path == "" {
		t.Fatal("ledger path default missing")
	}
}

func TestLoadConfigExplicitMissingFileErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for explicit missing config")
	}
}

func TestLoadConfigParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[pool]
workers = 3

[api]
host = "0.0.0.0"
port = 9000

[ledger]
path = "/tmp/test-ledger.db"

[logging]
file = "/tmp/test.log"
level = "info"

[logging.levels]
procpool = "warn"

[[schedule]]
task = "add"
cron = "@every 1m"
args = [2, 3]

[[schedule]]
task = "uuid"
cron = "0 * * * *"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Pool.Workers != 3 {
		t.Fatalf("workers = %d; want 3", cfg.Pool.Workers)
	}
	if cfg.API.Addr() != "0.0.0.0:9000" {
		t.Fatalf("addr = %s; want 0.0.0.0:9000", cfg.API.Addr())
	}
	if cfg.Logging.Levels["procpool"] != "warn" {
		t.Fatalf("level override = %q; want warn", cfg.Logging.Levels["procpool"])
	}
	if len(cfg.Schedules) != 2 {
		t.Fatalf("schedules = %d; want 2", len(cfg.Schedules))
	}
	if cfg.Schedules[0].Task != "add" || len(cfg.Schedules[0].Args) != 2 {
		t.Fatalf("schedule[0] = %+v; want add with two args", cfg.Schedules[0])
	}
}
