package logx

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	err := Setup(Config{File: path, Level: "debug"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	Named("pool").Debug("worker pool created")
	L().Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "worker pool created") {
		t.Fatalf("log line %q missing message", line)
	}
	if !strings.Contains(line, "pool") || !strings.Contains(line, "DEBUG") {
		t.Fatalf("log line %q missing name or level", line)
	}
}

func TestPerComponentLevelOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	err := Setup(Config{
		File:   path,
		Level:  "debug",
		Levels: map[string]string{"chatty": "warn"},
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	chatty := Named("chatty")
	if chatty.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("override should raise chatty above debug")
	}
	if !chatty.Core().Enabled(zapcore.WarnLevel) {
		t.Fatal("warn must remain enabled")
	}
	if !Named("other").Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("other components must keep the root level")
	}
}

func TestSetupRejectsBadLevel(t *testing.T) {
	if err := Setup(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if err := Setup(Config{Levels: map[string]string{"x": "nope"}}); err == nil {
		t.Fatal("expected error for unknown override level")
	}
}

func TestContextCarriesLogger(t *testing.T) {
	l := zap.NewNop()
	ctx := WithContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatal("context should return the attached logger")
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("bare context must fall back to the root logger")
	}
}
