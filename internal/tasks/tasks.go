// Package tasks registers the built-in task set served by jobd.
// Registration must happen before procpool.WorkerMain so parent and
// worker children share the same registry.
package tasks

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/EvanAranda/go-ext/procpool"
)

var registerOnce sync.Once

// RegisterAll registers every built-in task. Safe to call more than
// once.
func RegisterAll() {
	registerOnce.Do(func() {
		procpool.MustRegister("add", add)
		procpool.MustRegister("sleep", sleep)
		procpool.MustRegister("sha256sum", sha256sum)
		procpool.MustRegister("fail", fail)
		procpool.MustRegister("uuid", newUUID)
	})
}

// add sums its numeric arguments. JSON-decoded submissions arrive
// as float64, CLI and native ones as int; both are accepted.
func add(args ...any) (any, error) {
	if len(args) == 0 {
		return nil, errors.New("add: need at least one argument")
	}
	var sum float64
	ints := true
	for i, a := range args {
		n, ok := toFloat(a)
		if !ok {
			return nil, fmt.Errorf("add: argument %d (%T) is not a number", i, a)
		}
		if _, isInt := toInt(a); !isInt {
			ints = false
		}
		sum += n
	}
	if ints {
		return int(sum), nil
	}
	return sum, nil
}

// sleep pauses for the given duration ("250ms") or millisecond
// count, then reports how long it slept.
func sleep(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, errors.New("sleep: need exactly one argument")
	}
	var d time.Duration
	switch v := args[0].(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("sleep: %w", err)
		}
		d = parsed
	default:
		ms, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("sleep: argument (%T) is not a duration", v)
		}
		d = time.Duration(ms) * time.Millisecond
	}
	time.Sleep(d)
	return d.String(), nil
}

func sha256sum(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, errors.New("sha256sum: need exactly one argument")
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("sha256sum: argument (%T) is not a string", args[0])
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:]), nil
}

// fail always errors; it exists to exercise the failure paths.
func fail(args ...any) (any, error) {
	msg := "task failed"
	if len(args) > 0 {
		if s, ok := args[0].(string); ok {
			msg = s
		}
	}
	return nil, errors.New(msg)
}

func newUUID(args ...any) (any, error) {
	return uuid.NewString(), nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}
