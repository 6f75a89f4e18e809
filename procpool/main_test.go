package procpool

import (
	"errors"
	"os"
	"testing"
	"time"
)

// The test binary doubles as the worker executable: the pool
// re-execs it with the worker marker set, and WorkerMain routes the
// child into the job loop before any test runs.
func TestMain(m *testing.M) {
	registerTestTasks()
	WorkerMain()
	os.Exit(m.Run())
}

func registerTestTasks() {
	MustRegister("add", func(args ...any) (any, error) {
		return args[0].(int) + args[1].(int), nil
	})
	MustRegister("echo", func(args ...any) (any, error) {
		return args[0], nil
	})
	MustRegister("sleep_ms", func(args ...any) (any, error) {
		d := time.Duration(args[0].(int)) * time.Millisecond
		time.Sleep(d)
		return d.String(), nil
	})
	MustRegister("boom", func(args ...any) (any, error) {
		return nil, errors.New("boom")
	})
	MustRegister("panics", func(args ...any) (any, error) {
		panic("kaboom")
	})
	MustRegister("exits", func(args ...any) (any, error) {
		// Simulates a worker crash: the process dies mid-job.
		os.Exit(3)
		return nil, nil
	})
}

// blocked is an unregistered type: gob cannot encode it inside an
// interface, which makes it a submission that fails at the codec.
type blocked struct {
	C chan int
}
