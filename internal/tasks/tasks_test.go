package tasks

import (
	"errors"
	"testing"
	"time"

	"github.com/EvanAranda/go-ext/procpool"
)

// run executes a registered task in-process through the worker
// entry point.
func run(t *testing.T, name string, args ...any) *procpool.Job {
	t.Helper()
	RegisterAll()
	job := &procpool.Job{
		ID:    1,
		Task:  name,
		Args:  args,
		Stats: &procpool.JobStats{SubmittedAt: time.Now()},
	}
	return procpool.EvaluateJob(job)
}

func TestAdd(t *testing.T) {
	cases := []struct {
		name string
		args []any
		want any
	}{
		{"ints", []any{2, 3}, 5},
		{"json numbers", []any{2.5, 3.0}, 5.5},
		{"single", []any{7}, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job := run(t, "add", tc.args...)
			if job.Err != nil {
				t.Fatalf("add: %v", job.Err)
			}
			if job.Result != tc.want {
				t.Fatalf("result = %v (%T); want %v", job.Result, job.Result, tc.want)
			}
		})
	}
}

func TestAddRejectsNonNumbers(t *testing.T) {
	job := run(t, "add", "two", 3)
	if job.Err == nil {
		t.Fatal("expected error for non-numeric argument")
	}
}

func TestSleepParsesDurations(t *testing.T) {
	job := run(t, "sleep", "10ms")
	if job.Err != nil {
		t.Fatalf("sleep: %v", job.Err)
	}
	if job.Result != "10ms" {
		t.Fatalf("result = %v; want 10ms", job.Result)
	}

	job = run(t, "sleep", 10)
	if job.Err != nil {
		t.Fatalf("sleep ms: %v", job.Err)
	}
}

func TestSha256Sum(t *testing.T) {
	job := run(t, "sha256sum", "hello")
	if job.Err != nil {
		t.Fatalf("sha256sum: %v", job.Err)
	}
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if job.Result != want {
		t.Fatalf("sum = %v; want %s", job.Result, want)
	}
}

func TestFail(t *testing.T) {
	job := run(t, "fail", "boom")
	var jfe *procpool.JobFailedError
	if !errors.As(job.Err, &jfe) {
		t.Fatalf("err = %v; want *JobFailedError", job.Err)
	}
	if jfe.Inner.Error() != "boom" {
		t.Fatalf("inner = %q; want boom", jfe.Inner)
	}
}

func TestUUID(t *testing.T) {
	a := run(t, "uuid")
	b := run(t, "uuid")
	if a.Err != nil || b.Err != nil {
		t.Fatalf("uuid: %v / %v", a.Err, b.Err)
	}
	if a.Result == b.Result {
		t.Fatal("uuid results should differ")
	}
}
