package ledger

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/EvanAranda/go-ext/procpool"
)

var errTest = errors.New("boom")

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func completedJob(id int64, task string, result any, jobErr error) *procpool.Job {
	start := time.Now()
	finish := start.Add(25 * time.Millisecond)
	job := &procpool.Job{
		ID:   id,
		Task: task,
		Stats: &procpool.JobStats{
			SubmittedAt: start.Add(-time.Millisecond),
			StartedAt:   &start,
			FinishedAt:  &finish,
		},
		Result: result,
	}
	if jobErr != nil {
		job.Err = &procpool.JobFailedError{Job: job, Inner: jobErr}
	}
	return job
}

func TestRecordLifecycle(t *testing.T) {
	s := openTestStore(t)

	if err := s.RecordSubmitted("run-1", 1, "add", time.Now()); err != nil {
		t.Fatalf("record submitted: %v", err)
	}

	r, err := s.Get("run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r == nil || r.Status != StatusSubmitted {
		t.Fatalf("record = %+v; want submitted", r)
	}

	if err := s.RecordCompleted("run-1", completedJob(1, "add", 5, nil)); err != nil {
		t.Fatalf("record completed: %v", err)
	}

	r, err = s.Get("run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r.Status != StatusSucceeded {
		t.Fatalf("status = %s; want succeeded", r.Status)
	}
	if r.Result != "5" {
		t.Fatalf("result = %q; want JSON 5", r.Result)
	}
	if r.ElapsedMS != 25 {
		t.Fatalf("elapsed = %d; want 25", r.ElapsedMS)
	}
	if r.StartedAt == nil || r.FinishedAt == nil {
		t.Fatal("timestamps not persisted")
	}
}

func TestRecordFailure(t *testing.T) {
	s := openTestStore(t)

	if err := s.RecordSubmitted("run-2", 2, "fail", time.Now()); err != nil {
		t.Fatalf("record submitted: %v", err)
	}
	job := completedJob(2, "fail", nil, errTest)
	if err := s.RecordCompleted("run-2", job); err != nil {
		t.Fatalf("record completed: %v", err)
	}

	r, err := s.Get("run-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r.Status != StatusFailed {
		t.Fatalf("status = %s; want failed", r.Status)
	}
	if r.Error == "" {
		t.Fatal("error text not persisted")
	}
	if r.Result != "" {
		t.Fatalf("result = %q; want empty on failure", r.Result)
	}
}

func TestGetUnknownRun(t *testing.T) {
	s := openTestStore(t)
	r, err := s.Get("nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r != nil {
		t.Fatalf("record = %+v; want nil", r)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Now()
	for i := int64(1); i <= 3; i++ {
		if err := s.RecordSubmitted(
			string(rune('a'+i-1)), i, "add", base.Add(time.Duration(i)*time.Second),
		); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	records, err := s.List(2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d; want 2", len(records))
	}
	if records[0].JobID != 3 || records[1].JobID != 2 {
		t.Fatalf("order = %d, %d; want newest first", records[0].JobID, records[1].JobID)
	}
}
