package procpool

import "testing"

func TestFifoOrder(t *testing.T) {
	q := newFifoQueue()
	if _, ok := q.Pop(); ok {
		t.Fatal("pop from empty queue should report false")
	}

	for i := int64(1); i <= 5; i++ {
		q.Push(&pending{job: &Job{ID: i}})
	}
	if q.Len() != 5 {
		t.Fatalf("len = %d; want 5", q.Len())
	}
	if q.Peek().job.ID != 1 {
		t.Fatalf("peek = %d; want 1", q.Peek().job.ID)
	}
	for i := int64(1); i <= 5; i++ {
		p, ok := q.Pop()
		if !ok || p.job.ID != i {
			t.Fatalf("pop = %v, %v; want job %d", p, ok, i)
		}
	}
}

func TestFifoGrowsPastInitialCapacity(t *testing.T) {
	q := newFifoQueue()

	// Interleave pushes and pops so the ring wraps before growing.
	for i := int64(0); i < 10; i++ {
		q.Push(&pending{job: &Job{ID: i}})
	}
	for i := int64(0); i < 10; i++ {
		q.Pop()
	}

	const n = initialFifoCapacity * 3
	for i := int64(0); i < n; i++ {
		q.Push(&pending{job: &Job{ID: i}})
	}
	if q.Len() != n {
		t.Fatalf("len = %d; want %d", q.Len(), n)
	}
	for i := int64(0); i < n; i++ {
		p, ok := q.Pop()
		if !ok || p.job.ID != i {
			t.Fatalf("pop %d = %v, %v; order lost across growth", i, p, ok)
		}
	}
}
