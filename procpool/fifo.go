package procpool

const initialFifoCapacity = 64

// fifoQueue is a growable circular-buffer FIFO holding jobs between
// Submit and dispatch. Jobs leave strictly in submission order.
// No priorities, no aging, no reordering — and, deliberately, no
// capacity limit: the pool applies no backpressure.
//
// It is owned by the dispatcher goroutine and needs no locking.
type fifoQueue struct {
	buf        []*pending // circular buffer
	head, tail int        // read/write indices
	size       int
}

func newFifoQueue() *fifoQueue {
	return &fifoQueue{buf: make([]*pending, initialFifoCapacity)}
}

// Len returns the number of jobs currently waiting in the queue.
func (q *fifoQueue) Len() int { return q.size }

// Push inserts a job at the tail, growing the buffer when full.
func (q *fifoQueue) Push(p *pending) {
	if q.size == len(q.buf) {
		q.grow()
	}
	q.buf[q.tail] = p
	q.tail++
	if q.tail == len(q.buf) {
		q.tail = 0
	}
	q.size++
}

// Peek returns the oldest job without removing it, or nil when
// empty.
func (q *fifoQueue) Peek() *pending {
	if q.size == 0 {
		return nil
	}
	return q.buf[q.head]
}

// Pop removes and returns the oldest job.
//
// If the queue is empty, returns nil and false.
func (q *fifoQueue) Pop() (*pending, bool) {
	if q.size == 0 {
		return nil, false
	}
	p := q.buf[q.head]
	q.buf[q.head] = nil
	q.head++
	if q.head == len(q.buf) {
		q.head = 0
	}
	q.size--
	return p, true
}

func (q *fifoQueue) grow() {
	next := make([]*pending, len(q.buf)*2)
	for i := 0; i < q.size; i++ {
		next[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = next
	q.head = 0
	q.tail = q.size
}
