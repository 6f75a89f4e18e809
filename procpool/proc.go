package procpool

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const killWaitTimeout = 5 * time.Second

// workerProc is the parent-side view of one worker child process:
// the running command, the gob codec over its pipes, and a bounded
// capture of its stderr for crash diagnostics.
type workerProc struct {
	id     int
	cmd    *exec.Cmd
	stdin  *os.File
	codec  *jobCodec
	stderr *limitedBuffer

	killOnce sync.Once
}

// spawnWorker re-execs the host binary as a pool worker. The child
// is expected to call WorkerMain, which the marker environment
// variable routes into the job loop.
func spawnWorker(exe string, id int) (*workerProc, error) {
	cmd := exec.Command(exe)
	cmd.Env = append(os.Environ(), workerEnvVar+"=1")

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		stdinR.Close()
		stdinW.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	stderr := &limitedBuffer{max: 8192}
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		stdinR.Close()
		stdinW.Close()
		stdoutR.Close()
		stdoutW.Close()
		return nil, fmt.Errorf("start worker: %w", err)
	}

	// The child holds its own ends now.
	stdinR.Close()
	stdoutW.Close()

	return &workerProc{
		id:     id,
		cmd:    cmd,
		stdin:  stdinW,
		codec:  newJobCodec(stdoutR, stdinW),
		stderr: stderr,
	}, nil
}

// kill forcibly terminates the worker process and reaps it, waiting
// at most killWaitTimeout. Safe to call more than once and from
// multiple goroutines.
func (w *workerProc) kill() {
	w.killOnce.Do(func() {
		w.stdin.Close()
		if w.cmd.Process != nil {
			w.cmd.Process.Kill()
		}
		done := make(chan struct{})
		go func() {
			w.cmd.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(killWaitTimeout):
		}
	})
}

// stderrTail returns the last captured lines of the worker's stderr
// for inclusion in crash errors.
func (w *workerProc) stderrTail() string {
	s := strings.TrimSpace(w.stderr.String())
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 10 {
		lines = lines[len(lines)-10:]
	}
	return strings.Join(lines, "\n")
}

// limitedBuffer is a thread-safe buffer that keeps only the last N
// bytes. Used to capture worker stderr without unbounded memory.
type limitedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, err := b.buf.Write(p)
	if b.buf.Len() > b.max {
		data := b.buf.Bytes()
		b.buf.Reset()
		b.buf.Write(data[len(data)-b.max:])
	}
	return n, err
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
