package procpool

import (
	"encoding/gob"
	"errors"
	"io"
	"time"
)

// jobFrame is the wire form of a Job. The failure wrapper is
// flattened to its inner message because error values do not gob
// encode; the receiving side rebuilds a JobFailedError around it.
type jobFrame struct {
	ID      int64
	Task    string
	Args    []any
	Stats   *JobStats
	Result  any
	Failed  bool
	FailMsg string
}

func frameFromJob(j *Job) *jobFrame {
	f := &jobFrame{
		ID:     j.ID,
		Task:   j.Task,
		Args:   j.Args,
		Stats:  j.Stats,
		Result: j.Result,
	}
	if j.Err != nil {
		f.Failed = true
		var jfe *JobFailedError
		if errors.As(j.Err, &jfe) {
			f.FailMsg = jfe.Inner.Error()
		} else {
			f.FailMsg = j.Err.Error()
		}
	}
	return f
}

func (f *jobFrame) toJob() *Job {
	j := &Job{
		ID:     f.ID,
		Task:   f.Task,
		Args:   f.Args,
		Stats:  f.Stats,
		Result: f.Result,
	}
	if f.Failed {
		j.Err = &JobFailedError{Job: j, Inner: errors.New(f.FailMsg)}
	}
	return j
}

// jobCodec is a persistent gob stream over a worker's pipes. Gob
// streams carry type information once, so the encoder and decoder
// must live as long as the connection.
type jobCodec struct {
	enc *gob.Encoder
	dec *gob.Decoder
}

func newJobCodec(r io.Reader, w io.Writer) *jobCodec {
	return &jobCodec{
		enc: gob.NewEncoder(w),
		dec: gob.NewDecoder(r),
	}
}

func (c *jobCodec) write(j *Job) error {
	return c.enc.Encode(frameFromJob(j))
}

func (c *jobCodec) read() (*Job, error) {
	var f jobFrame
	if err := c.dec.Decode(&f); err != nil {
		return nil, err
	}
	return f.toJob(), nil
}

// RegisterType makes a concrete type transferable inside Args and
// Result. Gob requires registration for any concrete type carried
// in an interface value; both parent and child register the same
// set because they run the same binary.
func RegisterType(v any) { gob.Register(v) }

func init() {
	for _, v := range []any{
		int(0), int32(0), int64(0), uint(0), uint32(0), uint64(0),
		float32(0), float64(0),
		"", false,
		[]byte(nil), []any(nil), []string(nil),
		map[string]any(nil),
		time.Time{}, time.Duration(0),
	} {
		gob.Register(v)
	}
}
