package daemon

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/EvanAranda/go-ext/internal/ledger"
	"github.com/EvanAranda/go-ext/logx"
	"github.com/EvanAranda/go-ext/procpool"
)

type submitRequest struct {
	Task string `json:"task"`
	Args []any  `json:"args"`
	Wait bool   `json:"wait"`
}

type submitResponse struct {
	RunID  string `json:"run_id"`
	JobID  int64  `json:"job_id"`
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Handler returns the chi router with all routes mounted.
func (d *Daemon) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(d.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/status", d.handleStatus)
	r.Route("/api/jobs", func(r chi.Router) {
		r.Post("/", d.handleSubmit)
		r.Get("/", d.handleList)
		r.Get("/{runID}", d.handleGet)
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}

// requestLogger attaches a request-scoped logger carrying the chi
// request id.
func (d *Daemon) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := logx.Named("api").With(zap.String("request_id", middleware.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(logx.WithContext(r.Context(), l)))
	})
}

func (d *Daemon) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Task == "" {
		writeError(w, http.StatusBadRequest, errors.New("task is required"))
		return
	}

	runID, h, err := d.Submit(req.Task, req.Args...)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, procpool.ErrUnknownTask) {
			status = http.StatusNotFound
		}
		if errors.Is(err, procpool.ErrPoolClosed) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err)
		return
	}

	logx.FromContext(r.Context()).Debug("job accepted",
		zap.String("run_id", runID),
		zap.String("task", req.Task),
		zap.Bool("wait", req.Wait),
	)

	if !req.Wait {
		writeJSON(w, http.StatusAccepted, submitResponse{
			RunID:  runID,
			JobID:  h.JobID(),
			Status: string(ledger.StatusSubmitted),
		})
		return
	}

	result, err := h.Await(r.Context())
	if err != nil {
		if r.Context().Err() != nil {
			// Client went away; the job keeps running.
			return
		}
		writeJSON(w, http.StatusOK, submitResponse{
			RunID:  runID,
			JobID:  h.JobID(),
			Status: "failed",
			Error:  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		RunID:  runID,
		JobID:  h.JobID(),
		Status: "succeeded",
		Result: result,
	})
}

func (d *Daemon) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		limit = n
	}
	records, err := d.Ledger.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": records})
}

func (d *Daemon) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := d.Ledger.Get(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, errors.New("unknown run id"))
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (d *Daemon) handleStatus(w http.ResponseWriter, r *http.Request) {
	a := d.metrics.atomics
	writeJSON(w, http.StatusOK, map[string]any{
		"workers":     d.Pool.Workers(),
		"queue_depth": d.Pool.QueueDepth(),
		"submitted":   a.Submitted(),
		"completed": map[string]uint64{
			"ok":         a.Completed(procpool.OutcomeOK),
			"user_error": a.Completed(procpool.OutcomeUserError),
			"pool_error": a.Completed(procpool.OutcomePoolError),
		},
		"worker_restarts": a.WorkerRestarts(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
