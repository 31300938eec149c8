package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/cascade/internal/application/cascade"
	"github.com/sawpanic/cascade/internal/domain/day"
	"github.com/sawpanic/cascade/internal/domain/history"
)

const maxBodyBytes = 1 << 20

// HistoryReader is the read side of the history repository.
type HistoryReader interface {
	Load(ctx context.Context) (history.History, error)
	Key() string
	Version() int
}

// Handlers serves the API endpoints.
type Handlers struct {
	engine     *cascade.Engine
	memo       *cascade.Memoizer
	history    HistoryReader
	records    day.WindowProvider
	profile    day.Profile
	windowDays int
	version    string
	startTime  time.Time
	now        func() time.Time
}

// HandlerOption configures Handlers.
type HandlerOption func(*Handlers)

// WithRecords lets requests without a window read it from p.
func WithRecords(p day.WindowProvider, days int) HandlerOption {
	return func(h *Handlers) {
		h.records = p
		h.windowDays = days
	}
}

// WithProfile sets the profile used when a request carries none.
func WithProfile(p day.Profile) HandlerOption {
	return func(h *Handlers) { h.profile = p }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) HandlerOption {
	return func(h *Handlers) { h.version = v }
}

// NewHandlers creates the API handlers.
func NewHandlers(engine *cascade.Engine, memo *cascade.Memoizer, hist HistoryReader, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		engine:    engine,
		memo:      memo,
		history:   hist,
		profile:   day.DefaultProfile(),
		version:   "dev",
		startTime: time.Now(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Cascade handles POST /v1/cascade.
func (h *Handlers) Cascade(w http.ResponseWriter, r *http.Request) {
	var req CascadeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.Record == nil {
		h.writeError(w, r, http.StatusBadRequest, "missing_record", "record is required")
		return
	}

	in := cascade.Input{Record: req.Record, Profile: h.profile, At: h.now().UTC()}
	if req.Profile != nil {
		in.Profile = *req.Profile
	}
	if req.At != nil {
		in.At = *req.At
	}
	if req.Window != nil {
		in.Window = *req.Window
	} else if h.records != nil {
		date, err := req.Record.ParseDate()
		if err != nil {
			h.writeError(w, r, http.StatusBadRequest, "invalid_record", err.Error())
			return
		}
		win, err := h.records.Window(r.Context(), date, h.windowDays)
		if err != nil {
			h.writeError(w, r, http.StatusInternalServerError, "window_unavailable", err.Error())
			return
		}
		in.Window = win
	}

	var (
		res *cascade.Result
		err error
	)
	if h.memo != nil {
		res, err = h.memo.Compute(r.Context(), h.engine, in)
	} else {
		res, err = h.engine.Compute(r.Context(), in)
	}
	if errors.Is(err, cascade.ErrInvalidInput) {
		h.writeError(w, r, http.StatusBadRequest, "invalid_record", err.Error())
		return
	}
	if err != nil {
		log.Error().Err(err).Str("request_id", RequestID(r.Context())).Msg("cascade failed")
		h.writeError(w, r, http.StatusInternalServerError, "cascade_failed", "cascade computation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// History handles GET /v1/history.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.writeError(w, r, http.StatusServiceUnavailable, "history_unavailable", "no history store configured")
		return
	}
	entries, err := h.history.Load(r.Context())
	if err != nil {
		h.writeError(w, r, http.StatusServiceUnavailable, "history_unavailable", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, HistoryResponse{
		Key:     h.history.Key(),
		Version: h.history.Version(),
		Days:    len(entries),
		Entries: entries,
	})
}

// Health handles GET /health. A failing store degrades the status but
// still answers 200 since the engine keeps working without history.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks:    make(map[string]CheckResult),
	}
	if h.history != nil {
		start := time.Now()
		check := CheckResult{Status: "pass"}
		if _, err := h.history.Load(r.Context()); err != nil {
			check.Status = "fail"
			check.Message = err.Error()
			resp.Status = "degraded"
		}
		check.Duration = time.Since(start)
		resp.Checks["history_store"] = check
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// NotFound handles 404 responses
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeError(w, r, http.StatusNotFound, "endpoint_not_found",
		"The requested endpoint does not exist")
}

// writeJSON writes JSON response with proper error handling
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

// writeError writes standardized error response
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: RequestID(r.Context()),
		Timestamp: h.now().UTC(),
	})
}
