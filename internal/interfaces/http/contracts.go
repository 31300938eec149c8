package http

import (
	"time"

	"github.com/sawpanic/cascade/internal/domain/day"
	"github.com/sawpanic/cascade/internal/domain/history"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// CascadeRequest is the body of POST /v1/cascade. Profile defaults to the
// server profile; At defaults to the request time. When Window is empty
// and the server has a records provider, the window is read from it.
type CascadeRequest struct {
	Record  *day.Record  `json:"record"`
	Window  *day.Window  `json:"window,omitempty"`
	Profile *day.Profile `json:"profile,omitempty"`
	At      *time.Time   `json:"at,omitempty"`
}

// HistoryResponse is the body of GET /v1/history.
type HistoryResponse struct {
	Key     string          `json:"key"`
	Version int             `json:"version"`
	Days    int             `json:"days"`
	Entries history.History `json:"entries"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"` // "healthy", "degraded"
	Timestamp time.Time              `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Version   string                 `json:"version"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult is one dependency check.
type CheckResult struct {
	Status   string        `json:"status"` // "pass", "fail"
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}
