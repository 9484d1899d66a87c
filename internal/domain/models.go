package domain

import (
	"net/http"
	"strings"
	"time"
)

type TargetID string

// Target is one HTTP endpoint to poll. Loaded at startup and never mutated.
type Target struct {
	Name           string        `json:"name"`
	URL            string        `json:"url"`
	ExpectedStatus int           `json:"expected_status"`
	Timeout        time.Duration `json:"timeout"`
}

// ID derives a stable identifier from the target name.
func (t Target) ID() TargetID {
	return TargetID(strings.ToLower(strings.Join(strings.Fields(t.Name), "-")))
}

// CheckResult is the outcome of one HTTP probe.
//
// StatusCode is 0 and LatencyMS is nil whenever Failure != FailureNone.
type CheckResult struct {
	CheckedAt      time.Time   `json:"checked_at"`
	TargetID       TargetID    `json:"target_id"`
	Name           string      `json:"name"`
	URL            string      `json:"url"`
	StatusCode     int         `json:"status_code,omitempty"`
	ExpectedStatus int         `json:"expected_status"`
	LatencyMS      *float64    `json:"latency_ms,omitempty"`
	Verdict        Verdict     `json:"verdict"`
	Message        string      `json:"message"`
	Failure        Failure     `json:"error,omitempty"`
	ErrorDetail    string      `json:"error_detail,omitempty"`
	Headers        http.Header `json:"headers,omitempty"`
}

// ClassifyStatus maps a received status code to a verdict. A response was
// received, so the verdict is never VerdictUnavailable.
func ClassifyStatus(expected, got int) Verdict {
	if got == expected {
		return VerdictHealthy
	}
	return VerdictDegraded
}
