package domain

import (
	"encoding"
	"fmt"
)

// Verdict is the classification of an HTTP check.
type Verdict int

const (
	VerdictHealthy Verdict = iota
	VerdictDegraded
	VerdictUnavailable
)

func (v Verdict) String() string {
	switch v {
	case VerdictHealthy:
		return "UP"
	case VerdictDegraded:
		return "DEGRADED"
	case VerdictUnavailable:
		return "DOWN"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

func (v Verdict) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *Verdict) UnmarshalText(b []byte) error {
	switch string(b) {
	case "UP":
		*v = VerdictHealthy
	case "DEGRADED":
		*v = VerdictDegraded
	case "DOWN":
		*v = VerdictUnavailable
	default:
		return fmt.Errorf("unknown verdict %q", b)
	}
	return nil
}

// Failure tags why a check produced no response.
type Failure int

const (
	FailureNone Failure = iota
	FailureTimeout
	FailureUnreachable
	FailureRequest
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return ""
	case FailureTimeout:
		return "TIMEOUT"
	case FailureUnreachable:
		return "UNREACHABLE"
	case FailureRequest:
		return "REQUEST_FAILED"
	default:
		return fmt.Sprintf("Failure(%d)", int(f))
	}
}

func (f Failure) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Failure) UnmarshalText(b []byte) error {
	switch string(b) {
	case "":
		*f = FailureNone
	case "TIMEOUT":
		*f = FailureTimeout
	case "UNREACHABLE":
		*f = FailureUnreachable
	case "REQUEST_FAILED":
		*f = FailureRequest
	default:
		return fmt.Errorf("unknown failure %q", b)
	}
	return nil
}

// Status is the classification of a resource metric.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusCritical
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "WARNING"
	case StatusCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "OK":
		*s = StatusOK
	case "WARNING":
		*s = StatusWarning
	case "CRITICAL":
		*s = StatusCritical
	default:
		return fmt.Errorf("unknown status %q", b)
	}
	return nil
}

var (
	_ encoding.TextMarshaler   = Verdict(0)
	_ encoding.TextUnmarshaler = (*Verdict)(nil)
	_ encoding.TextMarshaler   = Failure(0)
	_ encoding.TextMarshaler   = Status(0)
)
