package report

import (
	"time"

	"github.com/hamed0406/healthcheck/internal/domain"
)

type SystemSummary struct {
	OK       int `json:"ok"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
}

type SystemReport struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Summary     SystemSummary         `json:"summary"`
	Metrics     []domain.MetricResult `json:"metrics"`
}

// ExitCode is 1 when any metric is CRITICAL. WARNING alone does not fail.
func (r SystemReport) ExitCode() int {
	if r.Summary.Critical > 0 {
		return 1
	}
	return 0
}

func BuildSystem(results []domain.MetricResult, now time.Time) SystemReport {
	rep := SystemReport{GeneratedAt: now, Metrics: results}
	for _, r := range results {
		switch r.Status {
		case domain.StatusOK:
			rep.Summary.OK++
		case domain.StatusWarning:
			rep.Summary.Warning++
		case domain.StatusCritical:
			rep.Summary.Critical++
		}
	}
	return rep
}
