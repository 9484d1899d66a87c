package report

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/hamed0406/healthcheck/internal/domain"
	"github.com/hamed0406/healthcheck/internal/repo"
)

type AppSummary struct {
	Total    int `json:"total"`
	Up       int `json:"up"`
	Degraded int `json:"degraded"`
	Down     int `json:"down"`
}

// AppEntry is the latest result of one target plus its rolling uptime.
type AppEntry struct {
	Name              string         `json:"name"`
	URL               string         `json:"url"`
	CurrentStatus     domain.Verdict `json:"current_status"`
	StatusCode        *int           `json:"status_code"`
	ResponseTimeMS    *float64       `json:"response_time_ms"`
	Message           string         `json:"message"`
	Error             string         `json:"error,omitempty"`
	ErrorDetail       string         `json:"error_detail,omitempty"`
	UptimePercent     float64        `json:"uptime_percent"`
	UptimeWindowHours float64        `json:"uptime_window_hours"`
	LastCheck         time.Time      `json:"last_check"`
}

type AppReport struct {
	GeneratedAt  time.Time  `json:"generated_at"`
	Summary      AppSummary `json:"summary"`
	Applications []AppEntry `json:"applications"`
}

// ExitCode is 1 when any target is DOWN. DEGRADED alone does not fail.
func (r AppReport) ExitCode() int {
	if r.Summary.Down > 0 {
		return 1
	}
	return 0
}

// BuildApps assembles the report from the newest stored result of every
// target. Targets with no result yet are counted in Total but not listed.
// now must come from the clock the results were stamped with.
func BuildApps(ctx context.Context, store repo.ResultStore, targets []domain.Target, window time.Duration, now time.Time) (AppReport, error) {
	rep := AppReport{
		GeneratedAt:  now,
		Summary:      AppSummary{Total: len(targets)},
		Applications: make([]AppEntry, 0, len(targets)),
	}
	for _, t := range targets {
		latest, ok, err := store.Latest(ctx, t.ID())
		if err != nil {
			return AppReport{}, fmt.Errorf("latest %s: %w", t.ID(), err)
		}
		if !ok {
			continue
		}
		history, err := store.History(ctx, t.ID())
		if err != nil {
			return AppReport{}, fmt.Errorf("history %s: %w", t.ID(), err)
		}

		switch latest.Verdict {
		case domain.VerdictHealthy:
			rep.Summary.Up++
		case domain.VerdictDegraded:
			rep.Summary.Degraded++
		default:
			rep.Summary.Down++
		}

		e := AppEntry{
			Name:              t.Name,
			URL:               t.URL,
			CurrentStatus:     latest.Verdict,
			ResponseTimeMS:    latest.LatencyMS,
			Message:           latest.Message,
			Error:             latest.Failure.String(),
			ErrorDetail:       latest.ErrorDetail,
			UptimePercent:     round2(repo.RollingUptime(history, window, now)),
			UptimeWindowHours: window.Hours(),
			LastCheck:         latest.CheckedAt,
		}
		if latest.StatusCode != 0 {
			code := latest.StatusCode
			e.StatusCode = &code
		}
		rep.Applications = append(rep.Applications, e)
	}
	return rep, nil
}

// WriteFile replaces the file at path with the indented JSON report.
func WriteFile(path string, r AppReport) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
