package repo

import (
	"time"

	"github.com/hamed0406/healthcheck/internal/domain"
)

// RollingUptime returns the percentage of entries checked within
// [now-window, now] whose verdict is UP. It returns 0 when no entry falls
// inside the window. now must come from the clock the entries were stamped
// with.
func RollingUptime(history []domain.CheckResult, window time.Duration, now time.Time) float64 {
	cutoff := now.Add(-window)
	var total, up int
	for _, r := range history {
		if r.CheckedAt.Before(cutoff) || r.CheckedAt.After(now) {
			continue
		}
		total++
		if r.Verdict == domain.VerdictHealthy {
			up++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(up) / float64(total) * 100
}
