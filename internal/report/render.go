package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-isatty"

	"github.com/hamed0406/healthcheck/internal/domain"
)

const (
	appsWidth   = 100
	systemWidth = 80

	consoleTime = "2006-01-02 15:04:05"

	green  = "\033[92m"
	yellow = "\033[93m"
	red    = "\033[91m"
	reset  = "\033[0m"
)

// UseColor reports whether ANSI colour should be written to f.
func UseColor(f *os.File, disabled bool) bool {
	if disabled || os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Renderer writes the console form of the reports.
type Renderer struct {
	Out   io.Writer
	Color bool
}

func (r Renderer) Apps(rep AppReport) error {
	var b strings.Builder
	border := strings.Repeat("=", appsWidth)

	b.WriteString("\n" + border + "\n")
	b.WriteString(center("APPLICATION HEALTH CHECK REPORT", appsWidth) + "\n")
	b.WriteString(center("Generated: "+rep.GeneratedAt.Format(consoleTime), appsWidth) + "\n")
	b.WriteString(border + "\n\n")

	for _, a := range rep.Applications {
		code, latency := "N/A", "N/A"
		if a.StatusCode != nil {
			code = fmt.Sprint(*a.StatusCode)
		}
		if a.ResponseTimeMS != nil {
			latency = fmt.Sprintf("%.2fms", *a.ResponseTimeMS)
		}
		fmt.Fprintf(&b, "%s %-30s%s\n", r.open(verdictColor(a.CurrentStatus))+verdictSymbol(a.CurrentStatus), a.Name, r.close())
		fmt.Fprintf(&b, "  URL: %s\n", a.URL)
		fmt.Fprintf(&b, "  Status: %s | Code: %s | Response Time: %s\n", a.CurrentStatus, code, latency)
		fmt.Fprintf(&b, "  Message: %s\n", a.Message)
		fmt.Fprintf(&b, "  %gh Uptime: %.2f%%\n\n", a.UptimeWindowHours, a.UptimePercent)
	}

	b.WriteString(border + "\n")
	fmt.Fprintf(&b, "SUMMARY: UP: %d | DEGRADED: %d | DOWN: %d\n", rep.Summary.Up, rep.Summary.Degraded, rep.Summary.Down)
	b.WriteString(border + "\n\n")

	_, err := io.WriteString(r.Out, b.String())
	return err
}

func (r Renderer) System(rep SystemReport) error {
	var b strings.Builder
	border := strings.Repeat("=", systemWidth)

	b.WriteString("\n" + border + "\n")
	b.WriteString(center("SYSTEM HEALTH MONITORING REPORT", systemWidth) + "\n")
	b.WriteString(center("Generated: "+rep.GeneratedAt.Format(consoleTime), systemWidth) + "\n")
	b.WriteString(border + "\n\n")

	for _, m := range rep.Metrics {
		fmt.Fprintf(&b, "%s %-20s%s Current: %s | Threshold: %s | Status: %s\n",
			r.open(statusColor(m.Status))+statusSymbol(m.Status), m.Metric, r.close(),
			formatValue(m.Value, m.Unit), formatThreshold(m.Threshold, m.Unit), m.Status)
		fmt.Fprintf(&b, "  Details: %s\n\n", m.Details)
	}

	b.WriteString(border + "\n")
	fmt.Fprintf(&b, "SUMMARY: OK: %d | WARNING: %d | CRITICAL: %d\n", rep.Summary.OK, rep.Summary.Warning, rep.Summary.Critical)
	b.WriteString(border + "\n\n")

	_, err := io.WriteString(r.Out, b.String())
	return err
}

func (r Renderer) open(color string) string {
	if !r.Color {
		return ""
	}
	return color
}

func (r Renderer) close() string {
	if !r.Color {
		return ""
	}
	return reset
}

func verdictSymbol(v domain.Verdict) string {
	switch v {
	case domain.VerdictHealthy:
		return "✓"
	case domain.VerdictDegraded:
		return "⚠"
	default:
		return "✗"
	}
}

func verdictColor(v domain.Verdict) string {
	switch v {
	case domain.VerdictHealthy:
		return green
	case domain.VerdictDegraded:
		return yellow
	default:
		return red
	}
}

func statusSymbol(s domain.Status) string {
	switch s {
	case domain.StatusOK:
		return "✓"
	case domain.StatusWarning:
		return "⚠"
	default:
		return "✗"
	}
}

func statusColor(s domain.Status) string {
	switch s {
	case domain.StatusOK:
		return green
	case domain.StatusWarning:
		return yellow
	default:
		return red
	}
}

func formatValue(v float64, unit string) string {
	if unit == "%" {
		return fmt.Sprintf("%.1f%%", v)
	}
	return fmt.Sprintf("%g", v)
}

func formatThreshold(v float64, unit string) string {
	return fmt.Sprintf("%g%s", v, unit)
}

// center pads s to width, putting the odd space on the right.
func center(s string, width int) string {
	pad := width - utf8.RuneCountInString(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
