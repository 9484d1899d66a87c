package runner

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/healthcheck/internal/domain"
	"github.com/hamed0406/healthcheck/internal/metrics"
	"github.com/hamed0406/healthcheck/internal/probe"
	"github.com/hamed0406/healthcheck/internal/report"
	"github.com/hamed0406/healthcheck/internal/repo"
)

// Exit codes shared by both pipelines.
const (
	ExitOK        = 0
	ExitUnhealthy = 1
	ExitInternal  = 2
)

// Apps checks every target once per run and reports the result.
type Apps struct {
	Logger     *zap.Logger
	Targets    []domain.Target
	Checker    probe.Checker
	Results    repo.ResultStore
	Window     time.Duration
	ReportFile string // empty disables the report file
	Renderer   report.Renderer
	Metrics    *metrics.Metrics // optional
	// Now must be the clock Checker stamps results with.
	Now func() time.Time

	mu     sync.RWMutex
	latest *report.AppReport
}

func NewApps(
	logger *zap.Logger,
	targets []domain.Target,
	checker probe.Checker,
	results repo.ResultStore,
	window time.Duration,
) *Apps {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Apps{
		Logger:   logger,
		Targets:  targets,
		Checker:  checker,
		Results:  results,
		Window:   window,
		Renderer: report.Renderer{Out: io.Discard},
		Now:      time.Now,
	}
}

// RunOnce checks every target sequentially and returns the exit code: 1 if
// any target is DOWN, 2 on an internal error, 0 otherwise.
func (a *Apps) RunOnce(ctx context.Context) (exit int) {
	log := a.Logger.With(zap.String("run_id", uuid.NewString()))
	defer func() {
		if p := recover(); p != nil {
			log.Error("health_check_failed", zap.Any("panic", p), zap.Stack("stack"))
			exit = ExitInternal
		}
		if a.Metrics != nil {
			a.Metrics.ObserveExit("apps", exit)
		}
	}()

	log.Info("health_check_started", zap.Int("targets", len(a.Targets)))
	for _, t := range a.Targets {
		res := a.Checker.Check(ctx, t)
		if err := a.Results.Append(ctx, res); err != nil {
			log.Error("health_check_failed", zap.String("target_id", string(t.ID())), zap.Error(err))
			return ExitInternal
		}
	}

	rep, err := report.BuildApps(ctx, a.Results, a.Targets, a.Window, a.Now())
	if err != nil {
		log.Error("health_check_failed", zap.Error(err))
		return ExitInternal
	}

	if err := a.Renderer.Apps(rep); err != nil {
		log.Warn("report_render_failed", zap.Error(err))
	}
	if a.ReportFile != "" {
		if err := report.WriteFile(a.ReportFile, rep); err != nil {
			log.Error("report_write_failed", zap.String("path", a.ReportFile), zap.Error(err))
		} else {
			log.Info("report_saved", zap.String("path", a.ReportFile))
		}
	}
	if a.Metrics != nil {
		a.Metrics.ObserveApps(rep)
	}
	a.mu.Lock()
	a.latest = &rep
	a.mu.Unlock()

	s := rep.Summary
	switch {
	case s.Down > 0:
		log.Error("apps_down", zap.Int("down", s.Down), zap.Int("total", s.Total))
	case s.Degraded > 0:
		log.Warn("apps_degraded", zap.Int("degraded", s.Degraded), zap.Int("total", s.Total))
	default:
		log.Info("all_apps_up", zap.Int("total", s.Total))
	}
	return rep.ExitCode()
}

// Latest returns the report of the last completed run.
func (a *Apps) Latest() (report.AppReport, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.latest == nil {
		return report.AppReport{}, false
	}
	return *a.latest, true
}

// History returns every stored result for the target with the given name.
func (a *Apps) History(ctx context.Context, name string) ([]domain.CheckResult, bool, error) {
	for _, t := range a.Targets {
		if t.Name == name || string(t.ID()) == name {
			h, err := a.Results.History(ctx, t.ID())
			return h, true, err
		}
	}
	return nil, false, nil
}
