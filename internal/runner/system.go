package runner

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/healthcheck/internal/metrics"
	"github.com/hamed0406/healthcheck/internal/report"
	"github.com/hamed0406/healthcheck/internal/system"
)

type System struct {
	Logger   *zap.Logger
	Monitor  *system.Monitor
	Renderer report.Renderer
	Metrics  *metrics.Metrics // optional
	Now      func() time.Time

	mu     sync.RWMutex
	latest *report.SystemReport
}

func NewSystem(logger *zap.Logger, m *system.Monitor) *System {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &System{
		Logger:   logger,
		Monitor:  m,
		Renderer: report.Renderer{Out: io.Discard},
		Now:      time.Now,
	}
}

// RunOnce runs the resource checks and returns 1 if any is CRITICAL, 2 on an
// internal error, 0 otherwise. WARNING alone exits 0.
func (s *System) RunOnce(ctx context.Context) (exit int) {
	log := s.Logger.With(zap.String("run_id", uuid.NewString()))
	defer func() {
		if p := recover(); p != nil {
			log.Error("system_check_failed", zap.Any("panic", p), zap.Stack("stack"))
			exit = ExitInternal
		}
		if s.Metrics != nil {
			s.Metrics.ObserveExit("system", exit)
		}
	}()

	log.Info("system_check_started")
	results, err := s.Monitor.CheckAll(ctx)
	if err != nil {
		log.Error("system_check_failed", zap.Error(err))
		return ExitInternal
	}

	rep := report.BuildSystem(results, s.Now())
	if err := s.Renderer.System(rep); err != nil {
		log.Warn("report_render_failed", zap.Error(err))
	}
	if s.Metrics != nil {
		s.Metrics.ObserveSystem(rep)
	}
	s.mu.Lock()
	s.latest = &rep
	s.mu.Unlock()

	if rep.Summary.Critical > 0 {
		log.Error("system_critical", zap.Int("critical", rep.Summary.Critical), zap.Int("warning", rep.Summary.Warning))
	} else {
		log.Info("system_within_thresholds", zap.Int("warning", rep.Summary.Warning))
	}
	return rep.ExitCode()
}

func (s *System) Latest() (report.SystemReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return report.SystemReport{}, false
	}
	return *s.latest, true
}
