package system

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/hamed0406/healthcheck/internal/domain"
	"github.com/hamed0406/healthcheck/internal/notify"
)

const topProcesses = 5

// Monitor runs the resource checks against static thresholds. Checks only
// read from the host; the one side effect is sending WARNING and CRITICAL
// findings to Alerts.
type Monitor struct {
	Sampler    Sampler
	Thresholds domain.Thresholds
	CPUSample  time.Duration
	Alerts     notify.Notifier
	Logger     *zap.Logger
	Now        func() time.Time
}

func NewMonitor(s Sampler, th domain.Thresholds, alerts notify.Notifier, logger *zap.Logger) *Monitor {
	if s == nil {
		s = HostSampler{}
	}
	if alerts == nil {
		alerts = notify.Multi{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		Sampler:    s,
		Thresholds: th,
		CPUSample:  time.Second,
		Alerts:     alerts,
		Logger:     logger,
		Now:        time.Now,
	}
}

// CheckAll runs the four checks in order and flattens the disk results.
func (m *Monitor) CheckAll(ctx context.Context) ([]domain.MetricResult, error) {
	cpuRes, err := m.CheckCPU(ctx)
	if err != nil {
		return nil, err
	}
	memRes, err := m.CheckMemory(ctx)
	if err != nil {
		return nil, err
	}
	disks, err := m.CheckDisk(ctx)
	if err != nil {
		return nil, err
	}
	procs, err := m.CheckProcesses(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.MetricResult, 0, len(disks)+3)
	out = append(out, cpuRes, memRes)
	out = append(out, disks...)
	return append(out, procs), nil
}

// CheckCPU blocks for CPUSample twice: once for the aggregate and once for
// the per-core figures.
func (m *Monitor) CheckCPU(ctx context.Context) (domain.MetricResult, error) {
	total, err := m.Sampler.CPUPercent(ctx, m.CPUSample, false)
	if err != nil {
		return domain.MetricResult{}, fmt.Errorf("sample cpu: %w", err)
	}
	if len(total) == 0 {
		return domain.MetricResult{}, errors.New("sample cpu: no data returned")
	}
	perCore, err := m.Sampler.CPUPercent(ctx, m.CPUSample, true)
	if err != nil {
		return domain.MetricResult{}, fmt.Errorf("sample cpu per core: %w", err)
	}

	th := m.Thresholds.CPUPercent
	res := domain.MetricResult{
		CheckedAt: m.Now(),
		Metric:    "CPU",
		Kind:      domain.MetricCPU,
		Value:     total[0],
		Threshold: th,
		Unit:      "%",
		Status:    domain.ClassifyThreshold(total[0], th, domain.StatusCritical),
		Details:   "Per core: " + formatPercents(perCore),
		PerCore:   perCore,
	}
	m.alert(ctx, res, fmt.Sprintf("CPU usage critical: %.1f%% (Threshold: %g%%)", res.Value, th))
	return res, nil
}

func (m *Monitor) CheckMemory(ctx context.Context) (domain.MetricResult, error) {
	vm, err := m.Sampler.VirtualMemory(ctx)
	if err != nil {
		return domain.MetricResult{}, fmt.Errorf("sample memory: %w", err)
	}
	swap, err := m.Sampler.SwapMemory(ctx)
	if err != nil {
		return domain.MetricResult{}, fmt.Errorf("sample swap: %w", err)
	}

	th := m.Thresholds.MemoryPercent
	res := domain.MetricResult{
		CheckedAt:   m.Now(),
		Metric:      "Memory",
		Kind:        domain.MetricMemory,
		Value:       vm.UsedPercent,
		Threshold:   th,
		Unit:        "%",
		Status:      domain.ClassifyThreshold(vm.UsedPercent, th, domain.StatusCritical),
		UsedGB:      gigabytes(vm.Used),
		TotalGB:     gigabytes(vm.Total),
		SwapPercent: swap.UsedPercent,
		Details: fmt.Sprintf("Used: %s / Total: %s, Swap: %.1f%%",
			humanize.IBytes(vm.Used), humanize.IBytes(vm.Total), swap.UsedPercent),
	}
	m.alert(ctx, res, fmt.Sprintf("Memory usage critical: %.1f%% (Threshold: %g%%)", res.Value, th))
	return res, nil
}

// CheckDisk returns one result per mounted partition. Partitions the process
// may not stat are skipped.
func (m *Monitor) CheckDisk(ctx context.Context) ([]domain.MetricResult, error) {
	parts, err := m.Sampler.Partitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}

	th := m.Thresholds.DiskPercent
	out := make([]domain.MetricResult, 0, len(parts))
	for _, p := range parts {
		usage, err := m.Sampler.DiskUsage(ctx, p.Mountpoint)
		if errors.Is(err, fs.ErrPermission) {
			m.Logger.Debug("disk_skipped", zap.String("mountpoint", p.Mountpoint), zap.Error(err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("disk usage %s: %w", p.Mountpoint, err)
		}
		res := domain.MetricResult{
			CheckedAt:  m.Now(),
			Metric:     fmt.Sprintf("Disk (%s)", p.Mountpoint),
			Kind:       domain.MetricDisk,
			Value:      usage.UsedPercent,
			Threshold:  th,
			Unit:       "%",
			Status:     domain.ClassifyThreshold(usage.UsedPercent, th, domain.StatusCritical),
			UsedGB:     gigabytes(usage.Used),
			TotalGB:    gigabytes(usage.Total),
			Mountpoint: p.Mountpoint,
			Details:    fmt.Sprintf("Used: %s / Total: %s", humanize.IBytes(usage.Used), humanize.IBytes(usage.Total)),
		}
		m.alert(ctx, res, fmt.Sprintf("Disk usage critical on %s: %.1f%% (Threshold: %g%%)", p.Mountpoint, res.Value, th))
		out = append(out, res)
	}
	return out, nil
}

func (m *Monitor) CheckProcesses(ctx context.Context) (domain.MetricResult, error) {
	count, err := m.Sampler.ProcessCount(ctx)
	if err != nil {
		return domain.MetricResult{}, fmt.Errorf("count processes: %w", err)
	}
	seq, err := m.Sampler.Processes(ctx)
	if err != nil {
		return domain.MetricResult{}, fmt.Errorf("list processes: %w", err)
	}
	top := slices.Collect(seq)
	slices.SortStableFunc(top, func(a, b domain.ProcessSnapshot) int {
		return cmp.Compare(b.CPUPercent, a.CPUPercent)
	})
	if len(top) > topProcesses {
		top = top[:topProcesses]
	}

	th := m.Thresholds.ProcessCount
	names := make([]string, 0, len(top))
	for _, p := range top {
		names = append(names, fmt.Sprintf("%s(%.1f%%)", p.Name, p.CPUPercent))
	}
	res := domain.MetricResult{
		CheckedAt:    m.Now(),
		Metric:       "Processes",
		Kind:         domain.MetricProcesses,
		Value:        float64(count),
		Threshold:    float64(th),
		Status:       domain.ClassifyThreshold(float64(count), float64(th), domain.StatusWarning),
		Details:      "Top CPU consumers: [" + strings.Join(names, ", ") + "]",
		TopProcesses: top,
	}
	m.alert(ctx, res, fmt.Sprintf("High process count: %d (Threshold: %d)", count, th))
	return res, nil
}

func (m *Monitor) alert(ctx context.Context, res domain.MetricResult, text string) {
	if res.Status == domain.StatusOK {
		return
	}
	m.Logger.Warn("threshold_exceeded",
		zap.String("metric", res.Metric),
		zap.Stringer("status", res.Status),
		zap.Float64("value", res.Value),
		zap.Float64("threshold", res.Threshold),
	)
	if err := m.Alerts.Send(ctx, res.Status.String()+": "+res.Metric, text); err != nil {
		m.Logger.Warn("alert_send_failed", zap.String("metric", res.Metric), zap.Error(err))
	}
}

func gigabytes(b uint64) float64 {
	return math.Round(float64(b)/(1<<30)*100) / 100
}

func formatPercents(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%.1f", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
