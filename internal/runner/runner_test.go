package runner

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/healthcheck/internal/domain"
	"github.com/hamed0406/healthcheck/internal/metrics"
	"github.com/hamed0406/healthcheck/internal/report"
	"github.com/hamed0406/healthcheck/internal/repo/memory"
	"github.com/hamed0406/healthcheck/internal/system"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// scriptedChecker returns a fixed verdict per target name.
type scriptedChecker struct {
	verdicts map[string]domain.Verdict
	panicOn  string
	calls    int
}

func (s *scriptedChecker) Check(_ context.Context, t domain.Target) domain.CheckResult {
	s.calls++
	if t.Name == s.panicOn {
		panic("boom")
	}
	v := s.verdicts[t.Name]
	r := domain.CheckResult{CheckedAt: clock(), TargetID: t.ID(), Name: t.Name, URL: t.URL, Verdict: v}
	if v == domain.VerdictUnavailable {
		r.Failure = domain.FailureUnreachable
		r.Message = "Connection failed - Application unreachable"
	} else {
		lat := 5.0
		r.StatusCode = 200
		r.LatencyMS = &lat
	}
	return r
}

type failingStore struct{ *memory.Store }

func (failingStore) Append(context.Context, domain.CheckResult) error {
	return errors.New("disk full")
}

func threeTargets() []domain.Target {
	return []domain.Target{
		{Name: "A", URL: "https://a.example.com", ExpectedStatus: 200},
		{Name: "B", URL: "https://b.example.com", ExpectedStatus: 200},
		{Name: "C", URL: "https://c.example.com", ExpectedStatus: 200},
	}
}

func newApps(t *testing.T, chk *scriptedChecker) (*Apps, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	a := NewApps(zap.New(core), threeTargets(), chk, memory.New(), 24*time.Hour)
	a.Now = clock
	return a, logs
}

func TestApps_OneDownAmongThreeExitsOne(t *testing.T) {
	chk := &scriptedChecker{verdicts: map[string]domain.Verdict{
		"A": domain.VerdictHealthy, "B": domain.VerdictUnavailable, "C": domain.VerdictHealthy,
	}}
	a, logs := newApps(t, chk)
	a.ReportFile = filepath.Join(t.TempDir(), "report.json")
	a.Metrics = metrics.New()
	var out bytes.Buffer
	a.Renderer = report.Renderer{Out: &out}

	assert.Equal(t, ExitUnhealthy, a.RunOnce(context.Background()))
	assert.Equal(t, 3, chk.calls)

	rep, ok := a.Latest()
	require.True(t, ok)
	assert.Equal(t, report.AppSummary{Total: 3, Up: 2, Down: 1}, rep.Summary)
	assert.FileExists(t, a.ReportFile)
	assert.Contains(t, out.String(), "SUMMARY: UP: 2 | DEGRADED: 0 | DOWN: 1")
	assert.Equal(t, 1, logs.FilterMessage("apps_down").Len())

	runIDs := map[string]bool{}
	for _, e := range logs.All() {
		id, ok := e.ContextMap()["run_id"].(string)
		require.True(t, ok, "entry %q has no run_id", e.Message)
		runIDs[id] = true
	}
	assert.Len(t, runIDs, 1)
}

func TestApps_DegradedOnlyExitsZero(t *testing.T) {
	chk := &scriptedChecker{verdicts: map[string]domain.Verdict{
		"A": domain.VerdictHealthy, "B": domain.VerdictDegraded, "C": domain.VerdictHealthy,
	}}
	a, logs := newApps(t, chk)

	assert.Equal(t, ExitOK, a.RunOnce(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("apps_degraded").Len())
}

func TestApps_HistoryAccumulatesAcrossRuns(t *testing.T) {
	chk := &scriptedChecker{verdicts: map[string]domain.Verdict{"A": domain.VerdictHealthy}}
	a, _ := newApps(t, chk)

	a.RunOnce(context.Background())
	chk.verdicts["A"] = domain.VerdictUnavailable
	a.RunOnce(context.Background())

	h, found, err := a.History(context.Background(), "A")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, h, 2)

	rep, _ := a.Latest()
	assert.Equal(t, 50.0, rep.Applications[0].UptimePercent)

	_, found, _ = a.History(context.Background(), "nope")
	assert.False(t, found)
}

func TestApps_StoreFailureIsInternalError(t *testing.T) {
	chk := &scriptedChecker{verdicts: map[string]domain.Verdict{}}
	a, logs := newApps(t, chk)
	a.Results = failingStore{memory.New()}

	assert.Equal(t, ExitInternal, a.RunOnce(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("health_check_failed").Len())
	_, ok := a.Latest()
	assert.False(t, ok)
}

func TestApps_PanicIsInternalError(t *testing.T) {
	chk := &scriptedChecker{verdicts: map[string]domain.Verdict{}, panicOn: "B"}
	a, _ := newApps(t, chk)
	a.Metrics = metrics.New()

	assert.Equal(t, ExitInternal, a.RunOnce(context.Background()))
}

func TestApps_ReportWriteFailureKeepsExitCode(t *testing.T) {
	chk := &scriptedChecker{verdicts: map[string]domain.Verdict{}}
	a, logs := newApps(t, chk)
	a.ReportFile = t.TempDir() // a directory cannot be written as a file

	assert.Equal(t, ExitOK, a.RunOnce(context.Background()))
	entries := logs.FilterMessage("report_write_failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

// hostSampler is a canned system.Sampler.
type hostSampler struct {
	cpu, memPct, diskPct float64
	procs                int
	err                  error
}

func (h hostSampler) CPUPercent(context.Context, time.Duration, bool) ([]float64, error) {
	return []float64{h.cpu}, h.err
}

func (h hostSampler) VirtualMemory(context.Context) (*mem.VirtualMemoryStat, error) {
	return &mem.VirtualMemoryStat{UsedPercent: h.memPct, Used: 1 << 30, Total: 4 << 30}, nil
}

func (h hostSampler) SwapMemory(context.Context) (*mem.SwapMemoryStat, error) {
	return &mem.SwapMemoryStat{}, nil
}

func (h hostSampler) Partitions(context.Context) ([]disk.PartitionStat, error) {
	return []disk.PartitionStat{{Mountpoint: "/"}}, nil
}

func (h hostSampler) DiskUsage(_ context.Context, path string) (*disk.UsageStat, error) {
	return &disk.UsageStat{Path: path, UsedPercent: h.diskPct}, nil
}

func (h hostSampler) ProcessCount(context.Context) (int, error) { return h.procs, nil }

func (h hostSampler) Processes(context.Context) (iter.Seq[domain.ProcessSnapshot], error) {
	return slices.Values([]domain.ProcessSnapshot{{PID: 1, Name: "init"}}), nil
}

func newSystem(s system.Sampler) (*System, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := system.NewMonitor(s, domain.DefaultThresholds(), nil, nil)
	m.CPUSample = 0
	r := NewSystem(zap.New(core), m)
	r.Now = clock
	return r, logs
}

func TestSystem_NoFindingsExitsZero(t *testing.T) {
	r, logs := newSystem(hostSampler{cpu: 10, memPct: 20, diskPct: 30, procs: 100})
	var out bytes.Buffer
	r.Renderer = report.Renderer{Out: &out}

	assert.Equal(t, ExitOK, r.RunOnce(context.Background()))
	rep, ok := r.Latest()
	require.True(t, ok)
	assert.Equal(t, report.SystemSummary{OK: 4}, rep.Summary)
	assert.True(t, strings.Contains(out.String(), "SUMMARY: OK: 4 | WARNING: 0 | CRITICAL: 0"))
	assert.Equal(t, 1, logs.FilterMessage("system_within_thresholds").Len())
}

func TestSystem_WarningAloneExitsZero(t *testing.T) {
	r, _ := newSystem(hostSampler{cpu: 10, memPct: 20, diskPct: 30, procs: 301})
	assert.Equal(t, ExitOK, r.RunOnce(context.Background()))
}

func TestSystem_CriticalExitsOne(t *testing.T) {
	r, logs := newSystem(hostSampler{cpu: 10, memPct: 20, diskPct: 86, procs: 100})
	assert.Equal(t, ExitUnhealthy, r.RunOnce(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("system_critical").Len())
}

func TestSystem_SamplerErrorExitsTwo(t *testing.T) {
	r, _ := newSystem(hostSampler{err: errors.New("no /proc")})
	r.Metrics = metrics.New()
	assert.Equal(t, ExitInternal, r.RunOnce(context.Background()))
	_, ok := r.Latest()
	assert.False(t, ok)
}

func TestWatch_StopsOnCancelAndReturnsLastCode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	code := Watch(ctx, nil, time.Second, func(context.Context) int {
		calls.Add(1)
		cancel()
		return ExitUnhealthy
	})
	assert.Equal(t, ExitUnhealthy, code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatch_RunsOnInterval(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for real ticks")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	var calls atomic.Int32
	code := Watch(ctx, zap.NewNop(), time.Second, func(context.Context) int {
		n := calls.Add(1)
		if n == 1 {
			return ExitUnhealthy
		}
		return ExitOK
	})
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
	assert.Equal(t, ExitOK, code)
}
