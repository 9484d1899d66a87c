package system

import (
	"context"
	"iter"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/hamed0406/healthcheck/internal/domain"
)

// Sampler reads raw resource figures from the host.
type Sampler interface {
	CPUPercent(ctx context.Context, interval time.Duration, perCPU bool) ([]float64, error)
	VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error)
	SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error)
	Partitions(ctx context.Context) ([]disk.PartitionStat, error)
	DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error)
	ProcessCount(ctx context.Context) (int, error)
	// Processes yields a snapshot of every process still alive and readable
	// when it is visited.
	Processes(ctx context.Context) (iter.Seq[domain.ProcessSnapshot], error)
}

// HostSampler is the gopsutil-backed Sampler.
type HostSampler struct{}

func (HostSampler) CPUPercent(ctx context.Context, interval time.Duration, perCPU bool) ([]float64, error) {
	return cpu.PercentWithContext(ctx, interval, perCPU)
}

func (HostSampler) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

func (HostSampler) SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error) {
	return mem.SwapMemoryWithContext(ctx)
}

func (HostSampler) Partitions(ctx context.Context) ([]disk.PartitionStat, error) {
	return disk.PartitionsWithContext(ctx, false)
}

func (HostSampler) DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error) {
	return disk.UsageWithContext(ctx, path)
}

func (HostSampler) ProcessCount(ctx context.Context) (int, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return len(pids), nil
}

func (HostSampler) Processes(ctx context.Context) (iter.Seq[domain.ProcessSnapshot], error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, err
	}
	open := func(pid int32) (procHandle, error) {
		return process.NewProcessWithContext(ctx, pid)
	}
	return liveSnapshots(ctx, pids, open), nil
}

type procHandle interface {
	NameWithContext(ctx context.Context) (string, error)
	CPUPercentWithContext(ctx context.Context) (float64, error)
	MemoryPercentWithContext(ctx context.Context) (float32, error)
}

// liveSnapshots skips every pid that fails to open or read. Between listing
// pids and reading them a process can exit or deny access; gopsutil surfaces
// that as ErrorProcessNotRunning, ENOENT, ESRCH or EACCES depending on the
// platform and the field, so any per-item error counts as that race.
func liveSnapshots(ctx context.Context, pids []int32, open func(int32) (procHandle, error)) iter.Seq[domain.ProcessSnapshot] {
	return func(yield func(domain.ProcessSnapshot) bool) {
		for _, pid := range pids {
			if ctx.Err() != nil {
				return
			}
			p, err := open(pid)
			if err != nil {
				continue
			}
			name, err := p.NameWithContext(ctx)
			if err != nil {
				continue
			}
			cpuPct, err := p.CPUPercentWithContext(ctx)
			if err != nil {
				continue
			}
			memPct, err := p.MemoryPercentWithContext(ctx)
			if err != nil {
				continue
			}
			if !yield(domain.ProcessSnapshot{PID: pid, Name: name, CPUPercent: cpuPct, MemoryPercent: memPct}) {
				return
			}
		}
	}
}
