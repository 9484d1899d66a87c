package domain

import "time"

type MetricKind string

const (
	MetricCPU       MetricKind = "cpu"
	MetricMemory    MetricKind = "memory"
	MetricDisk      MetricKind = "disk"
	MetricProcesses MetricKind = "processes"
)

// Thresholds are the static limits for the resource checks. A sampled value
// strictly above its threshold trips the check.
type Thresholds struct {
	CPUPercent    float64 `yaml:"cpu_percent" json:"cpu_percent"`
	MemoryPercent float64 `yaml:"memory_percent" json:"memory_percent"`
	DiskPercent   float64 `yaml:"disk_percent" json:"disk_percent"`
	ProcessCount  int     `yaml:"process_count" json:"process_count"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		CPUPercent:    80,
		MemoryPercent: 80,
		DiskPercent:   85,
		ProcessCount:  300,
	}
}

type ProcessSnapshot struct {
	PID           int32   `json:"pid"`
	Name          string  `json:"name"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float32 `json:"memory_percent"`
}

// MetricResult is the outcome of one resource check. Only the detail fields
// relevant to Kind are populated.
type MetricResult struct {
	CheckedAt time.Time  `json:"checked_at"`
	Metric    string     `json:"metric"`
	Kind      MetricKind `json:"kind"`
	Value     float64    `json:"value"`
	Threshold float64    `json:"threshold"`
	Unit      string     `json:"unit"`
	Status    Status     `json:"status"`
	Details   string     `json:"details"`

	PerCore      []float64         `json:"per_core,omitempty"`
	UsedGB       float64           `json:"used_gb,omitempty"`
	TotalGB      float64           `json:"total_gb,omitempty"`
	SwapPercent  float64           `json:"swap_percent,omitempty"`
	Mountpoint   string            `json:"mountpoint,omitempty"`
	TopProcesses []ProcessSnapshot `json:"top_processes,omitempty"`
}

// ClassifyThreshold returns over when value is strictly greater than
// threshold, StatusOK otherwise.
func ClassifyThreshold(value, threshold float64, over Status) Status {
	if value > threshold {
		return over
	}
	return StatusOK
}
