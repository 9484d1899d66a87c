package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamed0406/healthcheck/internal/domain"
	"github.com/hamed0406/healthcheck/internal/report"
)

const namespace = "healthcheck"

// Metrics exposes the latest run of each pipeline as Prometheus gauges. All
// collectors live on their own registry so tests can build a fresh set.
type Metrics struct {
	Registry *prometheus.Registry

	appStatus     *prometheus.GaugeVec
	appLatency    *prometheus.GaugeVec
	appUptime     *prometheus.GaugeVec
	resourceValue *prometheus.GaugeVec
	resourceState *prometheus.GaugeVec
	lastExit      *prometheus.GaugeVec
	runs          *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		appStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "app_status",
			Help:      "1 for the current verdict of an application, 0 for the others",
		}, []string{"app", "status"}),
		appLatency: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "app_response_time_ms",
			Help:      "Response time of the latest check in milliseconds",
		}, []string{"app"}),
		appUptime: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "app_uptime_percent",
			Help:      "Rolling uptime percentage over the configured window",
		}, []string{"app"}),
		resourceValue: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resource_value",
			Help:      "Latest sampled value of a resource metric",
		}, []string{"metric"}),
		resourceState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resource_status",
			Help:      "1 for the current status of a resource metric, 0 for the others",
		}, []string{"metric", "status"}),
		lastExit: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_exit_code",
			Help:      "Exit code of the last completed run",
		}, []string{"pipeline"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs by pipeline and exit code",
		}, []string{"pipeline", "exit_code"}),
	}
}

var (
	verdicts = []domain.Verdict{domain.VerdictHealthy, domain.VerdictDegraded, domain.VerdictUnavailable}
	statuses = []domain.Status{domain.StatusOK, domain.StatusWarning, domain.StatusCritical}
)

func (m *Metrics) ObserveApps(r report.AppReport) {
	for _, a := range r.Applications {
		for _, v := range verdicts {
			m.appStatus.WithLabelValues(a.Name, v.String()).Set(boolFloat(a.CurrentStatus == v))
		}
		if a.ResponseTimeMS != nil {
			m.appLatency.WithLabelValues(a.Name).Set(*a.ResponseTimeMS)
		} else {
			m.appLatency.DeleteLabelValues(a.Name)
		}
		m.appUptime.WithLabelValues(a.Name).Set(a.UptimePercent)
	}
}

func (m *Metrics) ObserveSystem(r report.SystemReport) {
	// Partitions can disappear between runs.
	m.resourceValue.Reset()
	m.resourceState.Reset()
	for _, res := range r.Metrics {
		m.resourceValue.WithLabelValues(res.Metric).Set(res.Value)
		for _, s := range statuses {
			m.resourceState.WithLabelValues(res.Metric, s.String()).Set(boolFloat(res.Status == s))
		}
	}
}

func (m *Metrics) ObserveExit(pipeline string, code int) {
	m.lastExit.WithLabelValues(pipeline).Set(float64(code))
	m.runs.WithLabelValues(pipeline, exitLabel(code)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func exitLabel(code int) string {
	switch code {
	case 0:
		return "0"
	case 1:
		return "1"
	default:
		return "2"
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
