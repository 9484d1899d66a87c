package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/healthcheck/internal/domain"
)

const (
	DefaultConfigFile     = "healthcheck.yaml"
	DefaultExpectedStatus = 200
	DefaultTimeout        = 5 * time.Second
	DefaultUptimeWindow   = 24 * time.Hour
	DefaultCPUSample      = time.Second

	AppLogName    = "app_health_checker.log"
	SystemLogName = "system_health_monitor.log"
	AlertLogName  = "system_health_alerts.log"
	ReportName    = "app_health_report.json"
)

type Config struct {
	ConfigFile   string        // YAML file with applications and thresholds
	LogDir       string        // operational + alert logs
	ReportFile   string        // JSON report, overwritten on every apps run
	Addr         string        // status API bind address (watch mode only)
	APIKeys      []string      // empty = API open
	APIOrigins   []string      // CORS allow-list, empty = any
	APIRPM       int           // per-IP requests/min, 0 disables limiting
	APIBurst     int           // rate limiter burst
	SlackWebhook string        // optional extra alert sink
	UptimeWindow time.Duration // rolling uptime lookback
	CPUSample    time.Duration // blocking CPU sample interval

	Applications []domain.Target
	Thresholds   domain.Thresholds
}

type fileApplication struct {
	Name           string  `yaml:"name"`
	URL            string  `yaml:"url"`
	ExpectedStatus int     `yaml:"expected_status"`
	Timeout        float64 `yaml:"timeout"` // seconds
}

type fileConfig struct {
	Applications      []fileApplication  `yaml:"applications"`
	Thresholds        *domain.Thresholds `yaml:"thresholds"`
	UptimeWindowHours float64            `yaml:"uptime_window_hours"`
	CPUSampleSeconds  float64            `yaml:"cpu_sample_seconds"`
}

// Default returns the built-in configuration used when no file is present.
func Default() Config {
	logDir := "logs"
	return Config{
		ConfigFile:   DefaultConfigFile,
		LogDir:       logDir,
		ReportFile:   filepath.Join(logDir, ReportName),
		APIRPM:       120,
		APIBurst:     60,
		UptimeWindow: DefaultUptimeWindow,
		CPUSample:    DefaultCPUSample,
		Applications: []domain.Target{
			{
				Name:           "Example API",
				URL:            "https://httpbin.org/status/200",
				ExpectedStatus: DefaultExpectedStatus,
				Timeout:        10 * time.Second,
			},
		},
		Thresholds: domain.DefaultThresholds(),
	}
}

// FromEnv returns the defaults overridden by environment variables.
func FromEnv() Config {
	cfg := Default()
	applyEnv(&cfg)
	return cfg
}

// Load layers defaults, the YAML file at path and the environment, in that
// order. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if v := os.Getenv("CONFIG_FILE"); v != "" && path == "" {
		path = v
	}
	if path != "" {
		cfg.ConfigFile = path
	}

	content, err := os.ReadFile(cfg.ConfigFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := applyFile(&cfg, content); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, content []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(content, &fc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if len(fc.Applications) > 0 {
		apps := make([]domain.Target, 0, len(fc.Applications))
		for _, a := range fc.Applications {
			t := domain.Target{
				Name:           strings.TrimSpace(a.Name),
				URL:            strings.TrimSpace(a.URL),
				ExpectedStatus: a.ExpectedStatus,
				Timeout:        time.Duration(a.Timeout * float64(time.Second)),
			}
			if t.ExpectedStatus == 0 {
				t.ExpectedStatus = DefaultExpectedStatus
			}
			if t.Timeout <= 0 {
				t.Timeout = DefaultTimeout
			}
			apps = append(apps, t)
		}
		cfg.Applications = apps
	}
	if fc.Thresholds != nil {
		th := *fc.Thresholds
		def := domain.DefaultThresholds()
		if th.CPUPercent <= 0 {
			th.CPUPercent = def.CPUPercent
		}
		if th.MemoryPercent <= 0 {
			th.MemoryPercent = def.MemoryPercent
		}
		if th.DiskPercent <= 0 {
			th.DiskPercent = def.DiskPercent
		}
		if th.ProcessCount <= 0 {
			th.ProcessCount = def.ProcessCount
		}
		cfg.Thresholds = th
	}
	if fc.UptimeWindowHours > 0 {
		cfg.UptimeWindow = time.Duration(fc.UptimeWindowHours * float64(time.Hour))
	}
	if fc.CPUSampleSeconds > 0 {
		cfg.CPUSample = time.Duration(fc.CPUSampleSeconds * float64(time.Second))
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.LogDir = v
		cfg.ReportFile = filepath.Join(v, ReportName)
	}
	if v := os.Getenv("REPORT_FILE"); v != "" {
		cfg.ReportFile = v
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("API_KEYS"); v != "" {
		cfg.APIKeys = splitList(v)
	}
	if v := os.Getenv("API_ORIGINS"); v != "" {
		cfg.APIOrigins = splitList(v)
	}
	if n, ok := envInt("API_RPM"); ok && n >= 0 {
		cfg.APIRPM = n
	}
	if n, ok := envInt("API_BURST"); ok && n > 0 {
		cfg.APIBurst = n
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.SlackWebhook = v
	}
	if f, ok := envFloat("UPTIME_WINDOW_HOURS"); ok && f > 0 {
		cfg.UptimeWindow = time.Duration(f * float64(time.Hour))
	}

	// Thresholds
	if f, ok := envFloat("CPU_THRESHOLD"); ok && f > 0 {
		cfg.Thresholds.CPUPercent = f
	}
	if f, ok := envFloat("MEMORY_THRESHOLD"); ok && f > 0 {
		cfg.Thresholds.MemoryPercent = f
	}
	if f, ok := envFloat("DISK_THRESHOLD"); ok && f > 0 {
		cfg.Thresholds.DiskPercent = f
	}
	if n, ok := envInt("PROCESS_THRESHOLD"); ok && n > 0 {
		cfg.Thresholds.ProcessCount = n
	}
}

// Validate checks the application list.
func (c Config) Validate() error {
	if len(c.Applications) == 0 {
		return errors.New("configuration must define at least one application")
	}
	seen := make(map[domain.TargetID]bool, len(c.Applications))
	for i, a := range c.Applications {
		if a.Name == "" {
			return fmt.Errorf("application %d is missing name", i)
		}
		if !IsValidHTTPURL(a.URL) {
			return fmt.Errorf("application %s has invalid url %q", a.Name, a.URL)
		}
		if seen[a.ID()] {
			return fmt.Errorf("application %s is defined twice", a.Name)
		}
		seen[a.ID()] = true
	}
	return nil
}

// IsValidHTTPURL reports whether raw is an absolute http(s) URL with a host.
func IsValidHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
