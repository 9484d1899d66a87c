// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hamed0406/healthcheck/internal/cli"
	"github.com/hamed0406/healthcheck/internal/config"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	if err := cli.LoadEnv(); err != nil {
		fail("could not read .env: " + err.Error())
	}

	cfg, err := config.Load("")
	if err != nil {
		fail("config: " + err.Error())
	}
	if _, err := os.Stat(cfg.ConfigFile); err != nil {
		warn(cfg.ConfigFile + " not found; built-in defaults will be used.")
	} else {
		ok(fmt.Sprintf("%s: %d application(s)", cfg.ConfigFile, len(cfg.Applications)))
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		fail("LOG_DIR " + cfg.LogDir + " cannot be created: " + err.Error())
	}
	probe := filepath.Join(cfg.LogDir, ".preflight")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		fail("LOG_DIR " + cfg.LogDir + " is not writable: " + err.Error())
	}
	_ = os.Remove(probe)
	ok("LOG_DIR=" + cfg.LogDir)

	if cfg.Addr == "" {
		warn("API_ADDR is empty; the status API only starts with --addr.")
	} else {
		ok("API_ADDR=" + cfg.Addr)
		if len(cfg.APIKeys) == 0 {
			warn("API_KEYS is empty; /api routes will be open.")
		}
	}
	if raw := os.Getenv("API_KEYS"); strings.Contains(raw, " ") {
		warn("API_KEYS contains spaces; use comma-separated with no spaces, e.g. key1,key2")
	}

	if cfg.SlackWebhook == "" {
		warn("SLACK_WEBHOOK_URL empty; alerts go to the alert log only.")
	} else if !config.IsValidHTTPURL(cfg.SlackWebhook) {
		fail("SLACK_WEBHOOK_URL is not an http(s) URL.")
	} else {
		ok("SLACK_WEBHOOK_URL present")
	}

	th := cfg.Thresholds
	for name, v := range map[string]float64{"CPU": th.CPUPercent, "memory": th.MemoryPercent, "disk": th.DiskPercent} {
		if v > 100 {
			fail(fmt.Sprintf("%s threshold %g%% can never trip.", name, v))
		}
	}
	ok(fmt.Sprintf("thresholds cpu=%g%% memory=%g%% disk=%g%% processes=%d",
		th.CPUPercent, th.MemoryPercent, th.DiskPercent, th.ProcessCount))

	ok("preflight passed")
}
