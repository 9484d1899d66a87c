package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/healthcheck/internal/cli"
	"github.com/hamed0406/healthcheck/internal/config"
	"github.com/hamed0406/healthcheck/internal/httpapi"
	"github.com/hamed0406/healthcheck/internal/logging"
	"github.com/hamed0406/healthcheck/internal/metrics"
	"github.com/hamed0406/healthcheck/internal/notify"
	"github.com/hamed0406/healthcheck/internal/report"
	"github.com/hamed0406/healthcheck/internal/runner"
	"github.com/hamed0406/healthcheck/internal/system"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := cli.ParseArgs("syshealth", args, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return runner.ExitOK
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "syshealth:", err)
		return runner.ExitInternal
	}
	if err := cli.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "syshealth: load .env:", err)
		return runner.ExitInternal
	}
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "syshealth:", err)
		return runner.ExitInternal
	}

	logger, err := logging.NewLogger(cfg.LogDir, config.SystemLogName, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "syshealth: open log:", err)
		return runner.ExitInternal
	}
	alertLogger, err := logging.NewAlertLogger(cfg.LogDir, config.AlertLogName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "syshealth: open alert log:", err)
		return runner.ExitInternal
	}
	defer func() {
		_ = multierr.Combine(logger.Sync(), alertLogger.Sync())
	}()

	sinks := notify.Multi{notify.NewAlertLog(alertLogger)}
	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		sinks = append(sinks, slack)
	}

	logger.Info("system_monitor_starting",
		zap.Float64("cpu_threshold", cfg.Thresholds.CPUPercent),
		zap.Float64("memory_threshold", cfg.Thresholds.MemoryPercent),
		zap.Float64("disk_threshold", cfg.Thresholds.DiskPercent),
		zap.Int("process_threshold", cfg.Thresholds.ProcessCount),
		zap.Bool("slack", len(sinks) > 1),
	)

	mon := system.NewMonitor(system.HostSampler{}, cfg.Thresholds, sinks, logger)
	mon.CPUSample = cfg.CPUSample
	sys := runner.NewSystem(logger, mon)
	sys.Renderer = report.Renderer{Out: os.Stdout, Color: report.UseColor(os.Stdout, opts.NoColor)}

	addr := opts.Addr
	if addr == "" {
		addr = cfg.Addr
	}
	var api http.Handler
	if opts.Watch > 0 && addr != "" {
		m := metrics.New()
		sys.Metrics = m
		api = httpapi.NewServer(logger, nil, sys, m.Handler()).Router(httpapi.Options{
			Keys:      cfg.APIKeys,
			Origins:   cfg.APIOrigins,
			ReqPerMin: cfg.APIRPM,
			Burst:     cfg.APIBurst,
		})
	}

	return cli.Execute(context.Background(), logger, opts.Watch, addr, sys.RunOnce, api)
}
