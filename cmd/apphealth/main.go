package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/hamed0406/healthcheck/internal/cli"
	"github.com/hamed0406/healthcheck/internal/config"
	"github.com/hamed0406/healthcheck/internal/httpapi"
	"github.com/hamed0406/healthcheck/internal/logging"
	"github.com/hamed0406/healthcheck/internal/metrics"
	"github.com/hamed0406/healthcheck/internal/probe"
	"github.com/hamed0406/healthcheck/internal/report"
	"github.com/hamed0406/healthcheck/internal/repo/memory"
	"github.com/hamed0406/healthcheck/internal/runner"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := cli.ParseArgs("apphealth", args, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return runner.ExitOK
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "apphealth:", err)
		return runner.ExitInternal
	}
	if err := cli.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "apphealth: load .env:", err)
		return runner.ExitInternal
	}
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "apphealth:", err)
		return runner.ExitInternal
	}

	logger, err := logging.NewLogger(cfg.LogDir, config.AppLogName, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "apphealth: open log:", err)
		return runner.ExitInternal
	}
	defer logger.Sync()

	logger.Info("health_checker_starting",
		zap.String("config", cfg.ConfigFile),
		zap.Int("applications", len(cfg.Applications)),
		zap.Duration("watch", opts.Watch),
	)

	// the checker and the uptime window must read the same clock
	now := time.Now
	apps := runner.NewApps(logger, cfg.Applications, probe.NewHTTPChecker(logger, now), memory.New(), cfg.UptimeWindow)
	apps.Now = now
	apps.ReportFile = cfg.ReportFile
	apps.Renderer = report.Renderer{Out: os.Stdout, Color: report.UseColor(os.Stdout, opts.NoColor)}

	addr := opts.Addr
	if addr == "" {
		addr = cfg.Addr
	}
	var api http.Handler
	if opts.Watch > 0 && addr != "" {
		m := metrics.New()
		apps.Metrics = m
		api = httpapi.NewServer(logger, apps, nil, m.Handler()).Router(httpapi.Options{
			Keys:      cfg.APIKeys,
			Origins:   cfg.APIOrigins,
			ReqPerMin: cfg.APIRPM,
			Burst:     cfg.APIBurst,
		})
	}

	return cli.Execute(context.Background(), logger, opts.Watch, addr, apps.RunOnce, api)
}
