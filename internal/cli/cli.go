package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/hamed0406/healthcheck/internal/httpapi"
	"github.com/hamed0406/healthcheck/internal/runner"
)

// Options are the command-line flags shared by both commands.
type Options struct {
	ConfigFile string
	Watch      time.Duration
	Addr       string
	NoColor    bool
}

// ParseArgs parses args for the command name. It returns pflag.ErrHelp when
// -h/--help was given; usage has then been written to out.
func ParseArgs(name string, args []string, out io.Writer) (Options, error) {
	var o Options
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(out)
	flags.StringVarP(&o.ConfigFile, "config", "c", "", "YAML config file (default $CONFIG_FILE or healthcheck.yaml)")
	flags.DurationVarP(&o.Watch, "watch", "w", 0, "run repeatedly at this interval instead of once, e.g. 60s")
	flags.StringVarP(&o.Addr, "addr", "a", "", "serve the status API on this address while watching (default $API_ADDR)")
	flags.BoolVar(&o.NoColor, "no-color", false, "disable coloured console output")
	flags.Usage = func() {
		fmt.Fprintf(out, "Usage: %s [flags]\n\nFlags:\n%s", name, flags.FlagUsages())
	}

	if err := flags.Parse(args); err != nil {
		return Options{}, err
	}
	if flags.NArg() > 0 {
		return Options{}, fmt.Errorf("unexpected argument %q", flags.Arg(0))
	}
	if o.Watch < 0 || (o.Watch > 0 && o.Watch < time.Second) {
		return Options{}, fmt.Errorf("--watch must be at least 1s, got %s", o.Watch)
	}
	if o.Addr != "" && o.Watch == 0 {
		return Options{}, errors.New("--addr requires --watch")
	}
	return o, nil
}

// LoadEnv reads .env from the working directory into the environment.
// Variables already set win. A missing file is not an error.
func LoadEnv(files ...string) error {
	err := godotenv.Load(files...)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Execute runs job once, or on the watch interval until SIGINT/SIGTERM. In
// watch mode api, when non-nil, is served on addr for as long as the watch
// lasts.
func Execute(ctx context.Context, logger *zap.Logger, watch time.Duration, addr string, job func(context.Context) int, api http.Handler) int {
	if watch == 0 {
		return job(ctx)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiDone := make(chan error, 1)
	if api != nil && addr != "" {
		go func() {
			err := httpapi.ListenAndServe(ctx, logger, addr, api)
			if err != nil {
				logger.Error("api_failed", zap.String("addr", addr), zap.Error(err))
				stop()
			}
			apiDone <- err
		}()
	} else {
		apiDone <- nil
	}

	code := runner.Watch(ctx, logger, watch, job)
	stop()
	if err := <-apiDone; err != nil {
		return runner.ExitInternal
	}
	return code
}
