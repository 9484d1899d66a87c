package runner

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Watch runs job immediately and then every interval until ctx is done. A
// tick that fires while the previous run is still going is skipped. It
// returns the exit code of the last completed run.
//
// cron schedules whole seconds; shorter intervals are rounded up to 1s.
func Watch(ctx context.Context, logger *zap.Logger, interval time.Duration, job func(context.Context) int) int {
	if logger == nil {
		logger = zap.NewNop()
	}
	var last atomic.Int64
	run := cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		last.Store(int64(job(ctx)))
	})

	cl := cronLogger{logger}
	c := cron.New(cron.WithLogger(cl))
	wrapped := cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(run)

	wrapped.Run()
	if ctx.Err() != nil {
		return int(last.Load())
	}

	c.Schedule(cron.Every(interval), wrapped)
	c.Start()
	logger.Info("watch_started", zap.Duration("interval", interval))

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("watch_stopped", zap.Int64("last_exit", last.Load()))
	return int(last.Load())
}

// cronLogger routes cron's own logging into zap.
type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
