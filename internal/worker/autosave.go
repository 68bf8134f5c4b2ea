package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"depenses/internal/log"
)

// Saver persists the current ledger. *services.LedgerService satisfies it.
type Saver interface {
	Save(ctx context.Context, trigger string) error
}

// Autosaver saves the ledger on a fixed interval as a safety net next to the
// save that follows every mutation. A run that is still in flight when the
// next tick fires is skipped.
type Autosaver struct {
	saver    Saver
	interval time.Duration
	trigger  string
	logger   *log.Logger
	timeout  time.Duration
}

func NewAutosaver(saver Saver, interval time.Duration, trigger string, logger *log.Logger) *Autosaver {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &Autosaver{
		saver:    saver,
		interval: interval,
		trigger:  trigger,
		logger:   logger.WithComponent(log.ComponentWorker),
		timeout:  interval,
	}
}

// Run schedules the job and blocks until ctx is cancelled, then waits for a
// running save to finish.
func (a *Autosaver) Run(ctx context.Context) error {
	clog := cronLogger{a.logger}
	c := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	spec := fmt.Sprintf("@every %s", a.interval)
	if _, err := c.AddFunc(spec, func() { a.tick(ctx) }); err != nil {
		return fmt.Errorf("schedule autosave %q: %w", spec, err)
	}

	a.logger.Info("Autosave started", "interval", a.interval.String())
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	a.logger.Info("Autosave stopped")
	return nil
}

func (a *Autosaver) tick(parent context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), a.timeout)
	defer cancel()

	start := time.Now()
	if err := a.saver.Save(ctx, a.trigger); err != nil {
		// Already logged by the saver; keep the worker running.
		return
	}
	a.logger.Debug("Autosave completed",
		log.FieldOperation, log.OpAutosave,
		log.FieldDuration, time.Since(start).Milliseconds())
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append([]interface{}{log.FieldError, err}, keysAndValues...)...)
}
