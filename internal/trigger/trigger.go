// Package trigger runs the expiry sweep on a cron schedule.
package trigger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alexanderramin/solace/internal/app"
)

// DefaultTimeout bounds a single scheduled sweep.
const DefaultTimeout = 5 * time.Minute

// Sweeper sweeps every user with linked pending tasks.
type Sweeper interface {
	SweepAll(ctx context.Context) ([]app.UserSweep, error)
}

// Summary totals one sweep run.
type Summary struct {
	Users       int
	Rescheduled int
	Failed      int
}

// SweepJob is the cron job wrapping a Sweeper.
type SweepJob struct {
	sweeper Sweeper
	logger  *slog.Logger
	timeout time.Duration
	base    context.Context
}

// NewSweepJob creates a job. A non-positive timeout selects DefaultTimeout
// and a nil logger discards output.
func NewSweepJob(sweeper Sweeper, logger *slog.Logger, timeout time.Duration) *SweepJob {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SweepJob{sweeper: sweeper, logger: logger, timeout: timeout, base: context.Background()}
}

// Run implements cron.Job.
func (j *SweepJob) Run() {
	_, _ = j.RunOnce(j.base)
}

// RunOnce sweeps all users and logs one line per user with something to
// report.
func (j *SweepJob) RunOnce(ctx context.Context) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	startedAt := time.Now()
	results, err := j.sweeper.SweepAll(ctx)

	var sum Summary
	for _, r := range results {
		sum.Users++
		sum.Rescheduled += len(r.Rescheduled)
		if r.Err != nil {
			sum.Failed++
			j.logger.WarnContext(ctx, "sweep failed for user", "user_id", r.UserID, "rescheduled", len(r.Rescheduled), "error", r.Err)
			continue
		}
		if len(r.Rescheduled) > 0 {
			j.logger.InfoContext(ctx, "sweep rescheduled tasks", "user_id", r.UserID, "rescheduled", len(r.Rescheduled))
		}
	}

	attrs := []any{"users", sum.Users, "rescheduled", sum.Rescheduled, "failed", sum.Failed, "duration_ms", time.Since(startedAt).Milliseconds()}
	if err != nil {
		j.logger.ErrorContext(ctx, "sweep run aborted", append(attrs, "error", err)...)
		return sum, err
	}
	j.logger.InfoContext(ctx, "sweep run finished", attrs...)
	return sum, nil
}

// Trigger owns the cron scheduler.
type Trigger struct {
	cron  *cron.Cron
	job   *SweepJob
	entry cron.EntryID
}

// New schedules job on a standard five-field spec or a descriptor such as
// "@every 15m", evaluated in loc. Runs never overlap: a tick that fires
// while the previous sweep is still going is skipped.
func New(spec string, loc *time.Location, job *SweepJob, logger *slog.Logger) (*Trigger, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cl := cronLogger{logger: logger}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithParser(parser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	id, err := c.AddJob(spec, job)
	if err != nil {
		return nil, fmt.Errorf("parsing sweep schedule %q: %w", spec, err)
	}
	return &Trigger{cron: c, job: job, entry: id}, nil
}

// Start runs the scheduler in the background. Sweeps inherit ctx.
func (t *Trigger) Start(ctx context.Context) {
	t.job.base = ctx
	t.cron.Start()
}

// Stop halts scheduling. The returned context is done once any running
// sweep has finished.
func (t *Trigger) Stop() context.Context {
	return t.cron.Stop()
}

// Next is the next scheduled activation, zero before Start.
func (t *Trigger) Next() time.Time {
	return t.cron.Entry(t.entry).Next
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
