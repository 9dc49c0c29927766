package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/srodi/appwatch/pkg/aggregate"
	"github.com/srodi/appwatch/pkg/collector/process"
	"github.com/srodi/appwatch/pkg/collector/window"
	"github.com/srodi/appwatch/pkg/config"
	"github.com/srodi/appwatch/pkg/report"
	"github.com/srodi/appwatch/pkg/store"
	"github.com/srodi/appwatch/pkg/types"
)

const (
	defaultInterval  = time.Second
	defaultSaveEvery = 60
	saveTimeout      = 10 * time.Second
)

// Options tunes the sampling loop.
type Options struct {
	Interval  time.Duration
	SaveEvery int
	// Target selects whose resources are attributed to the foreground app:
	// config.TargetForeground reads the window's own process, config.TargetSelf
	// reads the monitor.
	Target string
	// Async renders reports on a background worker instead of the loop.
	Async bool
	// Reporter is invoked after every periodic save. Nil disables reports.
	Reporter report.Reporter
	Hooks    Hooks
}

// Hooks are optional callbacks at lifecycle points. Hook errors are logged.
type Hooks struct {
	Ready    func() error
	Stopping func() error
	// Watchdog is pinged once per tick when set.
	Watchdog func() error
	// Saved runs after every save attempt with the table that was written.
	Saved func(table types.UsageTable, err error)
	// Ticked runs after every tick.
	Ticked func(info window.Info)
}

// Runner owns the usage table and drives sample, save and report cycles. All
// table mutation happens on the goroutine that calls Run.
type Runner struct {
	opts    Options
	store   store.Store
	windows window.Resolver
	procs   process.Reader
	logger  zerolog.Logger

	// selfPID and newTicker allow tests to control the process and clock.
	selfPID   func() int32
	newTicker func(time.Duration) (<-chan time.Time, func())

	state atomic.Int32
	table types.UsageTable
}

// New returns a runner in the init state.
func New(opts Options, st store.Store, windows window.Resolver, procs process.Reader, logger zerolog.Logger) *Runner {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.SaveEvery <= 0 {
		opts.SaveEvery = defaultSaveEvery
	}
	if opts.Target == "" {
		opts.Target = config.TargetForeground
	}
	return &Runner{
		opts:    opts,
		store:   st,
		windows: windows,
		procs:   procs,
		logger:  logger.With().Str("component", "runner").Logger(),
		selfPID: func() int32 { return int32(os.Getpid()) },
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
		table: types.NewUsageTable(),
	}
}

// State reports the current lifecycle phase. Safe for concurrent use.
func (r *Runner) State() State {
	return State(r.state.Load())
}

func (r *Runner) setState(s State) {
	prev := State(r.state.Swap(int32(s)))
	if prev != s {
		r.logger.Debug().Stringer("from", prev).Stringer("to", s).Msg("state change")
	}
}

// Run loads the stored table and samples until ctx is cancelled, then saves
// once more. A corrupt stored record aborts before the first tick with an
// error wrapping store.ErrCorrupt. The final save's error is returned.
func (r *Runner) Run(ctx context.Context) error {
	r.setState(StateInit)
	table, err := r.store.Load(ctx)
	if err != nil {
		r.setState(StateStopped)
		if errors.Is(err, store.ErrCorrupt) {
			return fmt.Errorf("refusing to start, stored usage record is corrupt: %w", err)
		}
		return fmt.Errorf("loading usage record: %w", err)
	}
	r.table = table
	r.logger.Info().
		Int("apps", len(table.Apps)).
		Int64("total_system_usage", table.TotalSystemUsage).
		Msg("usage record loaded")

	reporter := r.opts.Reporter
	if reporter != nil && r.opts.Async {
		async := newAsyncReporter(reporter)
		defer async.Close()
		reporter = async
	}

	ticks, stopTicker := r.newTicker(r.opts.Interval)
	defer stopTicker()

	r.callHook("ready", r.opts.Hooks.Ready)
	r.setState(StateRunning)

	sinceSave := 0
	for {
		select {
		case <-ctx.Done():
			return r.shutdown(ctx)
		case <-ticks:
			r.tick(ctx)
			sinceSave++
			if sinceSave >= r.opts.SaveEvery {
				sinceSave = 0
				r.setState(StateSaving)
				if err := r.save(ctx); err != nil {
					r.logger.Error().Err(err).Msg("saving usage record failed, will retry at next save point")
				}
				if reporter != nil {
					_ = reporter.Report(r.table)
				}
				r.setState(StateRunning)
			}
		}
	}
}

// Snapshot returns a copy of the in-memory table. It must not be called
// concurrently with Run.
func (r *Runner) Snapshot() types.UsageTable {
	return r.table.Clone()
}

func (r *Runner) tick(ctx context.Context) {
	info := r.windows.Active(ctx)
	if info.Name != "" {
		pid := info.PID
		if r.opts.Target == config.TargetSelf {
			pid = r.selfPID()
		}
		stat := r.procs.Read(ctx, pid)
		r.table = aggregate.RecordSample(r.table, info.Name, stat.RSSBytes, stat.DiskBytes)
	} else {
		r.logger.Debug().Msg("no foreground application")
	}

	r.callHook("watchdog", r.opts.Hooks.Watchdog)
	if r.opts.Hooks.Ticked != nil {
		r.opts.Hooks.Ticked(info)
	}
}

// save persists the table. Cancellation of ctx does not interrupt a save
// already started.
func (r *Runner) save(ctx context.Context) error {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	snapshot := r.table.Clone()
	err := r.store.Save(saveCtx, snapshot)
	if r.opts.Hooks.Saved != nil {
		r.opts.Hooks.Saved(snapshot, err)
	}
	if err == nil {
		r.logger.Debug().Int("apps", len(snapshot.Apps)).Msg("usage record saved")
	}
	return err
}

func (r *Runner) shutdown(ctx context.Context) error {
	r.setState(StateStopping)
	r.callHook("stopping", r.opts.Hooks.Stopping)
	err := r.save(ctx)
	r.setState(StateStopped)
	if err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	r.logger.Info().Int64("total_system_usage", r.table.TotalSystemUsage).Msg("exiting and saving usage data")
	return nil
}

func (r *Runner) callHook(name string, hook func() error) {
	if hook == nil {
		return
	}
	if err := hook(); err != nil {
		r.logger.Warn().Err(err).Str("hook", name).Msg("lifecycle hook failed")
	}
}
