package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/oshokin/tomato/internal/domain/pomodoro"
	"github.com/oshokin/tomato/internal/logger"
	"github.com/oshokin/tomato/internal/platform/notify"
	repo "github.com/oshokin/tomato/internal/repository/state"
	"github.com/oshokin/tomato/internal/service/timer"
)

// DefaultPollInterval is the fixed interval between state checks.
const DefaultPollInterval = 5 * time.Second

// Poller completes due steps and raises alerts.
type Poller struct {
	// repo is the persisted state shared with the CLI.
	repo repo.Repository
	// engine applies the cycle rules.
	engine *pomodoro.Engine
	// notifier shows desktop notifications.
	notifier notify.Notifier
	// player plays the alert sound.
	player notify.Player
	// stateFile is the watched state file and the default state location.
	stateFile string
	// interval is the time between ticks.
	interval time.Duration
	// watch enables early ticks on state file writes.
	watch bool
}

// Option configures the poller.
type Option func(*Poller)

// WithInterval overrides the polling interval.
func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithWatch enables or disables watching the state file for changes.
func WithWatch(enabled bool) Option {
	return func(p *Poller) {
		p.watch = enabled
	}
}

// NewPoller creates a poller for the state stored in repository.
func NewPoller(
	repository repo.Repository,
	engine *pomodoro.Engine,
	notifier notify.Notifier,
	player notify.Player,
	stateFile string,
	opts ...Option,
) *Poller {
	p := &Poller{
		repo:      repository,
		engine:    engine,
		notifier:  notifier,
		player:    player,
		stateFile: stateFile,
		interval:  DefaultPollInterval,
		watch:     true,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run polls the state until ctx is canceled. Failed ticks are logged and
// polling continues.
func (p *Poller) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "daemon")

	logger.InfoKV(ctx, "Polling timer state", "state_file", p.stateFile, "interval", p.interval.String())

	var changes <-chan struct{}

	if p.watch {
		watcher, err := newStateWatcher(p.stateFile)
		if err != nil {
			logger.WarnKV(ctx, "State file watch disabled", "error", err)
		} else {
			defer func() {
				_ = watcher.Close()
			}()

			changes = watcher.run(ctx)
		}
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		case <-ticker.C:
		case <-changes:
			logger.DebugKV(ctx, "State file changed")
		}

		if err := p.Poll(ctx); err != nil {
			logger.ErrorKV(ctx, "Poll failed", "error", err)
		}
	}
}

// Poll runs a single tick against the latest persisted state and saves the
// result when it differs from what was loaded.
func (p *Poller) Poll(ctx context.Context) error {
	loaded, err := timer.LoadOrDefault(ctx, p.repo, p.stateFile)
	if err != nil {
		return err
	}

	next, effects := Tick(p.engine, loaded.Clone())

	if next.Equal(loaded) {
		return nil
	}

	// Alerts follow a successful save; an unsaved completion is retried on
	// the next tick and must not alert twice.
	if err = p.repo.Save(ctx, next); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}

	logger.InfoKV(ctx, "Timer state updated", "next_step", p.engine.NextStep(next))

	if !effects.None() {
		p.dispatch(ctx, effects)
	}

	return nil
}

// dispatch raises the alerts of a tick. Failures are logged only.
func (p *Poller) dispatch(ctx context.Context, effects Effects) {
	if effects.PlaySound && p.player != nil {
		if err := p.player.Play(ctx); err != nil {
			logger.ErrorKV(ctx, "Failed to play alert sound", "error", err)
		}
	}

	if effects.Notification != "" && p.notifier != nil {
		if err := p.notifier.Notify(ctx, effects.Notification); err != nil {
			logger.ErrorKV(ctx, "Failed to show notification", "error", err)
		}
	}

	logger.InfoKV(ctx, "Step completed", "message", effects.Notification)
}

// stateWatcher signals writes to the state file.
type stateWatcher struct {
	// watcher observes the directory holding the state file.
	watcher *fsnotify.Watcher
	// name is the base name of the state file.
	name string
}

// newStateWatcher watches the directory of stateFile, which survives the file
// being replaced by rename.
func newStateWatcher(stateFile string) (*stateWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(stateFile)
	if err = watcher.Add(dir); err != nil {
		_ = watcher.Close()

		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &stateWatcher{
		watcher: watcher,
		name:    filepath.Base(stateFile),
	}, nil
}

// run forwards relevant events until ctx is canceled or the watcher closes.
// Bursts collapse into one pending signal.
func (w *stateWatcher) run(ctx context.Context) <-chan struct{} {
	changes := make(chan struct{}, 1)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}

				if filepath.Base(event.Name) != w.name {
					continue
				}

				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}

				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}

				logger.WarnKV(ctx, "State watcher error", "error", err)
			}
		}
	}()

	return changes
}

// Close stops watching.
func (w *stateWatcher) Close() error {
	return w.watcher.Close()
}
