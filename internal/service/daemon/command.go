package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/tomato/internal/config"
	"github.com/oshokin/tomato/internal/domain/pomodoro"
	"github.com/oshokin/tomato/internal/logger"
	"github.com/oshokin/tomato/internal/platform/instance"
	"github.com/oshokin/tomato/internal/platform/notify"
	repository "github.com/oshokin/tomato/internal/repository/state"
)

// Options controls the daemon process.
type Options struct {
	// Config is the resolved configuration.
	Config *config.Config
	// PollInterval overrides DefaultPollInterval when positive.
	PollInterval time.Duration
	// NoWatch disables early ticks on state file writes.
	NoWatch bool
}

// Run guards against a second daemon for the same state file and polls until
// ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	cfg := opts.Config

	guard := instance.ForStateFile(cfg.StateFile)
	if err := guard.Acquire(); err != nil {
		return err
	}

	defer func() {
		if err := guard.Release(); err != nil {
			logger.ErrorKV(ctx, "Failed to remove pid file", "error", err)
		}
	}()

	player := notify.NewPlayer(cfg.SoundPlayer, cfg.SoundFile)

	logger.DebugKV(ctx, "Alert sound", "player", player.Program(), "file", player.File(), "pid_file", guard.Path())

	poller := NewPoller(
		repository.NewFileRepository(cfg.StateFile),
		pomodoro.NewEngine(),
		notify.NewNotifier(),
		player,
		cfg.StateFile,
		WithInterval(opts.PollInterval),
		WithWatch(!opts.NoWatch),
	)

	if err := poller.Run(ctx); err != nil {
		return fmt.Errorf("run poller: %w", err)
	}

	return nil
}
