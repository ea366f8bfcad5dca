package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/tomato/internal/config"
	"github.com/oshokin/tomato/internal/domain/pomodoro"
	"github.com/oshokin/tomato/internal/logger"
	repository "github.com/oshokin/tomato/internal/repository/state"
	"github.com/oshokin/tomato/internal/service/daemon"
	"github.com/oshokin/tomato/internal/service/timer"
	"github.com/oshokin/tomato/internal/version"
)

var (
	// configPath to the optional settings YAML file.
	configPath string
	// stateFile overrides the state file location.
	stateFile string
	// logLevel overrides the configured log level.
	logLevel string
	// noWatch disables state file watching in the daemon.
	noWatch bool

	// settings is the configuration resolved before any subcommand runs.
	settings *config.Config

	// rootCmd represents the base command of the timer.
	rootCmd = &cobra.Command{
		Use:   "tomato",
		Short: "Pomodoro timer for the terminal.",
		Long: `Pomodoro timer for the terminal.

Work in 25-minute periods separated by 5-minute short breaks. Every fourth
work period is followed by a 25-minute long break, after which the counters
start over. Run "tomato daemon" in the background to get a notification and an
alert sound when a step ends.

The state file location is taken from --state-file, the TOMATO_STATE_FILE
environment variable (also read from a .env file), the settings file, or
defaults to the user configuration directory.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print counters and the running or next step.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg, err := newTimerService().Status(cmd.Context())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)

			return nil
		},
	}

	nextCmd = &cobra.Command{
		Use:   "next",
		Short: "Start the next step.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			step, err := newTimerService().Next(cmd.Context())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting %s.\n", step)

			return nil
		},
	}

	skipCmd = &cobra.Command{
		Use:   "skip",
		Short: "Complete the next step without waiting for it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			step, err := newTimerService().Skip(cmd.Context())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Skipping %s.\n", step)

			return nil
		},
	}

	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Reset counters and stop the running step.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := newTimerService().Reset(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Resetting tomato state.")

			return nil
		},
	}

	daemonCmd = &cobra.Command{
		Use:   "daemon",
		Short: "Watch the running step and alert when it ends.",
		Long: `Background process that completes steps when their time is up.

Every 5 seconds the state file is reloaded; when the running step is due, a
desktop notification is shown, the alert sound is played and the completed
state is saved. Only one daemon may run per state file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return daemon.Run(ctx, &daemon.Options{
				Config:  settings,
				NoWatch: noWatch,
			})
		},
	}
)

// errUnknownLogLevel is returned for a log level ParseLogLevel does not know.
var errUnknownLogLevel = errors.New("unknown log level")

// Execute runs the tomato CLI and exits with non-zero status on error.
func Execute() {
	defer logger.Sync()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// setup resolves the configuration, applies the log level and creates the
// state directory.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Resolve(config.Overrides{
		ConfigPath: configPath,
		StateFile:  stateFile,
		LogLevel:   logLevel,
	})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	level, ok := logger.ParseLogLevel(cfg.LogLevel)
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}

	logger.SetLevel(level)

	if err = config.EnsureStateDir(cfg); err != nil {
		return err
	}

	settings = cfg

	ctx := logger.WithKV(logger.WithName(cmd.Context(), "tomato"), "state_file", cfg.StateFile)
	cmd.SetContext(ctx)

	return nil
}

// newTimerService builds the service for the interactive commands.
func newTimerService() *timer.Service {
	return timer.NewService(
		repository.NewFileRepository(settings.StateFile),
		pomodoro.NewEngine(),
		settings.StateFile,
	)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to settings file")
	rootCmd.PersistentFlags().StringVarP(&stateFile, "state-file", "s", "", "path to the timer state file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	// Hidden flag for environments without inotify.
	daemonCmd.Flags().BoolVar(&noWatch, "no-watch", false, "poll only, do not watch the state file")

	err := daemonCmd.Flags().MarkHidden("no-watch")
	if err != nil {
		panic(err)
	}

	rootCmd.AddCommand(statusCmd, nextCmd, skipCmd, resetCmd, daemonCmd)
	version.AttachCobraVersionCommand(rootCmd)
}
