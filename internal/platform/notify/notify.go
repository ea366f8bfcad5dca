package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// AppName is the application name shown in notifications.
const AppName = "tomato"

// ErrUnsupported indicates that the current platform cannot deliver the alert.
var ErrUnsupported = errors.New("unsupported on this platform")

// Notifier shows a desktop notification.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Player plays the alert sound.
type Player interface {
	Play(ctx context.Context) error
}

// NewNotifier returns the notifier for the current platform.
//
//nolint:ireturn // Backends are platform specific.
func NewNotifier() Notifier {
	return newNotifier()
}

// CommandPlayer plays a sound file with an external player program.
// The program is started and left running; Play does not wait for it.
type CommandPlayer struct {
	// program is the player executable.
	program string
	// file is the sound played.
	file string
}

// NewPlayer creates a player for file using program. Empty values select the
// platform defaults.
func NewPlayer(program, file string) *CommandPlayer {
	defaultProgram, defaultFile := defaultSound()

	if program == "" {
		program = defaultProgram
	}

	if file == "" {
		file = defaultFile
	}

	return &CommandPlayer{
		program: program,
		file:    file,
	}
}

// Program returns the player executable.
func (p *CommandPlayer) Program() string {
	return p.program
}

// File returns the sound file.
func (p *CommandPlayer) File() string {
	return p.file
}

// Play starts the player in the background.
func (p *CommandPlayer) Play(_ context.Context) error {
	if p.program == "" {
		return fmt.Errorf("play sound: %w", ErrUnsupported)
	}

	path, err := exec.LookPath(p.program)
	if err != nil {
		return fmt.Errorf("find sound player %q: %w", p.program, err)
	}

	// Playback outlives the tick that triggered it, so it is not bound to ctx.
	//nolint:gosec,noctx // Program and file come from the user's own settings.
	if err = startDetached(exec.Command(path, p.file)); err != nil {
		return fmt.Errorf("start sound player: %w", err)
	}

	return nil
}

// startDetached starts cmd without waiting for it. The process is reaped in
// the background.
func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}

	go func() {
		_ = cmd.Wait()
	}()

	return nil
}
