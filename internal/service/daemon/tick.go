package daemon

import (
	"fmt"

	"github.com/oshokin/tomato/internal/domain/pomodoro"
)

// Effects are the side effects requested by a tick.
type Effects struct {
	// PlaySound requests the alert sound.
	PlaySound bool
	// Notification is the desktop notification text, empty for none.
	Notification string
}

// None reports whether no effect was requested.
func (e Effects) None() bool {
	return !e.PlaySound && e.Notification == ""
}

// Tick completes the active step if its deadline has passed.
// It returns the resulting state and the alerts to raise.
func Tick(engine *pomodoro.Engine, state *pomodoro.State) (*pomodoro.State, Effects) {
	if state.ActiveStep == nil {
		return state, Effects{}
	}

	if remaining, _ := engine.Remaining(state); remaining > 0 {
		return state, Effects{}
	}

	step := *state.ActiveStep
	effects := Effects{
		PlaySound:    true,
		Notification: CompletionMessage(step),
	}

	return engine.Complete(step, state), effects
}

// CompletionMessage is the notification text for a finished step.
func CompletionMessage(step pomodoro.Step) string {
	return fmt.Sprintf("%s completed", step)
}
