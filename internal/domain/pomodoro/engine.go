package pomodoro

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// WorkPeriodDuration is the length of a work period.
	WorkPeriodDuration = 25 * time.Minute
	// ShortBreakDuration is the length of a short break.
	ShortBreakDuration = 5 * time.Minute
	// LongBreakDuration is the length of a long break.
	LongBreakDuration = 25 * time.Minute

	// shortBreaksPerCycle is the number of short breaks after which the next
	// break is a long one.
	shortBreaksPerCycle = 3
)

var (
	// ErrStepRunning is returned when a step is started while another one is active.
	ErrStepRunning = errors.New("step already running")
	// ErrUnknownStep is returned for a step outside the cycle.
	ErrUnknownStep = errors.New("unknown step")
)

// Duration returns how long step runs.
func Duration(step Step) (time.Duration, error) {
	switch step {
	case WorkPeriod:
		return WorkPeriodDuration, nil
	case ShortBreak:
		return ShortBreakDuration, nil
	case LongBreak:
		return LongBreakDuration, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
}

// Engine applies the cycle rules to a State.
type Engine struct {
	// now returns the current time.
	now func() time.Time
}

// Option configures the engine.
type Option func(*Engine)

// WithClock replaces the clock used to compute deadlines and remaining time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine reading the current UTC time.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now: func() time.Time {
			return time.Now().UTC()
		},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// NextStep returns the step that runs next. An active step is always next.
func (e *Engine) NextStep(state *State) Step {
	if state.ActiveStep != nil {
		return *state.ActiveStep
	}

	if state.WorkPeriods > state.ShortBreaks {
		if state.ShortBreaks >= shortBreaksPerCycle {
			return LongBreak
		}

		return ShortBreak
	}

	return WorkPeriod
}

// Start makes step the active step with a deadline of now plus its duration.
// The state is left untouched if another step is already running.
func (e *Engine) Start(step Step, state *State) (*State, error) {
	if state.ActiveStep != nil {
		return state, fmt.Errorf("%w: %s", ErrStepRunning, *state.ActiveStep)
	}

	duration, err := Duration(step)
	if err != nil {
		return state, err
	}

	ends := e.now().Add(duration).UTC().Truncate(time.Microsecond)

	state.ActiveStep = stepPtr(step)
	state.StepEnds = &ends

	return state, nil
}

// Complete finishes step. Completing a long break starts a new cycle.
func (e *Engine) Complete(step Step, state *State) *State {
	if step == LongBreak {
		return DefaultState(state.StateFile)
	}

	state.ActiveStep = nil
	state.StepEnds = nil

	switch step {
	case WorkPeriod:
		state.WorkPeriods++
	case ShortBreak:
		state.ShortBreaks++
	}

	return state
}

// Skip completes the next step right away, without waiting for its timer.
// It returns the skipped step and the resulting state.
func (e *Engine) Skip(state *State) (Step, *State) {
	step := e.NextStep(state)

	return step, e.Complete(step, state)
}

// Remaining returns the time left on the active step. It is negative when the
// step is overdue. The second value is false when no step is active.
func (e *Engine) Remaining(state *State) (time.Duration, bool) {
	if state.ActiveStep == nil || state.StepEnds == nil {
		return 0, false
	}

	return state.StepEnds.Sub(e.now()), true
}

// StatusMessage renders the counters and the running or next step.
func (e *Engine) StatusMessage(state *State) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Pomodoros: %d\nShort Breaks: %d\n", state.WorkPeriods, state.ShortBreaks)

	next := e.NextStep(state)

	remaining, running := e.Remaining(state)
	if !running {
		fmt.Fprintf(&sb, "Next: %s", next)

		return sb.String()
	}

	seconds := int64(remaining / time.Second)
	fmt.Fprintf(&sb, "Running: %s -> %s [%d seconds]", next, FormatTimestamp(*state.StepEnds), seconds)

	return sb.String()
}
