package pomodoro

import "time"

// Step identifies one phase of the cycle. Its value is the display name and
// the persisted representation.
type Step string

const (
	// WorkPeriod is a focused work interval.
	WorkPeriod Step = "Pomodoro"
	// ShortBreak follows every work period except the last one of a cycle.
	ShortBreak Step = "Short break"
	// LongBreak closes the cycle and resets the counters when completed.
	LongBreak Step = "Long break"
)

// TimestampLayout is the format of step deadlines in the state file and in
// status messages.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// Valid reports whether s is one of the known steps.
func (s Step) Valid() bool {
	switch s {
	case WorkPeriod, ShortBreak, LongBreak:
		return true
	default:
		return false
	}
}

// String returns the display name of the step.
func (s Step) String() string {
	return string(s)
}

// State is the persisted timer state.
type State struct {
	// ActiveStep is the step currently counting down, nil when idle.
	ActiveStep *Step
	// StepEnds is when the active step completes. Set iff ActiveStep is set.
	StepEnds *time.Time
	// WorkPeriods counts completed work periods in the current cycle.
	WorkPeriods int
	// ShortBreaks counts completed short breaks in the current cycle.
	ShortBreaks int
	// StateFile is the location the state is persisted to.
	StateFile string
}

// DefaultState returns an idle state with zeroed counters.
func DefaultState(stateFile string) *State {
	return &State{
		StateFile: stateFile,
	}
}

// IsRunning reports whether a step is active.
func (s *State) IsRunning() bool {
	return s.ActiveStep != nil
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}

	cloned := *s

	if s.ActiveStep != nil {
		step := *s.ActiveStep
		cloned.ActiveStep = &step
	}

	if s.StepEnds != nil {
		ends := *s.StepEnds
		cloned.StepEnds = &ends
	}

	return &cloned
}

// Equal reports whether both states hold the same values.
// Deadlines are compared as instants.
func (s *State) Equal(other *State) bool {
	if s == nil || other == nil {
		return s == other
	}

	if s.WorkPeriods != other.WorkPeriods ||
		s.ShortBreaks != other.ShortBreaks ||
		s.StateFile != other.StateFile {
		return false
	}

	if (s.ActiveStep == nil) != (other.ActiveStep == nil) {
		return false
	}

	if s.ActiveStep != nil && *s.ActiveStep != *other.ActiveStep {
		return false
	}

	if (s.StepEnds == nil) != (other.StepEnds == nil) {
		return false
	}

	return s.StepEnds == nil || s.StepEnds.Equal(*other.StepEnds)
}

// FormatTimestamp renders t in TimestampLayout, in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a deadline written in TimestampLayout. The fractional
// part is optional and the value is read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	return time.ParseInLocation(time.DateTime, value, time.UTC)
}

// stepPtr returns a pointer to a copy of step.
func stepPtr(step Step) *Step {
	return &step
}
