// Package pomodoro contains the step state machine of the timer.
//
// It defines Step (work period, short break, long break) and State (the
// persisted counters plus the active step and its deadline), and an Engine
// that applies the cycle rules to a State. The engine performs no I/O: callers
// load the state, run an operation and persist the result themselves.
package pomodoro
