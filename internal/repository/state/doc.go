// Package state implements persistence for the timer State.
//
// The FileRepository stores and loads the state as JSON on disk and exposes a
// Repository interface that the timer and daemon services depend on. Step
// deadlines are written as "YYYY-MM-DD HH:MM:SS.ffffff" in UTC.
package state
