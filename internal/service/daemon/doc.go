// Package daemon detects completed steps in the background.
//
// The poller reloads the persisted state on a fixed interval, completes the
// active step once its deadline has passed, alerts the user and saves the
// result. External edits made by the CLI between ticks are always observed.
package daemon
