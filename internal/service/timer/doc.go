// Package timer runs the interactive timer commands.
//
// Each mutating command loads the persisted state, applies one engine
// operation and saves the result only when the operation succeeded.
package timer
