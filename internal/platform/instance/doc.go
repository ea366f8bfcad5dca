// Package instance keeps a single daemon running per state file.
//
// The daemon records its PID next to the state file. A PID file is honoured
// only while it names a live process running the same executable, so files
// left behind by a crashed daemon are replaced.
package instance
