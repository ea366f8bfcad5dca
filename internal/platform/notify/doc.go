// Package notify delivers step completion alerts to the desktop.
//
// Notifier shows a desktop notification and Player plays an alert sound. The
// notification backend is chosen at build time: D-Bus on Linux, osascript on
// macOS, and an unsupported stub elsewhere.
package notify
