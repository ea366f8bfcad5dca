// Package config resolves the settings used by the tomato binary.
//
// Settings come from an optional YAML file, the TOMATO_STATE_FILE environment
// variable (also read from a .env file in the working directory) and command
// line overrides. Resolution happens once at startup; the resulting Config is
// passed explicitly to the services that need it.
package config
