package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate fills defaults for empty settings and keeps explicit values.
func TestValidate(t *testing.T) {
	t.Parallel()

	settings := new(Config)
	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultStateFile(), settings.StateFile)
	require.Equal(t, DefaultLogLevel, settings.LogLevel)
	require.Empty(t, settings.SoundFile)

	settings = &Config{
		StateFile: "/tmp/tomato/../tomato/state.json",
		LogLevel:  "debug",
	}
	require.NoError(t, Validate(settings))
	require.Equal(t, "/tmp/tomato/state.json", settings.StateFile)
	require.Equal(t, "debug", settings.LogLevel)
}

// TestLoad reads YAML settings and distinguishes explicit from default paths.
func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	require.NoError(t, os.WriteFile(path, []byte(
		"state_file: /var/lib/tomato/state.json\nsound_player: paplay\nlog_level: warn\n"), DefaultFilePermissions))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/tomato/state.json", cfg.StateFile)
	require.Equal(t, "paplay", cfg.SoundPlayer)
	require.Equal(t, "warn", cfg.LogLevel)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("state_file: [unterminated"), DefaultFilePermissions))

	_, err = Load(path)
	require.Error(t, err)
}

// TestResolve_Precedence checks flag > environment > settings file ordering.
func TestResolve_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	require.NoError(t, os.WriteFile(path, []byte("state_file: "+filepath.Join(dir, "yaml.json")+"\n"), DefaultFilePermissions))

	t.Setenv(StateFileEnv, "")

	cfg, err := Resolve(Overrides{ConfigPath: path})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "yaml.json"), cfg.StateFile)

	t.Setenv(StateFileEnv, filepath.Join(dir, "env.json"))

	cfg, err = Resolve(Overrides{ConfigPath: path})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "env.json"), cfg.StateFile)

	cfg, err = Resolve(Overrides{
		ConfigPath: path,
		StateFile:  filepath.Join(dir, "flag.json"),
		LogLevel:   "error",
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "flag.json"), cfg.StateFile)
	require.Equal(t, "error", cfg.LogLevel)
}

// TestResolve_Default uses the per-user configuration directory.
func TestResolve_Default(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(StateFileEnv, "")

	cfg, err := Resolve(Overrides{})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, AppName, DefaultStateFilename), cfg.StateFile)

	// The directory is only created on request.
	_, err = os.Stat(filepath.Join(dir, AppName))
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, EnsureStateDir(cfg))

	info, err := os.Stat(filepath.Join(dir, AppName))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

// TestLoadDotEnv reads variables from a .env file without overriding the environment.
func TestLoadDotEnv(t *testing.T) {
	const (
		fresh  = "TOMATO_TEST_DOTENV_FRESH"
		preset = "TOMATO_TEST_DOTENV_PRESET"
	)

	t.Cleanup(func() {
		_ = os.Unsetenv(fresh)
	})
	t.Setenv(preset, "from-env")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(fresh+"=from-file\n"+preset+"=from-file\n"), DefaultFilePermissions))

	require.NoError(t, loadDotEnv(path))
	require.Equal(t, "from-file", os.Getenv(fresh))
	require.Equal(t, "from-env", os.Getenv(preset))

	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

// TestExpandHome replaces only a leading tilde.
func TestExpandHome(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	require.Equal(t, filepath.Join(home, "state.json"), expandHome("~/state.json"))
	require.Equal(t, "/abs/~/state.json", expandHome("/abs/~/state.json"))
	require.Equal(t, "~", expandHome("~"))
}
