package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the tomato commands.
type Config struct {
	// StateFile is the path to the JSON file storing timer state.
	StateFile string `yaml:"state_file"`
	// SoundFile is the alert played when a step completes.
	// Empty selects the platform default.
	SoundFile string `yaml:"sound_file"`
	// SoundPlayer is the command used to play SoundFile.
	// Empty selects the platform default.
	SoundPlayer string `yaml:"sound_player"`
	// LogLevel is the minimum level of diagnostic logs.
	LogLevel string `yaml:"log_level"`
}

// Overrides carries values given on the command line.
// Empty fields leave the loaded settings untouched.
type Overrides struct {
	// ConfigPath is the YAML settings file to read.
	ConfigPath string
	// StateFile replaces the state file location.
	StateFile string
	// LogLevel replaces the log level.
	LogLevel string
}

const (
	// AppName names the per-user configuration directory.
	AppName = "tomato"

	// StateFileEnv is the environment variable overriding the state file location.
	StateFileEnv = "TOMATO_STATE_FILE"

	// DotEnvFilename is the optional file with environment defaults.
	DotEnvFilename = ".env"

	// DefaultConfigFilename is the settings filename inside the configuration directory.
	DefaultConfigFilename = "settings.yaml"

	// DefaultStateFilename is the default filename for timer state JSON.
	DefaultStateFilename = "tomato.json"

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the default file permission for state and config files.
	DefaultFilePermissions = 0o600

	// DefaultDirPermissions is the permission of created configuration directories.
	DefaultDirPermissions = 0o700
)

// errStateFileRequired is returned when no state file location can be determined.
var errStateFileRequired = errors.New("state file path must be provided")

// Resolve builds the effective configuration. The state file location is taken
// from overrides, then the environment, then the settings file, then the
// per-user default.
func Resolve(overrides Overrides) (*Config, error) {
	if err := loadDotEnv(DotEnvFilename); err != nil {
		return nil, err
	}

	cfg, err := Load(overrides.ConfigPath)
	if err != nil {
		return nil, err
	}

	if stateFile := os.Getenv(StateFileEnv); stateFile != "" {
		cfg.StateFile = stateFile
	}

	if overrides.StateFile != "" {
		cfg.StateFile = overrides.StateFile
	}

	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads settings from the provided path. An empty path means the
// per-user settings file, which may be absent; a named file must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return new(Config), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	return &cfg, nil
}

// Validate fills defaults for unset fields and checks the result.
func Validate(settings *Config) error {
	if settings.StateFile == "" {
		settings.StateFile = DefaultStateFile()
	}

	if settings.StateFile == "" {
		return errStateFileRequired
	}

	settings.StateFile = filepath.Clean(expandHome(settings.StateFile))

	if settings.SoundFile != "" {
		settings.SoundFile = filepath.Clean(expandHome(settings.SoundFile))
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	return nil
}

// EnsureStateDir creates the directory holding the state file if it is missing.
func EnsureStateDir(cfg *Config) error {
	dir := filepath.Dir(cfg.StateFile)

	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		return fmt.Errorf("create state directory %s: %w", dir, err)
	}

	return nil
}

// DefaultConfigPath returns the per-user settings file location.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), AppName, DefaultConfigFilename)
}

// DefaultStateFile returns the per-user state file location.
func DefaultStateFile() string {
	return filepath.Join(configDir(), AppName, DefaultStateFilename)
}

// configDir returns the user configuration directory, falling back to
// ~/.config and finally to the working directory.
func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config")
	}

	return "."
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if len(path) < 2 || path[0] != '~' || (path[1] != '/' && path[1] != filepath.Separator) {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[2:])
}

// loadDotEnv reads environment defaults from filename if it exists.
// Variables already set in the environment are left untouched.
func loadDotEnv(filename string) error {
	if err := godotenv.Load(filename); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("load %s: %w", filename, err)
	}

	return nil
}
