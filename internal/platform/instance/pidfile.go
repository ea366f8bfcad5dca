package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"
)

// PIDFileSuffix is appended to the state file path to name the PID file.
const PIDFileSuffix = ".daemon.pid"

// ErrAlreadyRunning indicates another daemon already holds the PID file.
var ErrAlreadyRunning = errors.New("daemon already running")

// PIDFile guards a daemon with a PID file.
type PIDFile struct {
	// path is the PID file location.
	path string
	// pid is the current process ID.
	pid int
	// findProcess looks up a process by ID; nil result means not running.
	findProcess func(pid int) (ps.Process, error)
}

// ForStateFile returns the guard for the daemon serving stateFile.
func ForStateFile(stateFile string) *PIDFile {
	return New(stateFile + PIDFileSuffix)
}

// New creates a guard using the PID file at path.
func New(path string) *PIDFile {
	return &PIDFile{
		path:        filepath.Clean(path),
		pid:         os.Getpid(),
		findProcess: ps.FindProcess,
	}
}

// Path returns the PID file location.
func (f *PIDFile) Path() string {
	return f.path
}

// Acquire records the current process in the PID file. It fails with
// ErrAlreadyRunning when the file belongs to another live daemon. A stale
// file is replaced once; losing the race for it also reports
// ErrAlreadyRunning.
func (f *PIDFile) Acquire() error {
	err := f.create()
	if !errors.Is(err, os.ErrExist) {
		return err
	}

	if owner, running := f.Owner(); running {
		return fmt.Errorf("%w: pid %d (%s)", ErrAlreadyRunning, owner, f.path)
	}

	if err = os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale pid file: %w", err)
	}

	err = f.create()
	if errors.Is(err, os.ErrExist) {
		owner, _ := f.Owner()

		return fmt.Errorf("%w: pid %d (%s)", ErrAlreadyRunning, owner, f.path)
	}

	return err
}

// create writes the PID to an owner-only temporary file and links it into
// place, so the PID file never exists without its contents. It returns an error wrapping
// os.ErrExist when the PID file is already present.
func (f *PIDFile) create() error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create pid file: %w", err)
	}

	defer os.Remove(tmp.Name())

	_, err = tmp.WriteString(strconv.Itoa(f.pid) + "\n")
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}

	if err = os.Link(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("link pid file: %w", err)
	}

	return nil
}

// Release removes the PID file if it still belongs to the current process.
func (f *PIDFile) Release() error {
	pid, err := f.read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return err
	}

	if pid != f.pid {
		return nil
	}

	if err = os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove pid file: %w", err)
	}

	return nil
}

// Owner returns the PID of another live daemon recorded in the PID file.
func (f *PIDFile) Owner() (int, bool) {
	pid, err := f.read()
	if err != nil || pid == f.pid {
		return 0, false
	}

	other, err := f.findProcess(pid)
	if err != nil || other == nil {
		return 0, false
	}

	self, err := f.findProcess(f.pid)
	if err != nil || self == nil {
		// Cannot compare executables; trust the live PID.
		return pid, true
	}

	if other.Executable() != self.Executable() {
		return 0, false
	}

	return pid, true
}

// read parses the PID stored in the file.
func (f *PIDFile) read() (int, error) {
	contents, err := os.ReadFile(f.path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("parse pid file %s: invalid pid %q", f.path, strings.TrimSpace(string(contents)))
	}

	return pid, nil
}
