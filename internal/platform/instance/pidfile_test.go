package instance

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProcess is a minimal ps.Process implementation for tests.
type fakeProcess struct {
	pid        int
	executable string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.executable }

// newTestPIDFile returns a guard for pid 100 seeing the given processes.
func newTestPIDFile(t *testing.T, processes ...fakeProcess) *PIDFile {
	t.Helper()

	table := map[int]ps.Process{
		100: fakeProcess{pid: 100, executable: "tomato"},
	}
	for _, p := range processes {
		table[p.pid] = p
	}

	f := New(filepath.Join(t.TempDir(), "tomato.json"+PIDFileSuffix))
	f.pid = 100
	f.findProcess = func(pid int) (ps.Process, error) {
		p, ok := table[pid]
		if !ok {
			return nil, nil
		}

		return p, nil
	}

	return f
}

func writePID(t *testing.T, path string, pid int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o600))
}

// TestPIDFile_AcquireRelease writes and removes the PID file.
func TestPIDFile_AcquireRelease(t *testing.T) {
	t.Parallel()

	f := newTestPIDFile(t)
	require.NoError(t, f.Acquire())

	contents, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	require.Equal(t, "100\n", string(contents))

	require.NoError(t, f.Release())

	_, err = os.Stat(f.Path())
	require.ErrorIs(t, err, os.ErrNotExist)

	// Releasing twice is fine.
	require.NoError(t, f.Release())
}

// TestPIDFile_LiveDaemon rejects a second daemon.
func TestPIDFile_LiveDaemon(t *testing.T) {
	t.Parallel()

	f := newTestPIDFile(t, fakeProcess{pid: 200, executable: "tomato"})
	writePID(t, f.Path(), 200)

	owner, running := f.Owner()
	require.True(t, running)
	require.Equal(t, 200, owner)

	require.ErrorIs(t, f.Acquire(), ErrAlreadyRunning)

	// The other daemon's file is left alone.
	require.NoError(t, f.Release())
	_, err := os.Stat(f.Path())
	require.NoError(t, err)
}

// TestPIDFile_Stale replaces files of dead or unrelated processes.
func TestPIDFile_Stale(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		processes []fakeProcess
		contents  string
	}{
		"dead process": {contents: "300"},
		"reused pid":   {processes: []fakeProcess{{pid: 300, executable: "bash"}}, contents: "300"},
		"garbage":      {contents: "not a pid"},
		"own pid":      {contents: "100"},
		"negative pid": {contents: "-5"},
	}

	for name, tc := range cases {
		f := newTestPIDFile(t, tc.processes...)
		require.NoError(t, os.WriteFile(f.Path(), []byte(tc.contents), 0o600), name)

		_, running := f.Owner()
		require.False(t, running, name)
		require.NoError(t, f.Acquire(), name)
	}
}

// TestForStateFile derives the PID file from the state file.
func TestForStateFile(t *testing.T) {
	t.Parallel()

	f := ForStateFile("/home/user/.config/tomato/tomato.json")
	require.Equal(t, "/home/user/.config/tomato/tomato.json.daemon.pid", f.Path())
	require.Equal(t, os.Getpid(), f.pid)
}

// TestPIDFile_SecondGuard fails once another live daemon holds the file.
func TestPIDFile_SecondGuard(t *testing.T) {
	t.Parallel()

	first := newTestPIDFile(t, fakeProcess{pid: 200, executable: "tomato"})
	require.NoError(t, first.Acquire())

	second := New(first.Path())
	second.pid = 200
	second.findProcess = first.findProcess

	require.ErrorIs(t, second.Acquire(), ErrAlreadyRunning)

	contents, err := os.ReadFile(first.Path())
	require.NoError(t, err)
	require.Equal(t, "100\n", string(contents))

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Dir(first.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

// TestPIDFile_ConcurrentAcquire lets exactly one of several daemons start.
func TestPIDFile_ConcurrentAcquire(t *testing.T) {
	t.Parallel()

	const daemons = 8

	processes := make([]fakeProcess, 0, daemons)
	for i := 0; i < daemons; i++ {
		processes = append(processes, fakeProcess{pid: 200 + i, executable: "tomato"})
	}

	base := newTestPIDFile(t, processes...)

	var (
		wg       sync.WaitGroup
		acquired atomic.Int32
	)

	for _, p := range processes {
		guard := New(base.Path())
		guard.pid = p.pid
		guard.findProcess = base.findProcess

		wg.Add(1)

		go func() {
			defer wg.Done()

			err := guard.Acquire()
			if err == nil {
				acquired.Add(1)
				return
			}

			assert.ErrorIs(t, err, ErrAlreadyRunning)
		}()
	}

	wg.Wait()
	require.Equal(t, int32(1), acquired.Load())
}
