package timer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/tomato/internal/domain/pomodoro"
	repo "github.com/oshokin/tomato/internal/repository/state"
)

var (
	errTestLoad = errors.New("test load error")
	errTestSave = errors.New("test save error")
)

// now is the fixed clock used by the service tests.
var now = time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)

// memoryRepository is a minimal in-memory Repository implementation for tests.
type memoryRepository struct {
	// state is the timer state to return from Load operations.
	state *pomodoro.State
	// loadErr is the error to return from Load operations.
	loadErr error
	// saveErr is the error to return from Save operations.
	saveErr error
	// saved stores the last state passed to Save operations.
	saved *pomodoro.State
	// saves counts Save calls.
	saves int
}

// Load returns a copy of the stored state.
func (m *memoryRepository) Load(context.Context) (*pomodoro.State, error) {
	return m.state.Clone(), m.loadErr
}

// Save records the provided state.
func (m *memoryRepository) Save(_ context.Context, s *pomodoro.State) error {
	m.saves++

	if m.saveErr != nil {
		return m.saveErr
	}

	m.saved = s.Clone()
	m.state = s.Clone()

	return nil
}

func newTestService(r *memoryRepository) *Service {
	engine := pomodoro.NewEngine(pomodoro.WithClock(func() time.Time { return now }))

	return NewService(r, engine, "tomato.json")
}

// TestService_Next starts the computed step and persists it.
func TestService_Next(t *testing.T) {
	t.Parallel()

	r := &memoryRepository{state: &pomodoro.State{WorkPeriods: 1}}

	step, err := newTestService(r).Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, pomodoro.ShortBreak, step)
	require.Equal(t, pomodoro.ShortBreak, *r.saved.ActiveStep)
	require.Equal(t, now.Add(pomodoro.ShortBreakDuration), *r.saved.StepEnds)
	require.Equal(t, 1, r.saved.WorkPeriods)
}

// TestService_Next_AlreadyRunning refuses to start and saves nothing.
func TestService_Next_AlreadyRunning(t *testing.T) {
	t.Parallel()

	step := pomodoro.WorkPeriod
	ends := now.Add(time.Minute)
	r := &memoryRepository{state: &pomodoro.State{ActiveStep: &step, StepEnds: &ends}}

	_, err := newTestService(r).Next(context.Background())
	require.ErrorIs(t, err, pomodoro.ErrStepRunning)
	require.Zero(t, r.saves)
}

// TestService_Skip completes the next step and persists the counters.
func TestService_Skip(t *testing.T) {
	t.Parallel()

	r := &memoryRepository{loadErr: repo.ErrNotFound}

	step, err := newTestService(r).Skip(context.Background())
	require.NoError(t, err)
	require.Equal(t, pomodoro.WorkPeriod, step)
	require.Equal(t, &pomodoro.State{WorkPeriods: 1, StateFile: "tomato.json"}, r.saved)
}

// TestService_Reset saves the default state whatever was stored.
func TestService_Reset(t *testing.T) {
	t.Parallel()

	r := &memoryRepository{state: &pomodoro.State{WorkPeriods: 3, ShortBreaks: 2}}

	require.NoError(t, newTestService(r).Reset(context.Background()))
	require.Equal(t, pomodoro.DefaultState("tomato.json"), r.saved)
}

// TestService_Status renders the stored state without saving it.
func TestService_Status(t *testing.T) {
	t.Parallel()

	r := &memoryRepository{state: &pomodoro.State{WorkPeriods: 4, ShortBreaks: 3}}

	msg, err := newTestService(r).Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Pomodoros: 4\nShort Breaks: 3\nNext: Long break", msg)
	require.Zero(t, r.saves)
}

// TestService_Errors covers load fallbacks and propagated failures.
func TestService_Errors(t *testing.T) {
	t.Parallel()

	// Malformed file falls back to defaults.
	r := &memoryRepository{loadErr: fmt.Errorf("%w: bad json", repo.ErrMalformed)}

	msg, err := newTestService(r).Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Pomodoros: 0\nShort Breaks: 0\nNext: Pomodoro", msg)

	// Other load errors are returned.
	r = &memoryRepository{loadErr: errTestLoad}

	_, err = newTestService(r).Skip(context.Background())
	require.ErrorIs(t, err, errTestLoad)
	require.Zero(t, r.saves)

	// Save errors are returned.
	r = &memoryRepository{state: pomodoro.DefaultState("tomato.json"), saveErr: errTestSave}

	_, err = newTestService(r).Next(context.Background())
	require.ErrorIs(t, err, errTestSave)
	require.ErrorIs(t, newTestService(r).Reset(context.Background()), errTestSave)
}
