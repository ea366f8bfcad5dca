package timer

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/tomato/internal/domain/pomodoro"
	"github.com/oshokin/tomato/internal/logger"
	repo "github.com/oshokin/tomato/internal/repository/state"
)

// Service runs the status, next, skip and reset commands against a repository.
type Service struct {
	// repo handles persistent storage of the timer state.
	repo repo.Repository
	// engine applies the cycle rules.
	engine *pomodoro.Engine
	// stateFile is recorded in default states.
	stateFile string
}

// NewService creates a service backed by the provided repository.
func NewService(repository repo.Repository, engine *pomodoro.Engine, stateFile string) *Service {
	return &Service{
		repo:      repository,
		engine:    engine,
		stateFile: stateFile,
	}
}

// Status returns the status message for the current state.
func (s *Service) Status(ctx context.Context) (string, error) {
	state, err := LoadOrDefault(ctx, s.repo, s.stateFile)
	if err != nil {
		return "", err
	}

	return s.engine.StatusMessage(state), nil
}

// Next starts the computed next step and returns it.
func (s *Service) Next(ctx context.Context) (pomodoro.Step, error) {
	var step pomodoro.Step

	err := s.withState(ctx, func(state *pomodoro.State) (*pomodoro.State, error) {
		step = s.engine.NextStep(state)

		return s.engine.Start(step, state)
	})
	if err != nil {
		return "", err
	}

	logger.DebugKV(ctx, "Step started", "step", step)

	return step, nil
}

// Skip completes the computed next step without waiting for its timer.
func (s *Service) Skip(ctx context.Context) (pomodoro.Step, error) {
	var step pomodoro.Step

	err := s.withState(ctx, func(state *pomodoro.State) (*pomodoro.State, error) {
		var next *pomodoro.State

		step, next = s.engine.Skip(state)

		return next, nil
	})
	if err != nil {
		return "", err
	}

	logger.DebugKV(ctx, "Step skipped", "step", step)

	return step, nil
}

// Reset saves the default state.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.repo.Save(ctx, pomodoro.DefaultState(s.stateFile)); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}

	logger.DebugKV(ctx, "State reset")

	return nil
}

// withState loads the state, runs fn and persists its result.
// Nothing is saved when fn fails.
func (s *Service) withState(
	ctx context.Context,
	fn func(state *pomodoro.State) (*pomodoro.State, error),
) error {
	state, err := LoadOrDefault(ctx, s.repo, s.stateFile)
	if err != nil {
		return err
	}

	next, err := fn(state)
	if err != nil {
		return err
	}

	if err = s.repo.Save(ctx, next); err != nil {
		logger.Errorf(ctx, "Failed to persist timer state: %v", err)

		return fmt.Errorf("persist state: %w", err)
	}

	return nil
}

// LoadOrDefault loads the persisted state. A missing or malformed state file
// yields the default state; other read failures are returned.
func LoadOrDefault(ctx context.Context, repository repo.Repository, stateFile string) (*pomodoro.State, error) {
	state, err := repository.Load(ctx)

	switch {
	case err == nil:
		if state == nil {
			return pomodoro.DefaultState(stateFile), nil
		}

		return state, nil
	case errors.Is(err, repo.ErrNotFound):
		logger.DebugKV(ctx, "State file not found, using defaults", "state_file", stateFile)

		return pomodoro.DefaultState(stateFile), nil
	case errors.Is(err, repo.ErrMalformed):
		logger.WarnKV(ctx, "State file is malformed, using defaults", "state_file", stateFile, "error", err)

		return pomodoro.DefaultState(stateFile), nil
	default:
		return nil, fmt.Errorf("load state: %w", err)
	}
}
