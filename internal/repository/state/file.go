package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oshokin/tomato/internal/config"
	"github.com/oshokin/tomato/internal/domain/pomodoro"
)

// Repository defines persistence operations for the timer state.
type Repository interface {
	Load(ctx context.Context) (*pomodoro.State, error)
	Save(ctx context.Context, state *pomodoro.State) error
}

// FileRepository persists the timer state to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu serializes access to the state file within the process.
	mu sync.Mutex
}

var (
	// ErrNotFound is returned when the state file does not exist yet.
	ErrNotFound = errors.New("state not found")
	// ErrMalformed is returned when the state file cannot be decoded.
	ErrMalformed = errors.New("malformed state file")
	// errInconsistentStep is returned when only one of active_step and step_ends is set.
	errInconsistentStep = errors.New("active_step and step_ends must be set together")
	// errNegativeCounter is returned when work_periods or short_breaks is below zero.
	errNegativeCounter = errors.New("work_periods and short_breaks must not be negative")
)

// document is the on-disk layout of the state file.
type document struct {
	ActiveStep  *string `json:"active_step"`
	StepEnds    *string `json:"step_ends"`
	WorkPeriods int     `json:"work_periods"`
	ShortBreaks int     `json:"short_breaks"`
	StateFile   string  `json:"state_file"`
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the location of the state file.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the state from disk. Fields absent from the file keep their zero values.
func (r *FileRepository) Load(_ context.Context) (*pomodoro.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var doc document
	if err = json.Unmarshal(contents, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	state, err := fromDocument(&doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	state.StateFile = r.path

	return state, nil
}

// Save writes the state to disk. The file is replaced atomically so a
// concurrent reader never sees a partial document.
func (r *FileRepository) Save(_ context.Context, state *pomodoro.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := toDocument(state)
	doc.StateFile = r.path

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	tmpName := tmp.Name()

	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("write state file: %w", err)
	}

	if err = tmp.Chmod(config.DefaultFilePermissions); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("chmod state file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}

	if err = os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}

// fromDocument converts the on-disk layout into the domain State model.
func fromDocument(doc *document) (*pomodoro.State, error) {
	if doc.WorkPeriods < 0 || doc.ShortBreaks < 0 {
		return nil, errNegativeCounter
	}

	state := &pomodoro.State{
		WorkPeriods: doc.WorkPeriods,
		ShortBreaks: doc.ShortBreaks,
		StateFile:   doc.StateFile,
	}

	if doc.ActiveStep != nil {
		step := pomodoro.Step(*doc.ActiveStep)
		if !step.Valid() {
			return nil, fmt.Errorf("%w: %q", pomodoro.ErrUnknownStep, *doc.ActiveStep)
		}

		state.ActiveStep = &step
	}

	if doc.StepEnds != nil {
		ends, err := pomodoro.ParseTimestamp(*doc.StepEnds)
		if err != nil {
			return nil, fmt.Errorf("parse step_ends: %w", err)
		}

		state.StepEnds = &ends
	}

	if (state.ActiveStep == nil) != (state.StepEnds == nil) {
		return nil, errInconsistentStep
	}

	return state, nil
}

// toDocument converts the domain State model into the on-disk layout.
func toDocument(state *pomodoro.State) *document {
	doc := &document{
		WorkPeriods: state.WorkPeriods,
		ShortBreaks: state.ShortBreaks,
		StateFile:   state.StateFile,
	}

	if state.ActiveStep != nil {
		step := state.ActiveStep.String()
		doc.ActiveStep = &step
	}

	if state.StepEnds != nil {
		ends := pomodoro.FormatTimestamp(*state.StepEnds)
		doc.StepEnds = &ends
	}

	return doc
}
