package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/adamancini/sdkctl/internal/types"
)

// OperationFile is the marker file name inside the project's .sdkctl directory.
const OperationFile = "operation.json"

// DefaultStaleAfter is how long a marker is honored before it is treated
// as left behind by a crashed process.
const DefaultStaleAfter = 2 * time.Hour

// ErrOperationInProgress is returned by Begin when another operation holds the marker.
var ErrOperationInProgress = errors.New("operation in progress")

// Operation describes a running install, upgrade or remove.
type Operation struct {
	ID        string       `json:"id"`
	Action    types.Action `json:"action"`
	PID       int          `json:"pid"`
	StartedAt time.Time    `json:"started_at"`
	Version   string       `json:"version,omitempty"`
	Packages  []string     `json:"packages,omitempty"`
}

// OperationMarker coordinates operations across processes through a file
// that is published atomically and only if absent.
type OperationMarker struct {
	path       string
	now        func() time.Time
	staleAfter time.Duration
}

// NewOperationMarker creates a marker under projectDir/.sdkctl.
func NewOperationMarker(projectDir string) *OperationMarker {
	return &OperationMarker{
		path:       filepath.Join(projectDir, ".sdkctl", OperationFile),
		now:        time.Now,
		staleAfter: DefaultStaleAfter,
	}
}

// WithClock overrides the time source (for testing).
func (m *OperationMarker) WithClock(now func() time.Time) *OperationMarker {
	m.now = now
	return m
}

// Path returns the marker file location.
func (m *OperationMarker) Path() string {
	return m.path
}

// Current returns the running operation, or nil when none is recorded or
// the recorded one is stale. A marker that cannot be parsed belongs to an
// unknown operation and ages by its modification time.
func (m *OperationMarker) Current() (*Operation, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read operation marker: %w", err)
	}

	var op Operation
	if err := json.Unmarshal(data, &op); err != nil {
		info, serr := os.Stat(m.path)
		if serr != nil {
			if errors.Is(serr, fs.ErrNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to stat operation marker: %w", serr)
		}
		op = Operation{StartedAt: info.ModTime()}
	}
	if m.isStale(op) {
		return nil, nil
	}
	return &op, nil
}

// Flags reports whether an install or an upgrade is running.
func (m *OperationMarker) Flags() (installing, upgrading bool) {
	op, err := m.Current()
	if err != nil || op == nil {
		return false, false
	}
	return op.Action == types.ActionInstall, op.Action == types.ActionUpgrade
}

// Begin records op and returns a release function that removes the marker.
// It fails with ErrOperationInProgress while a live marker exists. The
// release function leaves a marker written by someone else in place.
func (m *OperationMarker) Begin(op Operation) (func() error, error) {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.PID == 0 {
		op.PID = os.Getpid()
	}
	if op.StartedAt.IsZero() {
		op.StartedAt = m.now()
	}

	data, err := json.MarshalIndent(op, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal operation: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	// The marker is written in full to a temp file and published with a hard
	// link, which fails if the marker exists. Readers never see a partial file.
	tmp, err := writeTemp(filepath.Dir(m.path), data)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	for attempt := 0; attempt < 2; attempt++ {
		err := os.Link(tmp, m.path)
		if err == nil {
			id := op.ID
			return func() error { return m.release(id) }, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create operation marker: %w", err)
		}

		current, cerr := m.Current()
		if cerr != nil {
			return nil, cerr
		}
		if current != nil {
			return nil, fmt.Errorf("%w: %s started %s", ErrOperationInProgress,
				current.describe(), current.StartedAt.Format(time.RFC3339))
		}
		// Stale marker, take it over.
		if err := os.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to clear stale operation marker: %w", err)
		}
	}

	return nil, fmt.Errorf("%w: marker recreated concurrently", ErrOperationInProgress)
}

func writeTemp(dir string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, OperationFile+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to write operation marker: %w", err)
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write operation marker: %w", errors.Join(werr, cerr))
	}
	return f.Name(), nil
}

func (m *OperationMarker) release(id string) error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read operation marker: %w", err)
	}
	var op Operation
	if err := json.Unmarshal(data, &op); err != nil || op.ID != id {
		return nil
	}
	if err := os.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove operation marker: %w", err)
	}
	return nil
}

func (op *Operation) describe() string {
	if op.Action == "" {
		return "unknown operation"
	}
	return op.Action.String()
}

func (m *OperationMarker) isStale(op Operation) bool {
	if op.StartedAt.IsZero() {
		return true
	}
	return m.now().Sub(op.StartedAt) > m.staleAfter
}
