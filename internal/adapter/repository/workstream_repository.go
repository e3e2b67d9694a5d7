package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-insights/errors"
	"github.com/johnquangdev/meeting-insights/internal/domain/entities"
)

// stateVersion is the current workstream state file format version
const stateVersion = 1

// stateFile is the on-disk shape of the persisted workstream collection
type stateFile struct {
	Version     int                    `json:"version"`
	Workstreams []*entities.Workstream `json:"workstreams"`
}

// WorkstreamRepository persists the accumulated workstream history as a
// versioned flat JSON file, loaded at start and written atomically at the
// end of each run
type WorkstreamRepository struct {
	path   string
	logger *zap.Logger
}

// NewWorkstreamRepository creates a workstream repository over path
func NewWorkstreamRepository(path string, logger *zap.Logger) *WorkstreamRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkstreamRepository{path: path, logger: logger}
}

// Load reads the persisted workstreams. A missing file is an empty history.
func (r *WorkstreamRepository) Load() ([]*entities.Workstream, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Info("no workstream state file, starting empty",
				zap.String("path", r.path),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state stateFile
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, apperrors.ErrStateCorrupt(r.path, err)
	}
	if state.Version != stateVersion {
		return nil, apperrors.ErrStateCorrupt(r.path, fmt.Errorf("unsupported state version %d", state.Version))
	}

	return state.Workstreams, nil
}

// Save writes the workstreams atomically: the new state lands in a temp file
// first and replaces the old one via rename, so a crash mid-write never
// leaves a partial state file behind.
func (r *WorkstreamRepository) Save(workstreams []*entities.Workstream) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	state := stateFile{Version: stateVersion, Workstreams: workstreams}
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".workstreams-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	r.logger.Info("workstream state saved",
		zap.String("path", r.path),
		zap.Int("workstream_count", len(workstreams)),
	)
	return nil
}
