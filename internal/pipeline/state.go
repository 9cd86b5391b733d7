package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// StateStore reads and writes run state under a base directory
// (e.g. .pipegate/run). State is overwritten on every run; no history.
type StateStore struct {
	baseDir string
}

// NewStateStore creates a store rooted at baseDir.
func NewStateStore(baseDir string) *StateStore {
	return &StateStore{baseDir: baseDir}
}

func (s *StateStore) lastRunPath() string {
	return filepath.Join(s.baseDir, "last-run.json")
}

func (s *StateStore) stagePath(name string) string {
	return filepath.Join(s.baseDir, "stages", name+".json")
}

// ReadLastRun loads the last execution summary. A missing file is clean
// state, not an error.
func (s *StateStore) ReadLastRun() (*LastRun, error) {
	f, err := os.Open(s.lastRunPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening last run file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var last LastRun
	if err := json.NewDecoder(f).Decode(&last); err != nil {
		return nil, fmt.Errorf("decoding last run: %w", err)
	}
	return &last, nil
}

// ReadStage loads one stage's persisted result, nil if absent.
func (s *StateStore) ReadStage(name string) (*StageResult, error) {
	f, err := os.Open(s.stagePath(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var res StageResult
	if err := json.NewDecoder(f).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}

// WriteLastRun saves the execution summary.
func (s *StateStore) WriteLastRun(last LastRun) error {
	return s.writeJSON(s.lastRunPath(), last)
}

// WriteStageResult saves a stage's result.
func (s *StateStore) WriteStageResult(res StageResult) error {
	return s.writeJSON(s.stagePath(res.Stage), res)
}

// Reset clears the state directory.
func (s *StateStore) Reset() error {
	return os.RemoveAll(s.baseDir)
}

func (s *StateStore) writeJSON(path string, v any) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
