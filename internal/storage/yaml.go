package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/alarmclock/internal/domain"
	"github.com/hammamikhairi/alarmclock/internal/logger"
)

// Compile-time interface check.
var _ domain.AlarmStore = (*YAMLStore)(nil)

// stateFile is the on-disk layout. Field names are part of the file
// format; do not rename.
type stateFile struct {
	Armed        bool `yaml:"armed"`
	Hour         int  `yaml:"hour"`
	Minute       int  `yaml:"minute"`
	UseLocal     bool `yaml:"use_local_time"`
	NextUseLocal bool `yaml:"next_use_local_time"`
}

// YAMLStore keeps the alarm state in a small YAML file. Writes go to a
// temporary file first and are renamed into place so a crash never leaves
// a truncated state file.
type YAMLStore struct {
	fs   afero.Fs
	path string
	log  *logger.Logger

	mu sync.Mutex
}

// NewYAMLStore creates a store for path on fs. Use afero.NewOsFs() for
// the real filesystem.
func NewYAMLStore(fs afero.Fs, path string, log *logger.Logger) *YAMLStore {
	return &YAMLStore{fs: fs, path: path, log: log}
}

// Load reads the state file. A missing file yields domain.ErrNotFound.
func (s *YAMLStore) Load(ctx context.Context) (domain.AlarmState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.AlarmState{}, err
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Debug("no alarm state at %s", s.path)
			return domain.AlarmState{}, domain.ErrNotFound
		}
		return domain.AlarmState{}, fmt.Errorf("read alarm state: %w", err)
	}

	var f stateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.AlarmState{}, fmt.Errorf("parse alarm state %s: %w", s.path, err)
	}

	s.log.Debug("loaded alarm state from %s", s.path)
	return domain.AlarmState{
		Armed:        f.Armed,
		Hour:         f.Hour,
		Minute:       f.Minute,
		UseLocal:     f.UseLocal,
		NextUseLocal: f.NextUseLocal,
	}, nil
}

// Save writes the state file atomically.
func (s *YAMLStore) Save(ctx context.Context, state domain.AlarmState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := yaml.Marshal(stateFile{
		Armed:        state.Armed,
		Hour:         state.Hour,
		Minute:       state.Minute,
		UseLocal:     state.UseLocal,
		NextUseLocal: state.NextUseLocal,
	})
	if err != nil {
		return fmt.Errorf("encode alarm state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write alarm state: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace alarm state: %w", err)
	}

	s.log.Debug("saved alarm state to %s (armed=%v)", s.path, state.Armed)
	return nil
}
