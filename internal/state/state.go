// Package state remembers what the last index run saw, so status
// reports can measure drift without re-running the pipeline.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	// FileName is the state file inside the artifact directory.
	FileName = "state.json"

	CurrentVersion = "1"
)

// FileState pins one indexed file to the content that produced it.
type FileState struct {
	Fingerprint string    `json:"fingerprint"`
	Language    string    `json:"language,omitempty"`
	IndexedAt   time.Time `json:"indexed_at"`
}

// State is the persisted record of the last run, stored alongside the
// artifacts it describes.
type State struct {
	Version   string               `json:"version"`
	RunID     string               `json:"run_id,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
	Files     map[string]FileState `json:"files"`
	Artifacts []string             `json:"artifacts,omitempty"`
}

func New() *State {
	return &State{
		Version: CurrentVersion,
		Files:   make(map[string]FileState),
	}
}

// Load reads the state under dir. A missing file is a fresh state, not
// an error; an unreadable or corrupt one is.
func Load(dir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	migrate(&s)
	return &s, nil
}

// Save writes the state under dir, creating the directory when needed.
func (s *State) Save(dir string) error {
	if s.Version == "" {
		s.Version = CurrentVersion
	}
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}
	s.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// SetFile records one file's indexed identity.
func (s *State) SetFile(path, fingerprint, language string) {
	s.Files[path] = FileState{
		Fingerprint: fingerprint,
		Language:    language,
		IndexedAt:   time.Now(),
	}
}

// Fingerprint returns the stored fingerprint for path.
func (s *State) Fingerprint(path string) (string, bool) {
	fs, ok := s.Files[path]
	if !ok {
		return "", false
	}
	return fs.Fingerprint, true
}

// HasChanged reports whether path is new or carries different content
// than the last run saw.
func (s *State) HasChanged(path, fingerprint string) bool {
	stored, ok := s.Fingerprint(path)
	if !ok {
		return true
	}
	return stored != fingerprint
}

// Diff compares the stored run against the current tree: changed holds
// new and modified paths, deleted holds paths that are gone. Both come
// back sorted.
func (s *State) Diff(current map[string]string) (changed, deleted []string) {
	for path, fp := range current {
		if s.HasChanged(path, fp) {
			changed = append(changed, path)
		}
	}
	for path := range s.Files {
		if _, ok := current[path]; !ok {
			deleted = append(deleted, path)
		}
	}
	sort.Strings(changed)
	sort.Strings(deleted)
	return changed, deleted
}

func migrate(s *State) {
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}
	if s.Version == "" {
		s.Version = CurrentVersion
	}
}
