package saved

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	fileName = "saved_jobs.json"
	fileMode = 0o600
)

// Store keeps the ids of bookmarked jobs as a JSON array, next to the session file.
type Store struct {
	path string
}

// NextTo returns a store in the directory of sessionFile.
func NextTo(sessionFile string) *Store {
	return &Store{path: filepath.Join(filepath.Dir(sessionFile), fileName)}
}

func (s *Store) Path() string {
	return s.path
}

// IDs returns the saved ids in the order they were saved. A missing or empty file means no bookmarks.
func (s *Store) IDs() ([]int, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read saved jobs %q: %w", s.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parse saved jobs %q: %w", s.path, err)
	}

	return ids, nil
}

// Toggle saves id when it is not saved yet and removes it otherwise. It reports whether id is saved afterwards.
func (s *Store) Toggle(id int) (bool, error) {
	ids, err := s.IDs()
	if err != nil {
		return false, err
	}

	saved := !slices.Contains(ids, id)
	if saved {
		ids = append(ids, id)
	} else {
		ids = slices.DeleteFunc(ids, func(v int) bool { return v == id })
	}

	return saved, s.write(ids)
}

func (s *Store) write(ids []int) error {
	if ids == nil {
		ids = []int{}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create saved jobs dir: %w", err)
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, fileMode); err != nil {
		return fmt.Errorf("write saved jobs: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write saved jobs: %w", err)
	}

	return nil
}
