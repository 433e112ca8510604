package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileSlotStore keeps each slot in <dir>/<key>.json.
type FileSlotStore struct {
	fs  afero.Fs
	dir string
}

// NewFileSlotStore creates dir when missing and returns a store rooted there.
func NewFileSlotStore(fsys afero.Fs, dir string) (*FileSlotStore, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileSlotStore{fs: fsys, dir: dir}, nil
}

func (s *FileSlotStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileSlotStore) Read(_ context.Context, key string) ([]byte, bool, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return data, true, nil
}

// Write replaces the slot file through a temp file and rename.
func (s *FileSlotStore) Write(_ context.Context, key string, value []byte) error {
	target := s.path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, value, 0o644); err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace slot %s: %w", key, err)
	}
	return nil
}
