package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileBatch stages files next to their final paths and publishes them together.
// Until Commit, readers only ever see complete previous artifacts.
type FileBatch struct {
	staged []stagedFile
	done   bool
}

type stagedFile struct {
	file  *os.File
	final string
}

// NewFileBatch returns an empty batch.
func NewFileBatch() *FileBatch {
	return &FileBatch{}
}

// Create opens a temp file in the directory of path. The caller writes to it
// but must not close it; Commit and Abort do.
func (b *FileBatch) Create(path string) (*os.File, error) {
	if b.done {
		return nil, fmt.Errorf("file batch already finished")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	file, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	b.staged = append(b.staged, stagedFile{file: file, final: path})
	return file, nil
}

// Commit syncs and renames every staged file into place with mode 0644. If a
// rename fails, the files already published by this batch are removed again.
func (b *FileBatch) Commit() error {
	if b.done {
		return fmt.Errorf("file batch already finished")
	}
	for _, s := range b.staged {
		if err := s.file.Chmod(0o644); err != nil {
			b.Abort()
			return fmt.Errorf("chmod %s: %w", s.final, err)
		}
		if err := s.file.Sync(); err != nil {
			b.Abort()
			return fmt.Errorf("sync %s: %w", s.final, err)
		}
		if err := s.file.Close(); err != nil {
			b.Abort()
			return fmt.Errorf("close %s: %w", s.final, err)
		}
	}
	for i, s := range b.staged {
		if err := os.Rename(s.file.Name(), s.final); err != nil {
			errs := []error{fmt.Errorf("rename %s: %w", s.final, err)}
			for _, published := range b.staged[:i] {
				if err := os.Remove(published.final); err != nil {
					errs = append(errs, fmt.Errorf("unpublish %s: %w", published.final, err))
				}
			}
			for _, pending := range b.staged[i:] {
				_ = os.Remove(pending.file.Name())
			}
			b.done = true
			return errors.Join(errs...)
		}
	}
	b.done = true
	return nil
}

// Abort removes every staged file. It is safe to call after Commit.
func (b *FileBatch) Abort() {
	if b.done {
		return
	}
	for _, s := range b.staged {
		_ = s.file.Close()
		_ = os.Remove(s.file.Name())
	}
	b.done = true
}
