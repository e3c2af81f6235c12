// Package storage writes run artifacts and session cache entries to disk.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FilePersister will persist files. It abstracts away the where and how of
// writing files to the source destination.
type FilePersister interface {
	Persist(ctx context.Context, path string, data io.Reader) error
}

// LocalFilePersister persists files to the local disk. A file is written next
// to its destination and renamed into place, so readers never observe a
// partial write.
type LocalFilePersister struct{}

// Persist writes the contents of data to path, creating parent directories.
// An existing file is replaced.
func (l *LocalFilePersister) Persist(ctx context.Context, path string, data io.Reader) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := filepath.Clean(path)

	dir := filepath.Dir(cp)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating a local directory %q: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(cp)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating a local file in %q: %w", dir, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = io.Copy(f, data); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing the local file %q: %w", cp, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("closing the local file %q: %w", cp, err)
	}
	if err = os.Chmod(tmp, 0o600); err != nil {
		return fmt.Errorf("setting permissions of %q: %w", cp, err)
	}
	if err = os.Rename(tmp, cp); err != nil {
		return fmt.Errorf("moving the local file into %q: %w", cp, err)
	}

	return nil
}
