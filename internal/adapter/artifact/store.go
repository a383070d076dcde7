// Package artifact persists draws tables as msgpack files.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lbwsg/get-draws/internal/domain"
	"github.com/vmihailenco/msgpack/v5"
)

// Store writes and removes artifacts on the local filesystem.
// It implements pipeline.ArtifactStore.
type Store struct{}

// NewStore creates a filesystem artifact store.
func NewStore() *Store {
	return &Store{}
}

// Remove deletes the artifact at path and reports whether one existed.
func (*Store) Remove(path string) (bool, error) {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("remove old artifact: %w", err)
	}
	return true, nil
}

// Write encodes table into path. The bytes go to a temporary file in the
// same directory which is renamed over path once synced, so readers never
// see a partial artifact and old content never survives.
func (*Store) Write(path string, table domain.DrawsTable) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := msgpack.NewEncoder(tmp).Encode(&table); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}

// Read decodes the artifact at path.
func Read(path string) (domain.DrawsTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.DrawsTable{}, err
	}
	defer f.Close()

	var table domain.DrawsTable
	if err := msgpack.NewDecoder(f).Decode(&table); err != nil {
		return domain.DrawsTable{}, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return table, nil
}
