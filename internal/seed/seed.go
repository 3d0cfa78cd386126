// Package seed materializes the bundled read-only dataset into the writable
// local database path, exactly once per install. The presence of the
// database file itself is the seed-state flag; there is no auxiliary marker
// to drift out of sync.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// AssetResolver locates the bundled seed dataset and returns a readable
// local path, downloading it first when the platform stores it remotely.
type AssetResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// EnsureDatabase copies the seed dataset to dbPath unless the file already
// exists, in which case it returns immediately with no further I/O. The
// copy goes through a temp file and rename so a failed copy never leaves a
// truncated database behind. On error the local store must not be read.
func EnsureDatabase(ctx context.Context, dbPath string, asset AssetResolver) error {
	if dbPath == "" {
		return errors.New("seed: database path is required")
	}
	if _, err := os.Stat(dbPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("check local database: %w", err)
	}
	if asset == nil {
		return errors.New("seed: asset resolver is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	src, err := asset.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve seed asset: %w", err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open seed asset: %w", err)
	}
	defer in.Close()

	tmp := dbPath + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create database file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("copy seed database: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("flush seed database: %w", err)
	}
	if err := os.Rename(tmp, dbPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("install seed database: %w", err)
	}
	return nil
}
