// Package artifact persists failed check-run log archives to disk.
//
// The collaboration platform serves run logs as a zip archive. Each
// archive is extracted under a per-run directory so the operator keeps
// forensic evidence even when remediation ultimately fails.
package artifact

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxExtractedFileSize bounds a single extracted log file.
const maxExtractedFileSize = 64 << 20 // 64 MiB

var (
	errUnsafeArchivePath = errors.New("archive entry escapes destination directory")

	// ErrUnsafeArchivePath is returned when a zip entry would be written
	// outside the destination directory.
	ErrUnsafeArchivePath = errUnsafeArchivePath
)

// Store writes extracted log archives under a root directory.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir. The directory is created on
// first write, not here.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the directory artifacts are written under.
func (s *Store) Root() string {
	return s.root
}

// SaveRunLogs extracts the zip archive into <root>/<runID>/ and returns
// the directory the contents were written to.
func (s *Store) SaveRunLogs(runID int64, archive []byte) (string, error) {
	destDir := filepath.Join(s.root, fmt.Sprintf("%d", runID))
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return "", fmt.Errorf("failed to open log archive: %w", err)
	}

	for _, file := range reader.File {
		if err := extractFile(file, destDir); err != nil {
			return "", err
		}
	}

	return destDir, nil
}

func extractFile(file *zip.File, destDir string) error {
	// Reject entries that would escape the destination via "..".
	cleaned := filepath.Clean(file.Name)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return fmt.Errorf("%w: %s", errUnsafeArchivePath, file.Name)
	}

	target := filepath.Join(destDir, cleaned)

	if file.FileInfo().IsDir() {
		if err := os.MkdirAll(target, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", target, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", target, err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", file.Name, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(target) // #nosec G304 - target is confined to destDir above
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, io.LimitReader(src, maxExtractedFileSize)); err != nil {
		return fmt.Errorf("failed to extract %s: %w", file.Name, err)
	}

	return nil
}
