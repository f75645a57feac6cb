package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avelter/qrscan/internal/logging"
)

// DocumentName is the fixed filename an upload is stored under inside its
// scan directory.
const DocumentName = "document.pdf"

// Store keeps uploaded documents on disk, one directory per scan, keyed by a
// generated scan ID.
type Store struct {
	root   string
	logger logging.Logger
}

func New(root string, logger logging.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &Store{
		root:   root,
		logger: logger.With(logging.Field{Key: "component", Value: "store"}),
	}, nil
}

func (s *Store) Root() string { return s.root }

// Save writes an uploaded document under a fresh scan ID and returns
// (path, scanID). Only filenames ending in .pdf are accepted.
func (s *Store) Save(filename string, content io.Reader) (string, string, error) {
	if !IsPDFFilename(filename) {
		return "", "", fmt.Errorf("only PDF files are allowed")
	}

	scanID := uuid.NewString()
	scanDir := filepath.Join(s.root, scanID)
	if err := os.MkdirAll(scanDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create scan dir: %w", err)
	}

	path := filepath.Join(scanDir, DocumentName)
	f, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("create document: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		os.RemoveAll(scanDir)
		return "", "", fmt.Errorf("write document: %w", err)
	}

	s.logger.Debug("stored upload",
		logging.Field{Key: "scan_id", Value: scanID},
		logging.Field{Key: "path", Value: path})

	return path, scanID, nil
}

// Path returns the document path for a scan ID.
func (s *Store) Path(scanID string) string {
	return filepath.Join(s.root, scanID, DocumentName)
}

// Cleanup removes a scan's document and its directory. Removing an already
// cleaned scan is not an error.
func (s *Store) Cleanup(scanID string) error {
	if scanID == "" {
		return nil
	}
	scanDir := filepath.Join(s.root, scanID)
	if err := os.RemoveAll(scanDir); err != nil {
		return fmt.Errorf("cleanup scan %s: %w", scanID, err)
	}
	return nil
}

// SweepOlderThan deletes scan directories whose last modification is older
// than maxAge and returns how many were removed.
func (s *Store) SweepOlderThan(maxAge time.Duration) int {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0
	}

	deleted := 0
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(filepath.Join(s.root, entry.Name())); err == nil {
				deleted++
			}
		}
	}

	if deleted > 0 {
		s.logger.Info("swept stale uploads", logging.Field{Key: "deleted", Value: deleted})
	}
	return deleted
}

// IsPDFFilename checks the upload's filename extension.
func IsPDFFilename(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}
