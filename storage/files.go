package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"abr-search/models"
)

var (
	// ErrNotFound is returned by Open for names with no stored artifact.
	ErrNotFound = errors.New("storage: artifact not found")
	// ErrInvalidName is returned for names that would escape the store directory.
	ErrInvalidName = errors.New("storage: invalid artifact name")
)

// FileStore keeps raw XML payloads and CSV exports in one directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, eris.Wrapf(err, "files: create dir %q", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *FileStore) Dir() string { return s.dir }

// SaveXML writes the raw registry payload under name.
func (s *FileStore) SaveXML(name, payload string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, []byte(payload), 0644); err != nil {
		return eris.Wrapf(err, "files: write %q", name)
	}
	return nil
}

// WriteCSV exports rows under name. See WriteCSVFile.
func (s *FileStore) WriteCSV(name string, rows []models.OutputRow) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	return WriteCSVFile(p, rows)
}

// Open returns a stored artifact for reading. The caller closes it.
func (s *FileStore) Open(name string) (*os.File, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "files: open %q", name)
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		_ = f.Close()
		return nil, ErrNotFound
	}
	return f, nil
}

func (s *FileStore) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") ||
		strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}
