package storage

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"

	"abr-search/models"
)

// CSVWriter writes OutputRows as delimited text with the fixed export header.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	writer *csv.Writer
}

// NewCSVWriter wraps w and writes the header row.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.CSVHeader); err != nil {
		return nil, eris.Wrap(err, "csv: write header")
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, eris.Wrap(err, "csv: write header")
	}
	return &CSVWriter{writer: cw}, nil
}

// WriteRows appends rows in order and flushes.
func (c *CSVWriter) WriteRows(rows []models.OutputRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range rows {
		if err := c.writer.Write(r.Values()); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// WriteCSVFile writes rows to path. The file is assembled under a temporary
// name in the same directory and renamed into place, so on error nothing is
// left at path. Intermediate directories are created automatically.
func WriteCSVFile(path string, rows []models.OutputRow) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return eris.Wrap(err, "csv: create output dir")
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "csv: create temp file")
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w, err := NewCSVWriter(tmp)
	if err != nil {
		return err
	}
	if err = w.WriteRows(rows); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return eris.Wrapf(err, "csv: close %q", tmp.Name())
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "csv: rename into %q", path)
	}
	return nil
}
