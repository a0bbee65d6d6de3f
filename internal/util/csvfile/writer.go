package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// Writer streams comma separated records into a file. Fields are quoted
// only when they contain a comma, a quote or a line break.
type Writer struct {
	file   afero.File
	csv    *csv.Writer
	closed bool
}

// Create truncates or creates path on fs.
func Create(fs afero.Fs, path string) (*Writer, error) {
	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &Writer{file: f, csv: csv.NewWriter(f)}, nil
}

func (w *Writer) Write(record []string) error {
	if w.closed {
		return fmt.Errorf("write to closed file %s", w.file.Name())
	}
	return w.csv.Write(record)
}

// Close flushes buffered records and closes the file. It is safe to call
// more than once; only the first call reports errors.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.csv.Flush()
	flushErr := w.csv.Error()
	if err := w.file.Close(); err != nil && flushErr == nil {
		return err
	}
	return flushErr
}
