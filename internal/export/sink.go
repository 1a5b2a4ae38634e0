// Package export writes experiment results as delimited text files. Files
// are append-only: a header is written once when the file is created and
// every later call adds rows at the end.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// DefaultSeparator is the column delimiter used when none is configured.
const DefaultSeparator = ','

// ErrSeparator is returned for delimiters encoding/csv cannot use.
var ErrSeparator = errors.New("export: invalid separator")

// Sink appends delimited rows to files. A Sink holds no per-file state and
// is safe to share, but any single path must only be written by one
// goroutine at a time.
type Sink struct {
	Separator rune
}

// NewSink returns a sink using sep, or DefaultSeparator when sep is zero.
func NewSink(sep rune) *Sink {
	if sep == 0 {
		sep = DefaultSeparator
	}
	return &Sink{Separator: sep}
}

func (s *Sink) separator() rune {
	if s == nil || s.Separator == 0 {
		return DefaultSeparator
	}
	return s.Separator
}

// EnsureHeader creates path holding only the header row. It does nothing if
// the file already exists and reports whether it wrote the header. Missing
// parent directories are created.
func (s *Sink) EnsureHeader(path string, columns []string) (bool, error) {
	if err := ValidateSeparator(s.separator()); err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("export: create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := s.write(f, columns); err != nil {
		f.Close()
		os.Remove(path)
		return false, fmt.Errorf("export: write header to %s: %w", path, err)
	}
	return true, f.Close()
}

// AppendRow appends one row to path, creating the file without a header if
// it does not exist. Existing content is never rewritten.
func (s *Sink) AppendRow(path string, values []string) error {
	if err := ValidateSeparator(s.separator()); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("export: open %s: %w", path, err)
	}
	if err := s.write(f, values); err != nil {
		f.Close()
		return fmt.Errorf("export: append to %s: %w", path, err)
	}
	return f.Close()
}

// Append writes the header if needed and then the row.
func (s *Sink) Append(path string, columns, values []string) error {
	if _, err := s.EnsureHeader(path, columns); err != nil {
		return err
	}
	return s.AppendRow(path, values)
}

func (s *Sink) write(f *os.File, record []string) error {
	w := csv.NewWriter(f)
	w.Comma = s.separator()
	if err := ValidateSeparator(w.Comma); err != nil {
		return err
	}
	if err := w.Write(record); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// ValidateSeparator rejects delimiters that cannot separate fields.
func ValidateSeparator(r rune) error {
	if r == 0 || r == '"' || r == '\r' || r == '\n' || !utf8.ValidRune(r) || r == utf8.RuneError {
		return fmt.Errorf("%w: %q", ErrSeparator, r)
	}
	return nil
}
