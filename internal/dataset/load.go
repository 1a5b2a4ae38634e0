package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrFormat is returned for unsupported file types and unparsable values.
var ErrFormat = errors.New("dataset: unsupported format")

// LoadOptions describes the layout of a delimited data file.
type LoadOptions struct {
	// Type is "csv" (Separator-delimited) or "txt" (whitespace-delimited).
	// Empty means guess from the file extension.
	Type string

	// Separator is the field delimiter for csv files. Default ','.
	Separator rune

	// ClassColumn is the zero-based column holding the class label.
	// -1 means no class column, -2 means the last column.
	ClassColumn int

	// IDColumn is the zero-based column holding a row identifier, -1 for none.
	IDColumn int

	// Skip is the number of leading lines to ignore.
	Skip int

	// Header indicates that the first line after Skip holds column names.
	Header bool
}

// DefaultLoadOptions returns options for a headerless comma separated file
// with the class in the last column.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Separator:   ',',
		ClassColumn: -2,
		IDColumn:    -1,
	}
}

// Load reads a dataset from path. The dataset is named after the file without
// its extension.
func Load(path string, opts LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	typ := opts.Type
	if typ == "" {
		typ = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	var rows [][]string
	switch typ {
	case "csv":
		rows, err = readDelimited(f, opts)
	case "txt", "dat", "data":
		rows, err = readWhitespace(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, typ)
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return fromRows(name, rows, opts)
}

func readDelimited(r io.Reader, opts LoadOptions) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = opts.Separator
	if cr.Comma == 0 {
		cr.Comma = ','
	}
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func readWhitespace(r io.Reader) ([][]string, error) {
	var rows [][]string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rows = append(rows, strings.Fields(line))
	}
	return rows, sc.Err()
}

func fromRows(name string, rows [][]string, opts LoadOptions) (*Dataset, error) {
	if opts.Skip > 0 {
		if opts.Skip >= len(rows) {
			rows = nil
		} else {
			rows = rows[opts.Skip:]
		}
	}
	if opts.Header && len(rows) > 0 {
		rows = rows[1:]
	}

	ds := &Dataset{Name: name}
	var classes []string
	for i, row := range rows {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		classCol := opts.ClassColumn
		if classCol == -2 {
			classCol = len(row) - 1
		}
		point := make([]float64, 0, len(row))
		for j, field := range row {
			field = strings.TrimSpace(field)
			switch j {
			case classCol:
				classes = append(classes, field)
				continue
			case opts.IDColumn:
				ds.IDs = append(ds.IDs, field)
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %d: %q", ErrFormat, i+1, j, field)
			}
			point = append(point, v)
		}
		ds.Points = append(ds.Points, point)
	}
	if classes != nil {
		ds.SetClasses(classes)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}
