// Package source reads delimited text inputs into fully materialized
// batches. A batch is read in its entirety before any insertion begins;
// records are never mutated after parsing.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/datatools-io/batchload/pkg/batchload"
)

// ReadFile parses the dataset's CSV file into a Batch. The first line must
// be a header matching the dataset's declared columns; every subsequent
// non-empty line becomes one record with values aligned positionally to the
// header. Values are passed through as strings with no type coercion.
//
// Any malformed line (wrong column count, bad quoting) aborts the whole
// file with a *batchload.ParseError; there is no partial-row recovery.
func ReadFile(ds batchload.Dataset) (*batchload.Batch, error) {
	f, err := os.Open(ds.File)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", ds.File, err)
	}
	defer f.Close()

	batch, err := read(f, ds)
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func read(r io.Reader, ds batchload.Dataset) (*batchload.Batch, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Column count is validated against the declared schema below; the
	// reader then enforces it for every record.
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &batchload.ParseError{File: ds.File, Line: 1, Msg: "file is empty, expected a header row"}
	}
	if err != nil {
		return nil, convertCSVError(err, ds.File)
	}

	if err := validateHeader(header, ds); err != nil {
		return nil, err
	}

	records := make([][]string, 0, 64)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, convertCSVError(err, ds.File)
		}
		// encoding/csv already skips blank lines; they never produce a
		// record.
		records = append(records, row)
	}

	return &batchload.Batch{
		Table:   ds.Table,
		Columns: append([]string(nil), header...),
		Records: records,
	}, nil
}

// validateHeader checks the header row against the dataset's declared
// column schema. Names must match in order; surrounding whitespace is the
// only tolerated difference.
func validateHeader(header []string, ds batchload.Dataset) error {
	if len(header) != len(ds.Columns) {
		return &batchload.ParseError{
			File: ds.File,
			Line: 1,
			Msg: fmt.Sprintf("header has %d columns, schema for table %q declares %d",
				len(header), ds.Table, len(ds.Columns)),
		}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
		if header[i] != ds.Columns[i] {
			return &batchload.ParseError{
				File: ds.File,
				Line: 1,
				Msg: fmt.Sprintf("header column %d is %q, schema for table %q declares %q",
					i+1, header[i], ds.Table, ds.Columns[i]),
			}
		}
	}
	return nil
}

// convertCSVError maps encoding/csv errors onto ParseError, keeping the
// line number the reader reports.
func convertCSVError(err error, file string) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &batchload.ParseError{
			File: file,
			Line: csvErr.Line,
			Msg:  csvErr.Err.Error(),
		}
	}
	return &batchload.ParseError{File: file, Msg: err.Error()}
}
