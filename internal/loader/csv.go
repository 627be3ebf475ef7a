// Package loader bulk-loads CSV reference files into the store as all-text
// tables, one table per file.
package loader

import (
	"context"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// TableName derives the target table name from the CSV file name: directory
// and extension stripped, e.g. "data/zip_county.csv" -> "zip_county".
func TableName(csvPath string) string {
	base := filepath.Base(csvPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// readHeader reads and normalizes the header row: each cell lower-cased and
// trimmed to form a column name.
func readHeader(reader *csv.Reader) ([]string, error) {
	raw, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("csv: empty file")
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}

	columns := make([]string, len(raw))
	for i, cell := range raw {
		columns[i] = strings.ToLower(strings.TrimSpace(cell))
	}
	return columns, nil
}

// streamRows reads data rows and sends them to a channel so large files are
// never fully materialized. Caller must drain the row channel; both channels
// are closed when the file is exhausted or an error is sent.
func streamRows(ctx context.Context, reader *csv.Reader) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		for {
			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// rowArgs converts one CSV record into insert arguments; a cell that is
// empty after trimming becomes SQL NULL.
func rowArgs(record []string) []any {
	args := make([]any, len(record))
	for i, cell := range record {
		if strings.TrimSpace(cell) == "" {
			args[i] = nil
		} else {
			args[i] = cell
		}
	}
	return args
}
