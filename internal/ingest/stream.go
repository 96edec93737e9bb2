// Package ingest reads observation files (CSV or XLSX) into store rows.
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Options configures how a file is read.
type Options struct {
	SheetName string // XLSX only; default is the first sheet
	Delimiter rune   // CSV only; default ','
}

// StreamFile reads a .csv or .xlsx file and sends trimmed rows, header
// included, to a channel. Both channels are closed when processing completes.
func StreamFile(ctx context.Context, path string, opts Options) (<-chan []string, <-chan error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return streamXLSX(ctx, path, opts)
	case ".csv", ".txt":
		return streamCSV(ctx, path, opts)
	default:
		rowCh := make(chan []string)
		errCh := make(chan error, 1)
		close(rowCh)
		errCh <- eris.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
		close(errCh)
		return rowCh, errCh
	}
}

func streamCSV(ctx context.Context, path string, opts Options) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		f, err := os.Open(path)
		if err != nil {
			errCh <- eris.Wrap(err, "csv: open file")
			return
		}
		defer f.Close() //nolint:errcheck

		reader := csv.NewReader(f)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.FieldsPerRecord = -1 // allow variable fields

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
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

func streamXLSX(ctx context.Context, path string, opts Options) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		f, err := xlsx.OpenFile(path)
		if err != nil {
			errCh <- eris.Wrap(err, "xlsx: open file")
			return
		}

		sheet, err := getSheet(f, opts.SheetName)
		if err != nil {
			errCh <- err
			return
		}

		for _, row := range sheet.Rows {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "xlsx: context cancelled")
				return
			}

			select {
			case rowCh <- rowToStrings(row):
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "xlsx: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: file has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = strings.TrimSpace(cell.String())
	}
	return cells
}
