package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"outreach-engine/internal/domain"
)

// CSVFile reads a header-first CSV export from disk.
type CSVFile struct {
	Path string
}

func (f CSVFile) Name() string { return "csv" }

func (f CSVFile) Fetch(ctx context.Context) (Batch, error) {
	if strings.TrimSpace(f.Path) == "" {
		return Batch{}, fmt.Errorf("%w: csv path is empty", ErrNoInput)
	}
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}

	fh, err := os.Open(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Batch{}, fmt.Errorf("%w: %w", ErrNoInput, err)
		}
		return Batch{}, fmt.Errorf("open csv: %w", err)
	}
	defer fh.Close()

	rows, err := ReadCSV(fh, f.Name())
	if err != nil {
		return Batch{}, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return Batch{Source: f.Name(), Rows: rows}, nil
}

// ReadCSV maps every record after the header to a Row keyed by column name.
// Short records simply lack the trailing columns.
func ReadCSV(r io.Reader, source string) ([]domain.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var out []domain.Row
	for idx := 0; ; idx++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv record %d: %w", idx+1, err)
		}

		values := make(map[string]string, len(header))
		for i, col := range header {
			if col == "" || i >= len(rec) {
				continue
			}
			if _, dup := values[col]; dup {
				continue // first column with a given header wins
			}
			values[col] = rec[i]
		}
		out = append(out, domain.Row{Index: idx, Source: source, Values: values})
	}
	return out, nil
}
