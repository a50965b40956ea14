// Package csvimport loads historical readings from CSV files.
package csvimport

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/energytrack-io/energytrack/internal/domain"
	"github.com/energytrack-io/energytrack/internal/repo"
)

const (
	timeLayout = "2006-01-02 15:04:05"
)

// ParseReadingsCSV parses readings from the provided CSV reader.
//
// Expected header: time,usage
//
// Times are parsed using layout "2006-01-02 15:04:05" and interpreted as UTC.
// Invalid rows are skipped and returned as a joined error (errors.Join).
func ParseReadingsCSV(r io.Reader) ([]domain.Reading, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // be permissive; validate ourselves
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 || strings.ToLower(strings.TrimSpace(header[0])) != "time" || strings.ToLower(strings.TrimSpace(header[1])) != "usage" {
		return nil, fmt.Errorf("unexpected header %q (want %q)", strings.Join(header, ","), "time,usage")
	}

	var (
		readings []domain.Reading
		rowErrs  []error
		rowNum   = 1 // header
	)

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("row %d: read: %w", rowNum, err))
			continue
		}
		if len(row) < 2 {
			rowErrs = append(rowErrs, fmt.Errorf("row %d: expected 2 columns, got %d", rowNum, len(row)))
			continue
		}

		t, err := time.ParseInLocation(timeLayout, strings.TrimSpace(row[0]), time.UTC)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("row %d: parse time %q: %w", rowNum, row[0], err))
			continue
		}

		f, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("row %d: parse usage %q: %w", rowNum, row[1], err))
			continue
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			rowErrs = append(rowErrs, fmt.Errorf("row %d: invalid usage %v", rowNum, f))
			continue
		}

		readings = append(readings, domain.Reading{
			Time:  t,
			Usage: f,
		})
	}

	// Ensure we return stable, non-nil slice.
	if readings == nil {
		readings = []domain.Reading{}
	}
	return readings, errors.Join(rowErrs...)
}

// ImportFile parses the CSV at path and inserts every usable reading into the
// repository. It returns the number of readings inserted. Row-level parse
// errors do not abort the import; repository failures do.
func ImportFile(ctx context.Context, r repo.ReadingRepository, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open csv %q: %w", path, err)
	}
	defer f.Close()

	readings, parseErr := ParseReadingsCSV(f)
	if len(readings) == 0 && parseErr != nil {
		return 0, fmt.Errorf("parse csv %q: %w", path, parseErr)
	}

	for i, rd := range readings {
		if _, err := r.Insert(ctx, rd); err != nil {
			return i, fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}

	// Parsing can be partially successful; surface warnings to the caller.
	if parseErr != nil {
		return len(readings), fmt.Errorf("parse csv %q: %w", path, parseErr)
	}
	return len(readings), nil
}
