package csvimport

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/energytrack-io/energytrack/internal/repo/sqliterepo"
)

func TestParseReadingsCSV_OK(t *testing.T) {
	t.Parallel()

	csv := strings.NewReader(strings.TrimSpace(`
time,usage
2024-01-01 00:15:00,55.09
2024-01-01 00:30:00,54.64
`))

	readings, err := ParseReadingsCSV(csv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := len(readings), 2; got != want {
		t.Fatalf("len(readings)=%d want %d", got, want)
	}
	if readings[0].Time.Location() != time.UTC {
		t.Fatalf("time location=%v want UTC", readings[0].Time.Location())
	}
	if got, want := readings[0].Usage, 55.09; got != want {
		t.Fatalf("usage[0]=%v want %v", got, want)
	}
}

func TestParseReadingsCSV_SkipsInvalidRows(t *testing.T) {
	t.Parallel()

	csv := strings.NewReader(strings.TrimSpace(`
time,usage
2024-01-01 00:15:00,55.09
2024-01-01 00:30:00,NaN
not-a-time,12.0
2024-01-01 00:45:00,55.18
`))

	readings, err := ParseReadingsCSV(csv)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if got, want := len(readings), 2; got != want {
		t.Fatalf("len(readings)=%d want %d", got, want)
	}
}

func TestParseReadingsCSV_RejectsUnknownHeader(t *testing.T) {
	t.Parallel()

	csv := strings.NewReader("when,kwh\n2024-01-01 00:15:00,1\n")
	if _, err := ParseReadingsCSV(csv); err == nil {
		t.Fatalf("expected header error, got nil")
	}
}

func TestImportFile_InsertsIntoRepository(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "history.csv")
	content := strings.TrimSpace(`
time,usage
2024-01-01 00:15:00,1.5
2024-01-01 00:30:00,2.5
bad-row
`) + "\n"
	if err := os.WriteFile(csvPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	cfg := sqliterepo.DefaultConfig()
	cfg.Path = filepath.Join(dir, "energy.db")
	r, err := sqliterepo.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	n, err := ImportFile(context.Background(), r, csvPath)
	if err == nil {
		t.Fatalf("expected a row error for the bad row, got nil")
	}
	if n != 2 {
		t.Fatalf("imported=%d want 2", n)
	}

	out, err := r.ListSince(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListSince: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out)=%d want 2", len(out))
	}
	if out[0].Usage != 1.5 || out[1].Usage != 2.5 {
		t.Fatalf("unexpected readings: %#v", out)
	}
}
