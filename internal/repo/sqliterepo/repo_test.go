package sqliterepo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/energytrack-io/energytrack/internal/domain"
	"github.com/energytrack-io/energytrack/internal/repo"
)

func openTemp(t *testing.T) *Repo {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "energy.db")
	r, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRepo_InsertAssignsDistinctIncreasingIDs(t *testing.T) {
	t.Parallel()

	r := openTemp(t)
	ctx := context.Background()

	first, err := r.Insert(ctx, domain.Reading{Usage: 12.5})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	second, err := r.Insert(ctx, domain.Reading{Usage: 12.5})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if first.ID == second.ID {
		t.Fatalf("ids not distinct: %d", first.ID)
	}
	if second.ID <= first.ID {
		t.Fatalf("ids not increasing: first=%d second=%d", first.ID, second.ID)
	}

	n, err := r.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("Count=%d want 2", n)
	}
}

func TestRepo_ListSinceFiltersAndOrders(t *testing.T) {
	t.Parallel()

	r := openTemp(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Out of window.
	if _, err := r.Insert(ctx, domain.Reading{Time: now.Add(-10 * 24 * time.Hour), Usage: 1}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	// In window, inserted out of time order.
	if _, err := r.Insert(ctx, domain.Reading{Time: now.Add(-time.Hour), Usage: 3}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := r.Insert(ctx, domain.Reading{Time: now.Add(-2 * 24 * time.Hour), Usage: 2}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	out, err := r.ListSince(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("ListSince: %v", err)
	}
	if got, want := len(out), 2; got != want {
		t.Fatalf("len(out)=%d want %d", got, want)
	}
	if out[0].Usage != 2 || out[1].Usage != 3 {
		t.Fatalf("unexpected order: %#v", out)
	}
	if !out[0].Time.Before(out[1].Time) {
		t.Fatalf("times not ascending: %v >= %v", out[0].Time, out[1].Time)
	}
}

func TestRepo_ListSinceEmpty(t *testing.T) {
	t.Parallel()

	r := openTemp(t)

	out, err := r.ListSince(context.Background(), time.Now().Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("ListSince: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("len(out)=%d want 0", len(out))
	}
}

func TestRepo_RoundTripsTimestamps(t *testing.T) {
	t.Parallel()

	r := openTemp(t)
	ctx := context.Background()

	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	if _, err := r.Insert(ctx, domain.Reading{Time: at, Usage: 7.25}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	out, err := r.ListSince(ctx, at.Add(-time.Minute))
	if err != nil {
		t.Fatalf("ListSince: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len(out)=%d want 1", len(out))
	}
	if !out[0].Time.Equal(at) {
		t.Fatalf("Time=%v want %v", out[0].Time, at)
	}
	if out[0].Usage != 7.25 {
		t.Fatalf("Usage=%v want 7.25", out[0].Usage)
	}
}

func TestRepo_ClosedReturnsErrClosed(t *testing.T) {
	t.Parallel()

	r := openTemp(t)
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Close is idempotent.
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	ctx := context.Background()
	if _, err := r.Insert(ctx, domain.Reading{Usage: 1}); err != repo.ErrClosed {
		t.Fatalf("Insert err=%v want ErrClosed", err)
	}
	if _, err := r.ListSince(ctx, time.Time{}); err != repo.ErrClosed {
		t.Fatalf("ListSince err=%v want ErrClosed", err)
	}
	if _, err := r.Count(ctx); err != repo.ErrClosed {
		t.Fatalf("Count err=%v want ErrClosed", err)
	}
}

func TestRepo_ReopensExistingFile(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "energy.db")

	r, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := r.Insert(context.Background(), domain.Reading{Usage: 4.5}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Schema init must be a no-op on an existing file and data must survive.
	r2, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()

	n, err := r2.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("Count=%d want 1", n)
	}
}
