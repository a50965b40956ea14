package repo

import (
	"context"
	"errors"
	"time"

	"github.com/energytrack-io/energytrack/internal/domain"
)

// ErrClosed is returned for operations on a repository that has been closed.
var ErrClosed = errors.New("repository is closed")

// ReadingRepository provides access to stored energy usage readings.
type ReadingRepository interface {
	// Insert stores one reading and returns it with its assigned ID.
	// The reading's usage value must already be validated by the caller.
	Insert(ctx context.Context, r domain.Reading) (domain.Reading, error)

	// ListSince returns all readings with Time >= since, in ascending time
	// order. The returned slice must be treated as read-only by callers.
	ListSince(ctx context.Context, since time.Time) ([]domain.Reading, error)

	// Count returns the total number of stored readings.
	Count(ctx context.Context) (int64, error)
}
