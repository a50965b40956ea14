package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/energytrack-io/energytrack/internal/domain"
	"github.com/energytrack-io/energytrack/internal/repo"
)

var ErrInvalidUsage = errors.New("invalid usage value")
var ErrInvalidWindow = errors.New("invalid window")

const (
	// DefaultWindowDays is the trailing window used when the caller does not
	// ask for a specific one.
	DefaultWindowDays = 7

	// MaxWindowDays is a guardrail against accidentally scanning the whole
	// table when a caller passes a huge window.
	MaxWindowDays = 366
)

// EnergyUsageService records readings and retrieves them over a trailing
// window. It owns input validation and timestamping; storage faults from the
// repository pass through unwrapped in meaning (callers map them to generic
// failures).
type EnergyUsageService struct {
	repo       repo.ReadingRepository
	windowDays int
	now        func() time.Time
}

func NewEnergyUsageService(r repo.ReadingRepository, windowDays int) *EnergyUsageService {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &EnergyUsageService{
		repo:       r,
		windowDays: windowDays,
		now:        time.Now,
	}
}

// Record validates usage and stores one reading stamped with the current
// server time. Readings are never backdated through this path.
func (s *EnergyUsageService) Record(ctx context.Context, usage float64) (domain.Reading, error) {
	if math.IsNaN(usage) || math.IsInf(usage, 0) {
		return domain.Reading{}, fmt.Errorf("%w: %v", ErrInvalidUsage, usage)
	}
	return s.repo.Insert(ctx, domain.Reading{
		Time:  s.now().UTC(),
		Usage: usage,
	})
}

// Recent returns readings from the trailing window of the given number of
// days, ascending by time. days <= 0 selects the configured default.
func (s *EnergyUsageService) Recent(ctx context.Context, days int) ([]domain.Reading, error) {
	if days <= 0 {
		days = s.windowDays
	}
	if days > MaxWindowDays {
		return nil, fmt.Errorf("%w: %d days (max %d)", ErrInvalidWindow, days, MaxWindowDays)
	}

	since := s.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	return s.repo.ListSince(ctx, since)
}

// Count returns the total number of stored readings.
func (s *EnergyUsageService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
