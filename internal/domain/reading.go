package domain

import "time"

// Reading represents a single energy usage observation at a point in time.
// ID is assigned by the storage layer on insert and never changes afterwards.
type Reading struct {
	ID    int64
	Time  time.Time
	Usage float64
}
