package store

import (
	"errors"
	"time"
)

// ErrDuplicate is returned when a write would violate a uniqueness rule
// (user email, credential card id).
var ErrDuplicate = errors.New("duplicate record")

// ErrNotFound is returned by updates that target a missing row. Lookups
// report absence with a found flag instead.
var ErrNotFound = errors.New("record not found")

// Page selects a slice of an ordered listing.
type Page struct {
	Offset int
	Limit  int // 0 means no limit
}

// TimeRange bounds a listing by timestamp. Zero values are open ends; both
// ends are inclusive.
type TimeRange struct {
	From time.Time
	To   time.Time
}

func (r TimeRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}
