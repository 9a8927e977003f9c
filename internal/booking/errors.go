package booking

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for missing records. Mutating operations report these
// distinctly from availability conflicts.
var (
	ErrItemNotFound    = errors.New("item not found")
	ErrBookingNotFound = errors.New("booking not found")
)

// ConflictError means the requested quantity exceeds what is available for
// the date range. Always recoverable by the caller; never retried here.
type ConflictError struct {
	ItemID    int64
	From, To  time.Time
	Requested int
	Available int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("item %d not available from %s to %s: requested %d, available %d",
		e.ItemID, e.From.Format("2006-01-02"), e.To.Format("2006-01-02"), e.Requested, e.Available)
}

// InvalidTransitionError means a lifecycle operation was attempted from a
// disallowed current status.
type InvalidTransitionError struct {
	BookingID int64
	From, To  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking %d cannot go from %q to %q", e.BookingID, e.From, e.To)
}

// ValidationError means a required field is missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
