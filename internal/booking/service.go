// Package booking holds the availability engine and the booking lifecycle
// controller. All stock decisions go through this package so that create,
// edit and reporting paths share one active-status set and one overlap sum.
package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/maelh/locmat/internal/event"
	"github.com/maelh/locmat/internal/metrics"
	"github.com/maelh/locmat/internal/model"
	"github.com/maelh/locmat/internal/store"
)

// Service answers availability questions and drives booking lifecycle
// transitions. ActiveStatuses is the set of statuses that consume stock;
// it is applied uniformly to every path.
type Service struct {
	db             *sql.DB
	activeStatuses []string
	events         *event.Bus
}

// New creates a booking service. A nil or empty status set falls back to
// model.DefaultActiveStatuses; a nil bus disables event publication.
func New(db *sql.DB, activeStatuses []string, events *event.Bus) *Service {
	if len(activeStatuses) == 0 {
		activeStatuses = model.DefaultActiveStatuses
	}
	return &Service{db: db, activeStatuses: activeStatuses, events: events}
}

// ActiveStatuses returns the configured active-status set.
func (s *Service) ActiveStatuses() []string {
	return s.activeStatuses
}

// bookedQuantity sums the quantities of bookings overlapping [from, to],
// skipping the booking with ID excludeID (0 excludes nothing). This is the
// one place overlap math happens.
func bookedQuantity(bookings []model.Booking, from, to time.Time, excludeID int64) int {
	booked := 0
	for i := range bookings {
		b := &bookings[i]
		if b.ID == excludeID {
			continue
		}
		if b.Overlaps(from, to) {
			booked += b.Qty
		}
	}
	return booked
}

// availableQuantity computes the unreserved stock for an item over a range.
// Returns ErrItemNotFound if the item is absent or soft-deleted.
func (s *Service) availableQuantity(ctx context.Context, q store.Querier, itemID int64, from, to time.Time, excludeID int64) (int, error) {
	item, err := store.GetItem(ctx, q, itemID)
	if err != nil {
		return 0, err
	}
	if item == nil {
		return 0, ErrItemNotFound
	}

	active, err := store.ListActiveBookings(ctx, q, itemID, s.activeStatuses)
	if err != nil {
		return 0, err
	}

	return item.Quantity - bookedQuantity(active, from, to, excludeID), nil
}

// CheckAvailability reports whether qty units of the item are free over the
// inclusive range [from, to]. An unknown item is never available (fail safe,
// not an error): a booking pointing at a deleted item must not overbook.
func (s *Service) CheckAvailability(ctx context.Context, itemID int64, from, to time.Time, qty int) (bool, error) {
	return s.checkAvailability(ctx, itemID, from, to, qty, 0)
}

// CheckAvailabilityExcluding is the edit-path variant: the named booking's
// own reservation is left out of the overlap sum so a booking never
// conflicts with itself.
func (s *Service) CheckAvailabilityExcluding(ctx context.Context, excludeBookingID, itemID int64, from, to time.Time, qty int) (bool, error) {
	return s.checkAvailability(ctx, itemID, from, to, qty, excludeBookingID)
}

func (s *Service) checkAvailability(ctx context.Context, itemID int64, from, to time.Time, qty int, excludeID int64) (bool, error) {
	available, err := s.availableQuantity(ctx, s.db, itemID, from, to, excludeID)
	if err == ErrItemNotFound {
		metrics.AvailabilityChecks.WithLabelValues("unknown_item").Inc()
		return false, nil
	}
	if err != nil {
		return false, err
	}

	ok := available >= qty
	if ok {
		metrics.AvailabilityChecks.WithLabelValues("available").Inc()
	} else {
		metrics.AvailabilityChecks.WithLabelValues("unavailable").Inc()
	}
	return ok, nil
}

// Create validates and persists a new booking, gated on availability. The
// availability read and the insert run in one transaction so two concurrent
// creates cannot both claim the last units.
func (s *Service) Create(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	if b.Qty == 0 {
		b.Qty = 1
	}
	if err := validate(b); err != nil {
		return nil, err
	}
	if b.Status == "" {
		b.Status = model.StatusPlanned
	}
	if b.Status != model.StatusPlanned && b.Status != model.StatusPending {
		return nil, &ValidationError{Field: "status", Reason: "new bookings start as planned or pending"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	available, err := s.availableQuantity(ctx, tx, b.ItemID, b.From, b.To, 0)
	if err != nil {
		return nil, err
	}
	if available < b.Qty {
		metrics.BookingConflicts.Inc()
		return nil, &ConflictError{ItemID: b.ItemID, From: b.From, To: b.To, Requested: b.Qty, Available: available}
	}

	created, err := store.CreateBooking(ctx, tx, b)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing booking: %w", err)
	}

	metrics.BookingsTotal.WithLabelValues("created").Inc()
	s.events.Publish(event.BookingCreated, created)
	return created, nil
}

// Edit replaces a booking's item, range, quantity and contact fields, leaving
// its status alone. Availability is re-checked with the booking's own
// reservation excluded; on conflict the stored record is untouched.
func (s *Service) Edit(ctx context.Context, id int64, b *model.Booking) (*model.Booking, error) {
	if b.Qty == 0 {
		b.Qty = 1
	}
	if err := validate(b); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := store.GetBooking(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrBookingNotFound
	}

	available, err := s.availableQuantity(ctx, tx, b.ItemID, b.From, b.To, id)
	if err != nil {
		return nil, err
	}
	if available < b.Qty {
		metrics.BookingConflicts.Inc()
		return nil, &ConflictError{ItemID: b.ItemID, From: b.From, To: b.To, Requested: b.Qty, Available: available}
	}

	b.ID = id
	if err := store.UpdateBooking(ctx, tx, b); err != nil {
		return nil, err
	}

	updated, err := store.GetBooking(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing booking edit: %w", err)
	}

	metrics.BookingsTotal.WithLabelValues("updated").Inc()
	s.events.Publish(event.BookingUpdated, updated)
	return updated, nil
}

// Start marks a planned booking as ongoing (equipment picked up). Only valid
// from planned; no availability re-check happens here because the booking
// already counted against stock.
func (s *Service) Start(ctx context.Context, id int64) (*model.Booking, error) {
	b, err := s.transition(ctx, id, model.StatusOngoing, model.StatusPlanned)
	if err != nil {
		return nil, err
	}
	metrics.BookingsTotal.WithLabelValues("started").Inc()
	s.events.Publish(event.BookingStarted, b)
	return b, nil
}

// Approve promotes a pending request to planned.
func (s *Service) Approve(ctx context.Context, id int64) (*model.Booking, error) {
	b, err := s.transition(ctx, id, model.StatusPlanned, model.StatusPending)
	if err != nil {
		return nil, err
	}
	metrics.BookingsTotal.WithLabelValues("approved").Inc()
	s.events.Publish(event.BookingUpdated, b)
	return b, nil
}

// Finish marks a booking as returned. Unguarded: any booking can be
// finished, which frees its quantity for the whole former range.
func (s *Service) Finish(ctx context.Context, id int64) (*model.Booking, error) {
	b, err := s.transition(ctx, id, model.StatusFinished)
	if err != nil {
		return nil, err
	}
	metrics.BookingsTotal.WithLabelValues("finished").Inc()
	s.events.Publish(event.BookingFinished, b)
	return b, nil
}

// Reject marks a booking as rejected. Terminal and unguarded; the booking
// stops counting against stock immediately.
func (s *Service) Reject(ctx context.Context, id int64) (*model.Booking, error) {
	b, err := s.transition(ctx, id, model.StatusRejected)
	if err != nil {
		return nil, err
	}
	metrics.BookingsTotal.WithLabelValues("rejected").Inc()
	s.events.Publish(event.BookingRejected, b)
	return b, nil
}

// Delete removes a booking unconditionally, freeing its quantity.
func (s *Service) Delete(ctx context.Context, id int64) error {
	b, err := store.GetBooking(ctx, s.db, id)
	if err != nil {
		return err
	}
	if b == nil {
		return ErrBookingNotFound
	}

	deleted, err := store.DeleteBooking(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrBookingNotFound
	}

	metrics.BookingsTotal.WithLabelValues("deleted").Inc()
	s.events.Publish(event.BookingDeleted, b)
	return nil
}

// transition sets a booking's status, optionally guarded on the current
// status. No allowed set means the transition is unconditional.
func (s *Service) transition(ctx context.Context, id int64, to string, allowedFrom ...string) (*model.Booking, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	b, err := store.GetBooking(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}

	if len(allowedFrom) > 0 {
		allowed := false
		for _, from := range allowedFrom {
			if b.Status == from {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, &InvalidTransitionError{BookingID: id, From: b.Status, To: to}
		}
	}

	if err := store.SetBookingStatus(ctx, tx, id, to); err != nil {
		return nil, err
	}

	b, err = store.GetBooking(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transition: %w", err)
	}
	return b, nil
}

// Projection is the per-item availability report.
type Projection struct {
	ItemID    int64 `json:"item_id"`
	Total     int   `json:"total"`
	Booked    int   `json:"booked"`
	Available int   `json:"available"`
}

// ProjectAvailability reports an item's total stock, the quantity committed
// to active bookings (any range), and the remainder clamped at zero. The
// engine itself never clamps; the clamp is display-only.
func (s *Service) ProjectAvailability(ctx context.Context, itemID int64) (*Projection, error) {
	item, err := store.GetItem(ctx, s.db, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	active, err := store.ListActiveBookings(ctx, s.db, itemID, s.activeStatuses)
	if err != nil {
		return nil, err
	}

	booked := 0
	for _, b := range active {
		booked += b.Qty
	}

	available := item.Quantity - booked
	if available < 0 {
		available = 0
	}

	return &Projection{ItemID: itemID, Total: item.Quantity, Booked: booked, Available: available}, nil
}

// validate checks the fields every booking mutation requires. Inverted
// ranges are rejected rather than silently accepted.
func validate(b *model.Booking) error {
	if b.ItemID <= 0 {
		return &ValidationError{Field: "item_id", Reason: "must reference an item"}
	}
	if b.Qty < 1 {
		return &ValidationError{Field: "qty", Reason: "must be at least 1"}
	}
	if b.From.IsZero() || b.To.IsZero() {
		return &ValidationError{Field: "dates", Reason: "from and to are required"}
	}
	if b.To.Before(b.From) {
		return &ValidationError{Field: "dates", Reason: "to must not be before from"}
	}
	if b.ClientName == "" {
		return &ValidationError{Field: "client_name", Reason: "required"}
	}
	return nil
}
