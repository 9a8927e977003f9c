package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maelh/locmat/internal/db"
	"github.com/maelh/locmat/internal/model"
	"github.com/maelh/locmat/internal/store"
)

func jan(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return New(db.NewTestDB(t), nil, nil)
}

func seedItem(t *testing.T, svc *Service, qty int) *model.Item {
	t.Helper()
	item, err := store.CreateItem(context.Background(), svc.db, &model.Item{Name: "Tent", Quantity: qty})
	if err != nil {
		t.Fatalf("seeding item: %v", err)
	}
	return item
}

func seedBooking(t *testing.T, svc *Service, itemID int64, qty, fromDay, toDay int, status string) *model.Booking {
	t.Helper()
	b, err := store.CreateBooking(context.Background(), svc.db, &model.Booking{
		ItemID:     itemID,
		Qty:        qty,
		From:       jan(fromDay),
		To:         jan(toDay),
		Status:     status,
		ClientName: "Jean Dupont",
	})
	if err != nil {
		t.Fatalf("seeding booking: %v", err)
	}
	return b
}

func mustAvailable(t *testing.T, svc *Service, itemID int64, fromDay, toDay, qty int, want bool) {
	t.Helper()
	ok, err := svc.CheckAvailability(context.Background(), itemID, jan(fromDay), jan(toDay), qty)
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if ok != want {
		t.Errorf("CheckAvailability(item %d, Jan %d-%d, qty %d) = %v, want %v",
			itemID, fromDay, toDay, qty, ok, want)
	}
}

func TestAvailabilityWithNoBookings(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 5)

	// With no active bookings, n units are available iff n <= Q.
	for n := 0; n <= 5; n++ {
		mustAvailable(t, svc, item.ID, 1, 31, n, true)
	}
	mustAvailable(t, svc, item.ID, 1, 31, 6, false)
}

func TestAvailabilityUnknownItemIsFalse(t *testing.T) {
	svc := newTestService(t)

	ok, err := svc.CheckAvailability(context.Background(), 12345, jan(1), jan(5), 1)
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if ok {
		t.Error("unknown item must never be available")
	}
}

func TestAvailabilityDeletedItemIsFalse(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 5)
	if err := store.DeleteItem(context.Background(), svc.db, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	mustAvailable(t, svc, item.ID, 1, 5, 1, false)
}

func TestAvailabilityOverlapScenario(t *testing.T) {
	// Item qty=5, booking A qty=3 over [Jan 1, Jan 5] ongoing.
	svc := newTestService(t)
	item := seedItem(t, svc, 5)
	a := seedBooking(t, svc, item.ID, 3, 1, 5, model.StatusOngoing)

	// Jan 3-10 overlaps A: booked=3, available=2, requested 3 -> false.
	mustAvailable(t, svc, item.ID, 3, 10, 3, false)
	mustAvailable(t, svc, item.ID, 3, 10, 2, true)

	// Jan 6-10 does not overlap (Jan 6 > Jan 5): booked=0 -> true.
	mustAvailable(t, svc, item.ID, 6, 10, 3, true)

	// Deleting A frees the quantity for its former range.
	if err := svc.Delete(context.Background(), a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	mustAvailable(t, svc, item.ID, 3, 10, 3, true)
}

func TestNonOverlappingBookingsCanExceedStockTogether(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 5)

	// Two disjoint ranges may each take 4 of 5 even though 4+4 > 5.
	ctx := context.Background()
	if _, err := svc.Create(ctx, &model.Booking{
		ItemID: item.ID, Qty: 4, From: jan(1), To: jan(5), ClientName: "A",
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, &model.Booking{
		ItemID: item.ID, Qty: 4, From: jan(6), To: jan(10), ClientName: "B",
	}); err != nil {
		t.Fatalf("second create: %v", err)
	}
}

func TestFinishedBookingFreesQuantity(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 5)
	b := seedBooking(t, svc, item.ID, 5, 1, 5, model.StatusOngoing)

	mustAvailable(t, svc, item.ID, 1, 5, 1, false)

	if _, err := svc.Finish(context.Background(), b.ID); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	mustAvailable(t, svc, item.ID, 1, 5, 5, true)
}

func TestRejectedBookingFreesQuantity(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 2)
	b := seedBooking(t, svc, item.ID, 2, 1, 5, model.StatusPending)

	mustAvailable(t, svc, item.ID, 1, 5, 1, false)

	rejected, err := svc.Reject(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != model.StatusRejected {
		t.Errorf("expected status rejected, got %q", rejected.Status)
	}
	mustAvailable(t, svc, item.ID, 1, 5, 2, true)
}

func TestZeroQuantityItem(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 0)

	mustAvailable(t, svc, item.ID, 1, 5, 1, false)
	mustAvailable(t, svc, item.ID, 1, 5, 0, true)
}

func TestNegativeAvailabilityStillComparesCorrectly(t *testing.T) {
	// Overbooked state (stock lowered after booking): availability must
	// compare without clamping, so even qty 0 is fine but 1 is not.
	svc := newTestService(t)
	item := seedItem(t, svc, 5)
	seedBooking(t, svc, item.ID, 5, 1, 5, model.StatusOngoing)

	item.Quantity = 3
	if err := store.UpdateItem(context.Background(), svc.db, item); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	mustAvailable(t, svc, item.ID, 1, 5, 1, false)
	mustAvailable(t, svc, item.ID, 1, 5, 0, false) // available is -2, not clamped
}

func TestCreateRejectsConflict(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 5)
	seedBooking(t, svc, item.ID, 3, 1, 5, model.StatusOngoing)

	_, err := svc.Create(context.Background(), &model.Booking{
		ItemID: item.ID, Qty: 3, From: jan(3), To: jan(10), ClientName: "Jean",
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Requested != 3 || conflict.Available != 2 {
		t.Errorf("unexpected conflict details: %+v", conflict)
	}

	// Nothing persisted.
	bookings, _ := store.ListBookings(context.Background(), svc.db, item.ID, "")
	if len(bookings) != 1 {
		t.Errorf("conflicting create must not persist, have %d bookings", len(bookings))
	}
}

func TestCreateUnknownItemIsNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), &model.Booking{
		ItemID: 999, Qty: 1, From: jan(1), To: jan(2), ClientName: "Jean",
	})
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 5)

	tests := []struct {
		name string
		b    model.Booking
	}{
		{"missing item", model.Booking{Qty: 1, From: jan(1), To: jan(2), ClientName: "J"}},
		{"negative qty", model.Booking{ItemID: item.ID, Qty: -2, From: jan(1), To: jan(2), ClientName: "J"}},
		{"missing dates", model.Booking{ItemID: item.ID, Qty: 1, ClientName: "J"}},
		{"inverted range", model.Booking{ItemID: item.ID, Qty: 1, From: jan(5), To: jan(1), ClientName: "J"}},
		{"missing client", model.Booking{ItemID: item.ID, Qty: 1, From: jan(1), To: jan(2)}},
		{"bad initial status", model.Booking{ItemID: item.ID, Qty: 1, From: jan(1), To: jan(2), ClientName: "J", Status: model.StatusOngoing}},
	}

	for _, tt := range tests {
		_, err := svc.Create(context.Background(), &tt.b)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected ValidationError, got %v", tt.name, err)
		}
	}
}

func TestCreateDefaultsQuantityToOne(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 1)

	b, err := svc.Create(context.Background(), &model.Booking{
		ItemID: item.ID, From: jan(1), To: jan(2), ClientName: "Jean",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Qty != 1 {
		t.Errorf("expected qty defaulted to 1, got %d", b.Qty)
	}

	// The defaulted unit still counts against stock.
	mustAvailable(t, svc, item.ID, 1, 2, 1, false)
}

func TestEditExcludesOwnReservation(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 5)

	b, err := svc.Create(context.Background(), &model.Booking{
		ItemID: item.ID, Qty: 5, From: jan(1), To: jan(5), ClientName: "Jean",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Extending the booking's own range must not self-conflict.
	edited, err := svc.Edit(context.Background(), b.ID, &model.Booking{
		ItemID: item.ID, Qty: 5, From: jan(1), To: jan(8), ClientName: "Jean",
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if !edited.To.Equal(jan(8)) {
		t.Errorf("expected extended range, got to=%v", edited.To)
	}
	if edited.Status != b.Status {
		t.Errorf("edit must not change status: %q -> %q", b.Status, edited.Status)
	}
}

func TestEditConflictLeavesBookingUntouched(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 5)
	seedBooking(t, svc, item.ID, 4, 1, 5, model.StatusOngoing)

	b, err := svc.Create(context.Background(), &model.Booking{
		ItemID: item.ID, Qty: 1, From: jan(6), To: jan(8), ClientName: "Jean",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Moving into the occupied range with too much quantity must conflict.
	_, err = svc.Edit(context.Background(), b.ID, &model.Booking{
		ItemID: item.ID, Qty: 3, From: jan(2), To: jan(4), ClientName: "Jean",
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	got, _ := store.GetBooking(context.Background(), svc.db, b.ID)
	if got.Qty != 1 || !got.From.Equal(jan(6)) {
		t.Errorf("failed edit must leave prior state, got %+v", got)
	}
}

func TestEditMissingBooking(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 5)

	_, err := svc.Edit(context.Background(), 999, &model.Booking{
		ItemID: item.ID, Qty: 1, From: jan(1), To: jan(2), ClientName: "Jean",
	})
	if !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestStartTransitions(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 5)

	planned := seedBooking(t, svc, item.ID, 1, 1, 2, model.StatusPlanned)
	started, err := svc.Start(context.Background(), planned.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.Status != model.StatusOngoing {
		t.Errorf("expected ongoing, got %q", started.Status)
	}

	// Starting again is an invalid transition.
	_, err = svc.Start(context.Background(), planned.ID)
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if invalid.From != model.StatusOngoing {
		t.Errorf("unexpected transition error: %+v", invalid)
	}

	for _, status := range []string{model.StatusPending, model.StatusFinished, model.StatusRejected} {
		b := seedBooking(t, svc, item.ID, 1, 10, 11, status)
		if _, err := svc.Start(context.Background(), b.ID); !errors.As(err, &invalid) {
			t.Errorf("starting %s booking: expected InvalidTransitionError, got %v", status, err)
		}
	}
}

func TestApprove(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 5)

	pending := seedBooking(t, svc, item.ID, 1, 1, 2, model.StatusPending)
	approved, err := svc.Approve(context.Background(), pending.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != model.StatusPlanned {
		t.Errorf("expected planned, got %q", approved.Status)
	}

	var invalid *InvalidTransitionError
	if _, err := svc.Approve(context.Background(), pending.ID); !errors.As(err, &invalid) {
		t.Errorf("approving planned booking: expected InvalidTransitionError, got %v", err)
	}
}

func TestFinishIsUnguarded(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 5)

	for _, status := range []string{model.StatusPending, model.StatusPlanned, model.StatusOngoing, model.StatusRejected} {
		b := seedBooking(t, svc, item.ID, 1, 1, 2, status)
		finished, err := svc.Finish(context.Background(), b.ID)
		if err != nil {
			t.Fatalf("Finish from %s: %v", status, err)
		}
		if finished.Status != model.StatusFinished {
			t.Errorf("expected finished, got %q", finished.Status)
		}
	}
}

func TestLifecycleNotFound(t *testing.T) {
	svc := newTestService(t)

	ctx := context.Background()
	if _, err := svc.Start(ctx, 999); !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("Start: expected ErrBookingNotFound, got %v", err)
	}
	if _, err := svc.Finish(ctx, 999); !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("Finish: expected ErrBookingNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, 999); !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("Delete: expected ErrBookingNotFound, got %v", err)
	}
}

func TestProjectAvailability(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 5)
	seedBooking(t, svc, item.ID, 3, 1, 5, model.StatusOngoing)
	seedBooking(t, svc, item.ID, 1, 10, 12, model.StatusPlanned)
	seedBooking(t, svc, item.ID, 4, 1, 5, model.StatusFinished) // inactive, ignored

	p, err := svc.ProjectAvailability(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("ProjectAvailability: %v", err)
	}
	if p.Total != 5 || p.Booked != 4 || p.Available != 1 {
		t.Errorf("unexpected projection: %+v", p)
	}
}

func TestProjectAvailabilityClampsAtZero(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, 2)
	seedBooking(t, svc, item.ID, 3, 1, 5, model.StatusOngoing)

	p, err := svc.ProjectAvailability(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("ProjectAvailability: %v", err)
	}
	if p.Booked != 3 || p.Available != 0 {
		t.Errorf("expected booked=3 available=0, got %+v", p)
	}
}

func TestProjectAvailabilityUnknownItem(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ProjectAvailability(context.Background(), 999)
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestConfiguredActiveStatusSet(t *testing.T) {
	// Configured so that only ongoing bookings consume stock.
	database := db.NewTestDB(t)
	svc := New(database, []string{model.StatusOngoing}, nil)
	item := seedItem(t, svc, 5)

	seedBooking(t, svc, item.ID, 5, 1, 5, model.StatusPlanned)

	// Planned bookings are invisible to this configuration.
	mustAvailable(t, svc, item.ID, 1, 5, 5, true)

	seedBooking(t, svc, item.ID, 2, 1, 5, model.StatusOngoing)
	mustAvailable(t, svc, item.ID, 1, 5, 4, false)
	mustAvailable(t, svc, item.ID, 1, 5, 3, true)

	// The projection uses the same set.
	p, err := svc.ProjectAvailability(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("ProjectAvailability: %v", err)
	}
	if p.Booked != 2 {
		t.Errorf("projection must use the configured set, booked=%d", p.Booked)
	}
}

func TestBookedQuantity(t *testing.T) {
	bookings := []model.Booking{
		{ID: 1, Qty: 2, From: jan(1), To: jan(5)},
		{ID: 2, Qty: 3, From: jan(4), To: jan(8)},
		{ID: 3, Qty: 7, From: jan(20), To: jan(25)},
	}

	if got := bookedQuantity(bookings, jan(2), jan(6), 0); got != 5 {
		t.Errorf("expected 5 booked, got %d", got)
	}
	if got := bookedQuantity(bookings, jan(2), jan(6), 2); got != 2 {
		t.Errorf("excluding booking 2: expected 2 booked, got %d", got)
	}
	if got := bookedQuantity(bookings, jan(9), jan(19), 0); got != 0 {
		t.Errorf("disjoint range: expected 0 booked, got %d", got)
	}
}
