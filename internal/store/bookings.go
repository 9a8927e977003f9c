package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/maelh/locmat/internal/model"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, so booking accessors can
// run standalone or inside a mutation transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const bookingColumns = `id, item_id, qty, from_date, to_date, from_time, to_time, status, source,
	client_name, client_first_name, client_last_name, association_name,
	contact_phone, contact_email, preferred_contact, messenger_handle, request_comment,
	created_at, updated_at`

// CreateBooking inserts a booking and returns the stored record.
func CreateBooking(ctx context.Context, q Querier, b *model.Booking) (*model.Booking, error) {
	if b.Qty < 1 {
		b.Qty = 1
	}
	if b.Status == "" {
		b.Status = model.StatusPlanned
	}
	if b.Source == "" {
		b.Source = model.SourceManual
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO bookings (item_id, qty, from_date, to_date, from_time, to_time, status, source,
		        client_name, client_first_name, client_last_name, association_name,
		        contact_phone, contact_email, preferred_contact, messenger_handle, request_comment)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ItemID, b.Qty, b.From, b.To, b.FromTime, b.ToTime, b.Status, b.Source,
		b.ClientName, b.ClientFirstName, b.ClientLastName, b.AssociationName,
		b.ContactPhone, b.ContactEmail, b.PreferredContact, b.MessengerHandle, b.RequestComment,
	)
	if err != nil {
		return nil, fmt.Errorf("creating booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting booking id: %w", err)
	}

	return GetBooking(ctx, q, id)
}

// GetBooking returns a booking by ID, or nil if it does not exist.
func GetBooking(ctx context.Context, q Querier, id int64) (*model.Booking, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id,
	)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting booking: %w", err)
	}
	return b, nil
}

// ListBookings returns bookings, optionally filtered by item and/or status,
// newest range first.
func ListBookings(ctx context.Context, q Querier, itemID int64, status string) ([]model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	var args []any

	if itemID > 0 {
		query += ` AND item_id = ?`
		args = append(args, itemID)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY from_date DESC, id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListActiveBookings returns all bookings for an item whose status is in the
// given set. An empty set matches nothing.
func ListActiveBookings(ctx context.Context, q Querier, itemID int64, statuses []string) ([]model.Booking, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	args := make([]any, 0, len(statuses)+1)
	args = append(args, itemID)
	for _, s := range statuses {
		args = append(args, s)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE item_id = ? AND status IN (`+placeholders+`)
		 ORDER BY from_date, id`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing active bookings: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// UpdateBooking overwrites a booking's mutable fields. The status is not
// touched here; lifecycle transitions go through SetBookingStatus.
func UpdateBooking(ctx context.Context, q Querier, b *model.Booking) error {
	_, err := q.ExecContext(ctx,
		`UPDATE bookings SET item_id = ?, qty = ?, from_date = ?, to_date = ?, from_time = ?, to_time = ?,
		        client_name = ?, client_first_name = ?, client_last_name = ?, association_name = ?,
		        contact_phone = ?, contact_email = ?, preferred_contact = ?, messenger_handle = ?,
		        request_comment = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		b.ItemID, b.Qty, b.From, b.To, b.FromTime, b.ToTime,
		b.ClientName, b.ClientFirstName, b.ClientLastName, b.AssociationName,
		b.ContactPhone, b.ContactEmail, b.PreferredContact, b.MessengerHandle,
		b.RequestComment, b.ID,
	)
	if err != nil {
		return fmt.Errorf("updating booking: %w", err)
	}
	return nil
}

// SetBookingStatus sets a booking's status.
func SetBookingStatus(ctx context.Context, q Querier, id int64, status string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("setting booking status: %w", err)
	}
	return nil
}

// DeleteBooking removes a booking. Returns false if no row matched.
func DeleteBooking(ctx context.Context, q Querier, id int64) (bool, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting booking: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting booking: %w", err)
	}
	return n > 0, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(s scanner) (*model.Booking, error) {
	b := &model.Booking{}
	var fromTime, toTime, firstName, lastName, association sql.NullString
	var phone, email, preferred, messenger, comment sql.NullString
	err := s.Scan(&b.ID, &b.ItemID, &b.Qty, &b.From, &b.To, &fromTime, &toTime, &b.Status, &b.Source,
		&b.ClientName, &firstName, &lastName, &association,
		&phone, &email, &preferred, &messenger, &comment,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.FromTime = fromTime.String
	b.ToTime = toTime.String
	b.ClientFirstName = firstName.String
	b.ClientLastName = lastName.String
	b.AssociationName = association.String
	b.ContactPhone = phone.String
	b.ContactEmail = email.String
	b.PreferredContact = preferred.String
	b.MessengerHandle = messenger.String
	b.RequestComment = comment.String
	return b, nil
}

func scanBookings(rows *sql.Rows) ([]model.Booking, error) {
	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
