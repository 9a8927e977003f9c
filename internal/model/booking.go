package model

import "time"

// Booking represents a reservation of some quantity of one item for a date
// range. FromTime/ToTime are optional pickup/return clock times kept for
// display; availability math only considers the dates.
type Booking struct {
	ID               int64     `json:"id"`
	ItemID           int64     `json:"item_id"`
	Qty              int       `json:"qty"`
	From             time.Time `json:"from"`
	To               time.Time `json:"to"`
	FromTime         string    `json:"from_time,omitempty"`
	ToTime           string    `json:"to_time,omitempty"`
	Status           string    `json:"status"`
	Source           string    `json:"source"`
	ClientName       string    `json:"client_name"`
	ClientFirstName  string    `json:"client_first_name,omitempty"`
	ClientLastName   string    `json:"client_last_name,omitempty"`
	AssociationName  string    `json:"association_name,omitempty"`
	ContactPhone     string    `json:"contact_phone,omitempty"`
	ContactEmail     string    `json:"contact_email,omitempty"`
	PreferredContact string    `json:"preferred_contact,omitempty"`
	MessengerHandle  string    `json:"messenger_handle,omitempty"`
	RequestComment   string    `json:"request_comment,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Booking statuses. Pending bookings await admin approval, planned bookings
// are accepted but not yet picked up, ongoing bookings have the equipment
// out. Finished and rejected are terminal and never count against stock.
const (
	StatusPending  = "pending"
	StatusPlanned  = "planned"
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"
	StatusRejected = "rejected"
)

// Booking sources.
const (
	SourceManual     = "manual"
	SourcePublicForm = "public-form"
	SourceWebhook    = "webhook"
	SourceCSVImport  = "csv-import"
	SourceEmail      = "email"
)

// ValidStatus reports whether s is a known booking status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusPlanned, StatusOngoing, StatusFinished, StatusRejected:
		return true
	}
	return false
}

// DefaultActiveStatuses is the set of statuses that consume stock unless
// configured otherwise: accepted and pending reservations block availability,
// finished and rejected ones never do.
var DefaultActiveStatuses = []string{StatusPending, StatusPlanned, StatusOngoing}

// Overlaps reports whether the booking's date range shares at least one
// instant with [from, to], both ends inclusive.
func (b *Booking) Overlaps(from, to time.Time) bool {
	return !from.After(b.To) && !to.Before(b.From)
}
