package model

import "time"

// Item represents a rentable piece of equipment (quantity-based, not
// individual tracking).
type Item struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Price       float64    `json:"price"`
	Caution     float64    `json:"caution"`
	Quantity    int        `json:"quantity"`
	Category    string     `json:"category"`
	Location    string     `json:"location,omitempty"`
	PhotoMime   string     `json:"photo_mime,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// DefaultCategory is used when an item is created without a category.
const DefaultCategory = "other"
