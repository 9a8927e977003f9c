package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/maelh/locmat/internal/model"
)

// CreateItem creates a new item.
func CreateItem(ctx context.Context, q Querier, item *model.Item) (*model.Item, error) {
	if item.Category == "" {
		item.Category = model.DefaultCategory
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO items (name, description, price, caution, quantity, category, location)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.Name, item.Description, item.Price, item.Caution, item.Quantity, item.Category, item.Location,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, q, id)
}

// GetItem returns a non-deleted item by ID, or nil if it does not exist.
// Soft-deleted items are treated as absent so that availability fails safe.
func GetItem(ctx context.Context, q Querier, id int64) (*model.Item, error) {
	item := &model.Item{}
	var description, location, photoMime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT id, name, description, price, caution, quantity, category, location, photo_mime,
		        created_at, updated_at, deleted_at
		 FROM items WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&item.ID, &item.Name, &description, &item.Price, &item.Caution, &item.Quantity,
		&item.Category, &location, &photoMime, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.Description = description.String
	item.Location = location.String
	item.PhotoMime = photoMime.String
	return item, nil
}

// ListItems returns all non-deleted items, optionally filtered by category.
func ListItems(ctx context.Context, q Querier, category string) ([]model.Item, error) {
	var rows *sql.Rows
	var err error

	if category != "" {
		rows, err = q.QueryContext(ctx,
			`SELECT id, name, description, price, caution, quantity, category, location, photo_mime,
			        created_at, updated_at, deleted_at
			 FROM items WHERE deleted_at IS NULL AND category = ? ORDER BY name`, category,
		)
	} else {
		rows, err = q.QueryContext(ctx,
			`SELECT id, name, description, price, caution, quantity, category, location, photo_mime,
			        created_at, updated_at, deleted_at
			 FROM items WHERE deleted_at IS NULL ORDER BY name`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		var description, location, photoMime sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &description, &item.Price, &item.Caution, &item.Quantity,
			&item.Category, &location, &photoMime, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Description = description.String
		item.Location = location.String
		item.PhotoMime = photoMime.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem updates an item's metadata and stock quantity.
func UpdateItem(ctx context.Context, q Querier, item *model.Item) error {
	if item.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	if item.Category == "" {
		item.Category = model.DefaultCategory
	}

	_, err := q.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, price = ?, caution = ?, quantity = ?,
		        category = ?, location = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		item.Name, item.Description, item.Price, item.Caution, item.Quantity,
		item.Category, item.Location, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem soft-deletes an item and drops its photo. Bookings referencing
// the item are left untouched.
func DeleteItem(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE items SET photo = NULL, photo_mime = NULL, deleted_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// SetItemPhoto sets an item's photo data.
func SetItemPhoto(ctx context.Context, q Querier, id int64, photo []byte, mime string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE items SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item photo: %w", err)
	}
	return nil
}

// GetItemPhoto returns an item's photo data and MIME type.
func GetItemPhoto(ctx context.Context, q Querier, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM items WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item photo: %w", err)
	}
	return photo, mime.String, nil
}
