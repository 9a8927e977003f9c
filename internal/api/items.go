package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/maelh/locmat/internal/booking"
	"github.com/maelh/locmat/internal/imaging"
	"github.com/maelh/locmat/internal/model"
	"github.com/maelh/locmat/internal/store"
)

// ItemsHandler handles item CRUD and availability endpoints.
type ItemsHandler struct {
	DB      *sql.DB
	Service *booking.Service
}

type itemRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Caution     float64 `json:"caution"`
	Quantity    int     `json:"quantity"`
	Category    string  `json:"category"`
	Location    string  `json:"location"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	items, err := store.ListItems(r.Context(), h.DB, category)
	if err != nil {
		log.WithError(err).Error("failed to list items")
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Quantity < 0 {
		jsonError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, &model.Item{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Caution:     req.Caution,
		Quantity:    req.Quantity,
		Category:    req.Category,
		Location:    req.Location,
	})
	if err != nil {
		log.WithError(err).Error("failed to create item")
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		log.WithError(err).Error("failed to get item")
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Quantity < 0 {
		jsonError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	if err := store.UpdateItem(r.Context(), h.DB, &model.Item{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Caution:     req.Caution,
		Quantity:    req.Quantity,
		Category:    req.Category,
		Location:    req.Location,
	}); err != nil {
		log.WithError(err).Error("failed to update item")
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	item, _ := store.GetItem(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, id); err != nil {
		log.WithError(err).Error("failed to delete item")
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Availability handles GET /api/items/{id}/availability.
//
// Without query parameters it returns the current projection (total, booked,
// available). With from, to, and optionally qty it answers whether the
// requested quantity fits in that range.
func (h *ItemsHandler) Availability(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")

	if fromStr == "" && toStr == "" {
		proj, err := h.Service.ProjectAvailability(r.Context(), id)
		if bookingError(w, err) {
			return
		}
		jsonResponse(w, http.StatusOK, proj)
		return
	}

	from, err := parseDate(fromStr)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := parseDate(toStr)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	qty := 1
	if q := r.URL.Query().Get("qty"); q != "" {
		qty, err = strconv.Atoi(q)
		if err != nil || qty < 1 {
			jsonError(w, http.StatusBadRequest, "invalid qty")
			return
		}
	}

	available, err := h.Service.CheckAvailability(r.Context(), id, from, to, qty)
	if bookingError(w, err) {
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"item_id":   id,
		"from":      from.Format(dateFormat),
		"to":        to.Format(dateFormat),
		"qty":       qty,
		"available": available,
	})
}

// UploadPhoto handles PUT /api/items/{id}/photo.
func (h *ItemsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		log.WithError(err).Error("failed to get item")
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	processed, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemPhoto(r.Context(), h.DB, id, processed.Data, processed.MIME); err != nil {
		log.WithError(err).Error("failed to save photo")
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/items/{id}/photo.
func (h *ItemsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemPhoto(r.Context(), h.DB, id)
	if err != nil {
		log.WithError(err).Error("failed to get photo")
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// dateFormat is the wire format for booking dates.
const dateFormat = "2006-01-02"

// parseDate accepts a plain date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateFormat, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
