package api

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/maelh/locmat/internal/booking"
	"github.com/maelh/locmat/internal/model"
	"github.com/maelh/locmat/internal/store"
)

// BookingsHandler handles booking CRUD and lifecycle endpoints.
type BookingsHandler struct {
	DB      *sql.DB
	Service *booking.Service
}

// bookingRequest carries booking fields over the wire. Dates are plain
// YYYY-MM-DD strings (RFC 3339 timestamps also accepted).
type bookingRequest struct {
	ItemID           int64  `json:"item_id"`
	Qty              int    `json:"qty"`
	From             string `json:"from"`
	To               string `json:"to"`
	FromTime         string `json:"from_time"`
	ToTime           string `json:"to_time"`
	ClientName       string `json:"client_name"`
	ClientFirstName  string `json:"client_first_name"`
	ClientLastName   string `json:"client_last_name"`
	AssociationName  string `json:"association_name"`
	ContactPhone     string `json:"contact_phone"`
	ContactEmail     string `json:"contact_email"`
	PreferredContact string `json:"preferred_contact"`
	MessengerHandle  string `json:"messenger_handle"`
	RequestComment   string `json:"request_comment"`
}

// toBooking converts the request into a model booking, parsing the dates.
func (req *bookingRequest) toBooking(w http.ResponseWriter) (*model.Booking, bool) {
	b := &model.Booking{
		ItemID:           req.ItemID,
		Qty:              req.Qty,
		FromTime:         req.FromTime,
		ToTime:           req.ToTime,
		ClientName:       req.ClientName,
		ClientFirstName:  req.ClientFirstName,
		ClientLastName:   req.ClientLastName,
		AssociationName:  req.AssociationName,
		ContactPhone:     req.ContactPhone,
		ContactEmail:     req.ContactEmail,
		PreferredContact: req.PreferredContact,
		MessengerHandle:  req.MessengerHandle,
		RequestComment:   req.RequestComment,
	}

	if req.ClientName == "" && (req.ClientFirstName != "" || req.ClientLastName != "") {
		b.ClientName = joinName(req.ClientFirstName, req.ClientLastName)
	}

	var err error
	if req.From != "" {
		if b.From, err = parseDate(req.From); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid from date")
			return nil, false
		}
	}
	if req.To != "" {
		if b.To, err = parseDate(req.To); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid to date")
			return nil, false
		}
	}
	return b, true
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}

// List handles GET /api/bookings.
func (h *BookingsHandler) List(w http.ResponseWriter, r *http.Request) {
	var itemID int64
	if s := r.URL.Query().Get("item_id"); s != "" {
		var err error
		itemID, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid item_id")
			return
		}
	}

	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidStatus(status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	bookings, err := store.ListBookings(r.Context(), h.DB, itemID, status)
	if err != nil {
		log.WithError(err).Error("failed to list bookings")
		jsonError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	jsonResponse(w, http.StatusOK, bookings)
}

// Create handles POST /api/bookings.
func (h *BookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, ok := req.toBooking(w)
	if !ok {
		return
	}

	created, err := h.Service.Create(r.Context(), b)
	if bookingError(w, err) {
		return
	}

	claims := GetClaims(r.Context())
	log.WithFields(log.Fields{
		"user":    claims.Username,
		"booking": created.ID,
		"item":    created.ItemID,
		"client":  created.ClientName,
	}).Info("booking created")
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/bookings/{id}.
func (h *BookingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	b, err := store.GetBooking(r.Context(), h.DB, id)
	if err != nil {
		log.WithError(err).Error("failed to get booking")
		jsonError(w, http.StatusInternalServerError, "failed to get booking")
		return
	}
	if b == nil {
		jsonError(w, http.StatusNotFound, "booking not found")
		return
	}

	jsonResponse(w, http.StatusOK, b)
}

// Update handles PUT /api/bookings/{id}.
func (h *BookingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, ok := req.toBooking(w)
	if !ok {
		return
	}

	updated, err := h.Service.Edit(r.Context(), id, b)
	if bookingError(w, err) {
		return
	}

	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/bookings/{id}.
func (h *BookingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	if err := h.Service.Delete(r.Context(), id); bookingError(w, err) {
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "booking deleted"})
}

// Start handles POST /api/bookings/{id}/start.
func (h *BookingsHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Start, "booking started")
}

// Approve handles POST /api/bookings/{id}/approve.
func (h *BookingsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Approve, "booking approved")
}

// Finish handles POST /api/bookings/{id}/finish.
func (h *BookingsHandler) Finish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Finish, "booking finished")
}

// Reject handles POST /api/bookings/{id}/reject.
func (h *BookingsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Reject, "booking rejected")
}

func (h *BookingsHandler) transition(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, id int64) (*model.Booking, error), msg string) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	b, err := op(r.Context(), id)
	if bookingError(w, err) {
		return
	}

	claims := GetClaims(r.Context())
	log.WithFields(log.Fields{
		"user":    claims.Username,
		"booking": b.ID,
		"status":  b.Status,
	}).Info(msg)
	jsonResponse(w, http.StatusOK, b)
}

// CreateRequest handles POST /api/requests, the public booking request form.
// Requests come in as pending bookings and must be approved before they are
// confirmed, but they consume availability immediately by default so two
// requesters cannot claim the same stock.
func (h *BookingsHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, ok := req.toBooking(w)
	if !ok {
		return
	}
	b.Status = model.StatusPending
	b.Source = model.SourcePublicForm

	created, err := h.Service.Create(r.Context(), b)
	if bookingError(w, err) {
		return
	}

	log.WithFields(log.Fields{
		"booking": created.ID,
		"item":    created.ItemID,
		"client":  created.ClientName,
		"remote":  r.RemoteAddr,
	}).Info("booking request received")
	jsonResponse(w, http.StatusCreated, created)
}
