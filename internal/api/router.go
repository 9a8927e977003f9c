package api

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maelh/locmat/internal/booking"
	"github.com/maelh/locmat/internal/event"
	"github.com/maelh/locmat/internal/metrics"
	"github.com/maelh/locmat/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, svc *booking.Service, bus *event.Bus, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db, Service: svc}
	bookingsHandler := &BookingsHandler{DB: db, Service: svc}
	eventsHandler := NewEventsHandler(bus)

	authMW := AuthMiddleware(jwtSecret)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login and the booking request form.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/requests", bookingsHandler.CreateRequest)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Items: read (all roles), write (manager+).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireManager(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("GET /api/items/{id}/availability", authMW(http.HandlerFunc(itemsHandler.Availability)))
	mux.Handle("PUT /api/items/{id}/photo", authMW(requireManager(http.HandlerFunc(itemsHandler.UploadPhoto))))
	mux.Handle("GET /api/items/{id}/photo", authMW(http.HandlerFunc(itemsHandler.GetPhoto)))

	// Bookings: read (all roles), write (manager+).
	mux.Handle("GET /api/bookings", authMW(http.HandlerFunc(bookingsHandler.List)))
	mux.Handle("POST /api/bookings", authMW(requireManager(http.HandlerFunc(bookingsHandler.Create))))
	mux.Handle("GET /api/bookings/{id}", authMW(http.HandlerFunc(bookingsHandler.Get)))
	mux.Handle("PUT /api/bookings/{id}", authMW(requireManager(http.HandlerFunc(bookingsHandler.Update))))
	mux.Handle("DELETE /api/bookings/{id}", authMW(requireManager(http.HandlerFunc(bookingsHandler.Delete))))
	mux.Handle("POST /api/bookings/{id}/start", authMW(requireManager(http.HandlerFunc(bookingsHandler.Start))))
	mux.Handle("POST /api/bookings/{id}/approve", authMW(requireManager(http.HandlerFunc(bookingsHandler.Approve))))
	mux.Handle("POST /api/bookings/{id}/finish", authMW(requireManager(http.HandlerFunc(bookingsHandler.Finish))))
	mux.Handle("POST /api/bookings/{id}/reject", authMW(requireManager(http.HandlerFunc(bookingsHandler.Reject))))

	// Live event feed for dashboards.
	mux.Handle("GET /api/events/ws", authMW(http.HandlerFunc(eventsHandler.Serve)))

	// Prometheus scrape endpoint.
	mux.Handle("GET /metrics", promhttp.Handler())

	return LoggingMiddleware(metrics.Middleware(mux))
}
