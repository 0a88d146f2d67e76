package handlers

import "net/http"

// Register mounts the API routes on mux.
func Register(mux *http.ServeMux, bookings *BookingHandler, courts *CourtHandler) {
	mux.HandleFunc("GET /api/v1/courts", courts.List)
	mux.HandleFunc("PUT /api/v1/courts/{id}", courts.Upsert)
	mux.HandleFunc("GET /api/v1/courts/slots", bookings.Slots)

	mux.HandleFunc("GET /api/v1/bookings", bookings.List)
	mux.HandleFunc("POST /api/v1/bookings", bookings.Create)
	mux.HandleFunc("POST /api/v1/bookings/validate", bookings.Validate)
	mux.HandleFunc("GET /api/v1/bookings/{id}", bookings.Get)
	mux.HandleFunc("PUT /api/v1/bookings/{id}", bookings.Update)
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", bookings.Cancel)
}
