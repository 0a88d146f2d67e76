package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
)

type errorResponse struct {
	Error     string                    `json:"error"`
	Errors    []availability.FieldError `json:"errors,omitempty"`
	Conflicts []conflictItem            `json:"conflicts,omitempty"`
}

type conflictItem struct {
	BookingID string `json:"booking_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeValidation(w http.ResponseWriter, res availability.ValidationResult) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Errors: res.Errors})
}

func writeConflict(w http.ResponseWriter, conflicts []availability.ExistingBooking) {
	resp := errorResponse{Error: "time slot already booked"}
	for _, c := range conflicts {
		resp.Conflicts = append(resp.Conflicts, conflictItem{
			BookingID: c.ID,
			StartTime: c.Interval.Start.String(),
			EndTime:   c.Interval.End.String(),
			Status:    string(c.Status),
		})
	}
	writeJSON(w, http.StatusConflict, resp)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
