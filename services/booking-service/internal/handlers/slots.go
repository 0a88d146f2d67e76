package handlers

import (
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/storage"
)

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

type slotsResponse struct {
	CourtID             string     `json:"court_id"`
	Date                string     `json:"date"`
	SlotDurationMinutes int        `json:"slot_duration_minutes"`
	Slots               []slotItem `json:"slots"`
}

// Slots lists the court's slots for a day. By default only free slots are
// returned; include_booked=true returns every slot with its availability.
// Slots that have already started are never available.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	courtID := strings.TrimSpace(q.Get("court_id"))
	dateStr := strings.TrimSpace(q.Get("date"))
	if courtID == "" || dateStr == "" {
		writeError(w, http.StatusBadRequest, "court_id and date are required")
		return
	}
	date, err := availability.ParseDate(dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	includeBooked := q.Get("include_booked") == "true"

	ctx := r.Context()
	court, err := h.courts.Get(ctx, courtID)
	if err != nil || !court.Active {
		if err == nil || storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "court not found")
			return
		}
		h.logger.Error("court lookup failed", "err", err, "court_id", courtID)
		writeError(w, http.StatusInternalServerError, "failed to load court")
		return
	}

	existing, err := h.snapshot(ctx, courtID, date)
	if err != nil {
		h.logger.Error("load bookings failed", "err", err, "court_id", courtID)
		writeError(w, http.StatusInternalServerError, "failed to load booked slots")
		return
	}

	now := h.now()
	resp := slotsResponse{
		CourtID:             courtID,
		Date:                date.String(),
		SlotDurationMinutes: court.SlotDurationMinutes,
		Slots:               []slotItem{},
	}
	for slot := range availability.Slots(court.Hours()) {
		free := now.Before(date.At(slot.Start, h.opts.Location)) &&
			availability.IsAvailable(slot, courtID, date, existing)
		if !free && !includeBooked {
			continue
		}
		resp.Slots = append(resp.Slots, slotItem{
			StartTime: slot.Start.String(),
			EndTime:   slot.End.String(),
			Available: free,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
