package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

type CourtHandler struct {
	courts CourtStore
	logger *slog.Logger
}

func NewCourtHandler(courts CourtStore, logger *slog.Logger) *CourtHandler {
	return &CourtHandler{courts: courts, logger: discardLogger(logger)}
}

type courtItem struct {
	CourtID             string `json:"court_id"`
	Name                string `json:"name"`
	Surface             string `json:"surface,omitempty"`
	Indoor              bool   `json:"indoor"`
	OpenTime            string `json:"open_time"`
	CloseTime           string `json:"close_time"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
	Active              bool   `json:"active"`
}

func toCourtItem(c model.Court) courtItem {
	return courtItem{
		CourtID:             c.ID,
		Name:                c.Name,
		Surface:             c.Surface,
		Indoor:              c.Indoor,
		OpenTime:            c.Open.String(),
		CloseTime:           c.Close.String(),
		SlotDurationMinutes: c.SlotDurationMinutes,
		Active:              c.Active,
	}
}

func (h *CourtHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("include_inactive") != "true"
	courts, err := h.courts.List(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("list courts failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list courts")
		return
	}
	items := make([]courtItem, 0, len(courts))
	for _, c := range courts {
		items = append(items, toCourtItem(c))
	}
	writeJSON(w, http.StatusOK, items)
}

type upsertCourtRequest struct {
	Name                string `json:"name"`
	Surface             string `json:"surface"`
	Indoor              bool   `json:"indoor"`
	OpenTime            string `json:"open_time"`
	CloseTime           string `json:"close_time"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
	Active              *bool  `json:"active"`
}

// Upsert creates or replaces the court named in the path. Hours must yield at
// least one slot.
func (h *CourtHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	var req upsertCourtRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	c := model.Court{
		ID:                  id,
		Name:                strings.TrimSpace(req.Name),
		Surface:             strings.TrimSpace(req.Surface),
		Indoor:              req.Indoor,
		SlotDurationMinutes: req.SlotDurationMinutes,
		Active:              req.Active == nil || *req.Active,
	}
	var errs []availability.FieldError
	if id == "" {
		errs = append(errs, availability.FieldError{Field: "id", Message: "court id is required", Code: availability.CodeRequired})
	}
	if c.Name == "" {
		errs = append(errs, availability.FieldError{Field: "name", Message: "name is required", Code: availability.CodeRequired})
	}
	var openErr, closeErr error
	if c.Open, openErr = availability.ParseTime(strings.TrimSpace(req.OpenTime)); openErr != nil {
		errs = append(errs, availability.FieldError{Field: "open_time", Message: "open_time must be HH:MM", Code: codeInvalidTime})
	}
	if c.Close, closeErr = availability.ParseTime(strings.TrimSpace(req.CloseTime)); closeErr != nil {
		errs = append(errs, availability.FieldError{Field: "close_time", Message: "close_time must be HH:MM", Code: codeInvalidTime})
	}
	if openErr == nil && closeErr == nil && len(availability.GenerateSlots(c.Hours())) == 0 {
		errs = append(errs, availability.FieldError{Field: "hours", Message: "operating hours must fit at least one slot", Code: availability.CodeInvalidTimeRange})
	}
	if len(errs) > 0 {
		writeValidation(w, availability.ValidationResult{Errors: errs})
		return
	}

	if err := h.courts.Upsert(r.Context(), c); err != nil {
		h.logger.Error("upsert court failed", "err", err, "court_id", id)
		writeError(w, http.StatusInternalServerError, "failed to save court")
		return
	}
	h.logger.Info("court saved", "court_id", id, "open", c.Open.String(), "close", c.Close.String())
	writeJSON(w, http.StatusOK, toCourtItem(c))
}
