package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/storage"
)

const (
	codeOutsideHours availability.ErrorCode = "OUTSIDE_OPERATING_HOURS"
	codeStartPassed  availability.ErrorCode = "START_TIME_PASSED"
	codeInvalidTime  availability.ErrorCode = "INVALID_TIME"
)

var (
	errNotEditable    = errors.New("booking can no longer be edited")
	errNotCancellable = errors.New("booking can no longer be cancelled")
)

type BookingHandler struct {
	bookings BookingStore
	courts   CourtStore
	cache    SlotCache
	logger   *slog.Logger
	opts     Options
}

func NewBookingHandler(bookings BookingStore, courts CourtStore, cache SlotCache, logger *slog.Logger, opts Options) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		courts:   courts,
		cache:    cache,
		logger:   discardLogger(logger),
		opts:     opts.withDefaults(),
	}
}

type bookingRequest struct {
	CourtID     string                `json:"court_id"`
	Date        string                `json:"date"`
	StartTime   string                `json:"start_time"`
	EndTime     string                `json:"end_time"`
	RequesterID string                `json:"requester_id"`
	Players     []availability.Player `json:"players"`
	Notes       string                `json:"notes"`
}

// toEngine converts the wire form. Empty fields stay empty so the validator
// reports them; malformed ones are an error.
func (b bookingRequest) toEngine() (availability.BookingRequest, error) {
	req := availability.BookingRequest{
		ResourceID:  strings.TrimSpace(b.CourtID),
		RequesterID: strings.TrimSpace(b.RequesterID),
		Players:     b.Players,
		Notes:       strings.TrimSpace(b.Notes),
	}
	if raw := strings.TrimSpace(b.Date); raw != "" {
		d, err := availability.ParseDate(raw)
		if err != nil {
			return req, errors.New("invalid date")
		}
		req.Date = d
	}
	if raw := strings.TrimSpace(b.StartTime); raw != "" {
		t, err := availability.ParseTime(raw)
		if err != nil {
			return req, errors.New("invalid start_time")
		}
		req.Start = &t
	}
	if raw := strings.TrimSpace(b.EndTime); raw != "" {
		t, err := availability.ParseTime(raw)
		if err != nil {
			return req, errors.New("invalid end_time")
		}
		req.End = &t
	}
	return req, nil
}

type bookingItem struct {
	BookingID    string                `json:"booking_id"`
	CourtID      string                `json:"court_id"`
	RequesterID  string                `json:"requester_id"`
	Date         string                `json:"date"`
	StartTime    string                `json:"start_time"`
	EndTime      string                `json:"end_time"`
	Status       string                `json:"status"`
	Players      []availability.Player `json:"players"`
	Notes        string                `json:"notes,omitempty"`
	CancelledAt  string                `json:"cancelled_at,omitempty"`
	CancelReason string                `json:"cancel_reason,omitempty"`
	CreatedAt    string                `json:"created_at,omitempty"`
}

// item renders b with its status as of now.
func (h *BookingHandler) item(b model.Booking, now time.Time) bookingItem {
	it := bookingItem{
		BookingID:    b.ID,
		CourtID:      b.CourtID,
		RequesterID:  b.RequesterID,
		Date:         b.Date.String(),
		StartTime:    b.Start.String(),
		EndTime:      b.End.String(),
		Status:       string(availability.ComputeStatus(b.Snapshot(), now, h.opts.Location)),
		Players:      b.Players,
		Notes:        b.Notes,
		CancelReason: b.CancelReason,
	}
	if it.Players == nil {
		it.Players = []availability.Player{}
	}
	if b.CancelledAt != nil {
		it.CancelledAt = b.CancelledAt.UTC().Format(time.RFC3339)
	}
	if !b.CreatedAt.IsZero() {
		it.CreatedAt = b.CreatedAt.UTC().Format(time.RFC3339)
	}
	return it
}

func (h *BookingHandler) now() time.Time {
	return h.opts.Now().In(h.opts.Location)
}

func (h *BookingHandler) today() availability.Date {
	return availability.DateOf(h.now())
}

// snapshot returns the bookings holding courtID on date, from cache when possible.
func (h *BookingHandler) snapshot(ctx context.Context, courtID string, date availability.Date) ([]availability.ExistingBooking, error) {
	if h.cache != nil {
		cached, ok, err := h.cache.Get(ctx, courtID, date)
		if err != nil {
			h.logger.Warn("slot cache read failed", "err", err, "court_id", courtID, "date", date.String())
		} else if ok {
			return cached, nil
		}
	}
	rows, err := h.bookings.ListBlocking(ctx, courtID, date)
	if err != nil {
		return nil, err
	}
	snap := model.Snapshots(rows)
	if h.cache != nil {
		if err := h.cache.Set(ctx, courtID, date, snap); err != nil {
			h.logger.Warn("slot cache write failed", "err", err, "court_id", courtID, "date", date.String())
		}
	}
	return snap, nil
}

func (h *BookingHandler) invalidate(ctx context.Context, courtID string, date availability.Date) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx, courtID, date); err != nil {
		h.logger.Warn("slot cache invalidation failed", "err", err, "court_id", courtID, "date", date.String())
	}
}

// bookable loads the court for req and checks the interval sits inside its
// operating hours and has not started yet. It writes the response and returns
// false on failure.
func (h *BookingHandler) bookable(ctx context.Context, w http.ResponseWriter, req availability.BookingRequest) bool {
	court, err := h.courts.Get(ctx, req.ResourceID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "court not found")
			return false
		}
		h.logger.Error("court lookup failed", "err", err, "court_id", req.ResourceID)
		writeError(w, http.StatusInternalServerError, "failed to load court")
		return false
	}
	if !court.Active {
		writeError(w, http.StatusNotFound, "court not found")
		return false
	}
	iv, _ := req.Interval()
	if iv.Start.Before(court.Open) || court.Close.Before(iv.End) {
		writeValidation(w, availability.ValidationResult{Errors: []availability.FieldError{{
			Field:   "interval",
			Message: "booking must fall within court hours " + court.Open.String() + "-" + court.Close.String(),
			Code:    codeOutsideHours,
		}}})
		return false
	}
	if !h.now().Before(req.Date.At(iv.Start, h.opts.Location)) {
		writeValidation(w, availability.ValidationResult{Errors: []availability.FieldError{{
			Field:   "interval.start",
			Message: "start time has already passed",
			Code:    codeStartPassed,
		}}})
		return false
	}
	return true
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body bookingRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req, err := body.toEngine()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := availability.Validate(req, h.today(), h.opts.validateOptions()...)
	if !res.Valid {
		writeValidation(w, res)
		return
	}

	ctx := r.Context()
	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey != "" {
		if h.replay(ctx, w, req.RequesterID, idempotencyKey) {
			return
		}
	}

	if !h.bookable(ctx, w, req) {
		return
	}

	existing, err := h.snapshot(ctx, req.ResourceID, req.Date)
	if err != nil {
		h.logger.Error("load bookings failed", "err", err, "court_id", req.ResourceID)
		writeError(w, http.StatusInternalServerError, "failed to load bookings")
		return
	}
	iv, _ := req.Interval()
	if conflicts := availability.Conflicts(iv, req.ResourceID, req.Date, existing); len(conflicts) > 0 {
		writeConflict(w, conflicts)
		return
	}

	b := &model.Booking{
		CourtID:        req.ResourceID,
		RequesterID:    req.RequesterID,
		Date:           req.Date,
		Start:          iv.Start,
		End:            iv.End,
		Status:         h.opts.InitialStatus,
		Players:        req.Players,
		Notes:          req.Notes,
		IdempotencyKey: idempotencyKey,
	}
	if _, err := h.bookings.Create(ctx, b); err != nil {
		if storage.IsDuplicateKey(err) && h.replay(ctx, w, req.RequesterID, idempotencyKey) {
			return
		}
		switch {
		case storage.IsConflict(err):
			h.invalidate(ctx, req.ResourceID, req.Date)
			writeError(w, http.StatusConflict, "time slot already booked")
		default:
			h.logger.Error("create booking failed", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to create booking")
		}
		return
	}
	h.invalidate(ctx, b.CourtID, b.Date)

	h.logger.Info("booking created", "booking_id", b.ID, "court_id", b.CourtID, "date", b.Date.String(), "interval", iv.String())
	writeJSON(w, http.StatusCreated, h.item(*b, h.now()))
}

// replay answers with the booking an earlier request created under key.
func (h *BookingHandler) replay(ctx context.Context, w http.ResponseWriter, requesterID, key string) bool {
	prior, err := h.bookings.GetByIdempotencyKey(ctx, requesterID, key)
	if err != nil {
		if !storage.IsNotFound(err) {
			h.logger.Warn("idempotency lookup failed", "err", err)
		}
		return false
	}
	w.Header().Set("Idempotent-Replay", "true")
	writeJSON(w, http.StatusOK, h.item(prior, h.now()))
	return true
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	var body bookingRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req, err := body.toEngine()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	current, err := h.bookings.Get(ctx, id)
	if err != nil {
		h.writeLoadError(w, err, id)
		return
	}
	now := h.now()
	if !availability.CanEdit(current.Snapshot(), now, h.opts.Location) {
		writeError(w, http.StatusConflict, errNotEditable.Error())
		return
	}
	if req.RequesterID == "" {
		req.RequesterID = current.RequesterID
	}

	res := availability.Validate(req, availability.DateOf(now), h.opts.validateOptions()...)
	if !res.Valid {
		writeValidation(w, res)
		return
	}
	if !h.bookable(ctx, w, req) {
		return
	}
	existing, err := h.snapshot(ctx, req.ResourceID, req.Date)
	if err != nil {
		h.logger.Error("load bookings failed", "err", err, "court_id", req.ResourceID)
		writeError(w, http.StatusInternalServerError, "failed to load bookings")
		return
	}
	if availability.HasTimeConflict(req, existing, current.ID) {
		iv, _ := req.Interval()
		var others []availability.ExistingBooking
		for _, c := range availability.Conflicts(iv, req.ResourceID, req.Date, existing) {
			if c.ID != current.ID {
				others = append(others, c)
			}
		}
		writeConflict(w, others)
		return
	}

	iv, _ := req.Interval()
	updated, err := h.bookings.Update(ctx, id, func(stored model.Booking) (model.Booking, error) {
		if !availability.CanEdit(stored.Snapshot(), h.now(), h.opts.Location) {
			return model.Booking{}, errNotEditable
		}
		next := stored
		next.CourtID = req.ResourceID
		next.RequesterID = req.RequesterID
		next.Date = req.Date
		next.Start, next.End = iv.Start, iv.End
		next.Players = req.Players
		next.Notes = req.Notes
		return next, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errNotEditable):
			writeError(w, http.StatusConflict, err.Error())
		case storage.IsConflict(err):
			h.invalidate(ctx, req.ResourceID, req.Date)
			writeError(w, http.StatusConflict, "time slot already booked")
		default:
			h.writeLoadError(w, err, id)
		}
		return
	}

	h.invalidate(ctx, current.CourtID, current.Date)
	if current.CourtID != updated.CourtID || current.Date != updated.Date {
		h.invalidate(ctx, updated.CourtID, updated.Date)
	}
	h.logger.Info("booking updated", "booking_id", id, "court_id", updated.CourtID, "date", updated.Date.String())
	writeJSON(w, http.StatusOK, h.item(updated, h.now()))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	var body cancelRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
	}

	ctx := r.Context()
	cancelled, err := h.bookings.Cancel(ctx, id, strings.TrimSpace(body.Reason), func(stored model.Booking) error {
		if !availability.CanCancel(stored.Snapshot(), h.now(), h.opts.Location) {
			return errNotCancellable
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errNotCancellable) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.writeLoadError(w, err, id)
		return
	}

	h.invalidate(ctx, cancelled.CourtID, cancelled.Date)
	h.logger.Info("booking cancelled", "booking_id", id, "court_id", cancelled.CourtID)
	writeJSON(w, http.StatusOK, h.item(cancelled, h.now()))
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	b, err := h.bookings.Get(r.Context(), id)
	if err != nil {
		h.writeLoadError(w, err, id)
		return
	}
	writeJSON(w, http.StatusOK, h.item(b, h.now()))
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	courtID := strings.TrimSpace(q.Get("court_id"))
	dateStr := strings.TrimSpace(q.Get("date"))
	requesterID := strings.TrimSpace(q.Get("requester_id"))

	var (
		rows []model.Booking
		err  error
	)
	switch {
	case courtID != "" && dateStr != "":
		date, perr := availability.ParseDate(dateStr)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid date")
			return
		}
		rows, err = h.bookings.ListByCourtDate(r.Context(), courtID, date)
	case requesterID != "":
		limit := 50
		if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
				limit = n
			}
		}
		rows, err = h.bookings.ListByRequester(r.Context(), requesterID, limit)
	default:
		writeError(w, http.StatusBadRequest, "court_id and date, or requester_id, required")
		return
	}
	if err != nil {
		h.logger.Error("list bookings failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}

	now := h.now()
	items := make([]bookingItem, 0, len(rows))
	for _, b := range rows {
		items = append(items, h.item(b, now))
	}
	writeJSON(w, http.StatusOK, items)
}

type validateRequest struct {
	bookingRequest
	ExcludeBookingID string `json:"exclude_booking_id"`
}

type validateResponse struct {
	Valid     bool                      `json:"valid"`
	Errors    []availability.FieldError `json:"errors"`
	Conflict  bool                      `json:"conflict"`
	Conflicts []conflictItem            `json:"conflicts,omitempty"`
}

// Validate runs the booking checks without persisting anything. The conflict
// check only runs once the request itself is valid.
func (h *BookingHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var body validateRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req, err := body.toEngine()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := availability.Validate(req, h.today(), h.opts.validateOptions()...)
	resp := validateResponse{Valid: res.Valid, Errors: res.Errors}
	if res.Valid {
		existing, err := h.snapshot(r.Context(), req.ResourceID, req.Date)
		if err != nil {
			h.logger.Error("load bookings failed", "err", err, "court_id", req.ResourceID)
			writeError(w, http.StatusInternalServerError, "failed to load bookings")
			return
		}
		exclude := strings.TrimSpace(body.ExcludeBookingID)
		if availability.HasTimeConflict(req, existing, exclude) {
			resp.Conflict = true
			iv, _ := req.Interval()
			for _, c := range availability.Conflicts(iv, req.ResourceID, req.Date, existing) {
				if c.ID == exclude {
					continue
				}
				resp.Conflicts = append(resp.Conflicts, conflictItem{
					BookingID: c.ID,
					StartTime: c.Interval.Start.String(),
					EndTime:   c.Interval.End.String(),
					Status:    string(c.Status),
				})
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// bookingID reads the {id} path value. Booking ids are UUIDs, so anything
// else cannot exist and is answered with 404 before reaching the store.
func bookingID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return "", false
	}
	return id.String(), true
}

func (h *BookingHandler) writeLoadError(w http.ResponseWriter, err error, id string) {
	if storage.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	h.logger.Error("booking store failed", "err", err, "booking_id", id)
	writeError(w, http.StatusInternalServerError, "failed to load booking")
}
