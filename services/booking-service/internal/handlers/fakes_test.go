package handlers

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

// memStore mimics the repository, including the exclusion constraint and the
// idempotency index.
type memStore struct {
	mu        sync.Mutex
	bookings  map[string]model.Booking
	listCalls int
	// raceConflict makes the next write fail as if another request won.
	raceConflict bool
}

func newMemStore(seed ...model.Booking) *memStore {
	s := &memStore{bookings: map[string]model.Booking{}}
	for _, b := range seed {
		s.bookings[b.ID] = b
	}
	return s
}

func (s *memStore) overlapsLocked(b model.Booking) bool {
	for _, o := range s.bookings {
		if o.ID == b.ID || !o.Status.Blocking() || o.CourtID != b.CourtID || o.Date != b.Date {
			continue
		}
		if availability.Overlaps(o.Interval(), b.Interval()) {
			return true
		}
	}
	return false
}

// castID fails like Postgres does when a non-UUID is compared to a uuid column.
func castID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"}
	}
	return nil
}

func (s *memStore) Create(_ context.Context, b *model.Booking) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raceConflict {
		s.raceConflict = false
		return "", &pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"}
	}
	if b.IdempotencyKey != "" {
		for _, o := range s.bookings {
			if o.RequesterID == b.RequesterID && o.IdempotencyKey == b.IdempotencyKey {
				return "", &pgconn.PgError{Code: "23505", ConstraintName: "bookings_idempotency_idx"}
			}
		}
	}
	if s.overlapsLocked(*b) {
		return "", &pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"}
	}
	b.ID = uuid.NewString()
	s.bookings[b.ID] = *b
	return b.ID, nil
}

func (s *memStore) Update(_ context.Context, id string, apply func(model.Booking) (model.Booking, error)) (model.Booking, error) {
	if err := castID(id); err != nil {
		return model.Booking{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, pgx.ErrNoRows
	}
	next, err := apply(current)
	if err != nil {
		return model.Booking{}, err
	}
	next.ID = id
	if s.overlapsLocked(next) {
		return model.Booking{}, &pgconn.PgError{Code: "23P01"}
	}
	s.bookings[id] = next
	return next, nil
}

func (s *memStore) Cancel(_ context.Context, id, reason string, guard func(model.Booking) error) (model.Booking, error) {
	if err := castID(id); err != nil {
		return model.Booking{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, pgx.ErrNoRows
	}
	if err := guard(current); err != nil {
		return model.Booking{}, err
	}
	current.Status = availability.StatusCancelled
	current.CancelReason = reason
	s.bookings[id] = current
	return current, nil
}

func (s *memStore) Get(_ context.Context, id string) (model.Booking, error) {
	if err := castID(id); err != nil {
		return model.Booking{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, pgx.ErrNoRows
	}
	return b, nil
}

func (s *memStore) GetByIdempotencyKey(_ context.Context, requesterID, key string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.RequesterID == requesterID && b.IdempotencyKey == key {
			return b, nil
		}
	}
	return model.Booking{}, pgx.ErrNoRows
}

func (s *memStore) filter(keep func(model.Booking) bool) []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func (s *memStore) ListBlocking(_ context.Context, courtID string, date availability.Date) ([]model.Booking, error) {
	s.mu.Lock()
	s.listCalls++
	s.mu.Unlock()
	return s.filter(func(b model.Booking) bool {
		return b.CourtID == courtID && b.Date == date && b.Status.Blocking()
	}), nil
}

func (s *memStore) ListByCourtDate(_ context.Context, courtID string, date availability.Date) ([]model.Booking, error) {
	return s.filter(func(b model.Booking) bool { return b.CourtID == courtID && b.Date == date }), nil
}

func (s *memStore) ListByRequester(_ context.Context, requesterID string, limit int) ([]model.Booking, error) {
	out := s.filter(func(b model.Booking) bool { return b.RequesterID == requesterID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memCourts struct {
	mu     sync.Mutex
	courts map[string]model.Court
}

func (c *memCourts) Get(_ context.Context, id string) (model.Court, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	court, ok := c.courts[id]
	if !ok {
		return model.Court{}, pgx.ErrNoRows
	}
	return court, nil
}

func (c *memCourts) List(_ context.Context, activeOnly bool) ([]model.Court, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.Court
	for _, court := range c.courts {
		if activeOnly && !court.Active {
			continue
		}
		out = append(out, court)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *memCourts) Upsert(_ context.Context, court model.Court) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.courts[court.ID] = court
	return nil
}

type memCache struct {
	mu          sync.Mutex
	entries     map[string][]availability.ExistingBooking
	invalidated []string
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]availability.ExistingBooking{}}
}

func cacheKey(courtID string, date availability.Date) string {
	return courtID + "/" + date.String()
}

func (c *memCache) Get(_ context.Context, courtID string, date availability.Date) ([]availability.ExistingBooking, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[cacheKey(courtID, date)]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, courtID string, date availability.Date, bookings []availability.ExistingBooking) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(courtID, date)] = bookings
	return nil
}

func (c *memCache) Invalidate(_ context.Context, courtID string, date availability.Date) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(courtID, date)
	delete(c.entries, key)
	c.invalidated = append(c.invalidated, key)
	return nil
}
