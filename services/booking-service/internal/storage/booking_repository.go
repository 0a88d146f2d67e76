package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/courtbook/libs/db"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/outbox"
)

// BookingRepository persists bookings. Every write also appends the matching
// domain event to the outbox in the same transaction.
type BookingRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewBookingRepository(pool *db.Pool, outboxRepo *outbox.Repository) *BookingRepository {
	return &BookingRepository{pool: pool, outbox: outboxRepo}
}

const bookingColumns = `
	id::text, court_id, requester_id, booking_date::text,
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	status, players::text, notes, cancelled_at, COALESCE(cancellation_reason, ''),
	created_at, updated_at`

// blockingStatuses mirrors availability.Status.Blocking and the exclusion
// constraint predicate in the schema.
var blockingStatuses = []string{
	string(availability.StatusPending),
	string(availability.StatusConfirmed),
	string(availability.StatusActive),
}

// Create inserts b with a fresh id and records the booked event.
func (r *BookingRepository) Create(ctx context.Context, b *model.Booking) (string, error) {
	b.ID = uuid.NewString()
	players, err := json.Marshal(b.Players)
	if err != nil {
		return "", err
	}
	err = r.pool.InTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO bookings
				(id, court_id, requester_id, booking_date, start_time, end_time, status, players, notes, idempotency_key)
			VALUES ($1, $2, $3, $4::date, $5::time, $6::time, $7, $8::jsonb, $9, NULLIF($10, ''))
			RETURNING created_at, updated_at
		`, b.ID, b.CourtID, b.RequesterID, b.Date.String(), b.Start.String(), b.End.String(),
			string(b.Status), string(players), b.Notes, b.IdempotencyKey).Scan(&b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return err
		}
		evt, err := outbox.BookingEvent(outbox.EventBooked, *b, nil)
		if err != nil {
			return err
		}
		return r.outbox.Insert(ctx, tx, evt)
	})
	if err != nil {
		return "", err
	}
	return b.ID, nil
}

// Update locks the stored booking, lets apply derive the new version and
// writes it back. An error from apply aborts the transaction and is returned
// unchanged.
func (r *BookingRepository) Update(ctx context.Context, id string, apply func(current model.Booking) (model.Booking, error)) (model.Booking, error) {
	var updated model.Booking
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		current, err := r.getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		next, err := apply(current)
		if err != nil {
			return err
		}
		next.ID = current.ID
		players, err := json.Marshal(next.Players)
		if err != nil {
			return err
		}
		err = tx.QueryRow(ctx, `
			UPDATE bookings
			SET court_id = $2,
				booking_date = $3::date,
				start_time = $4::time,
				end_time = $5::time,
				status = $6,
				players = $7::jsonb,
				notes = $8,
				updated_at = now()
			WHERE id = $1
			RETURNING created_at, updated_at
		`, next.ID, next.CourtID, next.Date.String(), next.Start.String(), next.End.String(),
			string(next.Status), string(players), next.Notes).Scan(&next.CreatedAt, &next.UpdatedAt)
		if err != nil {
			return err
		}
		evt, err := outbox.BookingEvent(outbox.EventUpdated, next, &current)
		if err != nil {
			return err
		}
		if err := r.outbox.Insert(ctx, tx, evt); err != nil {
			return err
		}
		updated = next
		return nil
	})
	return updated, err
}

// Cancel marks the booking cancelled after guard approves the stored version.
func (r *BookingRepository) Cancel(ctx context.Context, id, reason string, guard func(current model.Booking) error) (model.Booking, error) {
	var cancelled model.Booking
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		current, err := r.getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(current); err != nil {
				return err
			}
		}
		var at time.Time
		err = tx.QueryRow(ctx, `
			UPDATE bookings
			SET status = $2,
				cancelled_at = now(),
				cancellation_reason = $3,
				updated_at = now()
			WHERE id = $1
			RETURNING cancelled_at
		`, id, string(availability.StatusCancelled), reason).Scan(&at)
		if err != nil {
			return err
		}
		current.Status = availability.StatusCancelled
		current.CancelledAt = &at
		current.CancelReason = reason
		evt, err := outbox.BookingEvent(outbox.EventCancelled, current, nil)
		if err != nil {
			return err
		}
		if err := r.outbox.Insert(ctx, tx, evt); err != nil {
			return err
		}
		cancelled = current
		return nil
	})
	return cancelled, err
}

func (r *BookingRepository) Get(ctx context.Context, id string) (model.Booking, error) {
	return scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

// GetByIdempotencyKey finds the booking a requester already created with key.
func (r *BookingRepository) GetByIdempotencyKey(ctx context.Context, requesterID, key string) (model.Booking, error) {
	return scanBooking(r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE requester_id = $1 AND idempotency_key = $2
	`, requesterID, key))
}

func (r *BookingRepository) getForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Booking, error) {
	return scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
}

// ListBlocking returns the bookings on courtID and date that still hold the court.
func (r *BookingRepository) ListBlocking(ctx context.Context, courtID string, date availability.Date) ([]model.Booking, error) {
	return r.query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE court_id = $1
			AND booking_date = $2::date
			AND status = ANY($3)
		ORDER BY start_time ASC
	`, courtID, date.String(), blockingStatuses)
}

func (r *BookingRepository) ListByCourtDate(ctx context.Context, courtID string, date availability.Date) ([]model.Booking, error) {
	return r.query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE court_id = $1 AND booking_date = $2::date
		ORDER BY start_time ASC
	`, courtID, date.String())
}

func (r *BookingRepository) ListByRequester(ctx context.Context, requesterID string, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE requester_id = $1
		ORDER BY booking_date DESC, start_time DESC
		LIMIT $2
	`, requesterID, limit)
}

// LockUnsettled returns non-terminal bookings dated on or before through,
// locked for the status sweeper. Rows held by another sweeper are skipped.
func (r *BookingRepository) LockUnsettled(ctx context.Context, tx pgx.Tx, through availability.Date, limit int) ([]model.Booking, error) {
	return queryBookings(ctx, tx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE booking_date <= $1::date
			AND status = ANY($2)
		ORDER BY booking_date, start_time
		LIMIT $3
		FOR UPDATE SKIP LOCKED
	`, through.String(), blockingStatuses, limit)
}

// SetStatus changes only the status column; completed bookings emit an event.
func (r *BookingRepository) SetStatus(ctx context.Context, tx pgx.Tx, b model.Booking, status availability.Status) error {
	_, err := tx.Exec(ctx, `
		UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1
	`, b.ID, string(status))
	if err != nil {
		return err
	}
	if status != availability.StatusCompleted {
		return nil
	}
	b.Status = status
	evt, err := outbox.BookingEvent(outbox.EventCompleted, b, nil)
	if err != nil {
		return err
	}
	return r.outbox.Insert(ctx, tx, evt)
}

func (r *BookingRepository) InTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return r.pool.InTx(ctx, fn)
}

func (r *BookingRepository) query(ctx context.Context, sql string, args ...any) ([]model.Booking, error) {
	return queryBookings(ctx, r.pool, sql, args...)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryBookings(ctx context.Context, q querier, sql string, args ...any) ([]model.Booking, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func scanBooking(row pgx.Row) (model.Booking, error) {
	var (
		b                        model.Booking
		date, start, end, status string
		players                  string
	)
	err := row.Scan(
		&b.ID,
		&b.CourtID,
		&b.RequesterID,
		&date,
		&start,
		&end,
		&status,
		&players,
		&b.Notes,
		&b.CancelledAt,
		&b.CancelReason,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	if b.Date, err = availability.ParseDate(date); err != nil {
		return model.Booking{}, fmt.Errorf("booking %s: %w", b.ID, err)
	}
	if b.Start, err = availability.ParseTime(start); err != nil {
		return model.Booking{}, fmt.Errorf("booking %s: %w", b.ID, err)
	}
	if b.End, err = availability.ParseTime(end); err != nil {
		return model.Booking{}, fmt.Errorf("booking %s: %w", b.ID, err)
	}
	if b.Status, err = availability.ParseStatus(status); err != nil {
		return model.Booking{}, fmt.Errorf("booking %s: %w", b.ID, err)
	}
	if players != "" {
		if err := json.Unmarshal([]byte(players), &b.Players); err != nil {
			return model.Booking{}, fmt.Errorf("booking %s players: %w", b.ID, err)
		}
	}
	return b, nil
}

// IsConflict reports a violation of the bookings_no_overlap exclusion constraint.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

// IsDuplicateKey reports a repeated idempotency key for the same requester.
func IsDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "bookings_idempotency_idx"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
