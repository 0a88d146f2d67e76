package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/courtbook/libs/db"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

type CourtRepository struct {
	pool *db.Pool
}

func NewCourtRepository(pool *db.Pool) *CourtRepository {
	return &CourtRepository{pool: pool}
}

const courtColumns = `
	id, name, surface, indoor,
	to_char(open_time, 'HH24:MI'), to_char(close_time, 'HH24:MI'),
	slot_minutes, active`

func (r *CourtRepository) Get(ctx context.Context, id string) (model.Court, error) {
	return scanCourt(r.pool.QueryRow(ctx, `SELECT `+courtColumns+` FROM courts WHERE id = $1`, id))
}

func (r *CourtRepository) List(ctx context.Context, activeOnly bool) ([]model.Court, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+courtColumns+`
		FROM courts
		WHERE active OR NOT $1
		ORDER BY name ASC
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Court
	for rows.Next() {
		c, err := scanCourt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// Upsert creates or replaces a court's catalogue entry and operating hours.
func (r *CourtRepository) Upsert(ctx context.Context, c model.Court) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO courts (id, name, surface, indoor, open_time, close_time, slot_minutes, active)
		VALUES ($1, $2, $3, $4, $5::time, $6::time, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			surface = EXCLUDED.surface,
			indoor = EXCLUDED.indoor,
			open_time = EXCLUDED.open_time,
			close_time = EXCLUDED.close_time,
			slot_minutes = EXCLUDED.slot_minutes,
			active = EXCLUDED.active,
			updated_at = now()
	`, c.ID, c.Name, c.Surface, c.Indoor, c.Open.String(), c.Close.String(), c.SlotDurationMinutes, c.Active)
	return err
}

func scanCourt(row pgx.Row) (model.Court, error) {
	var c model.Court
	var open, closing string
	if err := row.Scan(&c.ID, &c.Name, &c.Surface, &c.Indoor, &open, &closing, &c.SlotDurationMinutes, &c.Active); err != nil {
		return model.Court{}, err
	}
	var err error
	if c.Open, err = availability.ParseTime(open); err != nil {
		return model.Court{}, fmt.Errorf("court %s open_time: %w", c.ID, err)
	}
	if c.Close, err = availability.ParseTime(closing); err != nil {
		return model.Court{}, fmt.Errorf("court %s close_time: %w", c.ID, err)
	}
	return c, nil
}
