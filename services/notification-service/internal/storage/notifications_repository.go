package storage

import (
	"context"
	"encoding/json"

	"github.com/md-rashed-zaman/courtbook/libs/db"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Notification is one delivery attempt to one player.
type Notification struct {
	BookingID string
	EventID   string
	EventType string
	Channel   string
	Recipient string
	Payload   map[string]any
	Status    string
	Provider  string
	Error     string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (booking_id, event_id, event_type, channel, recipient, payload, status, provider, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''))
	`, n.BookingID, n.EventID, n.EventType, n.Channel, n.Recipient, payload, n.Status, n.Provider, n.Error)
	return err
}
