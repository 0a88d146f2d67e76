// Package slotcache keeps short-lived snapshots of the bookings that hold a
// court on a given day, so slot listings do not hit Postgres on every request.
// Only the snapshot is cached; slots are always recomputed from it.
package slotcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 30 * time.Second

type Cache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// New returns a cache over rdb. A nil rdb yields a cache that always misses.
func New(rdb redis.Cmdable, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

func Key(courtID string, date availability.Date) string {
	return "slots:" + courtID + ":" + date.String()
}

type entry struct {
	ID     string                 `json:"id"`
	Start  availability.TimeOfDay `json:"start"`
	End    availability.TimeOfDay `json:"end"`
	Status availability.Status    `json:"status"`
}

func (c *Cache) Get(ctx context.Context, courtID string, date availability.Date) ([]availability.ExistingBooking, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, nil
	}
	raw, err := c.rdb.Get(ctx, Key(courtID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var entries []entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set.
		return nil, false, nil
	}
	out := make([]availability.ExistingBooking, 0, len(entries))
	for _, e := range entries {
		out = append(out, availability.ExistingBooking{
			ID:         e.ID,
			ResourceID: courtID,
			Date:       date,
			Interval:   availability.Interval{Start: e.Start, End: e.End},
			Status:     e.Status,
		})
	}
	return out, true, nil
}

// Set stores the blocking bookings of courtID on date. Bookings for other
// courts or days are dropped.
func (c *Cache) Set(ctx context.Context, courtID string, date availability.Date, bookings []availability.ExistingBooking) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	entries := make([]entry, 0, len(bookings))
	for _, b := range bookings {
		if b.ResourceID != courtID || b.Date != date || !b.Status.Blocking() {
			continue
		}
		entries = append(entries, entry{ID: b.ID, Start: b.Interval.Start, End: b.Interval.End, Status: b.Status})
	}
	body, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, Key(courtID, date), body, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, courtID string, date availability.Date) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, Key(courtID, date)).Err()
}

// ReadyCheck pings redis; a cache without a client is always ready.
func (c *Cache) ReadyCheck(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}
