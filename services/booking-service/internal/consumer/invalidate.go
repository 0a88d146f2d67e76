// Package consumer holds the booking-service handlers for its own event stream.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/md-rashed-zaman/courtbook/libs/kafkax"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/outbox"
	"github.com/segmentio/kafka-go"
)

type SlotInvalidator interface {
	Invalidate(ctx context.Context, courtID string, date availability.Date) error
}

// InvalidateSlots drops the cached day snapshot touched by a booking event.
// Moves also drop the day the booking left.
func InvalidateSlots(cache SlotInvalidator) kafkax.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var p outbox.BookingPayload
		if err := json.Unmarshal(msg.Value, &p); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Topic, err)
		}
		date, err := availability.ParseDate(p.Date)
		if err != nil {
			return err
		}
		errs := []error{cache.Invalidate(ctx, p.CourtID, date)}

		if p.PreviousDate != "" || p.PreviousCourt != "" {
			prevCourt, prevDate := p.CourtID, date
			if p.PreviousCourt != "" {
				prevCourt = p.PreviousCourt
			}
			if p.PreviousDate != "" {
				if prevDate, err = availability.ParseDate(p.PreviousDate); err != nil {
					return errors.Join(append(errs, err)...)
				}
			}
			errs = append(errs, cache.Invalidate(ctx, prevCourt, prevDate))
		}
		return errors.Join(errs...)
	}
}
