package consumer

import (
	"context"
	"errors"
	"testing"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
	"github.com/segmentio/kafka-go"
)

type invalidation struct {
	court string
	date  string
}

type recordingCache struct {
	calls []invalidation
	err   error
}

func (c *recordingCache) Invalidate(_ context.Context, courtID string, date availability.Date) error {
	c.calls = append(c.calls, invalidation{courtID, date.String()})
	return c.err
}

func TestInvalidateSlots_Move(t *testing.T) {
	cache := &recordingCache{}
	h := InvalidateSlots(cache)
	msg := kafka.Message{Value: []byte(`{"court_id":"court-2","date":"2024-06-16","previous_date":"2024-06-15","previous_court_id":"court-1"}`)}
	if err := h(context.Background(), msg); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	want := []invalidation{{"court-2", "2024-06-16"}, {"court-1", "2024-06-15"}}
	if len(cache.calls) != 2 || cache.calls[0] != want[0] || cache.calls[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, cache.calls)
	}
}

func TestInvalidateSlots_CourtOnlyMoveKeepsDate(t *testing.T) {
	cache := &recordingCache{}
	msg := kafka.Message{Value: []byte(`{"court_id":"court-2","date":"2024-06-16","previous_court_id":"court-1"}`)}
	if err := InvalidateSlots(cache)(context.Background(), msg); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if len(cache.calls) != 2 || cache.calls[1] != (invalidation{"court-1", "2024-06-16"}) {
		t.Fatalf("unexpected invalidations %v", cache.calls)
	}
}

func TestInvalidateSlots_PropagatesCacheError(t *testing.T) {
	boom := errors.New("redis down")
	cache := &recordingCache{err: boom}
	msg := kafka.Message{Value: []byte(`{"court_id":"court-1","date":"2024-06-15"}`)}
	if err := InvalidateSlots(cache)(context.Background(), msg); !errors.Is(err, boom) {
		t.Fatalf("expected cache error, got %v", err)
	}
}

func TestInvalidateSlots_RejectsMalformedPayload(t *testing.T) {
	cache := &recordingCache{}
	msg := kafka.Message{Topic: "booking.court.booked.v1", Value: []byte(`not json`)}
	if err := InvalidateSlots(cache)(context.Background(), msg); err == nil {
		t.Fatal("expected decode error")
	}
	if len(cache.calls) != 0 {
		t.Fatalf("expected no invalidation, got %v", cache.calls)
	}
}
