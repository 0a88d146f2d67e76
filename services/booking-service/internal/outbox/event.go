package outbox

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	EventBooked    = "booking.court.booked.v1"
	EventUpdated   = "booking.court.updated.v1"
	EventCancelled = "booking.court.cancelled.v1"
	EventCompleted = "booking.court.completed.v1"
)

// Topics lists every event type the booking service emits.
var Topics = []string{EventBooked, EventUpdated, EventCancelled, EventCompleted}

// BookingPayload is the JSON body of every booking event.
type BookingPayload struct {
	BookingID     string   `json:"booking_id"`
	CourtID       string   `json:"court_id"`
	RequesterID   string   `json:"requester_id"`
	Date          string   `json:"date"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	Status        string   `json:"status"`
	PlayerEmails  []string `json:"player_emails,omitempty"`
	PlayerPhones  []string `json:"player_phones,omitempty"`
	PreviousDate  string   `json:"previous_date,omitempty"`
	PreviousCourt string   `json:"previous_court_id,omitempty"`
	CancelledAt   string   `json:"cancelled_at,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// BookingEvent builds the outbox envelope for b. prev is the booking before
// an edit and may be nil.
func BookingEvent(eventType string, b model.Booking, prev *model.Booking) (Event, error) {
	p := BookingPayload{
		BookingID:   b.ID,
		CourtID:     b.CourtID,
		RequesterID: b.RequesterID,
		Date:        b.Date.String(),
		StartTime:   b.Start.String(),
		EndTime:     b.End.String(),
		Status:      string(b.Status),
		Reason:      b.CancelReason,
	}
	for _, pl := range b.Players {
		if pl.Email != "" {
			p.PlayerEmails = append(p.PlayerEmails, pl.Email)
		}
		if pl.Phone != "" {
			p.PlayerPhones = append(p.PlayerPhones, pl.Phone)
		}
	}
	if prev != nil && (prev.Date != b.Date || prev.CourtID != b.CourtID) {
		p.PreviousDate = prev.Date.String()
		p.PreviousCourt = prev.CourtID
	}
	if b.CancelledAt != nil {
		p.CancelledAt = b.CancelledAt.UTC().Format(time.RFC3339)
	}
	body, err := json.Marshal(p)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "booking",
		AggregateID:   b.ID,
		EventType:     eventType,
		Payload:       body,
	}, nil
}
