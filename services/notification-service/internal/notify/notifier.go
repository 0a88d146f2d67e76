// Package notify tells players about bookings made, moved or cancelled on
// their behalf.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/md-rashed-zaman/courtbook/libs/kafkax"
	"github.com/md-rashed-zaman/courtbook/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/courtbook/services/notification-service/internal/sms"
	"github.com/md-rashed-zaman/courtbook/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

const (
	EventBooked    = "booking.court.booked.v1"
	EventUpdated   = "booking.court.updated.v1"
	EventCancelled = "booking.court.cancelled.v1"
)

// Topics are the booking events that produce player notifications.
var Topics = []string{EventBooked, EventUpdated, EventCancelled}

type Recorder interface {
	Insert(ctx context.Context, n storage.Notification) error
}

// bookingEvent mirrors the payload published by the booking service.
type bookingEvent struct {
	BookingID    string   `json:"booking_id"`
	CourtID      string   `json:"court_id"`
	Date         string   `json:"date"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	Status       string   `json:"status"`
	PlayerEmails []string `json:"player_emails"`
	PlayerPhones []string `json:"player_phones"`
	Reason       string   `json:"reason"`
}

type Notifier struct {
	email  email.Sender
	sms    sms.Sender
	store  Recorder
	logger *slog.Logger
	venue  string
}

func New(emailSender email.Sender, smsSender sms.Sender, store Recorder, logger *slog.Logger, venue string) *Notifier {
	return &Notifier{
		email:  emailSender,
		sms:    smsSender,
		store:  store,
		logger: logger,
		venue:  strings.TrimSpace(venue),
	}
}

// Handle sends one message per player contact. Failed deliveries are recorded
// and not retried; only a failure to record is returned.
func (n *Notifier) Handle(ctx context.Context, msg kafka.Message) error {
	meta := kafkax.ExtractEventMeta(msg)

	var evt bookingEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		n.logger.Error("invalid booking payload", "err", err, "event_id", meta.EventID)
		return nil
	}
	if evt.BookingID == "" || evt.CourtID == "" || evt.Date == "" {
		n.logger.Error("missing booking fields", "event_id", meta.EventID)
		return nil
	}

	subject, body, ok := n.render(meta.EventType, evt)
	if !ok {
		return nil
	}

	base := storage.Notification{
		BookingID: evt.BookingID,
		EventID:   meta.EventID,
		EventType: meta.EventType,
		Payload:   map[string]any{"subject": subject, "body": body},
	}

	for _, to := range unique(evt.PlayerEmails) {
		rec := base
		rec.Channel, rec.Recipient = "email", to
		n.deliver(&rec, n.email.ProviderID(), func() error { return n.email.Send(to, subject, body) })
		if err := n.store.Insert(ctx, rec); err != nil {
			return fmt.Errorf("record email notification: %w", err)
		}
	}
	for _, to := range unique(evt.PlayerPhones) {
		rec := base
		rec.Channel, rec.Recipient = "sms", to
		n.deliver(&rec, n.sms.ProviderID(), func() error { return n.sms.Send(ctx, to, subject+": "+body) })
		if err := n.store.Insert(ctx, rec); err != nil {
			return fmt.Errorf("record sms notification: %w", err)
		}
	}

	n.logger.Info("booking notification processed",
		"booking_id", evt.BookingID,
		"event_type", meta.EventType,
		"emails", len(evt.PlayerEmails),
		"phones", len(evt.PlayerPhones),
	)
	return nil
}

func (n *Notifier) deliver(rec *storage.Notification, provider string, send func() error) {
	if err := send(); err != nil {
		rec.Status = storage.StatusFailed
		rec.Error = err.Error()
		n.logger.Error("notification send failed", "err", err, "channel", rec.Channel, "booking_id", rec.BookingID)
		return
	}
	rec.Status = storage.StatusSent
	rec.Provider = provider
}

func (n *Notifier) render(eventType string, evt bookingEvent) (string, string, bool) {
	when := fmt.Sprintf("%s from %s to %s", evt.Date, evt.StartTime, evt.EndTime)
	var subject, body string
	switch eventType {
	case EventBooked:
		if strings.EqualFold(evt.Status, "PENDING") {
			subject = "Court booking received"
			body = fmt.Sprintf("Your booking on court %s for %s is pending confirmation.", evt.CourtID, when)
		} else {
			subject = "Court booking confirmed"
			body = fmt.Sprintf("Your booking on court %s is confirmed for %s.", evt.CourtID, when)
		}
	case EventUpdated:
		subject = "Court booking changed"
		body = fmt.Sprintf("Your booking is now on court %s, %s.", evt.CourtID, when)
	case EventCancelled:
		subject = "Court booking cancelled"
		body = fmt.Sprintf("Your booking on court %s for %s was cancelled.", evt.CourtID, when)
		if r := strings.TrimSpace(evt.Reason); r != "" {
			body += " Reason: " + r
		}
	default:
		return "", "", false
	}
	if n.venue != "" {
		subject = fmt.Sprintf("[%s] %s", n.venue, subject)
	}
	return subject, body, true
}

func unique(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[strings.ToLower(v)] {
			continue
		}
		seen[strings.ToLower(v)] = true
		out = append(out, v)
	}
	return out
}
