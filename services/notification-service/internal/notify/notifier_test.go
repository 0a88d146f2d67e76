package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/md-rashed-zaman/courtbook/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

type sentMail struct{ to, subject, body string }

type fakeEmail struct {
	sent []sentMail
	fail map[string]bool
}

func (f *fakeEmail) ProviderID() string { return "fake-smtp" }

func (f *fakeEmail) Send(to, subject, body string) error {
	if f.fail[to] {
		return errors.New("mailbox unavailable")
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

type fakeSMS struct{ sent []string }

func (f *fakeSMS) ProviderID() string { return "fake-sms" }

func (f *fakeSMS) Send(_ context.Context, to, body string) error {
	f.sent = append(f.sent, to+"|"+body)
	return nil
}

type memRecorder struct {
	rows []storage.Notification
	err  error
}

func (m *memRecorder) Insert(_ context.Context, n storage.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, n)
	return nil
}

func event(topic, body string) kafka.Message {
	return kafka.Message{
		Topic:   topic,
		Key:     []byte("b-1"),
		Value:   []byte(body),
		Headers: []kafka.Header{{Key: "event_id", Value: []byte("evt-1")}, {Key: "event_type", Value: []byte(topic)}},
	}
}

func newNotifier(mail *fakeEmail, text *fakeSMS, rec *memRecorder) *Notifier {
	return New(mail, text, rec, slog.New(slog.DiscardHandler), "Padel Club")
}

func TestHandle_BookedNotifiesEveryContact(t *testing.T) {
	mail, text, rec := &fakeEmail{}, &fakeSMS{}, &memRecorder{}
	body := `{"booking_id":"b-1","court_id":"court-1","date":"2024-06-15","start_time":"10:00","end_time":"11:30","status":"CONFIRMED",
		"player_emails":["ana@example.com","ANA@example.com","leo@example.com"],"player_phones":["+34600000000"]}`

	if err := newNotifier(mail, text, rec).Handle(context.Background(), event(EventBooked, body)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(mail.sent) != 2 {
		t.Fatalf("expected duplicate addresses collapsed, got %+v", mail.sent)
	}
	if mail.sent[0].subject != "[Padel Club] Court booking confirmed" {
		t.Fatalf("unexpected subject %q", mail.sent[0].subject)
	}
	if !strings.Contains(mail.sent[0].body, "2024-06-15 from 10:00 to 11:30") {
		t.Fatalf("unexpected body %q", mail.sent[0].body)
	}
	if len(text.sent) != 1 || !strings.HasPrefix(text.sent[0], "+34600000000|") {
		t.Fatalf("unexpected sms %v", text.sent)
	}
	if len(rec.rows) != 3 {
		t.Fatalf("expected 3 recorded notifications, got %d", len(rec.rows))
	}
	for _, row := range rec.rows {
		if row.Status != storage.StatusSent || row.BookingID != "b-1" || row.EventID != "evt-1" || row.EventType != EventBooked {
			t.Fatalf("unexpected row %+v", row)
		}
	}
	if rec.rows[2].Channel != "sms" || rec.rows[2].Provider != "fake-sms" {
		t.Fatalf("unexpected sms row %+v", rec.rows[2])
	}
}

func TestHandle_PendingAndCancelledWording(t *testing.T) {
	mail, rec := &fakeEmail{}, &memRecorder{}
	n := newNotifier(mail, &fakeSMS{}, rec)

	pending := `{"booking_id":"b-1","court_id":"court-1","date":"2024-06-15","start_time":"10:00","end_time":"11:30","status":"PENDING","player_emails":["ana@example.com"]}`
	if err := n.Handle(context.Background(), event(EventBooked, pending)); err != nil {
		t.Fatal(err)
	}
	cancelled := `{"booking_id":"b-1","court_id":"court-1","date":"2024-06-15","start_time":"10:00","end_time":"11:30","status":"CANCELLED","reason":"rain","player_emails":["ana@example.com"]}`
	if err := n.Handle(context.Background(), event(EventCancelled, cancelled)); err != nil {
		t.Fatal(err)
	}

	if !strings.HasSuffix(mail.sent[0].subject, "Court booking received") {
		t.Fatalf("unexpected pending subject %q", mail.sent[0].subject)
	}
	if !strings.HasSuffix(mail.sent[1].subject, "Court booking cancelled") || !strings.HasSuffix(mail.sent[1].body, "Reason: rain") {
		t.Fatalf("unexpected cancellation mail %+v", mail.sent[1])
	}
}

func TestHandle_RecordsFailedDelivery(t *testing.T) {
	mail := &fakeEmail{fail: map[string]bool{"ana@example.com": true}}
	rec := &memRecorder{}
	body := `{"booking_id":"b-1","court_id":"court-1","date":"2024-06-15","player_emails":["ana@example.com"]}`

	if err := newNotifier(mail, &fakeSMS{}, rec).Handle(context.Background(), event(EventUpdated, body)); err != nil {
		t.Fatalf("expected failed delivery not to fail the handler, got %v", err)
	}
	if len(rec.rows) != 1 || rec.rows[0].Status != storage.StatusFailed || rec.rows[0].Error != "mailbox unavailable" || rec.rows[0].Provider != "" {
		t.Fatalf("unexpected rows %+v", rec.rows)
	}
}

func TestHandle_IgnoresUnusableEvents(t *testing.T) {
	mail, rec := &fakeEmail{}, &memRecorder{}
	n := newNotifier(mail, &fakeSMS{}, rec)

	for name, msg := range map[string]kafka.Message{
		"malformed":      event(EventBooked, `not json`),
		"missing fields": event(EventBooked, `{"court_id":"court-1"}`),
		"completed":      event("booking.court.completed.v1", `{"booking_id":"b-1","court_id":"court-1","date":"2024-06-15","player_emails":["ana@example.com"]}`),
	} {
		if err := n.Handle(context.Background(), msg); err != nil {
			t.Fatalf("%s: expected nil, got %v", name, err)
		}
	}
	if len(mail.sent) != 0 || len(rec.rows) != 0 {
		t.Fatalf("expected nothing sent, got %+v %+v", mail.sent, rec.rows)
	}
}

func TestHandle_ReturnsRecorderError(t *testing.T) {
	boom := errors.New("db down")
	body := `{"booking_id":"b-1","court_id":"court-1","date":"2024-06-15","player_emails":["ana@example.com"]}`
	err := newNotifier(&fakeEmail{}, &fakeSMS{}, &memRecorder{err: boom}).Handle(context.Background(), event(EventBooked, body))
	if !errors.Is(err, boom) {
		t.Fatalf("expected recorder error, got %v", err)
	}
}
