package email

import (
	"strings"
	"testing"
	"time"
)

func TestBuildMessage(t *testing.T) {
	sentAt := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	msg := buildMessage("club@example.com", "ana@example.com", "Court booking confirmed", "line one\nline two", sentAt)

	for _, want := range []string{
		"From: club@example.com\r\n",
		"To: ana@example.com\r\n",
		"Subject: Court booking confirmed\r\n",
		"Date: Sat, 15 Jun 2024 09:00:00 +0000\r\n",
		"\r\n\r\nline one\r\nline two\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected message to contain %q, got %q", want, msg)
		}
	}
}

func TestSMTPSender_RequiresHost(t *testing.T) {
	s := NewSMTPSender("", "1025", "")
	if s.from != "no-reply@courtbook.local" {
		t.Fatalf("unexpected default sender %q", s.from)
	}
	if err := s.Send("ana@example.com", "subject", "body"); err == nil {
		t.Fatal("expected error without smtp host")
	}
}
