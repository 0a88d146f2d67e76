package migrations

import (
	"strings"
	"testing"

	"github.com/md-rashed-zaman/courtbook/libs/db"
)

func TestLoad_OrderedAndComplete(t *testing.T) {
	all, err := db.LoadMigrations(files)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(all) == 0 || all[0].Version != "001_init.sql" {
		t.Fatalf("expected 001_init.sql first, got %+v", all)
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Version >= all[i].Version {
			t.Fatalf("migrations out of order: %s before %s", all[i-1].Version, all[i].Version)
		}
	}
	schema := all[0].SQL
	for _, want := range []string{"bookings_no_overlap", "outbox_events", "inbox_events", "bookings_idempotency_idx"} {
		if !strings.Contains(schema, want) {
			t.Fatalf("expected schema to define %s", want)
		}
	}
}
