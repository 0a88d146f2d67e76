package migrations

import (
	"strings"
	"testing"

	"github.com/md-rashed-zaman/courtbook/libs/db"
)

func TestSchemaDefinesTables(t *testing.T) {
	all, err := db.LoadMigrations(files)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(all) == 0 {
		t.Fatal("expected embedded migrations")
	}
	for _, want := range []string{"notifications", "inbox_events"} {
		if !strings.Contains(all[0].SQL, want) {
			t.Fatalf("expected schema to define %s", want)
		}
	}
}
