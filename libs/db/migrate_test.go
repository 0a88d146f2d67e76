package db

import (
	"testing"
	"testing/fstest"
)

func TestLoadMigrations_SortsSQLFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"002_more.sql": {Data: []byte("ALTER TABLE t ADD COLUMN b INT;")},
		"001_init.sql": {Data: []byte("CREATE TABLE t (a INT);")},
		"README.md":    {Data: []byte("not a migration")},
	}
	got, err := LoadMigrations(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 migrations, got %+v", got)
	}
	if got[0].Version != "001_init.sql" || got[1].Version != "002_more.sql" {
		t.Fatalf("unexpected order: %s, %s", got[0].Version, got[1].Version)
	}
	if got[0].SQL != "CREATE TABLE t (a INT);" {
		t.Fatalf("unexpected body %q", got[0].SQL)
	}
}

func TestLoadMigrations_Empty(t *testing.T) {
	got, err := LoadMigrations(fstest.MapFS{})
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no migrations, got %v, %v", got, err)
	}
}
