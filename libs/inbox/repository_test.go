package inbox

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})) {
		t.Fatal("expected wrapped unique violation to be detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23P01"}) {
		t.Fatal("expected exclusion violation not to count as duplicate")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Fatal("expected plain error not to count as duplicate")
	}
}
