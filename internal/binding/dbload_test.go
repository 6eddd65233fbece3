package binding

import (
	"errors"
	"testing"

	"github.com/gwen-interpreter/gwen/internal/gwenerr"
)

func TestDBLoadStrategyReportsKindAndIsAlwaysLazy(t *testing.T) {
	lb := NewDBLoadStrategy("users", "sqlite3", ":memory:", "SELECT name, role FROM users")
	if !lb.Lazy() {
		t.Fatalf("expected a LoadStrategy binding to always be lazy")
	}
	if lb.Kind() != KindLoadStrategy {
		t.Fatalf("expected KindLoadStrategy, got %v", lb.Kind())
	}
}

func TestDBLoadStrategySurfacesQueryErrorsAsIO(t *testing.T) {
	// Each :memory: DSN opens its own private database, so this
	// connection never sees the "users" table created elsewhere —
	// Resolve must surface that as an error rather than "".
	lb := NewDBLoadStrategy("users", "sqlite3", ":memory:", "SELECT name, role FROM users")
	_, err := lb.Resolve(&fakeEnv{})
	if err == nil {
		t.Fatalf("expected an error querying a table that does not exist in a fresh :memory: connection")
	}
	var gerr *gwenerr.Error
	if !errors.As(err, &gerr) || gerr.Kind != gwenerr.IO {
		t.Fatalf("expected an IO error, got %v", err)
	}
}
