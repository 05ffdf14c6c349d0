package migrations

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(files, "sql")
	if err != nil {
		t.Fatalf("read embedded dir failed: %v", err)
	}
	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected migration file: %s", name)
		}
	}
	if len(ups) == 0 {
		t.Fatalf("no migrations embedded")
	}
	for name := range ups {
		if !downs[name] {
			t.Fatalf("migration %s has no down file", name)
		}
	}
}

func TestEmbeddedMigrationsVersionOrder(t *testing.T) {
	source, err := iofs.New(files, "sql")
	if err != nil {
		t.Fatalf("load source failed: %v", err)
	}
	defer source.Close()

	version, err := source.First()
	if err != nil {
		t.Fatalf("first version failed: %v", err)
	}
	count := 1
	for {
		next, err := source.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			t.Fatalf("next version failed: %v", err)
		}
		if next <= version {
			t.Fatalf("versions not increasing: %d -> %d", version, next)
		}
		version = next
		count++
	}
	if count != 4 {
		t.Fatalf("expected 4 migrations, got %d", count)
	}
}

func TestRunRejectsUnknownDirection(t *testing.T) {
	if err := Run("postgres://127.0.0.1:1/none?sslmode=disable&connect_timeout=1", "sideways", 0); err == nil {
		t.Fatalf("expected error")
	}
}
