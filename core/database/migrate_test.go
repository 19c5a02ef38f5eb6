package database

import (
	"strings"
	"testing"
)

func TestEmbeddedMigrationsListed(t *testing.T) {
	files := listMigrationFiles(migrationsFS)
	if len(files) == 0 {
		t.Fatal("expected embedded up migrations")
	}
	if files[0] != "000001_bot_sessions.up.sql" {
		t.Fatalf("unexpected first migration %q", files[0])
	}
	data, err := migrationsFS.ReadFile("migrations/" + files[0])
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if !strings.Contains(string(data), "bot_sessions") {
		t.Fatalf("migration does not create bot_sessions: %s", data)
	}
}

func TestCountApplied(t *testing.T) {
	files := []string{"000001_a.up.sql", "000002_b.up.sql", "000003_c.up.sql"}
	if got := countApplied(files, 0, 3); got != 3 {
		t.Fatalf("countApplied(0,3) = %d", got)
	}
	if got := countApplied(files, 1, 2); got != 1 {
		t.Fatalf("countApplied(1,2) = %d", got)
	}
	if got := countApplied(files, 3, 3); got != 0 {
		t.Fatalf("countApplied(3,3) = %d", got)
	}
}

func TestConfigURLAndDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "p@ss", Name: "shop"}
	if got := cfg.URL(); got != "postgres://bot:p%40ss@db:5432/shop?sslmode=disable" {
		t.Fatalf("unexpected url %s", got)
	}
	if !strings.Contains(cfg.DSN(), "sslmode=disable") {
		t.Fatalf("dsn must default sslmode: %s", cfg.DSN())
	}
}
