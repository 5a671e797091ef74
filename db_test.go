package main

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/robalobadob/riskclock/internal/game"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := openDB(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("openDB: %v", err)
	}
	defer db.Close()

	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte(`CREATE TABLE a (id TEXT PRIMARY KEY);`)},
		"002_b.sql": {Data: []byte(`CREATE TABLE b (id TEXT PRIMARY KEY);`)},
		"README.md": {Data: []byte(`not a migration`)},
	}
	for i := 0; i < 2; i++ {
		if err := migrate(db, fsys); err != nil {
			t.Fatalf("migrate run %d: %v", i, err)
		}
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("recorded %d migrations, want 2", n)
	}
}

func TestMigrateRollsBackBrokenFile(t *testing.T) {
	db, err := openDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("openDB: %v", err)
	}
	defer db.Close()

	fsys := fstest.MapFS{"001_bad.sql": {Data: []byte(`CREATE TABLE;`)}}
	if err := migrate(db, fsys); err == nil {
		t.Fatal("broken migration should fail")
	}
	var n int
	_ = db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n)
	if n != 0 {
		t.Fatalf("broken migration was recorded")
	}
}

func TestOpenLedger(t *testing.T) {
	ctx := context.Background()
	f := game.Finish{Winner: game.Player{ID: "x", Name: "ana"}, Reason: game.FinishForfeit}

	mem, done, err := openLedger("")
	if err != nil {
		t.Fatal(err)
	}
	done()
	if err := mem.Record(ctx, f); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "ledger.db")
	st, done, err := openLedger(path)
	if err != nil {
		t.Fatalf("open sqlite ledger: %v", err)
	}
	if err := st.Record(ctx, f); err != nil {
		t.Fatalf("record: %v", err)
	}
	done()

	// reopening keeps history and skips applied migrations
	st, done, err = openLedger(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer done()
	got, err := st.Recent(ctx, 5)
	if err != nil || len(got) != 1 || got[0].WinnerName != "ana" {
		t.Fatalf("history after reopen: %v %v", got, err)
	}
}
