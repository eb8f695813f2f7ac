package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"actornet/internal/eventlog"
)

func TestRecordThenQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "events.db")
	idx, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	idx.Record(eventlog.Event{Time: at, Kind: eventlog.KindStreamIn, Actor: 1, Player: 0})
	idx.Record(eventlog.Event{Time: at, Kind: eventlog.KindDamage, Actor: 1, Player: 0, Amount: 46, Weapon: 24, BodyPart: 9})
	idx.Record(eventlog.Event{Time: at, Kind: eventlog.KindStreamIn, Actor: 2, Player: 3})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	idx.Record(eventlog.Event{Kind: eventlog.KindStreamOut})

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("rows = %d", n)
	}

	idx, err = Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	recent, err := idx.Recent(ctx, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Kind != eventlog.KindDamage || recent[0].Amount != 46 || !recent[0].Time.Equal(at) {
		t.Fatalf("recent = %+v", recent)
	}
	all, _ := idx.Recent(ctx, -1, 1)
	if len(all) != 1 || all[0].Actor != 2 {
		t.Fatalf("newest = %+v", all)
	}

	counts, err := idx.CountByKind(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts[eventlog.KindStreamIn] != 2 || counts[eventlog.KindDamage] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("", nil); err == nil {
		t.Fatal("empty path accepted")
	}
}
