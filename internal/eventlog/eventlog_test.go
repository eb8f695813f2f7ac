package eventlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"actornet/actors"
	"actornet/session"
	"actornet/session/sessiontest"
)

type memSink []Event

func (m *memSink) Record(e Event) { *m = append(*m, e) }

func TestWriterRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "actors")
	clock := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	w.Write(Event{Kind: KindStreamIn, Actor: 1})
	w.Write(Event{Kind: KindStreamOut, Actor: 1})
	clock = clock.Add(2 * time.Minute)
	w.Write(Event{Kind: KindDamage, Actor: 2, Amount: 5})
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	first, err := ReadFile(filepath.Join(dir, "actors-2026-03-01-10.jsonl.zst"))
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 2 || first[0].Kind != KindStreamIn || first[1].Kind != KindStreamOut {
		t.Fatalf("first hour = %+v", first)
	}
	second, err := ReadFile(filepath.Join(dir, "actors-2026-03-01-11.jsonl.zst"))
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 1 || second[0].Amount != 5 {
		t.Fatalf("second hour = %+v", second)
	}
}

func TestHandlerEmitsToSinks(t *testing.T) {
	pool := session.NewSessionPool(2)
	s, _ := pool.NewSession(&sessiontest.Recorder{}, session.Version037)
	ac := actors.NewComponent(pool, nil, nil, nil, 0)
	a, err := ac.Create(0, mgl32.Vec3{}, 0)
	if err != nil {
		t.Fatal(err)
	}

	var a1, a2 memSink
	h := NewHandler(&a1, &a2)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	h.now = func() time.Time { return at }

	h.OnActorStreamIn(a, s)
	h.OnPlayerGiveDamageActor(s, a, 12.5, 31, actors.BodyPartTorso)
	if len(a1) != 2 || len(a2) != 2 {
		t.Fatalf("sinks = %d, %d", len(a1), len(a2))
	}
	want := Event{Time: at.UTC(), Kind: KindDamage, Actor: a.ID(), Player: s.ID(), Amount: 12.5, Weapon: 31, BodyPart: 3}
	if a1[1] != want {
		t.Fatalf("event = %+v", a1[1])
	}
}

func TestJournalRecordAndFlush(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(dir, nil)
	j.Record(Event{Kind: KindStreamIn, Actor: 3, Player: 1})
	if err := j.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}
	files, _ := filepath.Glob(filepath.Join(dir, "actors-*.jsonl.zst"))
	if len(files) != 1 {
		t.Fatalf("files = %v", files)
	}
	st, err := os.Stat(files[0])
	if err != nil || st.Size() == 0 {
		t.Fatalf("journal empty: %v", err)
	}
	events, err := ReadFile(files[0])
	if err != nil || len(events) != 1 || events[0].Actor != 3 {
		t.Fatalf("events = %+v err = %v", events, err)
	}
}
