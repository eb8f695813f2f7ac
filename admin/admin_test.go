package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl32"

	"actornet/actors"
	"actornet/internal/eventlog"
	"actornet/internal/indexdb"
	"actornet/internal/loop"
	"actornet/internal/metrics"
	"actornet/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	router *gin.Engine
	loop   *loop.Loop
	actors *actors.Component
	index  *indexdb.Index
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sessions := session.NewSessionPool(4)
	ac := actors.NewComponent(sessions, nil, nil, nil, 0)
	l := loop.New(time.Hour, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)

	idx, err := indexdb.Open(filepath.Join(t.TempDir(), "events.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		cancel()
		<-l.Done()
		idx.Close()
	})
	r := NewRouter(Options{
		Actors:   ac,
		Sessions: sessions,
		Loop:     l,
		Metrics:  metrics.New().Handler(),
		Index:    idx,
	})
	return &fixture{router: r, loop: l, actors: ac, index: idx}
}

func (f *fixture) get(t *testing.T, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil {
		resp := Response{Data: out}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: %v: %s", path, err, rec.Body.String())
		}
	}
	return rec.Code
}

func TestHealthAndActors(t *testing.T) {
	f := newFixture(t)
	var a *actors.Actor
	f.loop.Call(context.Background(), func() error {
		var err error
		a, err = f.actors.Create(12, mgl32.Vec3{1, 2, 3}, 45)
		if err == nil {
			a.SetName("Guard")
		}
		return err
	})
	if a == nil {
		t.Fatal("create failed")
	}

	var health map[string]int
	if code := f.get(t, "/healthz", &health); code != http.StatusOK || health["actors"] != 1 {
		t.Fatalf("health %d %v", code, health)
	}

	var list []ActorView
	if code := f.get(t, "/actors", &list); code != http.StatusOK || len(list) != 1 {
		t.Fatalf("list %d %v", code, list)
	}
	if list[0].Name != "Guard" || list[0].Skin != 12 || list[0].Position.Y != 2 {
		t.Fatalf("view = %+v", list[0])
	}

	var one ActorView
	path := "/actors/" + strconv.FormatUint(uint64(a.Handle()), 10)
	if code := f.get(t, path, &one); code != http.StatusOK || one.Handle != uint32(a.Handle()) {
		t.Fatalf("get %d %+v", code, one)
	}
	if code := f.get(t, "/actors/99999", nil); code != http.StatusNotFound {
		t.Fatalf("missing actor code = %d", code)
	}
	if code := f.get(t, "/actors/abc", nil); code != http.StatusBadRequest {
		t.Fatalf("bad handle code = %d", code)
	}
}

func TestMetricsMounted(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
		t.Fatalf("metrics %d", rec.Code)
	}
}

func TestEvents(t *testing.T) {
	f := newFixture(t)
	f.index.Record(eventlog.Event{Time: time.Now(), Kind: eventlog.KindDamage, Actor: 3, Player: 1, Amount: 10})
	f.index.Record(eventlog.Event{Time: time.Now(), Kind: eventlog.KindStreamIn, Actor: 4, Player: 1})

	var evs []eventlog.Event
	deadline := time.Now().Add(2 * time.Second)
	for {
		evs = nil
		if code := f.get(t, "/events?actor=3", &evs); code != http.StatusOK {
			t.Fatalf("events code = %d", code)
		}
		if len(evs) == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(evs) != 1 || evs[0].Kind != eventlog.KindDamage || evs[0].Amount != 10 {
		t.Fatalf("events = %+v", evs)
	}
	if code := f.get(t, "/events?limit=0", nil); code != http.StatusBadRequest {
		t.Fatalf("bad limit code = %d", code)
	}
}

func TestLoopStopped(t *testing.T) {
	sessions := session.NewSessionPool(1)
	l := loop.New(time.Hour, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	cancel()
	<-l.Done()
	r := NewRouter(Options{Actors: actors.NewComponent(sessions, nil, nil, nil, 0), Sessions: sessions, Loop: l})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/actors", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d", rec.Code)
	}
}
