package component

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"actornet/internal/message"
	"actornet/internal/packet"
	"actornet/pcall"
	"actornet/session"
	"actornet/session/sessiontest"
)

type recordComponent struct {
	name  string
	log   *[]string
	claim uint32
	boom  bool
}

func (c *recordComponent) Name() string { return c.name }

func (c *recordComponent) Init() {
	if c.boom {
		panic("init failed")
	}
	*c.log = append(*c.log, c.name+".Init")
}

func (c *recordComponent) Shutdown() { *c.log = append(*c.log, c.name+".Shutdown") }

func (c *recordComponent) OnSessionConnect(session.Session) {
	*c.log = append(*c.log, c.name+".Connect")
}

func (c *recordComponent) OnSessionDisconnect(session.Session) {
	*c.log = append(*c.log, c.name+".Disconnect")
}

func (c *recordComponent) OnTick(time.Time) { *c.log = append(*c.log, c.name+".Tick") }

func (c *recordComponent) OnReceive(_ session.Session, _ packet.Type, msg *message.Message) bool {
	*c.log = append(*c.log, c.name+".Receive")
	return msg.ID == c.claim
}

// passive has neither a tick nor a receive hook.
type passive struct{ log *[]string }

func (p passive) Name() string                        { return "passive" }
func (p passive) Init()                               {}
func (p passive) Shutdown()                           {}
func (p passive) OnSessionConnect(session.Session)    {}
func (p passive) OnSessionDisconnect(session.Session) {}

func newHub(t *testing.T) (*Components, *[]string) {
	t.Helper()
	var log []string
	cs := NewComponents(nil)
	for _, c := range []Component{
		&recordComponent{name: "a", log: &log, claim: 1},
		passive{log: &log},
		&recordComponent{name: "b", log: &log, claim: 2},
	} {
		if err := cs.Register(c); err != nil {
			t.Fatal(err)
		}
	}
	return cs, &log
}

func expect(t *testing.T, log *[]string, want ...string) {
	t.Helper()
	if !reflect.DeepEqual(*log, want) {
		t.Fatalf("calls = %v, want %v", *log, want)
	}
	*log = nil
}

func TestLifecycleOrder(t *testing.T) {
	cs, log := newHub(t)
	if err := cs.Start(); err != nil {
		t.Fatal(err)
	}
	expect(t, log, "a.Init", "b.Init")
	if err := cs.Start(); !errors.Is(err, ErrStarted) {
		t.Fatalf("second start: %v", err)
	}

	s := session.NewSession(&sessiontest.Recorder{}, 0, session.Version037)
	cs.OnSessionConnect(s)
	expect(t, log, "a.Connect", "b.Connect")
	cs.OnSessionDisconnect(s)
	expect(t, log, "b.Disconnect", "a.Disconnect")

	cs.Tick(time.Now())
	expect(t, log, "a.Tick", "b.Tick")

	if err := cs.Stop(); err != nil {
		t.Fatal(err)
	}
	expect(t, log, "b.Shutdown", "a.Shutdown")
	if err := cs.Stop(); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("second stop: %v", err)
	}
}

func TestReceiveStopsAtFirstClaim(t *testing.T) {
	cs, log := newHub(t)
	s := session.NewSession(&sessiontest.Recorder{}, 0, session.Version037)

	if !cs.Receive(s, packet.RPC, &message.Message{ID: 1}) {
		t.Fatal("message 1 unclaimed")
	}
	expect(t, log, "a.Receive")

	if !cs.Receive(s, packet.RPC, &message.Message{ID: 2}) {
		t.Fatal("message 2 unclaimed")
	}
	expect(t, log, "a.Receive", "b.Receive")

	if cs.Receive(s, packet.RPC, &message.Message{ID: 3}) {
		t.Fatal("message 3 claimed")
	}
}

func TestRegistry(t *testing.T) {
	cs, _ := newHub(t)
	if err := cs.Register(passive{}); err == nil {
		t.Fatal("duplicate name accepted")
	}
	if got := cs.GetComponentNames(); !reflect.DeepEqual(got, []string{"a", "passive", "b"}) {
		t.Fatalf("names = %v", got)
	}
	if _, ok := cs.GetComponent("b"); !ok || !cs.HasComponent("a") {
		t.Fatal("lookup failed")
	}
	if err := cs.Unregister("passive"); err != nil {
		t.Fatal(err)
	}
	if cs.HasComponent("passive") {
		t.Fatal("unregistered component still present")
	}
	if err := cs.Unregister("passive"); err == nil {
		t.Fatal("unregister of missing component succeeded")
	}
}

func TestStartRollsBackOnPanic(t *testing.T) {
	var log []string
	cs := NewComponents(nil)
	cs.Register(&recordComponent{name: "a", log: &log})
	cs.Register(&recordComponent{name: "bad", log: &log, boom: true})

	err := cs.Start()
	if !errors.Is(err, pcall.ErrPanic) {
		t.Fatalf("err = %v, want ErrPanic", err)
	}
	expect(t, &log, "a.Init", "a.Shutdown")
	if cs.IsStarted() {
		t.Fatal("hub marked started")
	}
}

func TestRegisterAfterStart(t *testing.T) {
	cs, log := newHub(t)
	cs.Start()
	*log = nil
	if err := cs.Register(&recordComponent{name: "late", log: log}); err != nil {
		t.Fatal(err)
	}
	expect(t, log, "late.Init")
	if err := cs.Register(&recordComponent{name: "late2", log: log, boom: true}); err == nil {
		t.Fatal("failing init accepted")
	}
	if cs.HasComponent("late2") {
		t.Fatal("failed component left registered")
	}
}
