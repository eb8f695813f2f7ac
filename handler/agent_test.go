package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"actornet/actors"
	"actornet/client"
	"actornet/component"
	"actornet/internal/bitstream"
	"actornet/internal/loop"
	"actornet/internal/netcode"
	"actornet/internal/packet"
	"actornet/session"
)

type harness struct {
	url      string
	http     string
	loop     *loop.Loop
	sessions session.SessionPool
	actors   *actors.Component
	received chan packet.Type
}

func newHarness(t *testing.T, maxPlayers int) *harness {
	t.Helper()
	sessions := session.NewSessionPool(maxPlayers)
	ac := actors.NewComponent(sessions, nil, nil, nil, 0)
	hub := component.NewComponents(nil)
	if err := hub.Register(ac); err != nil {
		t.Fatal(err)
	}
	if err := hub.Start(); err != nil {
		t.Fatal(err)
	}

	l := loop.New(10*time.Millisecond, hub.Tick, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)

	h := &harness{loop: l, sessions: sessions, actors: ac, received: make(chan packet.Type, 64)}
	srv := httptest.NewServer(NewAgentHandler(Options{
		Sessions:   sessions,
		Components: hub,
		Loop:       l,
		OnPacket: func(typ packet.Type) {
			select {
			case h.received <- typ:
			default:
			}
		},
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-l.Done()
	})
	h.http = srv.URL
	h.url = "ws" + strings.TrimPrefix(srv.URL, "http")
	return h
}

func (h *harness) dial(t *testing.T, c *client.Connector, v session.ClientVersion) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Start(ctx, h.url, v); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (h *harness) session(t *testing.T) session.Session {
	t.Helper()
	var s session.Session
	eventually(t, "session", func() bool {
		h.loop.Call(context.Background(), func() error {
			if all := h.sessions.Sessions(); len(all) == 1 {
				if _, ok := h.actors.PlayerData(all[0]); ok {
					s = all[0]
				}
			}
			return nil
		})
		return s != nil
	})
	return s
}

func TestShowAndDamageOverWebsocket(t *testing.T) {
	h := newHarness(t, 4)
	shown := make(chan netcode.Frame, 1)
	c := client.NewConnector(nil)
	c.On("ShowActorForPlayer", func(f netcode.Frame) {
		select {
		case shown <- f:
		default:
		}
	})
	h.dial(t, c, session.Version03DL)

	s := h.session(t)
	if s.Version() != session.Version03DL {
		t.Fatalf("version = %v", s.Version())
	}

	damaged := make(chan float32, 1)
	var id uint16
	err := h.loop.Call(context.Background(), func() error {
		// spawned and in range, so the streaming pass keeps the actor in
		s.SetSpawned(true)
		a, err := h.actors.Create(10, mgl32.Vec3{1, 2, 3}, 0)
		if err != nil {
			return err
		}
		a.SetInvulnerable(false)
		a.StreamInForPlayer(s)
		id = uint16(a.ID())
		h.actors.AddEventHandler(&actors.EventHandlerFuncs{
			Damage: func(_ session.Session, _ *actors.Actor, amount float32, _ uint32, _ actors.BodyPart) {
				select {
				case damaged <- amount:
				default:
				}
			},
		})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	select {
	case f := <-shown:
		got, _ := bitstream.NewReader(f.Payload).ReadUint16()
		if got != id {
			t.Fatalf("shown actor %d, want %d", got, id)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no show packet")
	}

	if err := c.Send(netcode.OnPlayerDamageActor{ActorID: id, Damage: 33, WeaponID: 24, Bodypart: 9}); err != nil {
		t.Fatal(err)
	}
	select {
	case amount := <-damaged:
		if amount != 33 {
			t.Fatalf("amount = %v", amount)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("damage never dispatched")
	}
	if typ := <-h.received; typ != packet.RPC {
		t.Fatalf("observed %v", typ)
	}
}

func TestDisconnectFreesSession(t *testing.T) {
	h := newHarness(t, 4)
	c := client.NewConnector(nil)
	h.dial(t, c, session.Version037)
	h.session(t)

	c.Close()
	eventually(t, "session removal", func() bool { return h.sessions.GetSessionCount() == 0 })
}

func TestFullServerKicks(t *testing.T) {
	h := newHarness(t, 1)
	first := client.NewConnector(nil)
	h.dial(t, first, session.Version037)
	h.session(t)

	kicked := make(chan string, 1)
	second := client.NewConnector(nil)
	second.OnKick(func(reason string) { kicked <- reason })
	h.dial(t, second, session.Version037)
	select {
	case reason := <-kicked:
		if reason == "" {
			t.Fatal("empty kick reason")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("second client not kicked")
	}
	<-second.Done()
}

func TestBadVersionRejected(t *testing.T) {
	h := newHarness(t, 1)
	resp, err := http.Get(h.http + "/?version=0.2X")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
