package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"actornet/bridge"
	"actornet/client"
	"actornet/internal/config"
	"actornet/internal/netcode"
	"actornet/session"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	chdir(t, t.TempDir())
	src, err := config.NewSource("")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := src.Load()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Server.ClientAddr = "127.0.0.1:0"
	cfg.Server.BridgeAddr = "127.0.0.1:0"
	cfg.Server.AdminAddr = "127.0.0.1:0"
	cfg.Server.TickRate = 10 * time.Millisecond
	cfg.Actors.StreamRate = 10 * time.Millisecond
	cfg.Events.Dir = "events"
	cfg.Events.IndexPath = "index/events.db"
	return cfg
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServerEndToEnd(t *testing.T) {
	lifetime := session.NewLifetime()
	connected := make(chan int, 1)
	closed := make(chan int, 1)
	lifetime.OnConnect(func(s session.Session) { connected <- s.ID() })
	lifetime.OnClosed(func(s session.Session) { closed <- s.ID() })

	s := New(Options{Config: testConfig(t), Lifetime: lifetime})
	if err := s.Startup(); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	addrs := s.Addrs()

	cc, err := grpc.NewClient(addrs.Bridge.String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatal(err)
	}
	defer cc.Close()
	natives := bridge.NewClient(cc)

	shown := make(chan netcode.Frame, 4)
	c := client.NewConnector(nil)
	c.On("ShowActorForPlayer", func(f netcode.Frame) {
		select {
		case shown <- f:
		default:
		}
	})
	if err := c.Start(ctx, "ws://"+addrs.Client.String()+"/ws", session.Version037); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	select {
	case id := <-connected:
		if id != 0 {
			t.Fatalf("connect hook saw session %d", id)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("connect hook never ran")
	}
	eventually(t, "session", func() bool {
		v, err := natives.Call(ctx, "GetPlayerCount")
		return err == nil && v.GetNumberValue() == 1
	})
	if _, err := natives.Call(ctx, "SetPlayerSpawned", 0, true); err != nil {
		t.Fatal(err)
	}
	if _, err := natives.Call(ctx, "CreateActor", 0, bridge.Vec(5, 5, 0), 0); err != nil {
		t.Fatal(err)
	}

	select {
	case <-shown:
	case <-time.After(3 * time.Second):
		t.Fatal("actor never streamed in")
	}

	resp, err := http.Get("http://" + addrs.Admin.String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	var health struct {
		Data struct {
			Actors   int `json:"actors"`
			Sessions int `json:"sessions"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatal(err)
	}
	if health.Data.Actors != 1 || health.Data.Sessions != 1 {
		t.Fatalf("health = %s", body)
	}

	c.Close()
	select {
	case <-closed:
	case <-time.After(3 * time.Second):
		t.Fatal("close hook never ran")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestStartupRejectsBusyAddress(t *testing.T) {
	first := New(Options{Config: testConfig(t)})
	if err := first.Startup(); err != nil {
		t.Fatal(err)
	}
	defer first.closeListeners()
	defer first.index.Close()

	cfg := testConfig(t)
	cfg.Server.AdminAddr = first.Addrs().Admin.String()
	if err := New(Options{Config: cfg}).Startup(); err == nil {
		t.Fatal("bound an address already in use")
	}
}

// chdir changes the working directory for the duration of the test,
// like testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
