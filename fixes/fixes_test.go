package fixes

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"actornet/actors"
	"actornet/internal/anim"
	"actornet/session"
	"actornet/session/sessiontest"
)

func TestTracksAppliedClips(t *testing.T) {
	sessions := session.NewSessionPool(4)
	svc := &actors.Services{}
	fx := NewComponent(nil)
	svc.SetFixes(fx)
	comp := actors.NewComponent(sessions, nil, svc, nil, 0)

	s, _ := sessions.NewSession(&sessiontest.Recorder{}, session.Version037)
	comp.OnSessionConnect(s)
	fx.OnSessionConnect(s)

	a, _ := comp.Create(0, mgl32.Vec3{}, 0)
	a.StreamInForPlayer(s)

	d := anim.New("PED", "IDLE_CHAT")
	d.Loop = true
	a.ApplyAnimation(d)

	p, ok := fx.Player(s)
	if !ok {
		t.Fatal("no record for session")
	}
	if got, ok := p.Applied(a.ID()); !ok || got != d {
		t.Fatalf("applied = %+v, %v", got, ok)
	}

	a.ClearAnimations()
	if _, ok := p.Applied(a.ID()); ok {
		t.Fatal("clear did not drop the record")
	}

	fx.OnSessionDisconnect(s)
	if _, ok := fx.Player(s); ok {
		t.Fatal("record kept after disconnect")
	}
}

func TestLoopingClipRecordedOnStreamIn(t *testing.T) {
	sessions := session.NewSessionPool(4)
	svc := &actors.Services{}
	fx := NewComponent(nil)
	svc.SetFixes(fx)
	comp := actors.NewComponent(sessions, nil, svc, nil, 0)

	a, _ := comp.Create(0, mgl32.Vec3{}, 0)
	d := anim.New("PED", "IDLE_CHAT")
	d.Freeze = true
	a.ApplyAnimation(d)

	s, _ := sessions.NewSession(&sessiontest.Recorder{}, session.Version037)
	comp.OnSessionConnect(s)
	fx.OnSessionConnect(s)
	a.StreamInForPlayer(s)

	p, _ := fx.Player(s)
	if p.Len() != 1 {
		t.Fatalf("records = %d, want 1", p.Len())
	}
}
