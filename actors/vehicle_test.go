package actors

import (
	"testing"

	"actornet/internal/bitstream"
	"actornet/internal/message"
	"actornet/internal/netcode"
	"actornet/internal/packet"
	"actornet/session"
)

type fakeVehicle struct {
	id        int
	occupants map[*Actor]bool
}

func (v *fakeVehicle) ID() int              { return v.id }
func (v *fakeVehicle) AddActor(a *Actor)    { v.occupants[a] = true }
func (v *fakeVehicle) RemoveActor(a *Actor) { delete(v.occupants, a) }

type fakeVehicles map[int]*fakeVehicle

func (m fakeVehicles) Get(id int) (Vehicle, bool) {
	v, ok := m[id]
	if !ok {
		return nil, false
	}
	return v, true
}

func newVehicles(ids ...int) fakeVehicles {
	m := fakeVehicles{}
	for _, id := range ids {
		m[id] = &fakeVehicle{id: id, occupants: map[*Actor]bool{}}
	}
	return m
}

func TestPutInVehicleSymmetry(t *testing.T) {
	f := newFixture(t)
	vs := newVehicles(1, 2)
	f.svc.SetVehicles(vs)
	x := f.connect(session.Version037)
	a := f.create(0)
	a.StreamInForPlayer(x)
	x.rec.Reset()

	a.PutInVehicle(vs[1], 0, false)
	if a.Vehicle() != 1 || a.Seat() != 0 || !vs[1].occupants[a] {
		t.Fatalf("vehicle=%d seat=%d occupant=%v", a.Vehicle(), a.Seat(), vs[1].occupants[a])
	}

	a.PutInVehicle(vs[2], 1, true)
	if vs[1].occupants[a] {
		t.Fatal("old vehicle still lists the actor")
	}
	if a.Vehicle() != 2 || a.Seat() != 1 || !vs[2].occupants[a] {
		t.Fatal("move to second vehicle failed")
	}

	a.RemoveFromVehicle(false)
	if a.Vehicle() != InvalidVehicleID || a.Seat() != SeatNone || vs[2].occupants[a] {
		t.Fatal("remove did not clear both sides")
	}
	assertNames(t, x, "ActorGoInVehicleForPlayer", "PutActorInVehicleForPlayer", "RemoveActorFromVehicleForPlayer")

	r := bitstream.NewReader(x.rec.Frames()[2].Payload)
	r.ReadUint32()
	r.ReadUint16()
	if force, _ := r.ReadBool8(); force {
		t.Fatal("force flag should be false")
	}
}

func TestVehicleLinkWithoutSubsystem(t *testing.T) {
	f := newFixture(t)
	a := f.create(0)
	v := &fakeVehicle{id: 4, occupants: map[*Actor]bool{}}
	a.PutInVehicle(v, 2, true)
	if a.Vehicle() != 4 || !v.occupants[a] {
		t.Fatal("put in vehicle failed")
	}
	// no subsystem to look the old vehicle up in
	a.RemoveFromVehicle(true)
	if a.Vehicle() != InvalidVehicleID {
		t.Fatal("vehicle not reset")
	}
}

// Scenario D
func TestReleaseLeavesVehicle(t *testing.T) {
	f := newFixture(t)
	vs := newVehicles(7)
	f.svc.SetVehicles(vs)
	a := f.create(0)
	a.PutInVehicle(vs[7], 0, false)

	f.comp.Release(a.Handle())
	if len(vs[7].occupants) != 0 {
		t.Fatal("destroyed actor still occupies the vehicle")
	}
}

func damage(actorID uint16) *message.Message {
	w := bitstream.NewWriter()
	w.WriteBit(false)
	w.WriteUint16(actorID)
	w.WriteFloat32(25)
	w.WriteUint32(24)
	w.WriteUint32(uint32(BodyPartHead))
	return &message.Message{Channel: packet.ChannelSyncRPC, ID: netcode.RPCOnPlayerDamageActor, Data: w.Bytes()}
}

func TestDamageReport(t *testing.T) {
	f := newFixture(t)
	x := f.connect(session.Version037)
	a := f.create(0)

	type hit struct {
		from   int
		amount float32
		part   BodyPart
	}
	var hits []hit
	f.comp.AddEventHandler(&EventHandlerFuncs{
		Damage: func(s session.Session, _ *Actor, amount float32, _ uint32, part BodyPart) {
			hits = append(hits, hit{s.ID(), amount, part})
		},
	})

	// not streamed in for the reporter
	a.SetInvulnerable(false)
	if !f.comp.OnReceive(x, packet.RPC, damage(uint16(a.ID()))) {
		t.Fatal("damage report not claimed")
	}
	if len(hits) != 0 {
		t.Fatal("damage from a client that cannot see the actor")
	}

	a.StreamInForPlayer(x)
	f.comp.OnReceive(x, packet.RPC, damage(uint16(a.ID())))
	if len(hits) != 1 || hits[0] != (hit{x.ID(), 25, BodyPartHead}) {
		t.Fatalf("hits = %+v", hits)
	}

	a.SetInvulnerable(true)
	f.comp.OnReceive(x, packet.RPC, damage(uint16(a.ID())))
	if len(hits) != 1 {
		t.Fatal("invulnerable actor took damage")
	}

	// unknown actor
	f.comp.OnReceive(x, packet.RPC, damage(999))
	if len(hits) != 1 {
		t.Fatal("damage to missing actor dispatched")
	}
}

func TestMalformedDamageDropped(t *testing.T) {
	f := newFixture(t)
	x := f.connect(session.Version037)
	a := f.create(0)
	a.SetInvulnerable(false)
	a.StreamInForPlayer(x)

	called := false
	f.comp.AddEventHandler(&EventHandlerFuncs{
		Damage: func(session.Session, *Actor, float32, uint32, BodyPart) { called = true },
	})
	msg := damage(uint16(a.ID()))
	msg.Data = msg.Data[:len(msg.Data)-3]
	if !f.comp.OnReceive(x, packet.RPC, msg) {
		t.Fatal("malformed damage report not claimed")
	}
	if called {
		t.Fatal("malformed report dispatched")
	}
}

func TestInboundVehiclePacketsDropped(t *testing.T) {
	f := newFixture(t)
	x := f.connect(session.Version037)
	w := bitstream.NewWriter()
	w.WriteUint32(netcode.OpPutActorInVehicle)
	w.WriteUint16(0)
	msg := &message.Message{Channel: packet.ChannelSyncPacket, ID: netcode.CustomPacket, Data: w.Bytes()}
	if !f.comp.OnReceive(x, packet.Raw, msg) {
		t.Fatal("actor custom packet not claimed")
	}

	other := &message.Message{ID: 1}
	if f.comp.OnReceive(x, packet.RPC, other) {
		t.Fatal("foreign RPC claimed")
	}
}
