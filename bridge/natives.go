package bridge

import (
	"github.com/go-gl/mathgl/mgl32"

	"actornet/actors"
	"actornet/internal/anim"
	"actornet/internal/pool"
	"actornet/session"
	"actornet/vehicles"
)

// Natives is the script API. Every exported method is callable by name
// through the bridge. Parameters of type *actors.Actor, session.Session and
// *vehicles.Vehicle are resolved from the numeric id the script passes.
type Natives struct {
	Actors   *actors.Component
	Vehicles *vehicles.Component
	Sessions session.SessionPool
}

func vec(v mgl32.Vec3) map[string]any {
	return map[string]any{"x": v.X(), "y": v.Y(), "z": v.Z()}
}

func (n *Natives) CreateActor(skin int, pos mgl32.Vec3, angle float32) (uint32, error) {
	a, err := n.Actors.Create(skin, pos, angle)
	if err != nil {
		return uint32(pool.InvalidHandle), err
	}
	return uint32(a.Handle()), nil
}

func (n *Natives) DestroyActor(a *actors.Actor) bool {
	return n.Actors.Release(a.Handle())
}

func (n *Natives) IsValidActor(handle uint32) bool {
	_, ok := n.Actors.Get(pool.Handle(handle))
	return ok
}

func (n *Natives) GetActorCount() int {
	return n.Actors.Count()
}

func (n *Natives) SetActorName(a *actors.Actor, name string) bool {
	a.SetName(name)
	return true
}

func (n *Natives) GetActorName(a *actors.Actor) string {
	return a.Name()
}

func (n *Natives) SetActorNameForPlayer(a *actors.Actor, name string, p session.Session) bool {
	a.SetNameForPlayer(name, p)
	return true
}

func (n *Natives) IsActorStreamedIn(a *actors.Actor, p session.Session) bool {
	return a.IsStreamedInForPlayer(p)
}

func (n *Natives) StreamInActorForPlayer(a *actors.Actor, p session.Session) bool {
	return a.StreamInForPlayer(p)
}

func (n *Natives) StreamOutActorForPlayer(a *actors.Actor, p session.Session) bool {
	return a.StreamOutForPlayer(p)
}

func (n *Natives) SetActorVirtualWorld(a *actors.Actor, vw int) bool {
	a.SetVirtualWorld(vw)
	return true
}

func (n *Natives) GetActorVirtualWorld(a *actors.Actor) int {
	return a.VirtualWorld()
}

// ApplyActorAnimation reports false when the library fails validation.
func (n *Natives) ApplyActorAnimation(a *actors.Actor, lib, name string, delta float32, loop, lockX, lockY, freeze bool, time uint32) bool {
	return a.ApplyAnimation(anim.Data{
		Delta:  delta,
		Loop:   loop,
		LockX:  lockX,
		LockY:  lockY,
		Freeze: freeze,
		Time:   time,
		Lib:    lib,
		Name:   name,
	})
}

func (n *Natives) ClearActorAnimations(a *actors.Actor) bool {
	a.ClearAnimations()
	return true
}

func (n *Natives) GetActorAnimation(a *actors.Actor) map[string]any {
	d := a.Animation()
	return map[string]any{
		"lib":    d.Lib,
		"name":   d.Name,
		"delta":  d.Delta,
		"loop":   d.Loop,
		"lock_x": d.LockX,
		"lock_y": d.LockY,
		"freeze": d.Freeze,
		"time":   d.Time,
		"state":  a.AnimationState().String(),
	}
}

func (n *Natives) SetActorPos(a *actors.Actor, pos mgl32.Vec3) bool {
	a.SetPosition(pos)
	return true
}

func (n *Natives) SetActorPosFindZ(a *actors.Actor, pos mgl32.Vec3) bool {
	a.SetPositionFindZ(pos)
	return true
}

func (n *Natives) SetActorPosNoSync(a *actors.Actor, pos mgl32.Vec3) bool {
	a.UpdatePosition(pos)
	return true
}

func (n *Natives) GetActorPos(a *actors.Actor) map[string]any {
	return vec(a.Position())
}

func (n *Natives) SetActorFacingAngle(a *actors.Actor, angle float32) bool {
	a.SetFacingAngle(angle)
	return true
}

func (n *Natives) GetActorFacingAngle(a *actors.Actor) float32 {
	return a.FacingAngle()
}

func (n *Natives) SetActorHealth(a *actors.Actor, health float32) bool {
	a.SetHealth(health)
	return true
}

func (n *Natives) GetActorHealth(a *actors.Actor) float32 {
	return a.Health()
}

func (n *Natives) SetActorArmour(a *actors.Actor, armour float32) bool {
	a.SetArmour(armour)
	return true
}

func (n *Natives) SetActorArmourForPlayer(a *actors.Actor, armour float32, p session.Session) bool {
	a.SetArmourForPlayer(armour, p)
	return true
}

func (n *Natives) GetActorArmour(a *actors.Actor) float32 {
	return a.Armour()
}

func (n *Natives) SetActorInvulnerable(a *actors.Actor, invulnerable bool) bool {
	a.SetInvulnerable(invulnerable)
	return true
}

func (n *Natives) IsActorInvulnerable(a *actors.Actor) bool {
	return a.Invulnerable()
}

func (n *Natives) SetActorSkin(a *actors.Actor, skin int) bool {
	a.SetSkin(skin)
	return true
}

func (n *Natives) GetActorSkin(a *actors.Actor) int {
	return a.Skin()
}

func (n *Natives) SetActorArmedWeapon(a *actors.Actor, weapon uint32) bool {
	a.SetWeapon(weapon)
	return true
}

func (n *Natives) SetActorArmedWeaponForPlayer(a *actors.Actor, weapon uint32, p session.Session) bool {
	a.SetWeaponForPlayer(weapon, p)
	return true
}

func (n *Natives) GetActorArmedWeapon(a *actors.Actor) uint32 {
	return a.Weapon()
}

func (n *Natives) SetActorAim(a *actors.Actor, pos mgl32.Vec3, time int32) bool {
	a.SetAim(pos, time)
	return true
}

func (n *Natives) GetActorSpawnInfo(a *actors.Actor) map[string]any {
	sd := a.SpawnData()
	return map[string]any{
		"skin":     sd.Skin,
		"position": vec(sd.Position),
		"angle":    sd.FacingAngle,
	}
}

func (n *Natives) PutActorInVehicle(a *actors.Actor, v *vehicles.Vehicle, seat int, force bool) bool {
	a.PutInVehicle(v, seat, force)
	return true
}

func (n *Natives) RemoveActorFromVehicle(a *actors.Actor, force bool) bool {
	a.RemoveFromVehicle(force)
	return true
}

func (n *Natives) GetActorVehicle(a *actors.Actor) int {
	return a.Vehicle()
}

func (n *Natives) GetActorVehicleSeat(a *actors.Actor) int {
	return a.Seat()
}

func (n *Natives) CreateVehicle(model int, pos mgl32.Vec3, angle float32) (int, error) {
	v, err := n.Vehicles.Create(model, pos, angle)
	if err != nil {
		return actors.InvalidVehicleID, err
	}
	return v.ID(), nil
}

func (n *Natives) DestroyVehicle(v *vehicles.Vehicle) bool {
	return n.Vehicles.Release(v.ID())
}

// Player state normally comes from the game server; these let a script
// drive it directly.

func (n *Natives) SetPlayerPos(p session.Session, pos mgl32.Vec3) bool {
	p.SetPosition(pos)
	return true
}

func (n *Natives) SetPlayerVirtualWorld(p session.Session, vw int) bool {
	p.SetVirtualWorld(vw)
	return true
}

func (n *Natives) SetPlayerSpawned(p session.Session, spawned bool) bool {
	p.SetSpawned(spawned)
	return true
}

func (n *Natives) GetPlayerCount() int {
	return n.Sessions.GetSessionCount()
}
