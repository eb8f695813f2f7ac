package actors

import (
	"math"
	"unicode/utf8"

	"github.com/go-gl/mathgl/mgl32"

	"actornet/internal/anim"
	"actornet/internal/netcode"
	"actornet/internal/pool"
	"actornet/session"
)

const (
	MaxActors      = 1000
	MaxNameLength  = 64
	InvalidActorID = 0xFFFF

	InvalidVehicleID = 0xFFFF
	SeatNone         = -1

	WeaponFist = 0
)

// SpawnData is captured when the actor is created and never changes.
type SpawnData struct {
	Position    mgl32.Vec3
	FacingAngle float32
	Skin        int
}

// Actor is a server simulated character replicated to the clients it is
// streamed for. Every method must be called from the tick goroutine.
type Actor struct {
	handle pool.Handle

	name         string
	virtualWorld int
	skin         int
	weapon       uint32
	invulnerable bool
	pos          mgl32.Vec3
	angle        float32
	health       float32
	armour       float32

	animation anim.Data
	animState AnimationState

	vehicle int
	seat    int
	spawn   SpawnData

	streamedFor *subscribers
	players     *session.ExtensionTable[PlayerData]
	services    *Services
	settings    *Settings
}

func newActor(h pool.Handle, skin int, pos mgl32.Vec3, angle float32, maxPlayers int,
	players *session.ExtensionTable[PlayerData], services *Services, settings *Settings) *Actor {
	return &Actor{
		handle:       h,
		skin:         skin,
		weapon:       WeaponFist,
		invulnerable: true,
		pos:          pos,
		angle:        angle,
		health:       100,
		vehicle:      InvalidVehicleID,
		seat:         SeatNone,
		spawn:        SpawnData{Position: pos, FacingAngle: angle, Skin: skin},
		streamedFor:  newSubscribers(maxPlayers),
		players:      players,
		services:     services,
		settings:     settings,
	}
}

// ID is the slot index the client protocol identifies the actor by.
func (a *Actor) ID() int {
	return a.handle.Index()
}

func (a *Actor) Handle() pool.Handle {
	return a.handle
}

func (a *Actor) wireID() uint16 {
	return uint16(a.handle.Index())
}

func (a *Actor) broadcast(p netcode.Outbound) {
	session.Broadcast(a.streamedFor.entries(), p)
}

// truncateName cuts name to MaxNameLength bytes without splitting a rune.
func truncateName(name string) string {
	if len(name) <= MaxNameLength {
		return name
	}
	n := MaxNameLength
	for n > 0 && !utf8.RuneStart(name[n]) {
		n--
	}
	return name[:n]
}

func (a *Actor) Name() string {
	return a.name
}

func (a *Actor) SetName(name string) {
	a.name = truncateName(name)
	a.broadcast(netcode.SetActorNameForPlayer{ActorID: a.wireID(), Name: a.name})
}

// SetNameForPlayer changes the name one client sees without touching the
// authoritative name.
func (a *Actor) SetNameForPlayer(name string, s session.Session) {
	s.Send(netcode.SetActorNameForPlayer{ActorID: a.wireID(), Name: truncateName(name)})
}

func (a *Actor) Health() float32 {
	return a.health
}

func (a *Actor) SetHealth(health float32) {
	a.health = health
	a.broadcast(netcode.SetActorHealthForPlayer{ActorID: a.wireID(), Health: health})
}

func (a *Actor) Armour() float32 {
	return a.armour
}

func (a *Actor) SetArmour(armour float32) {
	a.armour = armour
	a.broadcast(netcode.SetActorArmourForPlayer{ActorID: a.wireID(), Armour: armour})
}

func (a *Actor) SetArmourForPlayer(armour float32, s session.Session) {
	s.Send(netcode.SetActorArmourForPlayer{ActorID: a.wireID(), Armour: armour})
}

func (a *Actor) Invulnerable() bool {
	return a.invulnerable
}

// SetInvulnerable restreams the actor: the flag only travels in the show
// packet.
func (a *Actor) SetInvulnerable(invulnerable bool) {
	a.invulnerable = invulnerable
	a.restream()
}

func (a *Actor) VirtualWorld() int {
	return a.virtualWorld
}

// SetVirtualWorld takes effect on the next streaming pass.
func (a *Actor) SetVirtualWorld(vw int) {
	a.virtualWorld = vw
}

func (a *Actor) Position() mgl32.Vec3 {
	return a.pos
}

func (a *Actor) SetPosition(pos mgl32.Vec3) {
	a.pos = pos
	a.broadcast(netcode.SetActorPosForPlayer{ActorID: a.wireID(), Position: pos})
}

// UpdatePosition corrects the server side position without telling clients.
func (a *Actor) UpdatePosition(pos mgl32.Vec3) {
	a.pos = pos
}

// SetPositionFindZ lets clients snap the actor to the ground below pos.
func (a *Actor) SetPositionFindZ(pos mgl32.Vec3) {
	a.pos = pos
	a.broadcast(netcode.SetActorPosFindZForPlayer{ActorID: a.wireID(), Position: pos})
}

// FacingAngle is the yaw in degrees.
func (a *Actor) FacingAngle() float32 {
	return a.angle
}

func (a *Actor) SetFacingAngle(angle float32) {
	a.angle = angle
	a.broadcast(netcode.SetActorFacingAngleForPlayer{ActorID: a.wireID(), Angle: angle})
}

func (a *Actor) Rotation() mgl32.Quat {
	return mgl32.QuatRotate(mgl32.DegToRad(a.angle), mgl32.Vec3{0, 0, 1})
}

// SetRotation keeps only the yaw of q.
func (a *Actor) SetRotation(q mgl32.Quat) {
	a.SetFacingAngle(yaw(q))
}

func yaw(q mgl32.Quat) float32 {
	x, y, z := float64(q.V[0]), float64(q.V[1]), float64(q.V[2])
	w := float64(q.W)
	return mgl32.RadToDeg(float32(math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))))
}

func (a *Actor) Skin() int {
	return a.skin
}

// SetSkin restreams the actor: the skin only travels in the show packet.
func (a *Actor) SetSkin(skin int) {
	a.skin = skin
	a.restream()
}

func (a *Actor) Weapon() uint32 {
	return a.weapon
}

func (a *Actor) SetWeapon(weapon uint32) {
	a.weapon = weapon
	a.broadcast(netcode.SetActorWeaponForPlayer{ActorID: a.wireID(), WeaponID: weapon})
}

func (a *Actor) SetWeaponForPlayer(weapon uint32, s session.Session) {
	s.Send(netcode.SetActorWeaponForPlayer{ActorID: a.wireID(), WeaponID: weapon})
}

// SetAim points the actor at pos for time milliseconds. Aim is not part of
// the replicated state.
func (a *Actor) SetAim(pos mgl32.Vec3, time int32) {
	a.broadcast(netcode.SetActorAimForPlayer{ActorID: a.wireID(), Position: pos, Time: time})
}

func (a *Actor) SpawnData() SpawnData {
	return a.spawn
}

// destroy is the last step of a release. The vehicle link is always broken,
// whether or not the actor is seated.
func (a *Actor) destroy() {
	a.RemoveFromVehicle(true)
}
