package netcode

import (
	"github.com/go-gl/mathgl/mgl32"

	"actornet/internal/anim"
	"actornet/internal/bitstream"
)

type ShowActorForPlayer struct {
	rpc
	ActorID      uint16
	SkinID       uint32
	CustomSkin   uint32
	Position     mgl32.Vec3
	Angle        float32
	Health       float32
	Invulnerable bool
	Name         string
	Armour       float32
	WeaponID     uint32
	// Extended is set for clients that understand custom models; only they
	// receive the CustomSkin field.
	Extended bool
}

func (ShowActorForPlayer) ID() uint32         { return RPCShowActor }
func (ShowActorForPlayer) PacketName() string { return rpcNames[RPCShowActor] }

func (p ShowActorForPlayer) Write(w *bitstream.Writer) {
	w.WriteUint16(p.ActorID)
	w.WriteUint32(p.SkinID)
	if p.Extended {
		w.WriteUint32(p.CustomSkin)
	}
	w.WriteVec3(p.Position)
	w.WriteFloat32(p.Angle)
	w.WriteFloat32(p.Health)
	w.WriteBool8(p.Invulnerable)
	w.WriteDynStr8(p.Name)
	w.WriteFloat32(p.Armour)
	w.WriteUint32(p.WeaponID)
}

type HideActorForPlayer struct {
	rpc
	ActorID uint16
}

func (HideActorForPlayer) ID() uint32         { return RPCHideActor }
func (HideActorForPlayer) PacketName() string { return rpcNames[RPCHideActor] }

func (p HideActorForPlayer) Write(w *bitstream.Writer) {
	w.WriteUint16(p.ActorID)
}

type ApplyActorAnimationForPlayer struct {
	rpc
	ActorID uint16
	Anim    anim.Data
}

func (ApplyActorAnimationForPlayer) ID() uint32         { return RPCApplyActorAnimation }
func (ApplyActorAnimationForPlayer) PacketName() string { return rpcNames[RPCApplyActorAnimation] }

func (p ApplyActorAnimationForPlayer) Write(w *bitstream.Writer) {
	w.WriteUint16(p.ActorID)
	w.WriteDynStr8(p.Anim.Lib)
	w.WriteDynStr8(p.Anim.Name)
	w.WriteFloat32(p.Anim.Delta)
	w.WriteBit(p.Anim.Loop)
	w.WriteBit(p.Anim.LockX)
	w.WriteBit(p.Anim.LockY)
	w.WriteBit(p.Anim.Freeze)
	w.WriteUint32(p.Anim.Time)
}

type ClearActorAnimationsForPlayer struct {
	rpc
	ActorID uint16
}

func (ClearActorAnimationsForPlayer) ID() uint32         { return RPCClearActorAnimations }
func (ClearActorAnimationsForPlayer) PacketName() string { return rpcNames[RPCClearActorAnimations] }

func (p ClearActorAnimationsForPlayer) Write(w *bitstream.Writer) {
	w.WriteUint16(p.ActorID)
}

type SetActorFacingAngleForPlayer struct {
	rpc
	ActorID uint16
	Angle   float32
}

func (SetActorFacingAngleForPlayer) ID() uint32         { return RPCSetActorFacingAngle }
func (SetActorFacingAngleForPlayer) PacketName() string { return rpcNames[RPCSetActorFacingAngle] }

func (p SetActorFacingAngleForPlayer) Write(w *bitstream.Writer) {
	w.WriteUint16(p.ActorID)
	w.WriteFloat32(p.Angle)
}

type SetActorPosForPlayer struct {
	rpc
	ActorID  uint16
	Position mgl32.Vec3
}

func (SetActorPosForPlayer) ID() uint32         { return RPCSetActorPos }
func (SetActorPosForPlayer) PacketName() string { return rpcNames[RPCSetActorPos] }

func (p SetActorPosForPlayer) Write(w *bitstream.Writer) {
	w.WriteUint16(p.ActorID)
	w.WriteVec3(p.Position)
}

type SetActorHealthForPlayer struct {
	rpc
	ActorID uint16
	Health  float32
}

func (SetActorHealthForPlayer) ID() uint32         { return RPCSetActorHealth }
func (SetActorHealthForPlayer) PacketName() string { return rpcNames[RPCSetActorHealth] }

func (p SetActorHealthForPlayer) Write(w *bitstream.Writer) {
	w.WriteUint16(p.ActorID)
	w.WriteFloat32(p.Health)
}

// OnPlayerDamageActor is sent by a client that hit an actor. It also
// satisfies Outbound so client tools can produce it.
type OnPlayerDamageActor struct {
	rpc
	Unknown  bool
	ActorID  uint16
	Damage   float32
	WeaponID uint32
	Bodypart uint32
}

func (OnPlayerDamageActor) ID() uint32         { return RPCOnPlayerDamageActor }
func (OnPlayerDamageActor) PacketName() string { return rpcNames[RPCOnPlayerDamageActor] }

func (p OnPlayerDamageActor) Write(w *bitstream.Writer) {
	w.WriteBit(p.Unknown)
	w.WriteUint16(p.ActorID)
	w.WriteFloat32(p.Damage)
	w.WriteUint32(p.WeaponID)
	w.WriteUint32(p.Bodypart)
}

func (p *OnPlayerDamageActor) Read(r *bitstream.Reader) error {
	var err error
	if p.Unknown, err = r.ReadBit(); err != nil {
		return err
	}
	if p.ActorID, err = r.ReadUint16(); err != nil {
		return err
	}
	if p.Damage, err = r.ReadFloat32(); err != nil {
		return err
	}
	if p.WeaponID, err = r.ReadUint32(); err != nil {
		return err
	}
	p.Bodypart, err = r.ReadUint32()
	return err
}

type SetActorWeaponForPlayer struct {
	custom
	ActorID  uint16
	WeaponID uint32
}

func (SetActorWeaponForPlayer) PacketName() string { return customNames[OpSetActorWeapon] }

func (p SetActorWeaponForPlayer) Write(w *bitstream.Writer) {
	w.WriteUint32(OpSetActorWeapon)
	w.WriteUint16(p.ActorID)
	w.WriteUint32(p.WeaponID)
}

type SetActorAimForPlayer struct {
	custom
	ActorID  uint16
	Position mgl32.Vec3
	Time     int32
}

func (SetActorAimForPlayer) PacketName() string { return customNames[OpSetActorAim] }

func (p SetActorAimForPlayer) Write(w *bitstream.Writer) {
	w.WriteUint32(OpSetActorAim)
	w.WriteUint16(p.ActorID)
	w.WriteVec3(p.Position)
	w.WriteUint32(uint32(p.Time))
}

type SetActorPosFindZForPlayer struct {
	custom
	ActorID  uint16
	Position mgl32.Vec3
}

func (SetActorPosFindZForPlayer) PacketName() string { return customNames[OpSetActorPosFindZ] }

func (p SetActorPosFindZForPlayer) Write(w *bitstream.Writer) {
	w.WriteUint32(OpSetActorPosFindZ)
	w.WriteUint16(p.ActorID)
	w.WriteVec3(p.Position)
}

type SetActorNameForPlayer struct {
	custom
	ActorID uint16
	Name    string
}

func (SetActorNameForPlayer) PacketName() string { return customNames[OpSetActorName] }

func (p SetActorNameForPlayer) Write(w *bitstream.Writer) {
	w.WriteUint32(OpSetActorName)
	w.WriteUint16(p.ActorID)
	w.WriteDynStr8(p.Name)
}

type SetActorArmourForPlayer struct {
	custom
	ActorID uint16
	Armour  float32
}

func (SetActorArmourForPlayer) PacketName() string { return customNames[OpSetActorArmour] }

func (p SetActorArmourForPlayer) Write(w *bitstream.Writer) {
	w.WriteUint32(OpSetActorArmour)
	w.WriteUint16(p.ActorID)
	w.WriteFloat32(p.Armour)
}

// ActorGoInVehicle makes the client play the entry animation.
type ActorGoInVehicle struct {
	custom
	ActorID   uint16
	VehicleID uint16
	SeatID    uint8
}

func (ActorGoInVehicle) PacketName() string            { return customNames[OpActorGoInVehicle] }
func (*ActorGoInVehicle) Read(*bitstream.Reader) error { return ErrServerOnly }

func (p ActorGoInVehicle) Write(w *bitstream.Writer) {
	w.WriteUint32(OpActorGoInVehicle)
	w.WriteUint16(p.ActorID)
	w.WriteUint16(p.VehicleID)
	w.WriteUint8(p.SeatID)
}

// PutActorInVehicle teleports the actor into the seat.
type PutActorInVehicle struct {
	custom
	ActorID   uint16
	VehicleID uint16
	SeatID    uint8
}

func (PutActorInVehicle) PacketName() string            { return customNames[OpPutActorInVehicle] }
func (*PutActorInVehicle) Read(*bitstream.Reader) error { return ErrServerOnly }

func (p PutActorInVehicle) Write(w *bitstream.Writer) {
	w.WriteUint32(OpPutActorInVehicle)
	w.WriteUint16(p.ActorID)
	w.WriteUint16(p.VehicleID)
	w.WriteUint8(p.SeatID)
}

type RemoveActorFromVehicle struct {
	custom
	ActorID uint16
	Force   bool
}

func (RemoveActorFromVehicle) PacketName() string            { return customNames[OpRemoveActorFromVehicle] }
func (*RemoveActorFromVehicle) Read(*bitstream.Reader) error { return ErrServerOnly }

func (p RemoveActorFromVehicle) Write(w *bitstream.Writer) {
	w.WriteUint32(OpRemoveActorFromVehicle)
	w.WriteUint16(p.ActorID)
	w.WriteBool8(p.Force)
}
