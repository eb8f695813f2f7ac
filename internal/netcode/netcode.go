// Package netcode defines the actor packets of the client protocol and their
// exact bit stream layout.
package netcode

import (
	"errors"
	"fmt"

	"actornet/internal/bitstream"
	"actornet/internal/packet"
)

const (
	RPCShowActor            uint32 = 171
	RPCHideActor            uint32 = 172
	RPCApplyActorAnimation  uint32 = 173
	RPCClearActorAnimations uint32 = 174
	RPCSetActorFacingAngle  uint32 = 175
	RPCSetActorPos          uint32 = 176
	RPCOnPlayerDamageActor  uint32 = 177
	RPCSetActorHealth       uint32 = 178

	// CustomPacket multiplexes the extended actor operations behind one
	// packet id, each prefixed with a u32 sub-opcode.
	CustomPacket uint32 = 251
)

const (
	OpSetActorWeapon         uint32 = 304
	OpSetActorAim            uint32 = 305
	OpSetActorPosFindZ       uint32 = 306
	OpSetActorName           uint32 = 307
	OpSetActorArmour         uint32 = 308
	OpActorGoInVehicle       uint32 = 309
	OpPutActorInVehicle      uint32 = 310
	OpRemoveActorFromVehicle uint32 = 311
)

var (
	ErrServerOnly    = errors.New("netcode: packet is server to client only")
	ErrUnknownPacket = errors.New("netcode: unknown packet")
)

// Outbound is a server to client message.
type Outbound interface {
	ID() uint32
	Type() packet.Type
	Channel() packet.Channel
	PacketName() string
	Write(w *bitstream.Writer)
}

// Inbound is a client to server message.
type Inbound interface {
	ID() uint32
	Read(r *bitstream.Reader) error
}

// Frame is an encoded Outbound ready to be handed to a transport.
type Frame struct {
	Type    packet.Type
	Channel packet.Channel
	ID      uint32
	Name    string
	Payload []byte
}

func Marshal(p Outbound) Frame {
	w := bitstream.NewWriter()
	p.Write(w)
	return Frame{
		Type:    p.Type(),
		Channel: p.Channel(),
		ID:      p.ID(),
		Name:    p.PacketName(),
		Payload: w.Bytes(),
	}
}

type rpc struct{}

func (rpc) Type() packet.Type       { return packet.RPC }
func (rpc) Channel() packet.Channel { return packet.ChannelSyncRPC }

type custom struct{}

func (custom) ID() uint32              { return CustomPacket }
func (custom) Type() packet.Type       { return packet.Raw }
func (custom) Channel() packet.Channel { return packet.ChannelSyncPacket }

// ReadInbound decodes a client message. A nil error means the payload was
// fully understood; any error means the packet must be discarded.
func ReadInbound(typ packet.Type, id uint32, payload []byte) (Inbound, error) {
	r := bitstream.NewReader(payload)
	var in Inbound
	switch {
	case typ == packet.RPC && id == RPCOnPlayerDamageActor:
		in = &OnPlayerDamageActor{}
	case typ == packet.Raw && id == CustomPacket:
		op, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		switch op {
		case OpActorGoInVehicle:
			in = &ActorGoInVehicle{}
		case OpPutActorInVehicle:
			in = &PutActorInVehicle{}
		case OpRemoveActorFromVehicle:
			in = &RemoveActorFromVehicle{}
		default:
			return nil, fmt.Errorf("%w: custom sub-opcode %d", ErrUnknownPacket, op)
		}
	default:
		return nil, fmt.Errorf("%w: %s %d", ErrUnknownPacket, typ, id)
	}
	if err := in.Read(r); err != nil {
		return nil, err
	}
	return in, nil
}

// SubOpcode peeks the sub-opcode of a custom packet payload.
func SubOpcode(payload []byte) (uint32, bool) {
	op, err := bitstream.NewReader(payload).ReadUint32()
	return op, err == nil
}

// Name resolves a human readable packet name for logs and tools.
func Name(typ packet.Type, id uint32, payload []byte) string {
	if typ == packet.Raw && id == CustomPacket {
		op, err := bitstream.NewReader(payload).ReadUint32()
		if err != nil {
			return "CustomPacket"
		}
		if n, ok := customNames[op]; ok {
			return n
		}
		return fmt.Sprintf("CustomPacket(%d)", op)
	}
	if n, ok := rpcNames[id]; ok && typ == packet.RPC {
		return n
	}
	return fmt.Sprintf("%s(%d)", typ, id)
}

var rpcNames = map[uint32]string{
	RPCShowActor:            "ShowActorForPlayer",
	RPCHideActor:            "HideActorForPlayer",
	RPCApplyActorAnimation:  "ApplyActorAnimationForPlayer",
	RPCClearActorAnimations: "ClearActorAnimationsForPlayer",
	RPCSetActorFacingAngle:  "SetActorFacingAngleForPlayer",
	RPCSetActorPos:          "SetActorPosForPlayer",
	RPCOnPlayerDamageActor:  "OnPlayerDamageActor",
	RPCSetActorHealth:       "SetActorHealthForPlayer",
}

var customNames = map[uint32]string{
	OpSetActorWeapon:         "SetActorWeaponForPlayer",
	OpSetActorAim:            "SetActorAimForPlayer",
	OpSetActorPosFindZ:       "SetActorPosFindZForPlayer",
	OpSetActorName:           "SetActorNameForPlayer",
	OpSetActorArmour:         "SetActorArmourForPlayer",
	OpActorGoInVehicle:       "ActorGoInVehicleForPlayer",
	OpPutActorInVehicle:      "PutActorInVehicleForPlayer",
	OpRemoveActorFromVehicle: "RemoveActorFromVehicleForPlayer",
}
