package netcode

import (
	"fmt"

	"actornet/internal/codec"
	"actornet/internal/message"
	"actornet/internal/packet"
)

// Encode produces the transport bytes of f: the codec header followed by
// the message header and payload.
func (f Frame) Encode() ([]byte, error) {
	return codec.Encode(f.Type, message.Encode(&message.Message{
		Channel: f.Channel,
		ID:      f.ID,
		Data:    f.Payload,
	}))
}

// DecodeFrame is the inverse of Encode for RPC and raw frames.
func DecodeFrame(p *packet.Packet) (Frame, error) {
	if p.Type != packet.RPC && p.Type != packet.Raw {
		return Frame{}, fmt.Errorf("%w: %s carries no message", packet.ErrWrongPacketType, p.Type)
	}
	m, err := message.Decode(p.Data)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:    p.Type,
		Channel: m.Channel,
		ID:      m.ID,
		Name:    Name(p.Type, m.ID, m.Data),
		Payload: m.Data,
	}, nil
}
