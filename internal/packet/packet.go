package packet

import (
	"errors"
	"fmt"
)

// Type is the frame kind carried in the first header byte.
type Type byte

const (
	RPC       Type = 0x01
	Raw       Type = 0x02
	Heartbeat Type = 0x03
	Kick      Type = 0x04
)

// Channel is the ordering channel a message travels on. Messages on the same
// channel are delivered in send order.
type Channel uint8

const (
	ChannelNone Channel = iota
	ChannelSyncPacket
	ChannelSyncRPC
)

var ErrWrongPacketType = errors.New("wrong packet type")

func (t Type) Valid() bool {
	return t >= RPC && t <= Kick
}

func (t Type) String() string {
	switch t {
	case RPC:
		return "rpc"
	case Raw:
		return "packet"
	case Heartbeat:
		return "heartbeat"
	case Kick:
		return "kick"
	}
	return fmt.Sprintf("type(%d)", byte(t))
}

type Packet struct {
	Type   Type
	Length int
	Data   []byte
}

func New() *Packet {
	return &Packet{}
}

func (p *Packet) String() string {
	return fmt.Sprintf("Type: %s, Length: %d, Data: % x", p.Type, p.Length, p.Data)
}
