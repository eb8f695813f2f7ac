package codec

import (
	"bytes"
	"errors"

	"actornet/internal/packet"
)

const (
	HeadLength    = 4
	MaxPacketSize = 8 << 20
)

var (
	ErrPacketSizeExceed = errors.New("codec: packet size exceed")
	ErrWrongPacketType  = packet.ErrWrongPacketType
)

// Decoder reassembles frames from a byte stream. A frame is one type byte
// followed by a 24-bit big-endian length and the payload.
type Decoder struct {
	buf  *bytes.Buffer
	size int
	typ  packet.Type
}

func NewDecoder() *Decoder {
	return &Decoder{buf: bytes.NewBuffer(nil), size: -1}
}

func (d *Decoder) forward() error {
	header := d.buf.Next(HeadLength)
	d.typ = packet.Type(header[0])
	if !d.typ.Valid() {
		return ErrWrongPacketType
	}
	d.size = bytesToInt(header[1:])
	if d.size > MaxPacketSize {
		return ErrPacketSizeExceed
	}
	return nil
}

func (d *Decoder) Decode(data []byte) ([]*packet.Packet, error) {
	if _, err := d.buf.Write(data); err != nil {
		return nil, err
	}

	if d.size < 0 {
		if d.buf.Len() < HeadLength {
			return nil, nil
		}
		if err := d.forward(); err != nil {
			return nil, err
		}
	}

	var packets []*packet.Packet
	for d.size <= d.buf.Len() {
		body := make([]byte, d.size)
		copy(body, d.buf.Next(d.size))
		packets = append(packets, &packet.Packet{Type: d.typ, Length: d.size, Data: body})
		if d.buf.Len() < HeadLength {
			d.size = -1
			break
		}
		if err := d.forward(); err != nil {
			return packets, err
		}
	}

	return packets, nil
}

func Encode(typ packet.Type, data []byte) ([]byte, error) {
	if !typ.Valid() {
		return nil, ErrWrongPacketType
	}
	if len(data) > MaxPacketSize {
		return nil, ErrPacketSizeExceed
	}

	buf := make([]byte, len(data)+HeadLength)
	buf[0] = byte(typ)

	copy(buf[1:HeadLength], intToBytes(len(data)))
	copy(buf[HeadLength:], data)

	return buf, nil
}

func bytesToInt(b []byte) int {
	return int(b[2]) | int(b[1])<<8 | int(b[0])<<16
}

func intToBytes(n int) []byte {
	var b [3]byte
	b[0] = byte(n >> 16)
	b[1] = byte(n >> 8)
	b[2] = byte(n)
	return b[:]
}
