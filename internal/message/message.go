package message

import (
	"errors"

	"actornet/internal/packet"
)

var ErrShortMessage = errors.New("message: truncated header")

// Message is the body of a data frame: ordering channel, varint message id
// and the bit stream payload.
type Message struct {
	Channel packet.Channel
	ID      uint32
	Data    []byte
}

func Decode(data []byte) (*Message, error) {
	if len(data) < 2 {
		return nil, ErrShortMessage
	}
	m := &Message{Channel: packet.Channel(data[0])}
	var offset int
	for offset = 1; offset < len(data); offset++ {
		b := data[offset]
		if offset > 5 {
			return nil, ErrShortMessage
		}
		m.ID |= uint32(b&0x7F) << (uint(offset-1) * 7)
		if b&0x80 == 0 {
			break
		}
	}
	if offset >= len(data) {
		return nil, ErrShortMessage
	}
	m.Data = data[offset+1:]
	return m, nil
}

func Encode(m *Message) []byte {
	id := m.ID
	header := []byte{byte(m.Channel)}
	for {
		b := byte(id & 0x7F)
		id >>= 7
		if id != 0 {
			header = append(header, b|0x80)
		} else {
			header = append(header, b)
			break
		}
	}
	return append(header, m.Data...)
}
