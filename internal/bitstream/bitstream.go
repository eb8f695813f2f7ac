// Package bitstream implements the RakNet style bit stream used by the client
// protocol. Bits are packed MSB first inside each byte, multi-byte values are
// little-endian and nothing is realigned after a single bit write.
package bitstream

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrUnderflow = errors.New("bitstream: read past end of stream")

type Writer struct {
	buf  []byte
	bits int
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

func (w *Writer) Reset() {
	w.buf = w.buf[:0]
	w.bits = 0
}

// Bytes returns the written data. A trailing partial byte is zero padded.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) BitLen() int {
	return w.bits
}

func (w *Writer) WriteBit(v bool) {
	off := w.bits & 7
	if off == 0 {
		w.buf = append(w.buf, 0)
	}
	if v {
		w.buf[len(w.buf)-1] |= 0x80 >> off
	}
	w.bits++
}

func (w *Writer) writeByte(b byte) {
	off := w.bits & 7
	if off == 0 {
		w.buf = append(w.buf, b)
		w.bits += 8
		return
	}
	w.buf[len(w.buf)-1] |= b >> off
	w.buf = append(w.buf, b<<(8-off))
	w.bits += 8
}

func (w *Writer) WriteUint8(v uint8) {
	w.writeByte(v)
}

func (w *Writer) WriteUint16(v uint16) {
	w.writeByte(byte(v))
	w.writeByte(byte(v >> 8))
}

func (w *Writer) WriteUint32(v uint32) {
	w.writeByte(byte(v))
	w.writeByte(byte(v >> 8))
	w.writeByte(byte(v >> 16))
	w.writeByte(byte(v >> 24))
}

func (w *Writer) WriteBool8(v bool) {
	if v {
		w.writeByte(1)
		return
	}
	w.writeByte(0)
}

func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

func (w *Writer) WriteVec3(v mgl32.Vec3) {
	w.WriteFloat32(v[0])
	w.WriteFloat32(v[1])
	w.WriteFloat32(v[2])
}

// WriteDynStr8 writes a u8 length prefix followed by the raw bytes. Strings
// longer than 255 bytes are truncated.
func (w *Writer) WriteDynStr8(s string) {
	if len(s) > math.MaxUint8 {
		s = s[:math.MaxUint8]
	}
	w.writeByte(uint8(len(s)))
	for i := 0; i < len(s); i++ {
		w.writeByte(s[i])
	}
}

type Reader struct {
	data []byte
	pos  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Remaining() int {
	return len(r.data)*8 - r.pos
}

func (r *Reader) ReadBit() (bool, error) {
	if r.Remaining() < 1 {
		return false, ErrUnderflow
	}
	b := r.data[r.pos>>3]&(0x80>>(r.pos&7)) != 0
	r.pos++
	return b, nil
}

func (r *Reader) readByte() (byte, error) {
	if r.Remaining() < 8 {
		return 0, ErrUnderflow
	}
	idx, off := r.pos>>3, r.pos&7
	r.pos += 8
	if off == 0 {
		return r.data[idx], nil
	}
	return r.data[idx]<<off | r.data[idx+1]>>(8-off), nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	return r.readByte()
}

func (r *Reader) ReadUint16() (uint16, error) {
	if r.Remaining() < 16 {
		return 0, ErrUnderflow
	}
	lo, _ := r.readByte()
	hi, _ := r.readByte()
	return uint16(lo) | uint16(hi)<<8, nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	if r.Remaining() < 32 {
		return 0, ErrUnderflow
	}
	var v uint32
	for i := 0; i < 4; i++ {
		b, _ := r.readByte()
		v |= uint32(b) << (8 * i)
	}
	return v, nil
}

func (r *Reader) ReadBool8() (bool, error) {
	b, err := r.readByte()
	return b != 0, err
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *Reader) ReadVec3() (mgl32.Vec3, error) {
	if r.Remaining() < 96 {
		return mgl32.Vec3{}, ErrUnderflow
	}
	var v mgl32.Vec3
	for i := range v {
		v[i], _ = r.ReadFloat32()
	}
	return v, nil
}

func (r *Reader) ReadDynStr8() (string, error) {
	n, err := r.readByte()
	if err != nil {
		return "", err
	}
	if r.Remaining() < int(n)*8 {
		return "", ErrUnderflow
	}
	b := make([]byte, n)
	for i := range b {
		b[i], _ = r.readByte()
	}
	return string(b), nil
}
