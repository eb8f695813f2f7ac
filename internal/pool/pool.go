// Package pool is a fixed capacity arena that hands out generation checked
// handles. The low 16 bits of a handle are the slot index, which is what goes
// on the wire; the high bits are the slot generation, so a handle kept after
// its entry was released never resolves to a newer occupant of the slot.
package pool

import (
	"errors"

	"github.com/bits-and-blooms/bitset"
)

var ErrFull = errors.New("pool: no free slot")

const (
	indexBits = 16
	indexMask = 1<<indexBits - 1
	// 15 bits keeps handles positive when handed to int32 scripts.
	maxGeneration = 1<<15 - 1
)

type Handle uint32

// InvalidHandle never resolves; live generations start at 1.
const InvalidHandle Handle = 0

func makeHandle(gen uint16, index int) Handle {
	return Handle(uint32(gen)<<indexBits | uint32(index))
}

func (h Handle) Index() int {
	return int(h & indexMask)
}

func (h Handle) Generation() uint16 {
	return uint16(h >> indexBits)
}

type slot[T any] struct {
	gen uint16
	val *T
}

// Pool is not safe for concurrent use.
type Pool[T any] struct {
	slots []slot[T]
	used  *bitset.BitSet
	count int
}

func New[T any](capacity int) *Pool[T] {
	if capacity > indexMask+1 {
		capacity = indexMask + 1
	}
	p := &Pool[T]{
		slots: make([]slot[T], capacity),
		used:  bitset.New(uint(capacity)),
	}
	for i := range p.slots {
		p.slots[i].gen = 1
	}
	return p
}

// Emplace claims the lowest free slot and stores the value built for it.
func (p *Pool[T]) Emplace(build func(h Handle) *T) (Handle, *T, error) {
	idx, ok := p.used.NextClear(0)
	if !ok || int(idx) >= len(p.slots) {
		return InvalidHandle, nil, ErrFull
	}
	s := &p.slots[idx]
	h := makeHandle(s.gen, int(idx))
	v := build(h)
	s.val = v
	p.used.Set(idx)
	p.count++
	return h, v, nil
}

func (p *Pool[T]) Get(h Handle) (*T, bool) {
	idx := h.Index()
	if idx >= len(p.slots) || !p.used.Test(uint(idx)) {
		return nil, false
	}
	s := &p.slots[idx]
	if s.gen != h.Generation() {
		return nil, false
	}
	return s.val, true
}

// GetByIndex resolves a raw slot index, as carried by client packets.
func (p *Pool[T]) GetByIndex(idx int) (*T, bool) {
	if idx < 0 || idx >= len(p.slots) || !p.used.Test(uint(idx)) {
		return nil, false
	}
	return p.slots[idx].val, true
}

// HandleOf returns the live handle for a slot index.
func (p *Pool[T]) HandleOf(idx int) (Handle, bool) {
	if idx < 0 || idx >= len(p.slots) || !p.used.Test(uint(idx)) {
		return InvalidHandle, false
	}
	return makeHandle(p.slots[idx].gen, idx), true
}

// Release frees the slot and retires its generation.
func (p *Pool[T]) Release(h Handle) bool {
	if _, ok := p.Get(h); !ok {
		return false
	}
	idx := h.Index()
	s := &p.slots[idx]
	s.val = nil
	s.gen++
	if s.gen > maxGeneration {
		s.gen = 1
	}
	p.used.Clear(uint(idx))
	p.count--
	return true
}

// Range visits live entries in index order until fn returns false.
func (p *Pool[T]) Range(fn func(h Handle, v *T) bool) {
	for i, ok := p.used.NextSet(0); ok && int(i) < len(p.slots); i, ok = p.used.NextSet(i + 1) {
		s := &p.slots[i]
		if !fn(makeHandle(s.gen, int(i)), s.val) {
			return
		}
	}
}

func (p *Pool[T]) Len() int {
	return p.count
}

func (p *Pool[T]) Cap() int {
	return len(p.slots)
}
