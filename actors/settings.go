package actors

import (
	"math"
	"sync/atomic"
	"time"
)

const (
	DefaultMaxStreamed  = 50
	DefaultStreamRadius = 200
	DefaultStreamRate   = time.Second
)

// Settings is the centrally owned configuration read by actors on every
// call. Config reload writes it from another goroutine, so every field is
// atomic.
type Settings struct {
	maxStreamed        atomic.Int32
	legacyCapBoundary  atomic.Bool
	validateAnimations atomic.Bool
	allAnimations      atomic.Bool
	streamRadius       atomic.Uint32
	streamRate         atomic.Int64
}

func NewSettings() *Settings {
	s := &Settings{}
	s.SetMaxStreamed(DefaultMaxStreamed)
	s.SetValidateAnimations(true)
	s.SetStreamRadius(DefaultStreamRadius)
	s.SetStreamRate(DefaultStreamRate)
	return s
}

func (s *Settings) MaxStreamed() int {
	return int(s.maxStreamed.Load())
}

func (s *Settings) SetMaxStreamed(n int) {
	s.maxStreamed.Store(int32(n))
}

// LegacyCapBoundary lets a client hold one actor more than MaxStreamed,
// matching older servers.
func (s *Settings) LegacyCapBoundary() bool {
	return s.legacyCapBoundary.Load()
}

func (s *Settings) SetLegacyCapBoundary(v bool) {
	s.legacyCapBoundary.Store(v)
}

func (s *Settings) ValidateAnimations() bool {
	return s.validateAnimations.Load()
}

func (s *Settings) SetValidateAnimations(v bool) {
	s.validateAnimations.Store(v)
}

func (s *Settings) AllAnimationLibraries() bool {
	return s.allAnimations.Load()
}

func (s *Settings) SetAllAnimationLibraries(v bool) {
	s.allAnimations.Store(v)
}

func (s *Settings) StreamRadius() float32 {
	return math.Float32frombits(s.streamRadius.Load())
}

func (s *Settings) SetStreamRadius(r float32) {
	s.streamRadius.Store(math.Float32bits(r))
}

func (s *Settings) StreamRate() time.Duration {
	return time.Duration(s.streamRate.Load())
}

func (s *Settings) SetStreamRate(d time.Duration) {
	s.streamRate.Store(int64(d))
}

// canStream reports whether a client already holding count actors may take
// one more.
func (s *Settings) canStream(count int) bool {
	max := s.MaxStreamed()
	if s.LegacyCapBoundary() {
		return count <= max
	}
	return count < max
}
