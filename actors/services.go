package actors

import (
	"sync"

	"actornet/internal/anim"
	"actornet/session"
)

// ModelLookup resolves custom model ids to the base model they replace.
type ModelLookup interface {
	BaseModel(id uint32) (base, custom uint32, ok bool)
}

// Vehicle keeps the occupant record of one vehicle.
type Vehicle interface {
	ID() int
	AddActor(a *Actor)
	RemoveActor(a *Actor)
}

type Vehicles interface {
	Get(id int) (Vehicle, bool)
}

// AnimationFixes tracks applied clips so client side animation bugs can be
// corrected later.
type AnimationFixes interface {
	ClearAnimation(a *Actor)
	ApplyAnimationForPlayer(s session.Session, a *Actor, d anim.Data)
}

// Services holds the sibling subsystems an actor talks to. Any of them may
// be missing; callers re-read them on every use.
type Services struct {
	mu       sync.RWMutex
	models   ModelLookup
	vehicles Vehicles
	fixes    AnimationFixes
}

func (s *Services) Models() ModelLookup {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.models
}

func (s *Services) SetModels(m ModelLookup) {
	s.mu.Lock()
	s.models = m
	s.mu.Unlock()
}

func (s *Services) Vehicles() Vehicles {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vehicles
}

func (s *Services) SetVehicles(v Vehicles) {
	s.mu.Lock()
	s.vehicles = v
	s.mu.Unlock()
}

func (s *Services) Fixes() AnimationFixes {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fixes
}

func (s *Services) SetFixes(f AnimationFixes) {
	s.mu.Lock()
	s.fixes = f
	s.mu.Unlock()
}
