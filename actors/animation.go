package actors

import (
	"actornet/internal/anim"
	"actornet/internal/netcode"
)

type AnimationState uint8

const (
	AnimationIdle AnimationState = iota
	// AnimationOneShot is a finite clip; it is not replayed on restream.
	AnimationOneShot
	// AnimationLooping is replayed to every client the actor streams in for.
	AnimationLooping
)

func (s AnimationState) String() string {
	switch s {
	case AnimationOneShot:
		return "one-shot"
	case AnimationLooping:
		return "looping"
	}
	return "idle"
}

func (a *Actor) Animation() anim.Data {
	return a.animation
}

func (a *Actor) AnimationState() AnimationState {
	return a.animState
}

// ApplyAnimation plays d on every subscriber. It reports false, with no
// state change and nothing sent, when d names a library that fails
// validation.
func (a *Actor) ApplyAnimation(d anim.Data) bool {
	if a.settings.ValidateAnimations() && !anim.LibraryValid(d.Lib, a.settings.AllAnimationLibraries()) {
		return false
	}
	fixes := a.services.Fixes()
	if fixes != nil {
		fixes.ClearAnimation(a)
	}

	a.animation = d
	if d.Persistent() {
		a.animState = AnimationLooping
	} else {
		a.animState = AnimationOneShot
		a.animation.Time = 0
	}

	p := netcode.Marshal(netcode.ApplyActorAnimationForPlayer{ActorID: a.wireID(), Anim: d})
	for _, s := range a.streamedFor.entries() {
		if fixes != nil {
			fixes.ApplyAnimationForPlayer(s, a, d)
		}
		s.SendFrame(p)
	}
	return true
}

func (a *Actor) ClearAnimations() {
	if fixes := a.services.Fixes(); fixes != nil {
		fixes.ClearAnimation(a)
	}
	a.animation.Lib = ""
	a.animation.Name = ""
	a.animState = AnimationIdle
	a.broadcast(netcode.ClearActorAnimationsForPlayer{ActorID: a.wireID()})
}
