package actors

import (
	"actornet/internal/netcode"
	"actornet/session"
)

func (a *Actor) IsStreamedInForPlayer(s session.Session) bool {
	return a.streamedFor.valid(s.ID())
}

// StreamInForPlayer subscribes s and sends it the full actor state. It
// reports false when s is already subscribed, has no streaming extension or
// is at its streaming cap.
func (a *Actor) StreamInForPlayer(s session.Session) bool {
	if a.streamedFor.valid(s.ID()) {
		return false
	}
	data, ok := a.players.Get(s.ID())
	if !ok || !a.settings.canStream(data.Count()) {
		return false
	}
	if !a.streamedFor.add(s) {
		return false
	}
	data.Increment()
	a.streamInForClient(s)
	return true
}

func (a *Actor) StreamOutForPlayer(s session.Session) bool {
	if !a.streamedFor.valid(s.ID()) {
		return false
	}
	if data, ok := a.players.Get(s.ID()); ok {
		data.Decrement()
	}
	a.streamedFor.remove(s.ID())
	a.streamOutForClient(s)
	return true
}

// StreamedFor returns a copy of the current subscriber list.
func (a *Actor) StreamedFor() []session.Session {
	return append([]session.Session(nil), a.streamedFor.entries()...)
}

func (a *Actor) StreamedCount() int {
	return a.streamedFor.len()
}

func (a *Actor) showPacket(s session.Session) netcode.ShowActorForPlayer {
	p := netcode.ShowActorForPlayer{
		ActorID:      a.wireID(),
		SkinID:       uint32(int32(a.skin)),
		Position:     a.pos,
		Angle:        a.angle,
		Health:       a.health,
		Invulnerable: a.invulnerable,
		Name:         a.name,
		Armour:       a.armour,
		WeaponID:     a.weapon,
		Extended:     s.Version().SupportsCustomModels(),
	}
	if models := a.services.Models(); models != nil {
		if base, custom, ok := models.BaseModel(p.SkinID); ok {
			p.SkinID, p.CustomSkin = base, custom
		}
	}
	return p
}

func (a *Actor) streamInForClient(s session.Session) {
	s.Send(a.showPacket(s))
	if a.animState != AnimationLooping {
		return
	}
	s.Send(netcode.ApplyActorAnimationForPlayer{ActorID: a.wireID(), Anim: a.animation})
	if fixes := a.services.Fixes(); fixes != nil {
		fixes.ApplyAnimationForPlayer(s, a, a.animation)
	}
}

func (a *Actor) streamOutForClient(s session.Session) {
	s.Send(netcode.HideActorForPlayer{ActorID: a.wireID()})
}

// restream resends hide then show to every subscriber. Membership and
// counters are left alone.
func (a *Actor) restream() {
	for _, s := range a.streamedFor.entries() {
		a.streamOutForClient(s)
		a.streamInForClient(s)
	}
}

// destream hides the actor from every subscriber and releases their
// counters. The caller clears the subscriber set afterwards.
func (a *Actor) destream() {
	for _, s := range a.streamedFor.entries() {
		if data, ok := a.players.Get(s.ID()); ok {
			data.Decrement()
		}
		a.streamOutForClient(s)
	}
}

// removeFor drops s without telling it, for clients that are gone.
func (a *Actor) removeFor(id int) {
	a.streamedFor.remove(id)
}
