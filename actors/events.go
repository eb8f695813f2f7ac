package actors

import "actornet/session"

type BodyPart uint32

const (
	BodyPartTorso    BodyPart = 3
	BodyPartGroin    BodyPart = 4
	BodyPartLeftArm  BodyPart = 5
	BodyPartRightArm BodyPart = 6
	BodyPartLeftLeg  BodyPart = 7
	BodyPartRightLeg BodyPart = 8
	BodyPartHead     BodyPart = 9
)

// EventHandler receives actor events on the tick goroutine. Releasing an
// actor from inside a handler is deferred until dispatch returns.
type EventHandler interface {
	OnActorStreamIn(a *Actor, s session.Session)
	OnActorStreamOut(a *Actor, s session.Session)
	OnPlayerGiveDamageActor(s session.Session, a *Actor, amount float32, weapon uint32, part BodyPart)
}

// EventHandlerFuncs adapts plain functions; nil fields are skipped. Register
// it by pointer.
type EventHandlerFuncs struct {
	StreamIn  func(a *Actor, s session.Session)
	StreamOut func(a *Actor, s session.Session)
	Damage    func(s session.Session, a *Actor, amount float32, weapon uint32, part BodyPart)
}

func (f *EventHandlerFuncs) OnActorStreamIn(a *Actor, s session.Session) {
	if f.StreamIn != nil {
		f.StreamIn(a, s)
	}
}

func (f *EventHandlerFuncs) OnActorStreamOut(a *Actor, s session.Session) {
	if f.StreamOut != nil {
		f.StreamOut(a, s)
	}
}

func (f *EventHandlerFuncs) OnPlayerGiveDamageActor(s session.Session, a *Actor, amount float32, weapon uint32, part BodyPart) {
	if f.Damage != nil {
		f.Damage(s, a, amount, weapon, part)
	}
}
