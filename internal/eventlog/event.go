// Package eventlog journals actor events as hourly zstd compressed JSON
// lines.
package eventlog

import (
	"time"

	"actornet/actors"
	"actornet/session"
)

type Kind string

const (
	KindStreamIn  Kind = "stream_in"
	KindStreamOut Kind = "stream_out"
	KindDamage    Kind = "damage"
)

type Event struct {
	Time   time.Time `json:"time"`
	Kind   Kind      `json:"kind"`
	Actor  int       `json:"actor"`
	Player int       `json:"player"`

	Amount   float32 `json:"amount,omitempty"`
	Weapon   uint32  `json:"weapon,omitempty"`
	BodyPart uint32  `json:"body_part,omitempty"`
}

// Sink consumes events. Record must not block the tick goroutine.
type Sink interface {
	Record(e Event)
}

// Handler turns actor events into Events for every sink.
type Handler struct {
	sinks []Sink
	now   func() time.Time
}

func NewHandler(sinks ...Sink) *Handler {
	return &Handler{sinks: sinks, now: time.Now}
}

func (h *Handler) emit(e Event) {
	e.Time = h.now().UTC()
	for _, s := range h.sinks {
		s.Record(e)
	}
}

func (h *Handler) OnActorStreamIn(a *actors.Actor, s session.Session) {
	h.emit(Event{Kind: KindStreamIn, Actor: a.ID(), Player: s.ID()})
}

func (h *Handler) OnActorStreamOut(a *actors.Actor, s session.Session) {
	h.emit(Event{Kind: KindStreamOut, Actor: a.ID(), Player: s.ID()})
}

func (h *Handler) OnPlayerGiveDamageActor(s session.Session, a *actors.Actor, amount float32, weapon uint32, part actors.BodyPart) {
	h.emit(Event{
		Kind:     KindDamage,
		Actor:    a.ID(),
		Player:   s.ID(),
		Amount:   amount,
		Weapon:   weapon,
		BodyPart: uint32(part),
	})
}
