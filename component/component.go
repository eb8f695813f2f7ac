package component

import (
	"time"

	"actornet/internal/message"
	"actornet/internal/packet"
	"actornet/session"
)

// Component is a subsystem driven by the hub. Every method is called from
// the tick goroutine.
type Component interface {
	Name() string
	Init()
	Shutdown()
	OnSessionConnect(s session.Session)
	OnSessionDisconnect(s session.Session)
}

// Ticker is implemented by components that run work every tick.
type Ticker interface {
	OnTick(now time.Time)
}

// Receiver is implemented by components that consume client messages. It
// reports whether msg was handled.
type Receiver interface {
	OnReceive(s session.Session, typ packet.Type, msg *message.Message) bool
}
