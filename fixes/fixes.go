// Package fixes remembers which animation each client was last told an
// actor is playing, so corrective logic can replay or drop it.
package fixes

import (
	"github.com/sirupsen/logrus"

	"actornet/actors"
	"actornet/internal/anim"
	"actornet/session"
)

const ComponentName = "fixes"

// PlayerFixes is the per-client record, keyed by actor id.
type PlayerFixes struct {
	applied map[int]anim.Data
}

func (p *PlayerFixes) Applied(actorID int) (anim.Data, bool) {
	d, ok := p.applied[actorID]
	return d, ok
}

func (p *PlayerFixes) Len() int {
	return len(p.applied)
}

// Component must only be used from the tick goroutine.
type Component struct {
	log     *logrus.Entry
	players *session.ExtensionTable[PlayerFixes]
}

func NewComponent(log *logrus.Entry) *Component {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Component{
		log:     log.WithField("component", ComponentName),
		players: session.NewExtensionTable[PlayerFixes](),
	}
}

func (c *Component) Name() string { return ComponentName }
func (c *Component) Init()        {}
func (c *Component) Shutdown()    {}

func (c *Component) OnSessionConnect(s session.Session) {
	c.players.Attach(s.ID()).applied = map[int]anim.Data{}
}

func (c *Component) OnSessionDisconnect(s session.Session) {
	c.players.Detach(s.ID())
}

// ClearAnimation forgets the clip of a for every client.
func (c *Component) ClearAnimation(a *actors.Actor) {
	id := a.ID()
	c.players.Range(func(_ int, p *PlayerFixes) bool {
		delete(p.applied, id)
		return true
	})
}

func (c *Component) ApplyAnimationForPlayer(s session.Session, a *actors.Actor, d anim.Data) {
	p, ok := c.players.Get(s.ID())
	if !ok {
		return
	}
	p.applied[a.ID()] = d
}

func (c *Component) Player(s session.Session) (*PlayerFixes, bool) {
	return c.players.Get(s.ID())
}
