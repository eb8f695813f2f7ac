package metrics

import (
	"time"

	"actornet/actors"
	"actornet/session"
)

const ComponentName = "metrics"

// Component samples the live gauges on the tick goroutine and subscribes
// the counters to actor events.
type Component struct {
	m        *Metrics
	actors   *actors.Component
	sessions session.SessionPool
}

func NewComponent(m *Metrics, a *actors.Component, sessions session.SessionPool) *Component {
	return &Component{m: m, actors: a, sessions: sessions}
}

func (c *Component) Name() string { return ComponentName }

func (c *Component) Init() {
	c.actors.AddEventHandler(c.m)
}

func (c *Component) Shutdown() {
	c.actors.RemoveEventHandler(c.m)
}

func (c *Component) OnSessionConnect(session.Session)    {}
func (c *Component) OnSessionDisconnect(session.Session) {}

func (c *Component) OnTick(time.Time) {
	c.m.actors.Set(float64(c.actors.Count()))
	c.m.sessions.Set(float64(c.sessions.GetSessionCount()))
}
