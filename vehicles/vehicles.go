// Package vehicles is a minimal vehicle registry: it owns vehicle slots and
// the occupant record actors link themselves into.
package vehicles

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"actornet/actors"
	"actornet/internal/pool"
	"actornet/session"
)

const (
	ComponentName = "vehicles"
	MaxVehicles   = 2000
)

type Vehicle struct {
	id        int
	model     int
	pos       mgl32.Vec3
	angle     float32
	occupants []*actors.Actor
}

func (v *Vehicle) ID() int {
	return v.id
}

func (v *Vehicle) Model() int {
	return v.model
}

func (v *Vehicle) Position() mgl32.Vec3 {
	return v.pos
}

func (v *Vehicle) Angle() float32 {
	return v.angle
}

func (v *Vehicle) AddActor(a *actors.Actor) {
	if v.HasActor(a) {
		return
	}
	v.occupants = append(v.occupants, a)
}

func (v *Vehicle) RemoveActor(a *actors.Actor) {
	for i, o := range v.occupants {
		if o == a {
			v.occupants = append(v.occupants[:i], v.occupants[i+1:]...)
			return
		}
	}
}

func (v *Vehicle) HasActor(a *actors.Actor) bool {
	for _, o := range v.occupants {
		if o == a {
			return true
		}
	}
	return false
}

// Actors returns a copy of the occupant record.
func (v *Vehicle) Actors() []*actors.Actor {
	return append([]*actors.Actor(nil), v.occupants...)
}

// Component must only be used from the tick goroutine.
type Component struct {
	log  *logrus.Entry
	pool *pool.Pool[Vehicle]
}

func NewComponent(log *logrus.Entry) *Component {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Component{
		log:  log.WithField("component", ComponentName),
		pool: pool.New[Vehicle](MaxVehicles),
	}
}

func (c *Component) Name() string                        { return ComponentName }
func (c *Component) Init()                               {}
func (c *Component) OnSessionConnect(session.Session)    {}
func (c *Component) OnSessionDisconnect(session.Session) {}

func (c *Component) Shutdown() {
	var ids []int
	c.pool.Range(func(_ pool.Handle, v *Vehicle) bool {
		ids = append(ids, v.id)
		return true
	})
	for _, id := range ids {
		c.Release(id)
	}
}

func (c *Component) Create(model int, pos mgl32.Vec3, angle float32) (*Vehicle, error) {
	_, v, err := c.pool.Emplace(func(h pool.Handle) *Vehicle {
		return &Vehicle{id: h.Index(), model: model, pos: pos, angle: angle}
	})
	return v, err
}

// Get satisfies actors.Vehicles.
func (c *Component) Get(id int) (actors.Vehicle, bool) {
	v, ok := c.pool.GetByIndex(id)
	if !ok {
		return nil, false
	}
	return v, true
}

func (c *Component) Vehicle(id int) (*Vehicle, bool) {
	return c.pool.GetByIndex(id)
}

func (c *Component) Count() int {
	return c.pool.Len()
}

// Release ejects every occupant before freeing the slot, so no actor keeps
// a link to a vehicle that is gone.
func (c *Component) Release(id int) bool {
	h, ok := c.pool.HandleOf(id)
	if !ok {
		return false
	}
	v, _ := c.pool.Get(h)
	for _, a := range v.Actors() {
		a.RemoveFromVehicle(true)
	}
	c.pool.Release(h)
	c.log.WithField("vehicle", id).Debug("[VehiclesComponent/Release] released")
	return true
}
