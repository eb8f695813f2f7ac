// Package actors replicates server simulated characters to the clients that
// can see them.
package actors

import (
	"errors"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"actornet/internal/message"
	"actornet/internal/netcode"
	"actornet/internal/packet"
	"actornet/internal/pool"
	"actornet/session"
)

const ComponentName = "actors"

// Component owns every actor and the per-client streaming extension.
type Component struct {
	log      *logrus.Entry
	sessions session.SessionPool
	settings *Settings
	services *Services

	pool     *pool.Pool[Actor]
	players  *session.ExtensionTable[PlayerData]
	handlers []EventHandler

	locks   int
	pending []pool.Handle
}

func NewComponent(sessions session.SessionPool, settings *Settings, services *Services, log *logrus.Entry, maxActors int) *Component {
	if settings == nil {
		settings = NewSettings()
	}
	if services == nil {
		services = &Services{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if maxActors <= 0 || maxActors > MaxActors {
		maxActors = MaxActors
	}
	return &Component{
		log:      log.WithField("component", ComponentName),
		sessions: sessions,
		settings: settings,
		services: services,
		pool:     pool.New[Actor](maxActors),
		players:  session.NewExtensionTable[PlayerData](),
	}
}

func (c *Component) Name() string {
	return ComponentName
}

func (c *Component) Init() {
	c.log.WithField("capacity", c.pool.Cap()).Info("[ActorsComponent/Init] ready")
}

func (c *Component) Shutdown() {
	var all []pool.Handle
	c.pool.Range(func(h pool.Handle, _ *Actor) bool {
		all = append(all, h)
		return true
	})
	for _, h := range all {
		c.Release(h)
	}
	c.log.WithField("released", len(all)).Info("[ActorsComponent/Shutdown] done")
}

func (c *Component) Settings() *Settings {
	return c.settings
}

func (c *Component) Services() *Services {
	return c.services
}

func (c *Component) AddEventHandler(h EventHandler) {
	c.handlers = append(c.handlers, h)
}

func (c *Component) RemoveEventHandler(h EventHandler) {
	for i, eh := range c.handlers {
		if eh == h {
			c.handlers = append(c.handlers[:i], c.handlers[i+1:]...)
			return
		}
	}
}

// Create spawns an actor. Actors are invisible until a streaming pass or an
// explicit StreamInForPlayer shows them.
func (c *Component) Create(skin int, pos mgl32.Vec3, angle float32) (*Actor, error) {
	maxPlayers := c.sessions.MaxSessions()
	_, a, err := c.pool.Emplace(func(h pool.Handle) *Actor {
		return newActor(h, skin, pos, angle, maxPlayers, c.players, c.services, c.settings)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (c *Component) Get(h pool.Handle) (*Actor, bool) {
	return c.pool.Get(h)
}

// GetByID resolves the slot index carried by client packets.
func (c *Component) GetByID(id int) (*Actor, bool) {
	return c.pool.GetByIndex(id)
}

func (c *Component) Count() int {
	return c.pool.Len()
}

func (c *Component) Range(fn func(a *Actor) bool) {
	c.pool.Range(func(_ pool.Handle, a *Actor) bool {
		return fn(a)
	})
}

// Release hides the actor from its subscribers, breaks its vehicle link and
// frees the slot.
func (c *Component) Release(h pool.Handle) bool {
	a, ok := c.pool.Get(h)
	if !ok {
		return false
	}
	if c.locks > 0 {
		for _, p := range c.pending {
			if p == h {
				return true
			}
		}
		c.pending = append(c.pending, h)
		return true
	}
	c.release(a)
	return true
}

func (c *Component) release(a *Actor) {
	a.destream()
	a.streamedFor.clear()
	a.destroy()
	c.pool.Release(a.handle)
}

func (c *Component) dispatch(fn func(h EventHandler)) {
	c.locks++
	for _, h := range c.handlers {
		fn(h)
	}
	c.locks--
	if c.locks > 0 || len(c.pending) == 0 {
		return
	}
	pending := c.pending
	c.pending = nil
	for _, h := range pending {
		if a, ok := c.pool.Get(h); ok {
			c.release(a)
		}
	}
}

func (c *Component) PlayerData(s session.Session) (*PlayerData, bool) {
	return c.players.Get(s.ID())
}

func (c *Component) OnSessionConnect(s session.Session) {
	c.players.Attach(s.ID())
}

// OnSessionDisconnect forgets the client everywhere. Nothing is sent: the
// connection is gone.
func (c *Component) OnSessionDisconnect(s session.Session) {
	id := s.ID()
	c.pool.Range(func(_ pool.Handle, a *Actor) bool {
		a.removeFor(id)
		return true
	})
	c.players.Detach(id)
}

// OnTick streams actors in and out for every spawned client whose stream
// interval has elapsed, by virtual world and 2D distance.
func (c *Component) OnTick(now time.Time) {
	radius := c.settings.StreamRadius()
	maxDist := radius * radius
	rate := c.settings.StreamRate()

	for _, s := range c.sessions.Sessions() {
		data, ok := c.players.Get(s.ID())
		if !ok || !data.due(now, rate) {
			continue
		}
		spawned := s.Spawned()
		vw := s.VirtualWorld()
		pos := s.Position().Vec2()

		c.pool.Range(func(_ pool.Handle, a *Actor) bool {
			d := a.pos.Vec2().Sub(pos)
			should := spawned && vw == a.virtualWorld && d.Dot(d) < maxDist
			in := a.IsStreamedInForPlayer(s)
			switch {
			case !in && should:
				if a.StreamInForPlayer(s) {
					c.dispatch(func(h EventHandler) { h.OnActorStreamIn(a, s) })
				}
			case in && !should:
				if a.StreamOutForPlayer(s) {
					c.dispatch(func(h EventHandler) { h.OnActorStreamOut(a, s) })
				}
			}
			return true
		})
	}
}

// OnReceive handles the client messages addressed to actors and reports
// whether msg was one of them. Malformed messages are dropped.
func (c *Component) OnReceive(s session.Session, typ packet.Type, msg *message.Message) bool {
	if !c.owns(typ, msg) {
		return false
	}
	in, err := netcode.ReadInbound(typ, msg.ID, msg.Data)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"session":     s.ID(),
			"packet":      netcode.Name(typ, msg.ID, msg.Data),
			"server_only": errors.Is(err, netcode.ErrServerOnly),
		}).WithError(err).Debug("[ActorsComponent/OnReceive] packet dropped")
		return true
	}
	if dmg, ok := in.(*netcode.OnPlayerDamageActor); ok {
		c.onPlayerDamageActor(s, dmg)
	}
	return true
}

func (c *Component) owns(typ packet.Type, msg *message.Message) bool {
	switch {
	case typ == packet.RPC && msg.ID == netcode.RPCOnPlayerDamageActor:
		return true
	case typ == packet.Raw && msg.ID == netcode.CustomPacket:
		op, ok := netcode.SubOpcode(msg.Data)
		return ok && op >= netcode.OpSetActorWeapon && op <= netcode.OpRemoveActorFromVehicle
	}
	return false
}

func (c *Component) onPlayerDamageActor(s session.Session, dmg *netcode.OnPlayerDamageActor) {
	a, ok := c.pool.GetByIndex(int(dmg.ActorID))
	if !ok || !a.IsStreamedInForPlayer(s) {
		return
	}
	if a.invulnerable {
		return
	}
	c.dispatch(func(h EventHandler) {
		h.OnPlayerGiveDamageActor(s, a, dmg.Damage, dmg.WeaponID, BodyPart(dmg.Bodypart))
	})
}
