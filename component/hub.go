package component

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"actornet/internal/message"
	"actornet/internal/packet"
	"actornet/pcall"
	"actornet/session"
)

var (
	ErrStarted    = errors.New("components already started")
	ErrNotStarted = errors.New("components not started")
)

// Components keeps registered components in registration order. Init runs
// in that order and Shutdown in reverse, so later components may depend on
// earlier ones.
type Components struct {
	log        *logrus.Entry
	mu         sync.RWMutex
	order      []Component
	components map[string]Component
	started    bool
}

func NewComponents(log *logrus.Entry) *Components {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Components{
		log:        log.WithField("component", "hub"),
		components: make(map[string]Component),
	}
}

func (cs *Components) Register(c Component) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	name := c.Name()
	if _, ok := cs.components[name]; ok {
		return fmt.Errorf("[Components/Register] component %s already registered", name)
	}
	cs.components[name] = c
	cs.order = append(cs.order, c)

	if cs.started {
		if err := cs.initComponent(c); err != nil {
			cs.remove(name)
			return fmt.Errorf("[Components/Register] failed to initialize component %s: %w", name, err)
		}
	}
	return nil
}

func (cs *Components) Unregister(name string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	c, ok := cs.components[name]
	if !ok {
		return fmt.Errorf("[Components/Unregister] component %s not found", name)
	}
	if cs.started {
		cs.shutdownComponent(c)
	}
	cs.remove(name)
	cs.log.WithField("name", name).Info("[Components/Unregister] unregistered component")
	return nil
}

func (cs *Components) remove(name string) {
	delete(cs.components, name)
	for i, c := range cs.order {
		if c.Name() == name {
			cs.order = append(cs.order[:i], cs.order[i+1:]...)
			return
		}
	}
}

func (cs *Components) initComponent(c Component) error {
	if err := pcall.Safe(cs.log, c.Name()+".Init", c.Init); err != nil {
		return err
	}
	cs.log.WithField("name", c.Name()).Info("[Components/Init] initialized component")
	return nil
}

func (cs *Components) shutdownComponent(c Component) {
	if err := pcall.Safe(cs.log, c.Name()+".Shutdown", c.Shutdown); err != nil {
		cs.log.WithField("name", c.Name()).WithError(err).Error("[Components/Shutdown] shutdown failed")
	}
}

func (cs *Components) Start() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.started {
		return fmt.Errorf("[Components/Start] %w", ErrStarted)
	}
	for i, c := range cs.order {
		if err := cs.initComponent(c); err != nil {
			for j := i - 1; j >= 0; j-- {
				cs.shutdownComponent(cs.order[j])
			}
			return fmt.Errorf("[Components/Start] failed to initialize component %s: %w", c.Name(), err)
		}
	}
	cs.started = true
	cs.log.WithField("count", len(cs.order)).Info("[Components/Start] all components started")
	return nil
}

func (cs *Components) Stop() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.started {
		return fmt.Errorf("[Components/Stop] %w", ErrNotStarted)
	}
	for i := len(cs.order) - 1; i >= 0; i-- {
		cs.shutdownComponent(cs.order[i])
	}
	cs.started = false
	cs.log.Info("[Components/Stop] all components stopped")
	return nil
}

func (cs *Components) IsStarted() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.started
}

func (cs *Components) GetComponentNames() []string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	names := make([]string, 0, len(cs.order))
	for _, c := range cs.order {
		names = append(names, c.Name())
	}
	return names
}

func (cs *Components) HasComponent(name string) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	_, exists := cs.components[name]
	return exists
}

func (cs *Components) GetComponent(name string) (Component, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	c, exists := cs.components[name]
	return c, exists
}

func (cs *Components) snapshot() []Component {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return append([]Component(nil), cs.order...)
}

func (cs *Components) OnSessionConnect(s session.Session) {
	for _, c := range cs.snapshot() {
		c.OnSessionConnect(s)
	}
}

// OnSessionDisconnect notifies in reverse order, mirroring Stop.
func (cs *Components) OnSessionDisconnect(s session.Session) {
	all := cs.snapshot()
	for i := len(all) - 1; i >= 0; i-- {
		all[i].OnSessionDisconnect(s)
	}
}

func (cs *Components) Tick(now time.Time) {
	for _, c := range cs.snapshot() {
		if t, ok := c.(Ticker); ok {
			t.OnTick(now)
		}
	}
}

// Receive offers msg to each Receiver until one claims it.
func (cs *Components) Receive(s session.Session, typ packet.Type, msg *message.Message) bool {
	for _, c := range cs.snapshot() {
		if r, ok := c.(Receiver); ok && r.OnReceive(s, typ, msg) {
			return true
		}
	}
	cs.log.WithFields(logrus.Fields{
		"session": s.ID(),
		"type":    typ,
		"id":      msg.ID,
	}).Debug("[Components/Receive] unhandled message")
	return false
}
