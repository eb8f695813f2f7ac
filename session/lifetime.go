package session

import "sync"

type (
	LifetimeHandler func(Session)

	// Lifetime fans connection events out to subscribers in registration
	// order.
	Lifetime struct {
		mu        sync.RWMutex
		onConnect []LifetimeHandler
		onClosed  []LifetimeHandler
	}
)

func NewLifetime() *Lifetime {
	return &Lifetime{}
}

func (lt *Lifetime) OnConnect(h LifetimeHandler) {
	lt.mu.Lock()
	lt.onConnect = append(lt.onConnect, h)
	lt.mu.Unlock()
}

func (lt *Lifetime) OnClosed(h LifetimeHandler) {
	lt.mu.Lock()
	lt.onClosed = append(lt.onClosed, h)
	lt.mu.Unlock()
}

func (lt *Lifetime) Connect(s Session) {
	lt.mu.RLock()
	hs := lt.onConnect
	lt.mu.RUnlock()
	for _, h := range hs {
		h(s)
	}
}

func (lt *Lifetime) Close(s Session) {
	lt.mu.RLock()
	hs := lt.onClosed
	lt.mu.RUnlock()
	for _, h := range hs {
		h(s)
	}
}
