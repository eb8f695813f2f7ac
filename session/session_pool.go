package session

import (
	"errors"
	"sort"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"actornet/networkentity"
)

var ErrPoolFull = errors.New("session pool full")

type SessionPool interface {
	NewSession(entity networkentity.NetworkEntity, version ClientVersion) (Session, error)
	GetSessionCount() int
	GetSessionByID(id int) (Session, bool)
	DelSessionByID(id int)
	// Sessions returns a snapshot ordered by id.
	Sessions() []Session
	MaxSessions() int
}

type sessionPoolImpl struct {
	max              int
	ids              *bitset.BitSet
	sessionManager   map[int]*sessionImpl
	sessionManagerRw sync.RWMutex
}

// NewSessionPool hands out player ids in [0, max), lowest free first, the
// way clients expect player slots to be filled.
func NewSessionPool(max int) SessionPool {
	return &sessionPoolImpl{
		max:            max,
		ids:            bitset.New(uint(max)),
		sessionManager: map[int]*sessionImpl{},
	}
}

func (pool *sessionPoolImpl) NewSession(entity networkentity.NetworkEntity, version ClientVersion) (Session, error) {
	pool.sessionManagerRw.Lock()
	defer pool.sessionManagerRw.Unlock()

	id, ok := pool.ids.NextClear(0)
	if !ok || int(id) >= pool.max {
		return nil, ErrPoolFull
	}
	pool.ids.Set(id)
	session := NewSession(entity, int(id), version)
	pool.sessionManager[session.id] = session
	return session, nil
}

func (pool *sessionPoolImpl) GetSessionCount() int {
	pool.sessionManagerRw.RLock()
	defer pool.sessionManagerRw.RUnlock()
	return len(pool.sessionManager)
}

func (pool *sessionPoolImpl) GetSessionByID(id int) (Session, bool) {
	pool.sessionManagerRw.RLock()
	defer pool.sessionManagerRw.RUnlock()
	session, ok := pool.sessionManager[id]
	if !ok {
		return nil, false
	}
	return session, true
}

func (pool *sessionPoolImpl) DelSessionByID(id int) {
	pool.sessionManagerRw.Lock()
	defer pool.sessionManagerRw.Unlock()

	if _, ok := pool.sessionManager[id]; ok {
		delete(pool.sessionManager, id)
		pool.ids.Clear(uint(id))
	}
}

func (pool *sessionPoolImpl) Sessions() []Session {
	pool.sessionManagerRw.RLock()
	out := make([]Session, 0, len(pool.sessionManager))
	for _, s := range pool.sessionManager {
		out = append(out, s)
	}
	pool.sessionManagerRw.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (pool *sessionPoolImpl) MaxSessions() int {
	return pool.max
}
