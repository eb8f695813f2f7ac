package session

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"actornet/internal/netcode"
	"actornet/networkentity"
)

// ClientVersion is the protocol variant a client announced at handshake.
type ClientVersion uint8

const (
	Version037 ClientVersion = iota
	Version03DL
)

func ParseClientVersion(s string) (ClientVersion, error) {
	switch strings.ToUpper(s) {
	case "", "037", "0.3.7":
		return Version037, nil
	case "03DL", "0.3.DL":
		return Version03DL, nil
	}
	return Version037, fmt.Errorf("unknown client version %q", s)
}

func (v ClientVersion) String() string {
	if v == Version03DL {
		return "03DL"
	}
	return "037"
}

// SupportsCustomModels reports whether show packets for this client carry
// the custom skin field.
func (v ClientVersion) SupportsCustomModels() bool {
	return v == Version03DL
}

var ErrClosed = errors.New("session closed")

type Session interface {
	ID() int
	Version() ClientVersion
	Send(p netcode.Outbound) error
	SendFrame(f netcode.Frame) error
	RemoteAddr() net.Addr
	Close() error

	VirtualWorld() int
	SetVirtualWorld(vw int)
	Position() mgl32.Vec3
	SetPosition(pos mgl32.Vec3)
	Spawned() bool
	SetSpawned(spawned bool)
}

type sessionImpl struct {
	id      int
	version ClientVersion
	entity  networkentity.NetworkEntity

	mu      sync.RWMutex
	vw      int
	pos     mgl32.Vec3
	spawned bool
	closed  bool
}

func NewSession(entity networkentity.NetworkEntity, id int, version ClientVersion) *sessionImpl {
	return &sessionImpl{id: id, version: version, entity: entity}
}

func (s *sessionImpl) ID() int {
	return s.id
}

func (s *sessionImpl) Version() ClientVersion {
	return s.version
}

func (s *sessionImpl) Send(p netcode.Outbound) error {
	return s.SendFrame(netcode.Marshal(p))
}

func (s *sessionImpl) SendFrame(f netcode.Frame) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed || s.entity == nil {
		return ErrClosed
	}
	return s.entity.Send(f)
}

func (s *sessionImpl) RemoteAddr() net.Addr {
	if s.entity == nil {
		return nil
	}
	return s.entity.RemoteAddr()
}

func (s *sessionImpl) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	if s.entity == nil {
		return nil
	}
	return s.entity.Close()
}

func (s *sessionImpl) VirtualWorld() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vw
}

func (s *sessionImpl) SetVirtualWorld(vw int) {
	s.mu.Lock()
	s.vw = vw
	s.mu.Unlock()
}

func (s *sessionImpl) Position() mgl32.Vec3 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pos
}

func (s *sessionImpl) SetPosition(pos mgl32.Vec3) {
	s.mu.Lock()
	s.pos = pos
	s.mu.Unlock()
}

func (s *sessionImpl) Spawned() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spawned
}

func (s *sessionImpl) SetSpawned(spawned bool) {
	s.mu.Lock()
	s.spawned = spawned
	s.mu.Unlock()
}

// Broadcast marshals p once and sends it to every target. It returns the
// number of sessions that accepted the frame.
func Broadcast(targets []Session, p netcode.Outbound) int {
	if len(targets) == 0 {
		return 0
	}
	f := netcode.Marshal(p)
	n := 0
	for _, s := range targets {
		if err := s.SendFrame(f); err == nil {
			n++
		}
	}
	return n
}
