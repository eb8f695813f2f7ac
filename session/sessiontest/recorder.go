// Package sessiontest provides a recording transport for tests that need to
// observe what a session was sent.
package sessiontest

import (
	"net"
	"sync"

	"actornet/internal/netcode"
)

type Recorder struct {
	mu     sync.Mutex
	frames []netcode.Frame
	closed bool
}

func (r *Recorder) Send(f netcode.Frame) error {
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *Recorder) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 7777}
}

func (r *Recorder) Frames() []netcode.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]netcode.Frame(nil), r.frames...)
}

// Names lists the packet names received so far, in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.frames))
	for i, f := range r.frames {
		out[i] = f.Name
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.frames = nil
	r.mu.Unlock()
}

func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
