// Package agent owns the write side of one client websocket connection.
package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"actornet/internal/codec"
	"actornet/internal/netcode"
	"actornet/internal/packet"
	"actornet/pcall"
)

type pending struct {
	data []byte
	last bool
}

// ErrQueueFull is returned when a frame finds the send queue full. The
// agent is closed by then: frames on the ordered channels cannot be skipped.
var ErrQueueFull = errors.New("agent: send queue full")

const (
	writeWait = 5 * time.Second
	queueSize = 1 << 10
)

func heartbeatFrame(now time.Time, interval time.Duration) []byte {
	data, _ := json.Marshal(map[string]any{"heartbeat": interval.Milliseconds(), "servertime": now.UnixMilli()})
	b, _ := codec.Encode(packet.Heartbeat, data)
	return b
}

// Agent queues encoded frames for a single writer goroutine and watches
// the client heartbeat. A zero heartbeat interval disables both the server
// heartbeat and the timeout.
type Agent struct {
	conn      *websocket.Conn
	log       *logrus.Entry
	heartbeat time.Duration

	sendch chan pending
	chDie  chan struct{}
	lastAt atomic.Int64
	state  atomic.Bool
}

func NewAgent(conn *websocket.Conn, heartbeat time.Duration, log *logrus.Entry) *Agent {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	a := &Agent{
		conn:      conn,
		log:       log.WithField("remote", conn.RemoteAddr().String()),
		heartbeat: heartbeat,
		sendch:    make(chan pending, queueSize),
		chDie:     make(chan struct{}),
	}
	a.lastAt.Store(time.Now().UnixNano())
	go a.write()
	return a
}

// Send encodes f and queues it. It never blocks: a client that cannot keep
// up is disconnected rather than left with a gap in its stream.
func (a *Agent) Send(f netcode.Frame) error {
	if a.state.Load() {
		return fmt.Errorf("[Agent/Send] agent closed")
	}
	b, err := f.Encode()
	if err != nil {
		return fmt.Errorf("[Agent/Send] %w", err)
	}
	return a.enqueue(pending{data: b})
}

func (a *Agent) enqueue(p pending) error {
	select {
	case a.sendch <- p:
	case <-a.chDie:
		return fmt.Errorf("[Agent/Send] agent closed")
	default:
		a.log.WithField("queued", len(a.sendch)).Warn("[Agent/Send] send queue overflow, closing")
		a.Close()
		return fmt.Errorf("[Agent/Send] %w", ErrQueueFull)
	}
	return nil
}

// Kick tells the client why it is being dropped. The connection closes
// once the frames queued before it are written.
func (a *Agent) Kick(reason string) error {
	b, err := codec.Encode(packet.Kick, []byte(reason))
	if err != nil {
		a.Close()
		return err
	}
	if err := a.enqueue(pending{data: b, last: true}); err != nil {
		a.Close()
		return err
	}
	return nil
}

func (a *Agent) RemoteAddr() net.Addr {
	return a.conn.RemoteAddr()
}

func (a *Agent) UpdateHeartbeat() {
	a.lastAt.Store(time.Now().UnixNano())
}

func (a *Agent) Close() error {
	if !a.state.CompareAndSwap(false, true) {
		return nil
	}
	close(a.chDie)
	return a.conn.Close()
}

// Done is closed when the agent is closed.
func (a *Agent) Done() <-chan struct{} {
	return a.chDie
}

func (a *Agent) write() {
	var tick <-chan time.Time
	if a.heartbeat > 0 {
		ticker := time.NewTicker(a.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer a.Close()

	for {
		select {
		case now := <-tick:
			if idle := now.Sub(time.Unix(0, a.lastAt.Load())); idle > 2*a.heartbeat {
				a.log.WithField("idle", idle).Info("[Agent/write] heartbeat timeout")
				return
			}
			if !a.writeMessage(heartbeatFrame(now, a.heartbeat)) {
				return
			}

		case p := <-a.sendch:
			if !a.writeMessage(p.data) || p.last {
				return
			}

		case <-a.chDie:
			return
		}
	}
}

func (a *Agent) writeMessage(data []byte) bool {
	var werr error
	if err := pcall.Safe(a.log, "agent.write", func() {
		_ = a.conn.SetWriteDeadline(time.Now().Add(writeWait))
		werr = a.conn.WriteMessage(websocket.BinaryMessage, data)
	}); err != nil {
		return false
	}
	if werr != nil {
		a.log.WithError(werr).Debug("[Agent/write] net write failed")
		return false
	}
	return true
}
