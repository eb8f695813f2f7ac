// Package client is a websocket client for the actor protocol, used by
// tools and tests.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"actornet/internal/codec"
	"actornet/internal/netcode"
	"actornet/internal/packet"
	"actornet/session"
)

var ErrClosed = errors.New("client: connector closed")

type (
	Callback func(f netcode.Frame)

	Connector struct {
		conn   *websocket.Conn
		codec  *codec.Decoder
		log    *logrus.Entry
		die    chan struct{}
		chSend chan []byte

		muEvents sync.RWMutex
		events   map[string]Callback
		any      Callback

		heartbeatCallback func(data []byte)
		kickCallback      func(reason string)

		state     atomic.Bool
		closeOnce sync.Once
	}
)

func NewConnector(log *logrus.Entry) *Connector {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Connector{
		die:    make(chan struct{}),
		codec:  codec.NewDecoder(),
		log:    log.WithField("component", "connector"),
		chSend: make(chan []byte, 64),
		events: map[string]Callback{},
	}
}

// Start dials addr, a ws:// URL, announcing version. Callbacks must be
// registered before Start.
func (c *Connector) Start(ctx context.Context, addr string, version session.ClientVersion) error {
	u, err := url.Parse(addr)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("version", version.String())
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("[Connector/Start] %w", err)
	}
	c.conn = conn

	go c.write()
	go c.read()
	return nil
}

// On registers cb for frames with the given packet name, e.g.
// "ShowActorForPlayer".
func (c *Connector) On(name string, cb Callback) {
	c.muEvents.Lock()
	defer c.muEvents.Unlock()
	c.events[name] = cb
}

// OnAny registers cb for every frame without a named callback.
func (c *Connector) OnAny(cb Callback) {
	c.muEvents.Lock()
	defer c.muEvents.Unlock()
	c.any = cb
}

func (c *Connector) OnHeartbeat(cb func(data []byte)) {
	c.heartbeatCallback = cb
}

func (c *Connector) OnKick(cb func(reason string)) {
	c.kickCallback = cb
}

// Send queues p for the server.
func (c *Connector) Send(p netcode.Outbound) error {
	b, err := netcode.Marshal(p).Encode()
	if err != nil {
		return err
	}
	return c.send(b)
}

func (c *Connector) Heartbeat() error {
	b, err := codec.Encode(packet.Heartbeat, nil)
	if err != nil {
		return err
	}
	return c.send(b)
}

func (c *Connector) Close() {
	c.closeOnce.Do(func() {
		c.state.Store(true)
		close(c.die)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// Done is closed once the connection is gone.
func (c *Connector) Done() <-chan struct{} {
	return c.die
}

func (c *Connector) handler(name string) (Callback, bool) {
	c.muEvents.RLock()
	defer c.muEvents.RUnlock()
	if cb, ok := c.events[name]; ok {
		return cb, true
	}
	return c.any, c.any != nil
}

func (c *Connector) send(data []byte) error {
	if c.state.Load() {
		return ErrClosed
	}
	select {
	case c.chSend <- data:
		return nil
	case <-c.die:
		return ErrClosed
	}
}

func (c *Connector) write() {
	for {
		select {
		case data := <-c.chSend:
			if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				c.log.WithError(err).Debug("[Connector/write] write failed")
				c.Close()
				return
			}
		case <-c.die:
			return
		}
	}
}

func (c *Connector) read() {
	defer c.Close()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.log.WithError(err).Debug("[Connector/read] read ended")
			return
		}
		packets, err := c.codec.Decode(data)
		if err != nil {
			c.log.WithError(err).Warn("[Connector/read] frame decode failed")
			return
		}
		for _, p := range packets {
			c.processPacket(p)
		}
	}
}

func (c *Connector) processPacket(p *packet.Packet) {
	switch p.Type {
	case packet.Heartbeat:
		if c.heartbeatCallback != nil {
			c.heartbeatCallback(p.Data)
		}
	case packet.Kick:
		if c.kickCallback != nil {
			c.kickCallback(string(p.Data))
		}
		c.Close()
	case packet.RPC, packet.Raw:
		f, err := netcode.DecodeFrame(p)
		if err != nil {
			c.log.WithError(err).Debug("[Connector/processPacket] malformed frame")
			return
		}
		if cb, ok := c.handler(f.Name); ok {
			cb(f)
		}
	}
}
