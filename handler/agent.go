// Package handler accepts client websocket connections and feeds their
// messages to the component hub on the tick goroutine.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"actornet/agent"
	"actornet/component"
	"actornet/internal/codec"
	"actornet/internal/loop"
	"actornet/internal/message"
	"actornet/internal/packet"
	"actornet/networkentity"
	"actornet/session"
)

const readWait = 60 * time.Second

type Options struct {
	Sessions   session.SessionPool
	Components *component.Components
	Loop       *loop.Loop
	Lifetime   *session.Lifetime
	Heartbeat  time.Duration
	Log        *logrus.Entry

	// WrapEntity decorates each connection's transport, e.g. for metrics.
	WrapEntity func(networkentity.NetworkEntity) networkentity.NetworkEntity
	// OnPacket observes every frame read from a client.
	OnPacket func(packet.Type)
}

type AgentHandler struct {
	opts     Options
	log      *logrus.Entry
	upgrader websocket.Upgrader
}

func NewAgentHandler(opts Options) *AgentHandler {
	if opts.Log == nil {
		opts.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Lifetime == nil {
		opts.Lifetime = session.NewLifetime()
	}
	return &AgentHandler{
		opts: opts,
		log:  opts.Log.WithField("component", "handler"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request. The client names its protocol version in
// the version query parameter; it defaults to 0.3.7.
func (h *AgentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	version, err := session.ParseClientVersion(r.URL.Query().Get("version"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Debug("[AgentHandler/ServeHTTP] upgrade failed")
		return
	}
	conn.SetReadLimit(codec.HeadLength + codec.MaxPacketSize)

	a := agent.NewAgent(conn, h.opts.Heartbeat, h.log)
	var entity networkentity.NetworkEntity = a
	if h.opts.WrapEntity != nil {
		entity = h.opts.WrapEntity(entity)
	}

	s, err := h.opts.Sessions.NewSession(entity, version)
	if err != nil {
		h.log.WithError(err).WithField("remote", conn.RemoteAddr().String()).Warn("[AgentHandler/ServeHTTP] session rejected")
		a.Kick(err.Error())
		return
	}
	log := h.log.WithFields(logrus.Fields{"session": s.ID(), "version": version.String()})

	err = h.opts.Loop.Call(r.Context(), func() error {
		h.opts.Components.OnSessionConnect(s)
		h.opts.Lifetime.Connect(s)
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("[AgentHandler/ServeHTTP] connect failed")
		a.Close()
		h.opts.Sessions.DelSessionByID(s.ID())
		return
	}
	log.Info("[AgentHandler/ServeHTTP] session connected")

	defer h.disconnect(s, a, log)
	h.read(s, a, conn, log)
}

func (h *AgentHandler) disconnect(s session.Session, a *agent.Agent, log *logrus.Entry) {
	a.Close()
	err := h.opts.Loop.Post(func() {
		h.opts.Components.OnSessionDisconnect(s)
		h.opts.Lifetime.Close(s)
		h.opts.Sessions.DelSessionByID(s.ID())
	})
	if errors.Is(err, loop.ErrStopped) {
		h.opts.Sessions.DelSessionByID(s.ID())
	}
	log.Info("[AgentHandler/disconnect] session closed")
}

func (h *AgentHandler) read(s session.Session, a *agent.Agent, conn *websocket.Conn, log *logrus.Entry) {
	decoder := codec.NewDecoder()
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.WithError(err).Debug("[AgentHandler/read] network read ended")
			return
		}
		packets, err := decoder.Decode(data)
		if err != nil {
			log.WithError(err).Warn("[AgentHandler/read] frame decode failed")
			return
		}
		a.UpdateHeartbeat()
		for _, pkg := range packets {
			if !h.processPacket(s, pkg, log) {
				return
			}
		}
	}
}

// processPacket reports whether the connection should stay open.
func (h *AgentHandler) processPacket(s session.Session, pkg *packet.Packet, log *logrus.Entry) bool {
	if h.opts.OnPacket != nil {
		h.opts.OnPacket(pkg.Type)
	}
	switch pkg.Type {
	case packet.Heartbeat:
		return true
	case packet.Kick:
		return false
	case packet.RPC, packet.Raw:
		msg, err := message.Decode(pkg.Data)
		if err != nil {
			log.WithError(err).Debug("[AgentHandler/processPacket] malformed message dropped")
			return true
		}
		typ := pkg.Type
		err = h.opts.Loop.Post(func() {
			h.opts.Components.Receive(s, typ, msg)
		})
		return err == nil
	}
	return false
}
