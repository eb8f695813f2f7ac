// Package server assembles the actor replication server: the tick loop and
// its components, the websocket client front end, the native bridge and the
// admin surface.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"actornet/actors"
	"actornet/admin"
	"actornet/bridge"
	"actornet/component"
	"actornet/fixes"
	"actornet/handler"
	"actornet/internal/config"
	"actornet/internal/eventlog"
	"actornet/internal/indexdb"
	"actornet/internal/loop"
	"actornet/internal/metrics"
	"actornet/models"
	"actornet/session"
	"actornet/vehicles"
)

const shutdownGrace = 5 * time.Second

type Options struct {
	Config *config.Config
	// Source, when set, is watched and reloads the actor settings live.
	Source *config.Source
	Log    *logrus.Logger
	// Lifetime receives every client connect and close on the tick
	// goroutine. One is created when nil.
	Lifetime *session.Lifetime
}

// Addrs are the bound listener addresses; nil for a disabled surface.
type Addrs struct {
	Client net.Addr
	Bridge net.Addr
	Admin  net.Addr
}

type Server struct {
	Options
	log *logrus.Entry

	sessions   session.SessionPool
	settings   *actors.Settings
	components *component.Components
	actors     *actors.Component
	vehicles   *vehicles.Component
	metrics    *metrics.Metrics
	loop       *loop.Loop

	journal *eventlog.Journal
	index   *indexdb.Index

	grpcServer   *grpc.Server
	clientServer *http.Server
	adminServer  *http.Server
	listeners    []net.Listener
	serve        []func()
	addrs        Addrs

	cancel context.CancelFunc
	errs   chan error
	quit   chan struct{}
}

func New(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.Lifetime == nil {
		opts.Lifetime = session.NewLifetime()
	}
	return &Server{
		Options: opts,
		log:     logrus.NewEntry(opts.Log).WithField("component", "server"),
		errs:    make(chan error, 3),
		quit:    make(chan struct{}),
	}
}

// Startup builds every subsystem and binds the listeners. Nothing is served
// until Run has started the loop.
func (s *Server) Startup() (err error) {
	defer func() {
		if err != nil {
			s.closeListeners()
			if s.index != nil {
				s.index.Close()
			}
		}
	}()
	cfg := s.Config
	s.sessions = session.NewSessionPool(cfg.Server.MaxPlayers)
	s.settings = actors.NewSettings()
	cfg.Apply(s.settings)

	services := &actors.Services{}
	if cfg.Models.Path != "" {
		table, err := models.Load(cfg.Models.Path)
		if err != nil {
			return err
		}
		services.SetModels(table)
		s.log.WithField("models", table.Len()).Info("[Server/Startup] custom models loaded")
	}
	s.vehicles = vehicles.NewComponent(s.log)
	services.SetVehicles(s.vehicles)
	fx := fixes.NewComponent(s.log)
	services.SetFixes(fx)

	s.actors = actors.NewComponent(s.sessions, s.settings, services, s.log, cfg.Actors.MaxActors)
	s.metrics = metrics.New()

	s.components = component.NewComponents(s.log)
	for _, c := range []component.Component{
		s.actors,
		s.vehicles,
		fx,
		metrics.NewComponent(s.metrics, s.actors, s.sessions),
	} {
		if err := s.components.Register(c); err != nil {
			return err
		}
	}
	if err := s.initEvents(); err != nil {
		return err
	}

	s.loop = loop.New(cfg.Server.TickRate, s.tick, s.log)

	if err := s.initBridge(); err != nil {
		return err
	}
	if err := s.initFrontend(); err != nil {
		return err
	}
	return s.initAdmin()
}

func (s *Server) tick(now time.Time) {
	s.components.Tick(now)
	s.metrics.ObserveTick(time.Since(now))
}

func (s *Server) initEvents() error {
	var sinks []eventlog.Sink
	if dir := s.Config.Events.Dir; dir != "" {
		s.journal = eventlog.NewJournal(dir, s.log)
		sinks = append(sinks, s.journal)
	}
	if path := s.Config.Events.IndexPath; path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		idx, err := indexdb.Open(path, s.log)
		if err != nil {
			return err
		}
		s.index = idx
		sinks = append(sinks, idx)
	}
	if len(sinks) > 0 {
		s.actors.AddEventHandler(eventlog.NewHandler(sinks...))
	}
	return nil
}

func (s *Server) listen(addr string) (net.Listener, error) {
	ls, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s.listeners = append(s.listeners, ls)
	return ls, nil
}

func (s *Server) initBridge() error {
	if s.Config.Server.BridgeAddr == "" {
		return nil
	}
	reg, err := bridge.NewRegistry(&bridge.Natives{
		Actors:   s.actors,
		Vehicles: s.vehicles,
		Sessions: s.sessions,
	}, s.log)
	if err != nil {
		return err
	}
	ls, err := s.listen(s.Config.Server.BridgeAddr)
	if err != nil {
		return err
	}
	s.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(bridge.LoggingInterceptor(s.log)))
	bridge.RegisterNativesServer(s.grpcServer, bridge.NewServer(reg, s.loop, s.log))
	s.serve = append(s.serve, func() {
		if err := s.grpcServer.Serve(ls); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.errs <- err
		}
	})
	s.addrs.Bridge = ls.Addr()
	s.log.WithField("addr", ls.Addr().String()).Info("[Server/initBridge] natives bridge listening")
	return nil
}

func (s *Server) initFrontend() error {
	if s.Config.Server.ClientAddr == "" {
		return nil
	}
	ls, err := s.listen(s.Config.Server.ClientAddr)
	if err != nil {
		return err
	}
	agents := handler.NewAgentHandler(handler.Options{
		Sessions:   s.sessions,
		Components: s.components,
		Loop:       s.loop,
		Lifetime:   s.Lifetime,
		Heartbeat:  s.Config.Server.Heartbeat,
		Log:        s.log,
		WrapEntity: s.metrics.Entity,
		OnPacket:   s.metrics.Received,
	})
	mux := http.NewServeMux()
	mux.Handle("/ws", agents)
	s.clientServer = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	s.serve = append(s.serve, func() { s.serveHTTP(s.clientServer, ls) })
	s.addrs.Client = ls.Addr()
	s.log.WithField("addr", ls.Addr().String()).Info("[Server/initFrontend] client front end listening")
	return nil
}

func (s *Server) initAdmin() error {
	if s.Config.Server.AdminAddr == "" {
		return nil
	}
	ls, err := s.listen(s.Config.Server.AdminAddr)
	if err != nil {
		return err
	}
	router := admin.NewRouter(admin.Options{
		Actors:   s.actors,
		Sessions: s.sessions,
		Loop:     s.loop,
		Metrics:  s.metrics.Handler(),
		Index:    s.index,
		Log:      s.log,
	})
	s.adminServer = &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	s.serve = append(s.serve, func() { s.serveHTTP(s.adminServer, ls) })
	s.addrs.Admin = ls.Addr()
	s.log.WithField("addr", ls.Addr().String()).Info("[Server/initAdmin] admin listening")
	return nil
}

func (s *Server) serveHTTP(srv *http.Server, ls net.Listener) {
	if err := srv.Serve(ls); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errs <- err
	}
}

func (s *Server) Addrs() Addrs {
	return s.addrs
}

// Register adds a component. Components registered after Run are
// initialised immediately.
func (s *Server) Register(comp component.Component) error {
	return s.components.Register(comp)
}

// Run starts the components and the tick loop and blocks until ctx is done
// or a listener fails. It always shuts everything down before returning.
func (s *Server) Run(ctx context.Context) error {
	if err := s.components.Start(); err != nil {
		s.closeListeners()
		return err
	}
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop.Run(ctx)
	for _, fn := range s.serve {
		go fn()
	}
	if s.Source != nil {
		s.Source.Watch(s.log, func(cfg *config.Config) {
			cfg.Apply(s.settings)
		})
	}
	s.log.Info("[Server/Run] started")

	var err error
	select {
	case <-ctx.Done():
	case <-s.quit:
	case err = <-s.errs:
		s.log.WithError(err).Error("[Server/Run] listener failed")
	}
	s.stop()
	return err
}

// Shutdown blocks until SIGINT or SIGTERM and then makes Run return.
func (s *Server) Shutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)
	sig := <-c
	s.log.WithField("signal", sig.String()).Info("[Server/Shutdown] stopping")
	close(s.quit)
}

func (s *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	for _, srv := range []*http.Server{s.clientServer, s.adminServer} {
		if srv != nil {
			if err := srv.Shutdown(ctx); err != nil {
				s.log.WithError(err).Warn("[Server/stop] http shutdown")
			}
		}
	}
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
	// hijacked websocket connections outlive http shutdown
	for _, sess := range s.sessions.Sessions() {
		sess.Close()
	}

	s.cancel()
	<-s.loop.Done()
	// components run on the loop; the loop is gone, so stop them here
	if err := s.components.Stop(); err != nil {
		s.log.WithError(err).Warn("[Server/stop] components")
	}
	var sinks []io.Closer
	if s.journal != nil {
		sinks = append(sinks, s.journal)
	}
	if s.index != nil {
		sinks = append(sinks, s.index)
	}
	for _, c := range sinks {
		if err := c.Close(); err != nil {
			s.log.WithError(err).Warn("[Server/stop] event sink")
		}
	}
	s.log.Info("[Server/stop] stopped")
}

func (s *Server) closeListeners() {
	for _, ls := range s.listeners {
		ls.Close()
	}
}
