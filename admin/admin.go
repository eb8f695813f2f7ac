// Package admin serves the operator HTTP surface: health, Prometheus
// metrics and read-only views of the actor table and the event index.
package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"actornet/actors"
	"actornet/internal/eventlog"
	"actornet/internal/indexdb"
	"actornet/internal/loop"
	"actornet/internal/pool"
	"actornet/session"
)

const (
	CodeSuccess  = 0
	CodeNotFound = 404
	CodeBadInput = 400
	CodeFailed   = 500
)

type Response struct {
	Code      int    `json:"code"`
	Msg       string `json:"msg"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type Options struct {
	Actors   *actors.Component
	Sessions session.SessionPool
	Loop     *loop.Loop
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// Index backs /events when set.
	Index *indexdb.Index
	Log   *logrus.Entry
	// Timeout bounds each read of loop owned state.
	Timeout time.Duration
}

type Vec struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

type ActorView struct {
	Handle       uint32  `json:"handle"`
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Skin         int     `json:"skin"`
	VirtualWorld int     `json:"virtual_world"`
	Position     Vec     `json:"position"`
	Angle        float32 `json:"angle"`
	Health       float32 `json:"health"`
	Armour       float32 `json:"armour"`
	Invulnerable bool    `json:"invulnerable"`
	Weapon       uint32  `json:"weapon"`
	Vehicle      int     `json:"vehicle"`
	Seat         int     `json:"seat"`
	Animation    string  `json:"animation"`
	StreamedFor  []int   `json:"streamed_for"`
}

func viewOf(a *actors.Actor) ActorView {
	p := a.Position()
	v := ActorView{
		Handle:       uint32(a.Handle()),
		ID:           a.ID(),
		Name:         a.Name(),
		Skin:         a.Skin(),
		VirtualWorld: a.VirtualWorld(),
		Position:     Vec{p.X(), p.Y(), p.Z()},
		Angle:        a.FacingAngle(),
		Health:       a.Health(),
		Armour:       a.Armour(),
		Invulnerable: a.Invulnerable(),
		Weapon:       a.Weapon(),
		Vehicle:      a.Vehicle(),
		Seat:         a.Seat(),
		Animation:    a.AnimationState().String(),
		StreamedFor:  []int{},
	}
	for _, s := range a.StreamedFor() {
		v.StreamedFor = append(v.StreamedFor, s.ID())
	}
	return v
}

type server struct {
	opts Options
	log  *logrus.Entry
}

// NewRouter builds the gin engine. It never touches actor state outside the
// loop goroutine.
func NewRouter(opts Options) *gin.Engine {
	if opts.Log == nil {
		opts.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	s := &server{opts: opts, log: opts.Log.WithField("component", "admin")}

	e := gin.New()
	e.Use(gin.Recovery(), s.accessLog())
	e.GET("/healthz", s.health)
	if opts.Metrics != nil {
		e.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	g := e.Group("/actors")
	g.GET("", s.listActors)
	g.GET("/:handle", s.getActor)
	if opts.Index != nil {
		e.GET("/events", s.events)
		e.GET("/events/summary", s.summary)
	}
	return e
}

func reply(c *gin.Context, status, code int, msg string, data any) {
	c.JSON(status, Response{Code: code, Msg: msg, Data: data, Timestamp: time.Now().Unix()})
}

func (s *server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start),
		}).Debug("[Admin] request")
	}
}

// onLoop runs fn on the loop goroutine, bounded by the configured timeout.
func (s *server) onLoop(c *gin.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.Timeout)
	defer cancel()
	return s.opts.Loop.Call(ctx, fn)
}

func (s *server) failed(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, loop.ErrStopped) || errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusServiceUnavailable
	}
	s.log.WithError(err).Warn("[Admin] loop call failed")
	reply(c, status, CodeFailed, err.Error(), nil)
}

func (s *server) health(c *gin.Context) {
	var actorCount int
	if err := s.onLoop(c, func() error {
		actorCount = s.opts.Actors.Count()
		return nil
	}); err != nil {
		s.failed(c, err)
		return
	}
	reply(c, http.StatusOK, CodeSuccess, "success", gin.H{
		"actors":   actorCount,
		"sessions": s.opts.Sessions.GetSessionCount(),
	})
}

func (s *server) listActors(c *gin.Context) {
	var views []ActorView
	if err := s.onLoop(c, func() error {
		views = make([]ActorView, 0, s.opts.Actors.Count())
		s.opts.Actors.Range(func(a *actors.Actor) bool {
			views = append(views, viewOf(a))
			return true
		})
		return nil
	}); err != nil {
		s.failed(c, err)
		return
	}
	reply(c, http.StatusOK, CodeSuccess, "success", views)
}

func (s *server) getActor(c *gin.Context) {
	h, err := strconv.ParseUint(c.Param("handle"), 10, 32)
	if err != nil {
		reply(c, http.StatusBadRequest, CodeBadInput, "handle must be an unsigned integer", nil)
		return
	}
	var (
		view  ActorView
		found bool
	)
	if err := s.onLoop(c, func() error {
		a, ok := s.opts.Actors.Get(pool.Handle(h))
		if ok {
			view, found = viewOf(a), true
		}
		return nil
	}); err != nil {
		s.failed(c, err)
		return
	}
	if !found {
		reply(c, http.StatusNotFound, CodeNotFound, "no such actor", nil)
		return
	}
	reply(c, http.StatusOK, CodeSuccess, "success", view)
}

func (s *server) events(c *gin.Context) {
	actor, err := strconv.Atoi(c.DefaultQuery("actor", "-1"))
	if err != nil {
		reply(c, http.StatusBadRequest, CodeBadInput, "actor must be an integer", nil)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 1000 {
		reply(c, http.StatusBadRequest, CodeBadInput, "limit must be in 1..1000", nil)
		return
	}
	evs, err := s.opts.Index.Recent(c.Request.Context(), actor, limit)
	if err != nil {
		s.log.WithError(err).Warn("[Admin] event query failed")
		reply(c, http.StatusInternalServerError, CodeFailed, err.Error(), nil)
		return
	}
	if evs == nil {
		evs = []eventlog.Event{}
	}
	reply(c, http.StatusOK, CodeSuccess, "success", evs)
}

func (s *server) summary(c *gin.Context) {
	counts, err := s.opts.Index.CountByKind(c.Request.Context())
	if err != nil {
		s.log.WithError(err).Warn("[Admin] event summary failed")
		reply(c, http.StatusInternalServerError, CodeFailed, err.Error(), nil)
		return
	}
	reply(c, http.StatusOK, CodeSuccess, "success", gin.H{
		"counts":  counts,
		"dropped": s.opts.Index.Dropped(),
	})
}
