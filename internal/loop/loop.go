// Package loop runs the simulation tick goroutine. Everything that touches
// actor state is posted here, so actor code never needs locks.
package loop

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"actornet/pcall"
	"actornet/queue"
)

var ErrStopped = errors.New("loop: stopped")

type Loop struct {
	log    *logrus.Entry
	rate   time.Duration
	onTick func(now time.Time)

	inbox   *queue.Queue[func()]
	wake    chan struct{}
	running atomic.Bool
	stopped atomic.Bool
	done    chan struct{}
}

func New(rate time.Duration, onTick func(now time.Time), log *logrus.Entry) *Loop {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if rate <= 0 {
		rate = 50 * time.Millisecond
	}
	return &Loop{
		log:    log.WithField("component", "loop"),
		rate:   rate,
		onTick: onTick,
		inbox:  queue.New[func()](),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Post schedules fn on the tick goroutine.
func (l *Loop) Post(fn func()) error {
	if l.stopped.Load() {
		return ErrStopped
	}
	l.inbox.Push(fn)
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Call runs fn on the tick goroutine and waits for its result.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	res := make(chan error, 1)
	err := l.Post(func() {
		var ferr error
		if perr := pcall.Safe(l.log, "loop.Call", func() { ferr = fn() }); perr != nil {
			ferr = perr
		}
		res <- ferr
	})
	if err != nil {
		return err
	}
	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		select {
		case err := <-res:
			return err
		default:
			return ErrStopped
		}
	}
}

// Run drives the loop until ctx is cancelled. Queued work is drained before
// it returns.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("loop: already running")
	}
	ticker := time.NewTicker(l.rate)
	defer func() {
		ticker.Stop()
		l.stopped.Store(true)
		l.drain()
		close(l.done)
	}()

	l.log.WithField("rate", l.rate).Info("[Loop/Run] started")
	for {
		select {
		case <-ctx.Done():
			l.log.Info("[Loop/Run] stopping")
			return nil
		case <-l.wake:
			l.drain()
		case now := <-ticker.C:
			l.drain()
			if l.onTick != nil {
				pcall.Safe(l.log, "loop.OnTick", func() { l.onTick(now) })
			}
		}
	}
}

func (l *Loop) drain() {
	for {
		fn, ok := l.inbox.Pop()
		if !ok {
			return
		}
		pcall.Safe(l.log, "loop.Post", fn)
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
