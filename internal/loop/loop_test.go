package loop

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"actornet/pcall"
)

func start(t *testing.T, onTick func(time.Time)) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New(5*time.Millisecond, onTick, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l, cancel
}

func TestCallRunsOnLoop(t *testing.T) {
	l, _ := start(t, nil)
	n := 0
	for i := 0; i < 10; i++ {
		if err := l.Call(context.Background(), func() error { n++; return nil }); err != nil {
			t.Fatal(err)
		}
	}
	if n != 10 {
		t.Fatalf("n = %d", n)
	}
}

func TestCallReturnsError(t *testing.T) {
	l, _ := start(t, nil)
	want := errors.New("nope")
	if err := l.Call(context.Background(), func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
	err := l.Call(context.Background(), func() error { panic("boom") })
	if !errors.Is(err, pcall.ErrPanic) {
		t.Fatalf("err = %v, want ErrPanic", err)
	}
}

func TestTicks(t *testing.T) {
	var ticks atomic.Int32
	start(t, func(time.Time) { ticks.Add(1) })
	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("loop did not tick")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPostAfterStop(t *testing.T) {
	l, cancel := start(t, nil)
	cancel()
	<-l.Done()
	if err := l.Post(func() {}); !errors.Is(err, ErrStopped) {
		t.Fatalf("err = %v, want ErrStopped", err)
	}
	if err := l.Call(context.Background(), func() error { return nil }); !errors.Is(err, ErrStopped) {
		t.Fatalf("err = %v, want ErrStopped", err)
	}
}

func TestCallContextTimeout(t *testing.T) {
	l, _ := start(t, nil)
	block := make(chan struct{})
	l.Post(func() { <-block })
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.Call(ctx, func() error { return nil })
	close(block)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}
