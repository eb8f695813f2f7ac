package queue

import (
	"sync"
	"testing"
)

func TestFIFO(t *testing.T) {
	q := New[int]()
	if !q.Empty() {
		t.Fatal("new queue not empty")
	}
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	if q.Len() != 5 {
		t.Fatalf("len = %d", q.Len())
	}
	for i := 0; i < 5; i++ {
		v, ok := q.Pop()
		if !ok || v != i {
			t.Fatalf("pop = %d, %v, want %d", v, ok, i)
		}
	}
	if _, ok := q.Pop(); ok || !q.Empty() {
		t.Fatal("queue should be drained")
	}
}

func TestManyProducers(t *testing.T) {
	const producers, per = 8, 1000
	q := New[int]()
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < per; i++ {
				q.Push(p*per + i)
			}
		}(p)
	}

	seen := make([]bool, producers*per)
	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	got := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for got < producers*per {
		v, ok := q.Pop()
		if !ok {
			select {
			case <-done:
				if q.Empty() && got < producers*per {
					t.Fatalf("lost items: got %d", got)
				}
			default:
			}
			continue
		}
		if seen[v] {
			t.Fatalf("duplicate %d", v)
		}
		seen[v] = true
		p, i := v/per, v%per
		if i <= last[p] {
			t.Fatalf("producer %d out of order: %d after %d", p, i, last[p])
		}
		last[p] = i
		got++
	}
}

func BenchmarkPushSingleConsumer(b *testing.B) {
	q := New[int]()
	done := make(chan struct{})
	go func() {
		for i := 0; i < b.N; {
			if _, ok := q.Pop(); ok {
				i++
			}
		}
		close(done)
	}()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Push(i)
	}
	<-done
}
