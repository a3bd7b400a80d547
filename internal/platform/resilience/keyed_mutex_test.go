package resilience

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	var k KeyedMutex
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := k.Lock("club-1")
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, got %d", maxSeen)
	}
	if got := k.held(); got != 0 {
		t.Fatalf("expected lock table to be empty, got %d entries", got)
	}
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	var k KeyedMutex
	unlockA := k.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := k.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock on another key should not block")
	}
}
