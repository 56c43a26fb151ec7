package keylock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireSerializesSameKey(t *testing.T) {
	s := New()

	var inside int
	var maxInside int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := s.Acquire("tx-1")
			defer release()

			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 1, maxInside)
}

func TestAcquireIndependentKeys(t *testing.T) {
	s := New()

	releaseA := s.Acquire("tx-1")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		release := s.Acquire("tx-2")
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent key blocked")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	s := New()

	release := s.Acquire("device-1")
	release()
	release()

	release2 := s.Acquire("device-1")
	release2()

	s.mu.Lock()
	require.Empty(t, s.entries)
	s.mu.Unlock()
}
