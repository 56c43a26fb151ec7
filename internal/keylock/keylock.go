package keylock

import (
	"strconv"
	"sync"

	"github.com/sasha-s/go-deadlock"
)

// TxKey names the guard serializing attestation reservation, posting and
// payout for one transaction.
func TxKey(transactionID int64) string {
	return "tx-" + strconv.FormatInt(transactionID, 10)
}

// Service serializes work per named key. Attestation reservation, posting and
// payout for one transaction all run under the key "tx-<id>"; receiving-address
// assignment runs under the device address; fund consolidation runs under a
// fixed global name.
type Service struct {
	mu      deadlock.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   deadlock.Mutex
	refs int
}

func New() *Service {
	return &Service{entries: make(map[string]*entry)}
}

// Acquire blocks until the key is free and returns a release function.
// Release is idempotent and must run on every exit path.
func (s *Service) Acquire(key string) func() {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			s.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(s.entries, key)
			}
			s.mu.Unlock()
		})
	}
}
