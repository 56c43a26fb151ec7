package rates

import (
	"errors"

	"github.com/sasha-s/go-deadlock"
	"github.com/shopspring/decimal"
)

// ErrNotReady is returned until both rates have been observed at least once.
var ErrNotReady = errors.New("rates not ready yet")

// Source converts a USD amount to native ledger units.
type Source interface {
	PriceInNativeUnits(usd decimal.Decimal) (int64, error)
}

var bytesPerGigabyte = decimal.NewFromInt(1_000_000_000)

// Feed is a Source fed by an external rate retriever. It stays unusable until
// the first complete update.
type Feed struct {
	mu       deadlock.RWMutex
	gbyteBTC decimal.Decimal
	btcUSD   decimal.Decimal
	ready    bool
}

func NewFeed() *Feed {
	return &Feed{}
}

func (f *Feed) Update(gbyteBTC decimal.Decimal, btcUSD decimal.Decimal) {
	if gbyteBTC.IsZero() || btcUSD.IsZero() {
		return
	}
	f.mu.Lock()
	f.gbyteBTC = gbyteBTC
	f.btcUSD = btcUSD
	f.ready = true
	f.mu.Unlock()
}

func (f *Feed) PriceInNativeUnits(usd decimal.Decimal) (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.ready {
		return 0, ErrNotReady
	}
	gbyteUSD := f.gbyteBTC.Mul(f.btcUSD)
	return usd.Div(gbyteUSD).Mul(bytesPerGigabyte).Round(0).IntPart(), nil
}
