// Package bloom provides the Bloom prefilter for blocklist lookups, backed
// by bits-and-blooms.
package bloom

import (
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/rr-dnsfwd/internal/dns/repos/blocklist"
)

const defaultFPRate = 0.01

type factory struct{}

// NewFactory returns a BloomFactory backed by bits-and-blooms filters.
func NewFactory() blocklist.BloomFactory { return factory{} }

// New sizes a filter for capacity keys at fpRate. A zero capacity is
// treated as one key and an fpRate outside (0,1) falls back to 1%.
func (factory) New(capacity uint64, fpRate float64) blocklist.BloomFilter {
	m, k := Size(capacity, fpRate)
	return &lockedFilter{bits: bitsbloom.New(m, k)}
}

// Size returns the bit count m and hash count k for n keys at rate p.
func Size(n uint64, p float64) (m, k uint) {
	if n == 0 {
		n = 1
	}
	if !(p > 0 && p < 1) {
		p = defaultFPRate
	}
	return bitsbloom.EstimateParameters(uint(n), p)
}

// lockedFilter lets the rebuild path add keys while lookups run.
type lockedFilter struct {
	mu   sync.RWMutex
	bits *bitsbloom.BloomFilter
}

func (f *lockedFilter) Add(key []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bits.Add(key)
}

func (f *lockedFilter) MightContain(key []byte) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bits.Test(key)
}
