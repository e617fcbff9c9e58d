package blocklist

import "github.com/haukened/rr-dnsfwd/internal/dns/domain"

// BloomFilter is the probabilistic prefilter consulted before the store.
// A negative answer is definitive; a positive one only means "maybe".
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds a filter sized for capacity keys at the target
// false-positive rate.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// DecisionCache memoizes decisions by canonical name.
type DecisionCache interface {
	Get(name string) (domain.BlockDecision, bool)
	Put(name string, d domain.BlockDecision)
	Len() int
	Purge()
	Stats() CacheStats
}

// Store is the authoritative rule index.
//
// GetFirstMatch returns the most specific rule covering name: an exact rule
// for name wins over any suffix rule, and a suffix rule on a longer anchor
// wins over one on a shorter anchor. RebuildAll atomically replaces the
// whole rule set.
type Store interface {
	GetFirstMatch(name string) (domain.BlockRule, bool, error)
	RebuildAll(rules []domain.BlockRule, version uint64, updatedUnix int64) error
	Stats() StoreStats
	Close() error
}

// CacheStats reports decision cache counters.
type CacheStats struct {
	Capacity  int
	Size      int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// StoreStats reports store contents and snapshot metadata.
type StoreStats struct {
	ExactKeys   uint64
	SuffixKeys  uint64
	Version     uint64
	UpdatedUnix int64
}

// RepoStats combines cache and store statistics.
type RepoStats struct {
	Cache CacheStats
	Store StoreStats
}

// Repository answers sinkhole decisions for query names.
type Repository interface {
	Decide(name string) domain.BlockDecision
	UpdateAll(rules []domain.BlockRule, version uint64, updatedUnix int64) error
	Stats() RepoStats
}
