package blocklist

import (
	"sync"

	"github.com/haukened/rr-dnsfwd/internal/dns/common/log"
	"github.com/haukened/rr-dnsfwd/internal/dns/common/utils"
	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
)

// repository composes a DecisionCache, a Bloom prefilter and a Store.
// Reads go cache -> bloom -> store; UpdateAll swaps all three as one
// snapshot.
type repository struct {
	mu      sync.RWMutex
	store   Store
	cache   DecisionCache
	bloom   BloomFilter
	factory BloomFactory
	fpRate  float64
	logger  log.Logger

	// gen counts snapshot swaps; a decision read under an older gen is
	// not cached.
	gen uint64
}

// NewRepository wires a repository. The Bloom filter stays empty (and every
// cache miss goes to the store) until the first UpdateAll.
func NewRepository(store Store, cache DecisionCache, factory BloomFactory, fpRate float64, logger log.Logger) Repository {
	return &repository{store: store, cache: cache, factory: factory, fpRate: fpRate, logger: logger}
}

// Decide returns the sinkhole verdict for name. Store errors allow the query.
func (r *repository) Decide(name string) domain.BlockDecision {
	cn := utils.CanonicalDNSName(name)
	if cn == "" {
		return domain.EmptyDecision()
	}
	d, gen, ok := r.checkCache(cn)
	if ok {
		return d
	}
	if !r.checkBloom(cn) {
		return domain.EmptyDecision()
	}
	dec := r.checkStore(cn)
	r.updateCache(cn, dec, gen)
	return dec
}

// UpdateAll replaces the rule set. On store failure the previous snapshot
// stays in place.
func (r *repository) UpdateAll(rules []domain.BlockRule, version uint64, updatedUnix int64) error {
	if err := r.store.RebuildAll(rules, version, updatedUnix); err != nil {
		r.logger.Error(map[string]any{"error": err.Error(), "version": version}, "blocklist rebuild failed")
		return err
	}

	var n uint64
	for _, ru := range rules {
		if ru.Kind.IsValid() {
			n++
		}
	}
	bf := r.factory.New(n, r.fpRate)
	for _, ru := range rules {
		if key, ok := bloomKey(ru); ok {
			bf.Add(key)
		}
	}

	r.mu.Lock()
	r.bloom = bf
	r.cache.Purge()
	r.gen++
	r.mu.Unlock()

	r.logger.Info(map[string]any{"rules": n, "version": version}, "blocklist updated")
	return nil
}

func (r *repository) Stats() RepoStats {
	return RepoStats{Cache: r.cache.Stats(), Store: r.store.Stats()}
}

// bloomKey maps exact rules to "=name" and suffix rules to "*name" so an
// exact rule never makes a subdomain look like a suffix candidate.
func bloomKey(rule domain.BlockRule) ([]byte, bool) {
	switch rule.Kind {
	case domain.BlockRuleExact:
		return []byte("=" + rule.Name), true
	case domain.BlockRuleSuffix:
		return []byte("*" + rule.Name), true
	}
	return nil, false
}

// checkBloom reports whether the store must be consulted. With no filter
// loaded it always does.
func (r *repository) checkBloom(cn string) bool {
	r.mu.RLock()
	bf := r.bloom
	r.mu.RUnlock()
	if bf == nil {
		return true
	}
	if bf.MightContain([]byte("=" + cn)) {
		return true
	}
	for _, anchor := range utils.SuffixAnchors(cn) {
		if bf.MightContain([]byte("*" + anchor)) {
			return true
		}
	}
	return false
}

func (r *repository) checkCache(cn string) (domain.BlockDecision, uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.cache.Get(cn)
	return d, r.gen, ok
}

func (r *repository) checkStore(cn string) domain.BlockDecision {
	rule, ok, err := r.store.GetFirstMatch(cn)
	if err != nil {
		r.logger.Warn(map[string]any{"name": cn, "error": err.Error()}, "blocklist store lookup failed")
		return domain.EmptyDecision()
	}
	if !ok {
		return domain.EmptyDecision()
	}
	return rule.Decision()
}

func (r *repository) updateCache(cn string, dec domain.BlockDecision, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return
	}
	r.cache.Put(cn, dec)
}
