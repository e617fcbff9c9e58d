package bolt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"
	bberrors "go.etcd.io/bbolt/errors"

	"github.com/haukened/rr-dnsfwd/internal/dns/common/utils"
	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
	"github.com/haukened/rr-dnsfwd/internal/dns/repos/blocklist"
)

var (
	bucketExact  = []byte("exact")
	bucketSuffix = []byte("suffix")
	bucketMeta   = []byte("meta")

	keyVersion = []byte("version")
	keyUpdated = []byte("updated")
)

// value layout: kind(1) | addedAt unix seconds(8) | source length(2) | source
const ruleHeaderLen = 11

var errCorruptRule = errors.New("corrupt rule value")

// boltStore keeps exact rules keyed by name and suffix rules keyed by the
// label-reversed name.
type boltStore struct {
	db *bbolt.DB
}

// New opens or creates the database at path.
func New(path string) (blocklist.Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open blocklist db %s: %w", path, err)
	}
	if err := db.Update(ensureBuckets); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init blocklist db: %w", err)
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

// GetFirstMatch checks the exact bucket, then each suffix anchor from the
// name itself up to its top-level label.
func (s *boltStore) GetFirstMatch(name string) (domain.BlockRule, bool, error) {
	if name == "" {
		return domain.BlockRule{}, false, nil
	}
	var (
		rule  domain.BlockRule
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketExact); b != nil {
			if v := b.Get([]byte(name)); v != nil {
				r, err := decodeRule(name, domain.BlockRuleExact, v)
				if err != nil {
					return err
				}
				rule, found = r, true
				return nil
			}
		}
		b := tx.Bucket(bucketSuffix)
		if b == nil {
			return nil
		}
		for _, anchor := range utils.SuffixAnchors(name) {
			if v := b.Get([]byte(utils.ReverseLabels(anchor))); v != nil {
				r, err := decodeRule(anchor, domain.BlockRuleSuffix, v)
				if err != nil {
					return err
				}
				rule, found = r, true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return domain.BlockRule{}, false, err
	}
	return rule, found, nil
}

// RebuildAll drops every bucket and reloads rules in one transaction, so
// readers see either the old or the new set. Rules of unknown kind are
// skipped.
func (s *boltStore) RebuildAll(rules []domain.BlockRule, version uint64, updatedUnix int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketExact, bucketSuffix, bucketMeta} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bberrors.ErrBucketNotFound) {
				return fmt.Errorf("drop bucket %s: %w", name, err)
			}
		}
		if err := ensureBuckets(tx); err != nil {
			return err
		}
		exact, suffix := tx.Bucket(bucketExact), tx.Bucket(bucketSuffix)
		for _, r := range rules {
			var err error
			switch r.Kind {
			case domain.BlockRuleExact:
				err = exact.Put([]byte(r.Name), encodeRule(r))
			case domain.BlockRuleSuffix:
				err = suffix.Put([]byte(utils.ReverseLabels(r.Name)), encodeRule(r))
			default:
				continue
			}
			if err != nil {
				return fmt.Errorf("store rule %q: %w", r.Name, err)
			}
		}
		return writeMeta(tx, version, updatedUnix)
	})
}

func (s *boltStore) Stats() blocklist.StoreStats {
	var st blocklist.StoreStats
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketExact); b != nil {
			st.ExactKeys = uint64(b.Stats().KeyN)
		}
		if b := tx.Bucket(bucketSuffix); b != nil {
			st.SuffixKeys = uint64(b.Stats().KeyN)
		}
		if b := tx.Bucket(bucketMeta); b != nil {
			if v := b.Get(keyVersion); len(v) == 8 {
				st.Version = binary.BigEndian.Uint64(v)
			}
			if v := b.Get(keyUpdated); len(v) == 8 {
				st.UpdatedUnix = int64(binary.BigEndian.Uint64(v))
			}
		}
		return nil
	})
	return st
}

func ensureBuckets(tx *bbolt.Tx) error {
	for _, name := range [][]byte{bucketExact, bucketSuffix, bucketMeta} {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return fmt.Errorf("create bucket %s: %w", name, err)
		}
	}
	return nil
}

func writeMeta(tx *bbolt.Tx, version uint64, updatedUnix int64) error {
	b := tx.Bucket(bucketMeta)
	if err := b.Put(keyVersion, binary.BigEndian.AppendUint64(nil, version)); err != nil {
		return err
	}
	return b.Put(keyUpdated, binary.BigEndian.AppendUint64(nil, uint64(updatedUnix)))
}

func encodeRule(r domain.BlockRule) []byte {
	src := r.Source
	if len(src) > 0xFFFF {
		src = src[:0xFFFF]
	}
	v := make([]byte, 0, ruleHeaderLen+len(src))
	v = append(v, byte(r.Kind))
	v = binary.BigEndian.AppendUint64(v, uint64(r.AddedAt.Unix()))
	v = binary.BigEndian.AppendUint16(v, uint16(len(src)))
	return append(v, src...)
}

// decodeRule rebuilds a rule stored under name. The stored kind must agree
// with the bucket it was read from.
func decodeRule(name string, kind domain.BlockRuleKind, v []byte) (domain.BlockRule, error) {
	if len(v) < ruleHeaderLen {
		return domain.BlockRule{}, fmt.Errorf("%w: %q is %d bytes", errCorruptRule, name, len(v))
	}
	if domain.BlockRuleKind(v[0]) != kind {
		return domain.BlockRule{}, fmt.Errorf("%w: %q has kind %d in %s bucket", errCorruptRule, name, v[0], kind)
	}
	srcLen := int(binary.BigEndian.Uint16(v[9:11]))
	if len(v) != ruleHeaderLen+srcLen {
		return domain.BlockRule{}, fmt.Errorf("%w: %q source length mismatch", errCorruptRule, name)
	}
	return domain.BlockRule{
		Name:    name,
		Kind:    kind,
		Source:  string(v[ruleHeaderLen:]),
		AddedAt: time.Unix(int64(binary.BigEndian.Uint64(v[1:9])), 0),
	}, nil
}
