package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// BlockRuleKind selects how a sinkhole rule matches query names.
type BlockRuleKind uint8

const (
	// BlockRuleExact matches the rule name only.
	BlockRuleExact BlockRuleKind = iota
	// BlockRuleSuffix matches the rule name and every name below it.
	BlockRuleSuffix
)

var (
	errEmptyRuleName   = errors.New("block rule name must not be empty")
	errEmptyRuleSource = errors.New("block rule source must not be empty")
	errZeroRuleTime    = errors.New("block rule time must be set")
)

func (k BlockRuleKind) String() string {
	switch k {
	case BlockRuleExact:
		return "exact"
	case BlockRuleSuffix:
		return "suffix"
	}
	return fmt.Sprintf("BlockRuleKind(%d)", uint8(k))
}

// IsValid reports whether k is one of the defined kinds.
func (k BlockRuleKind) IsValid() bool {
	return k == BlockRuleExact || k == BlockRuleSuffix
}

// ParseBlockRuleKind accepts "exact" or "suffix" in any case.
func ParseBlockRuleKind(s string) (BlockRuleKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact":
		return BlockRuleExact, nil
	case "suffix":
		return BlockRuleSuffix, nil
	}
	return 0, fmt.Errorf("unsupported block rule kind: %q", s)
}

// BlockRule is one entry of a sinkhole list. Name is lowercase without a
// trailing dot; Source names the list file it was read from.
type BlockRule struct {
	Name    string
	Kind    BlockRuleKind
	Source  string
	AddedAt time.Time
}

// NewBlockRule normalizes name and validates the resulting rule.
func NewBlockRule(name string, kind BlockRuleKind, source string, addedAt time.Time) (BlockRule, error) {
	r := BlockRule{
		Name:    normalizeRuleName(name),
		Kind:    kind,
		Source:  strings.TrimSpace(source),
		AddedAt: addedAt,
	}
	if err := r.Validate(); err != nil {
		return BlockRule{}, err
	}
	return r, nil
}

// NewExactBlockRule builds a rule matching name only.
func NewExactBlockRule(name, source string, addedAt time.Time) (BlockRule, error) {
	return NewBlockRule(name, BlockRuleExact, source, addedAt)
}

// NewSuffixBlockRule builds a rule matching name and its subdomains.
func NewSuffixBlockRule(name, source string, addedAt time.Time) (BlockRule, error) {
	return NewBlockRule(name, BlockRuleSuffix, source, addedAt)
}

func (r BlockRule) Validate() error {
	if r.Name == "" {
		return errEmptyRuleName
	}
	if r.Source == "" {
		return errEmptyRuleSource
	}
	if r.AddedAt.IsZero() {
		return errZeroRuleTime
	}
	if !r.Kind.IsValid() {
		return fmt.Errorf("unsupported block rule kind: %d", uint8(r.Kind))
	}
	return nil
}

func (r BlockRule) IsExact() bool  { return r.Kind == BlockRuleExact }
func (r BlockRule) IsSuffix() bool { return r.Kind == BlockRuleSuffix }

// Matches reports whether the rule covers name. name must already be
// normalized the same way rule names are.
func (r BlockRule) Matches(name string) bool {
	switch r.Kind {
	case BlockRuleExact:
		return name == r.Name
	case BlockRuleSuffix:
		return name == r.Name || strings.HasSuffix(name, "."+r.Name)
	}
	return false
}

// Decision converts a matching rule into a blocked decision.
func (r BlockRule) Decision() BlockDecision {
	return BlockDecision{Blocked: true, MatchedRule: r.Name, Source: r.Source, Kind: r.Kind}
}

func normalizeRuleName(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}
