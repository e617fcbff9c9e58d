package parsers

import (
	"bufio"
	"io"
	"strings"

	"github.com/haukened/rr-dnsfwd/internal/dns/common/utils"
	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
)

const (
	maxNameLen  = 253
	maxLabelLen = 63
)

// scanLines calls fn for every line of r that is not blank or a comment,
// with inline comments and a leading BOM removed. Line numbers start at 1.
func scanLines(r io.Reader, fn func(lineNum int, line string)) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimPrefix(scanner.Text(), "\uFEFF")
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fn(lineNum, line)
	}
	return scanner.Err()
}

// ruleKindFromRaw treats a leading "*." or "." as a suffix marker.
func ruleKindFromRaw(raw string) domain.BlockRuleKind {
	if strings.HasPrefix(raw, "*.") || strings.HasPrefix(raw, ".") {
		return domain.BlockRuleSuffix
	}
	return domain.BlockRuleExact
}

// normalizeDomainName strips a suffix marker and canonicalizes the rest.
func normalizeDomainName(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "*.")
	raw = strings.TrimPrefix(raw, ".")
	return utils.CanonicalDNSName(raw)
}

// isValidFQDN accepts names of at least two labels, each 1-63 bytes of
// letters, digits, hyphens or underscores, that fit in a DNS name.
func isValidFQDN(name string) bool {
	if len(name) == 0 || len(name) > maxNameLen {
		return false
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) == 0 || len(label) > maxLabelLen {
			return false
		}
		for i := 0; i < len(label); i++ {
			if !isNameByte(label[i]) {
				return false
			}
		}
	}
	return true
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_'
}

// ruleSet collects rules in first-seen order, dropping repeats of the same
// name and kind.
type ruleSet struct {
	seen  map[string]struct{}
	rules []domain.BlockRule
}

func newRuleSet() *ruleSet {
	return &ruleSet{seen: make(map[string]struct{})}
}

// add reports whether r was new.
func (s *ruleSet) add(r domain.BlockRule) bool {
	key := r.Kind.String() + "|" + r.Name
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.rules = append(s.rules, r)
	return true
}
