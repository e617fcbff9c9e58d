package parsers

import (
	"io"
	"time"

	"github.com/haukened/rr-dnsfwd/internal/dns/common/log"
	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
)

// ParsePlainList reads one name per line. A leading "*." or "." makes the
// entry a suffix rule; anything else is exact. '#' starts a comment.
// Invalid names and duplicates are skipped. Every rule carries source and
// now.
func ParsePlainList(r io.Reader, source string, logger log.Logger, now time.Time) ([]domain.BlockRule, error) {
	set := newRuleSet()
	err := scanLines(r, func(lineNum int, line string) {
		kind := ruleKindFromRaw(line)
		name := normalizeDomainName(line)
		if !isValidFQDN(name) {
			logger.Debug(map[string]any{"source": source, "line": lineNum, "raw": line}, "skip invalid name")
			return
		}
		rule, err := domain.NewBlockRule(name, kind, source, now)
		if err != nil {
			logger.Debug(map[string]any{"source": source, "line": lineNum, "error": err.Error()}, "skip invalid rule")
			return
		}
		if !set.add(rule) {
			logger.Debug(map[string]any{"source": source, "line": lineNum, "name": name}, "skip duplicate")
		}
	})
	if err != nil {
		return nil, err
	}
	logger.Debug(map[string]any{"source": source, "count": len(set.rules)}, "plain list parsed")
	return set.rules, nil
}
