package parsers

import (
	"io"
	"net/netip"
	"strings"
	"time"

	"github.com/haukened/rr-dnsfwd/internal/dns/common/log"
	"github.com/haukened/rr-dnsfwd/internal/dns/common/utils"
	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
)

// hostsReserved are loopback aliases shipped in most hosts files.
var hostsReserved = map[string]struct{}{
	"localhost.localdomain": {},
	"local.localdomain":     {},
}

// ParseHostsFile reads /etc/hosts syntax and returns an exact rule for every
// hostname after the address field. Wildcards, leading dots, bare addresses
// and loopback aliases are skipped.
func ParseHostsFile(r io.Reader, source string, logger log.Logger, now time.Time) ([]domain.BlockRule, error) {
	set := newRuleSet()
	err := scanLines(r, func(lineNum int, line string) {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			logger.Debug(map[string]any{"source": source, "line": lineNum}, "hosts line without hostnames")
			return
		}
		for _, raw := range fields[1:] {
			if strings.HasPrefix(raw, ".") || strings.Contains(raw, "*") {
				logger.Debug(map[string]any{"source": source, "line": lineNum, "raw": raw}, "skip hosts wildcard")
				continue
			}
			if _, err := netip.ParseAddr(raw); err == nil {
				continue
			}
			name := utils.CanonicalDNSName(raw)
			if _, ok := hostsReserved[name]; ok || !isValidFQDN(name) {
				logger.Debug(map[string]any{"source": source, "line": lineNum, "raw": raw}, "skip invalid name")
				continue
			}
			rule, err := domain.NewExactBlockRule(name, source, now)
			if err != nil {
				logger.Debug(map[string]any{"source": source, "line": lineNum, "error": err.Error()}, "skip invalid rule")
				continue
			}
			if !set.add(rule) {
				logger.Debug(map[string]any{"source": source, "line": lineNum, "name": name}, "skip duplicate")
			}
		}
	})
	if err != nil {
		return nil, err
	}
	logger.Debug(map[string]any{"source": source, "count": len(set.rules)}, "hosts file parsed")
	return set.rules, nil
}
