package parsers

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/haukened/rr-dnsfwd/internal/dns/common/log"
	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
)

// HostsPrefix marks a list path as hosts-file syntax, e.g. "hosts:/etc/hosts.block".
const HostsPrefix = "hosts:"

// LoadFiles parses every path and merges the results, keeping the first
// occurrence of each name and kind. Paths prefixed with HostsPrefix use the
// hosts parser, .yaml/.yml/.json/.toml files the structured parser and all
// others the plain list parser.
func LoadFiles(paths []string, logger log.Logger, now time.Time) ([]domain.BlockRule, error) {
	set := newRuleSet()
	for _, p := range paths {
		rules, err := loadFile(p, logger, now)
		if err != nil {
			return nil, err
		}
		added := 0
		for _, r := range rules {
			if set.add(r) {
				added++
			}
		}
		logger.Info(map[string]any{"source": p, "rules": len(rules), "added": added}, "blocklist file loaded")
	}
	return set.rules, nil
}

func loadFile(p string, logger log.Logger, now time.Time) ([]domain.BlockRule, error) {
	if !strings.HasPrefix(p, HostsPrefix) && IsStructured(p) {
		return ParseStructuredFile(p, logger, now)
	}

	parse := ParsePlainList
	path := p
	if rest, ok := strings.CutPrefix(p, HostsPrefix); ok {
		parse = ParseHostsFile
		path = rest
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blocklist %s: %w", path, err)
	}
	defer f.Close()

	rules, err := parse(f, path, logger, now)
	if err != nil {
		return nil, fmt.Errorf("parse blocklist %s: %w", path, err)
	}
	return rules, nil
}
