package parsers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/haukened/rr-dnsfwd/internal/dns/common/log"
	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
)

const (
	keyExact  = "exact"
	keySuffix = "suffix"
)

// structuredParser picks a koanf parser from the file extension.
func structuredParser(path string) (koanf.Parser, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), true
	case ".json":
		return json.Parser(), true
	case ".toml":
		return toml.Parser(), true
	default:
		return nil, false
	}
}

// IsStructured reports whether path names a YAML, JSON or TOML list.
func IsStructured(path string) bool {
	_, ok := structuredParser(path)
	return ok
}

// ParseStructuredFile loads a YAML, JSON or TOML list of the form
//
//	exact:  [ads.example, ...]
//	suffix: [tracker.example, ...]
//
// Either key may hold a single string. Other keys are ignored.
func ParseStructuredFile(path string, logger log.Logger, now time.Time) ([]domain.BlockRule, error) {
	parser, ok := structuredParser(path)
	if !ok {
		return nil, fmt.Errorf("unsupported blocklist format %q", filepath.Ext(path))
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load blocklist %s: %w", path, err)
	}

	for _, key := range k.Keys() {
		if key != keyExact && key != keySuffix {
			logger.Debug(map[string]any{"source": path, "key": key}, "ignore unknown key")
		}
	}

	set := newRuleSet()
	addAll := func(key string, kind domain.BlockRuleKind) {
		for i, raw := range toStringValues(k.Get(key)) {
			name := normalizeDomainName(raw)
			if !isValidFQDN(name) {
				logger.Debug(map[string]any{"source": path, "key": key, "index": i, "raw": raw}, "skip invalid name")
				continue
			}
			rule, err := domain.NewBlockRule(name, kind, path, now)
			if err != nil {
				logger.Debug(map[string]any{"source": path, "key": key, "index": i, "error": err.Error()}, "skip invalid rule")
				continue
			}
			if !set.add(rule) {
				logger.Debug(map[string]any{"source": path, "key": key, "name": name}, "skip duplicate")
			}
		}
	}
	addAll(keyExact, domain.BlockRuleExact)
	addAll(keySuffix, domain.BlockRuleSuffix)

	logger.Debug(map[string]any{"source": path, "count": len(set.rules)}, "structured list parsed")
	return set.rules, nil
}

// toStringValues accepts a string or a list and returns its non-empty
// string elements. Anything else yields nil.
func toStringValues(val any) []string {
	switch v := val.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		return []string{s}
	case []string:
		return toStringValues(toAnySlice(v))
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
