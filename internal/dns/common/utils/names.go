package utils

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// CanonicalDNSName lowercases name, trims surrounding whitespace and
// strips every trailing dot. The root name "." becomes "".
func CanonicalDNSName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimRight(name, ".")
}

// GetApexDomain returns the registrable domain (eTLD+1) of name, or the
// canonical name itself when the public suffix list cannot place it.
func GetApexDomain(name string) string {
	name = CanonicalDNSName(name)
	apex, err := publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		return name
	}
	return apex
}

// ReverseLabels reverses the label order of name so that names sharing a
// parent share a key prefix: "www.example.com" becomes "com.example.www".
func ReverseLabels(name string) string {
	if name == "" {
		return ""
	}
	labels := strings.Split(name, ".")
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return strings.Join(labels, ".")
}

// SuffixAnchors lists name followed by each of its parents, most specific
// first: "a.b.com" yields a.b.com, b.com, com.
func SuffixAnchors(name string) []string {
	if name == "" {
		return nil
	}
	out := make([]string, 0, strings.Count(name, ".")+1)
	for {
		out = append(out, name)
		i := strings.IndexByte(name, '.')
		if i < 0 || i == len(name)-1 {
			return out
		}
		name = name[i+1:]
	}
}
