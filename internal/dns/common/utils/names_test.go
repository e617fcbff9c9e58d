package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalDNSName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "example.com", "example.com"},
		{"trailing dot", "example.com.", "example.com"},
		{"multiple trailing dots", "example.com..", "example.com"},
		{"mixed case", "ExAmPlE.CoM", "example.com"},
		{"whitespace", "\t www.example.com \n", "www.example.com"},
		{"everything", "  WwW.ExAmPlE.CoM.  ", "www.example.com"},
		{"root", ".", ""},
		{"root with whitespace", " . ", ""},
		{"empty", "", ""},
		{"whitespace only", " \t ", ""},
		{"single label", " LOCALHOST ", "localhost"},
		{"punycode", "xn--nxasmq6b.xn--j6w193g", "xn--nxasmq6b.xn--j6w193g"},
		{"underscore", "_dmarc.Example.com", "_dmarc.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanonicalDNSName(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, got, CanonicalDNSName(got), "not idempotent")
		})
	}
}

func TestGetApexDomain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"apex with trailing dot", "example.com.", "example.com"},
		{"subdomain", "www.example.com", "example.com"},
		{"deep subdomain", "api.service.example.com", "example.com"},
		{"co.uk", "www.example.co.uk", "example.co.uk"},
		{"private suffix", "subdomain.user.github.io", "user.github.io"},
		{"brand tld", "foo.domains.google.", "domains.google"},
		{"unknown tld", "foo.invalidtld.", "foo.invalidtld"},
		{"single label fallback", "localhost", "localhost"},
		{"empty label fallback", "invalid..domain", "invalid..domain"},
		{"root", ".", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetApexDomain(tt.input))
		})
	}
}

func TestReverseLabels(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"com", "com"},
		{"example.com", "com.example"},
		{"www.example.com", "com.example.www"},
		{"a.b.c.d", "d.c.b.a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReverseLabels(tt.in), tt.in)
		assert.Equal(t, tt.in, ReverseLabels(ReverseLabels(tt.in)), tt.in)
	}
}

func TestSuffixAnchors(t *testing.T) {
	assert.Nil(t, SuffixAnchors(""))
	assert.Equal(t, []string{"com"}, SuffixAnchors("com"))
	assert.Equal(t, []string{"a.b.com", "b.com", "com"}, SuffixAnchors("a.b.com"))
	assert.Equal(t, []string{"x."}, SuffixAnchors("x."))
}
