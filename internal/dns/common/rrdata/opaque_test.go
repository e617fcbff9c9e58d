package rrdata

import (
	"errors"
	"testing"

	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
)

func TestOpaqueRoundTrip(t *testing.T) {
	const opt domain.RRType = 41
	raw := []byte{0x00, 0x0A, 0xBE, 0xEF}
	got, err := Decode(opt, raw, 0, len(raw))
	if err != nil || got != "000ABEEF" {
		t.Fatalf("Decode = %q, %v", got, err)
	}
	b, err := Encode(opt, got)
	if err != nil || !equalBytes(b, raw) {
		t.Errorf("Encode = %v, %v", b, err)
	}
	lower, err := Encode(opt, "000abeef")
	if err != nil || !equalBytes(lower, raw) {
		t.Errorf("lowercase hex should decode: %v, %v", lower, err)
	}
}

func TestOpaque_EmptyAndInvalid(t *testing.T) {
	got, err := Decode(domain.RRTypeNULL, nil, 0, 0)
	if err != nil || got != "" {
		t.Errorf("empty rdata = %q, %v", got, err)
	}
	for _, in := range []string{"ABC", "ZZ", "0x00"} {
		if _, err := Encode(domain.RRTypeWKS, in); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Encode(%q) expected ErrInvalidArgument, got %v", in, err)
		}
	}
}

func TestDecode_RDLengthBeyondBuffer(t *testing.T) {
	if _, err := Decode(domain.RRTypeA, []byte{1, 2, 3, 4}, 2, 4); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}
