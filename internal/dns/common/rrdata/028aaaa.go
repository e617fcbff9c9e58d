package rrdata

import (
	"fmt"
	"net/netip"
)

// encodeAAAAData encodes an AAAA record string into its binary representation.
func encodeAAAAData(data string) ([]byte, error) {
	// data = "2001:db8::ff00:42:8329"
	addr, err := netip.ParseAddr(data)
	if err != nil || !addr.Is6() || addr.Zone() != "" {
		return nil, fmt.Errorf("%w: invalid AAAA record IP: %q", ErrInvalidArgument, data)
	}
	ip := addr.As16()
	return ip[:], nil
}

// decodeAAAAData renders 16 bytes in canonical RFC 5952 form.
func decodeAAAAData(b []byte) (string, error) {
	if len(b) != 16 {
		return "", fmt.Errorf("%w: invalid AAAA data length: %d", ErrInvalidArgument, len(b))
	}
	return netip.AddrFrom16([16]byte(b)).String(), nil
}
