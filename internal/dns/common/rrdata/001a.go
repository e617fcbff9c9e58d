package rrdata

import (
	"fmt"
	"net/netip"
)

// encodeAData encodes an A record string into its binary representation.
func encodeAData(data string) ([]byte, error) {
	// data = "192.168.0.1"
	addr, err := netip.ParseAddr(data)
	if err != nil || !addr.Is4() {
		return nil, fmt.Errorf("%w: invalid A record IP: %q", ErrInvalidArgument, data)
	}
	ip := addr.As4()
	return ip[:], nil
}

// decodeAData decodes 4 bytes of A rdata into dotted decimal.
func decodeAData(b []byte) (string, error) {
	if len(b) != 4 {
		return "", fmt.Errorf("%w: invalid A data length: %d", ErrInvalidArgument, len(b))
	}
	return netip.AddrFrom4([4]byte(b)).String(), nil
}
