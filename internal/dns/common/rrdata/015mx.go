package rrdata

import (
	"fmt"
	"strconv"
	"strings"
)

// encodeMXData encodes an MX record string into its binary representation.
func encodeMXData(data string) ([]byte, error) {
	// data = 10 mail.example.com
	parts := strings.Fields(data)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: invalid MX record format (expected: preference domain): %q", ErrInvalidArgument, data)
	}
	pref, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid MX preference: %s", ErrInvalidArgument, parts[0])
	}
	encoded, err := WriteName(WriteU16(nil, uint16(pref)), parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid MX exchange domain: %w", err)
	}
	return encoded, nil
}

// decodeMXData decodes MX rdata spanning msg[off:end].
func decodeMXData(msg []byte, off, end int) (string, error) {
	if end-off < 3 {
		return "", fmt.Errorf("%w: invalid MX data length: %d", ErrInvalidArgument, end-off)
	}
	pref := ReadU16(msg, off)
	exchange, err := readNameRData(msg, off+2, end, "MX exchange domain")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %s", pref, exchange), nil
}
