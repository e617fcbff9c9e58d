package rrdata

import (
	"fmt"
	"strings"
)

// encodeMINFOData encodes "rmailbx emailbx" as two consecutive names.
func encodeMINFOData(data string) ([]byte, error) {
	parts := strings.Fields(data)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty MINFO rdata", ErrInvalidArgument)
	}
	var encoded []byte
	for _, p := range parts {
		var err error
		if encoded, err = WriteName(encoded, p); err != nil {
			return nil, fmt.Errorf("invalid MINFO mailbox: %w", err)
		}
	}
	return encoded, nil
}

// decodeMINFOData reads names until the rdata is consumed.
func decodeMINFOData(msg []byte, off, end int) (string, error) {
	var names []string
	for off < end {
		name, next, err := ReadName(msg, off)
		if err != nil {
			return "", fmt.Errorf("invalid MINFO mailbox: %w", err)
		}
		names = append(names, name)
		off = next
	}
	if off != end {
		return "", fmt.Errorf("%w: MINFO overruns rdata", ErrInvalidArgument)
	}
	return strings.Join(names, " "), nil
}
