package rrdata

import (
	"fmt"
	"strconv"
	"strings"
)

// soaFields is the number of textual fields in SOA rdata.
const soaFields = 7

// encodeSOAData encodes an SOA record string into its binary representation.
func encodeSOAData(data string) ([]byte, error) {
	// data = "mname rname serial refresh retry expire minimum"
	parts := strings.Fields(data)
	if len(parts) != soaFields {
		return nil, fmt.Errorf("%w: invalid SOA record format (expected %d fields): %q", ErrInvalidArgument, soaFields, data)
	}

	encoded, err := WriteName(nil, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid SOA mname: %w", err)
	}
	encoded, err = WriteName(encoded, parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid SOA rname: %w", err)
	}

	// serial, refresh, retry, expire, minimum
	for i, field := range parts[2:] {
		val, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid SOA field %d: %q", ErrInvalidArgument, i+2, field)
		}
		encoded = WriteU32(encoded, uint32(val))
	}
	return encoded, nil
}

// decodeSOAData decodes SOA rdata spanning msg[off:end].
func decodeSOAData(msg []byte, off, end int) (string, error) {
	mname, next, err := ReadName(msg, off)
	if err != nil {
		return "", fmt.Errorf("invalid SOA mname: %w", err)
	}
	rname, next, err := ReadName(msg, next)
	if err != nil {
		return "", fmt.Errorf("invalid SOA rname: %w", err)
	}
	if next+20 != end {
		return "", fmt.Errorf("%w: SOA counters need 20 bytes, have %d", ErrInvalidArgument, end-next)
	}

	var u32 [5]uint32
	for i := range u32 {
		u32[i] = ReadU32(msg, next+i*4)
	}
	return fmt.Sprintf("%s %s %d %d %d %d %d", mname, rname, u32[0], u32[1], u32[2], u32[3], u32[4]), nil
}
