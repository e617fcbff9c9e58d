package rrdata

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Record types without a structured form travel as uppercase hex.

func encodeOpaqueData(data string) ([]byte, error) {
	b, err := hex.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex rdata: %v", ErrInvalidArgument, err)
	}
	return b, nil
}

func decodeOpaqueData(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
