package rrdata

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports malformed input: bad text rdata, a bad bit range,
	// an illegal compression pointer or an oversized label.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTruncated reports wire data that ends before the structure it describes.
	ErrTruncated = errors.New("truncated data")
	// ErrBufferOverflow reports encoded data that does not fit its length field.
	ErrBufferOverflow = errors.New("buffer overflow")
)

const (
	// MaxLabelLen is the longest label allowed on the wire (RFC 1035 §2.3.4).
	MaxLabelLen = 63
	// MaxNameLen is the longest wire-encoded name, including length octets.
	MaxNameLen = 255
	// MaxRDLength is the largest rdata the 16-bit RDLENGTH field can describe.
	MaxRDLength = 0xFFFF
)

// ReadU16 reads a big-endian uint16 at off. Callers guarantee bounds.
func ReadU16(b []byte, off int) uint16 {
	return binary.BigEndian.Uint16(b[off:])
}

// ReadU32 reads a big-endian uint32 at off. Callers guarantee bounds.
func ReadU32(b []byte, off int) uint32 {
	return binary.BigEndian.Uint32(b[off:])
}

// WriteU16 appends v to b in big-endian order.
func WriteU16(b []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(b, v)
}

// WriteU32 appends v to b in big-endian order.
func WriteU32(b []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(b, v)
}

// ReadBits extracts length bits starting offset bits from the low end of value.
func ReadBits(value uint32, offset, length int) (uint32, error) {
	if offset < 0 || length < 0 || offset+length > 32 {
		return 0, fmt.Errorf("%w: bit range offset=%d length=%d", ErrInvalidArgument, offset, length)
	}
	switch length {
	case 0:
		return 0, nil
	case 32:
		return value, nil
	}
	return (value >> uint(offset)) & (1<<uint(length) - 1), nil
}

// need returns ErrTruncated unless b holds n bytes starting at off.
func need(b []byte, off, n int, what string) error {
	if off < 0 || n < 0 || off+n > len(b) {
		return fmt.Errorf("%w: %s needs %d bytes at offset %d, have %d", ErrTruncated, what, n, off, len(b))
	}
	return nil
}
