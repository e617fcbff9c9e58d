package rrdata

import (
	"fmt"
	"strings"
)

const (
	labelMask   = 0xC0
	pointerFlag = 0xC0
	pointerMask = 0x3FFF
)

// ReadName decodes a possibly compressed domain name starting at off.
//
// It returns the dot-joined labels (empty for the root) and the offset just
// past the name in the original stream; bytes visited after a compression
// pointer do not advance it. Every pointer must target an offset strictly
// before itself and the expanded name may not exceed MaxNameLen, so hostile
// input always terminates.
func ReadName(msg []byte, off int) (string, int, error) {
	var sb strings.Builder
	pos := off
	next := -1
	wireLen := 1 // terminating zero label

	for {
		if err := need(msg, pos, 1, "name label"); err != nil {
			return "", 0, err
		}
		l := int(msg[pos])

		switch l & labelMask {
		case 0x00:
			if l == 0 {
				if next < 0 {
					next = pos + 1
				}
				return strings.TrimSuffix(sb.String(), "."), next, nil
			}
			if err := need(msg, pos+1, l, "name label"); err != nil {
				return "", 0, err
			}
			wireLen += l + 1
			if wireLen > MaxNameLen {
				return "", 0, fmt.Errorf("%w: name at offset %d exceeds %d bytes", ErrInvalidArgument, off, MaxNameLen)
			}
			sb.Write(msg[pos+1 : pos+1+l])
			sb.WriteByte('.')
			pos += 1 + l

		case pointerFlag:
			if err := need(msg, pos, 2, "compression pointer"); err != nil {
				return "", 0, err
			}
			target := int(ReadU16(msg, pos) & pointerMask)
			if target >= pos {
				return "", 0, fmt.Errorf("%w: compression pointer at %d targets %d", ErrInvalidArgument, pos, target)
			}
			if next < 0 {
				next = pos + 2
			}
			pos = target

		default:
			return "", 0, fmt.Errorf("%w: reserved label type %#x at offset %d", ErrInvalidArgument, l&labelMask, pos)
		}
	}
}

// WriteName appends the uncompressed wire form of name to b. Empty labels
// are skipped, so "example.com." and "example.com" encode identically and ""
// or "." encodes the root.
func WriteName(b []byte, name string) ([]byte, error) {
	wireLen := 1
	start := len(b)
	for _, label := range strings.Split(name, ".") {
		if len(label) == 0 {
			continue
		}
		if len(label) > MaxLabelLen {
			return b[:start], fmt.Errorf("%w: label too long (%d bytes): %s", ErrInvalidArgument, len(label), label)
		}
		wireLen += len(label) + 1
		if wireLen > MaxNameLen {
			return b[:start], fmt.Errorf("%w: name exceeds %d bytes: %s", ErrInvalidArgument, MaxNameLen, name)
		}
		b = append(b, byte(len(label)))
		b = append(b, label...)
	}
	return append(b, 0), nil
}

// readNameRData decodes a name that must fill the rdata ending at end.
func readNameRData(msg []byte, off, end int, what string) (string, error) {
	name, next, err := ReadName(msg, off)
	if err != nil {
		return "", fmt.Errorf("invalid %s: %w", what, err)
	}
	if next != end {
		return "", fmt.Errorf("%w: %s ends at %d, rdata ends at %d", ErrInvalidArgument, what, next, end)
	}
	return name, nil
}
