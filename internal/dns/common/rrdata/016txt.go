package rrdata

import (
	"fmt"
	"strings"
)

// maxTXTChunk is the longest character-string a single length octet allows.
const maxTXTChunk = 255

// encodeTXTData writes each whitespace-separated token as one
// character-string. Blank input becomes a single empty string.
func encodeTXTData(data string) ([]byte, error) {
	tokens := strings.Fields(data)
	if len(tokens) == 0 {
		return []byte{0}, nil
	}
	var encoded []byte
	for _, tok := range tokens {
		if len(tok) > maxTXTChunk {
			return nil, fmt.Errorf("%w: TXT chunk too long (>%d): %d", ErrInvalidArgument, maxTXTChunk, len(tok))
		}
		encoded = append(encoded, byte(len(tok)))
		encoded = append(encoded, tok...)
	}
	return encoded, nil
}

// decodeTXTData joins the character-strings in b with single spaces.
func decodeTXTData(b []byte) (string, error) {
	var sb strings.Builder
	for off := 0; off < len(b); {
		l := int(b[off])
		off++
		if off+l > len(b) {
			return "", fmt.Errorf("%w: TXT record exceeds RDLENGTH", ErrInvalidArgument)
		}
		sb.Write(b[off : off+l])
		off += l
		if off < len(b) {
			sb.WriteByte(' ')
		}
	}
	return sb.String(), nil
}
