package domain

import "fmt"

// HeaderLen is the fixed size of a DNS header on the wire.
const HeaderLen = 12

// zMask keeps the reserved Z field inside its 3 bits.
const zMask = 0x07

// Header is the fixed 12-byte preamble of every DNS message (RFC 1035 §4.1.1).
//
// Counts are carried verbatim: the codec never reconciles them with the
// sections of a Message. Use Message.SyncCounts to derive them.
type Header struct {
	ID      uint16
	QR      bool   // true for responses
	Opcode  Opcode // 4 bits
	AA      bool   // authoritative answer
	TC      bool   // truncated
	RD      bool   // recursion desired
	RA      bool   // recursion available
	Z       uint8  // 3 reserved bits, round-tripped verbatim
	RCode   RCode  // 4 bits
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// Validate checks that the bit-packed fields fit their wire widths.
func (h Header) Validate() error {
	if !h.Opcode.IsValid() {
		return fmt.Errorf("opcode %d exceeds 4 bits", h.Opcode)
	}
	if h.Z > zMask {
		return fmt.Errorf("z %d exceeds 3 bits", h.Z)
	}
	if !h.RCode.IsValid() {
		return fmt.Errorf("rcode %d exceeds 4 bits", h.RCode)
	}
	return nil
}
