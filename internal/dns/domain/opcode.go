package domain

import "fmt"

// Opcode is the 4-bit kind-of-query field of the DNS header.
type Opcode uint8

// DNS opcodes (RFC 1035 §4.1.1, RFC 1996, RFC 2136).
const (
	OpcodeQuery  Opcode = 0
	OpcodeIQuery Opcode = 1
	OpcodeStatus Opcode = 2
	OpcodeNotify Opcode = 4
	OpcodeUpdate Opcode = 5
)

const opcodeMask = 0x0F

// IsValid returns true if the Opcode fits in the 4-bit header field.
func (o Opcode) IsValid() bool {
	return o <= opcodeMask
}

func (o Opcode) String() string {
	switch o {
	case OpcodeQuery:
		return "QUERY"
	case OpcodeIQuery:
		return "IQUERY"
	case OpcodeStatus:
		return "STATUS"
	case OpcodeNotify:
		return "NOTIFY"
	case OpcodeUpdate:
		return "UPDATE"
	default:
		return fmt.Sprintf("OPCODE(%d)", uint8(o))
	}
}
