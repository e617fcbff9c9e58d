package domain

import "fmt"

// RCode represents the 4-bit DNS response code carried in the header.
type RCode uint8

// DNS response codes (RFC 1035 §4.1.1).
const (
	RCodeNoError  RCode = 0 // NOERROR - no error condition
	RCodeFormErr  RCode = 1 // FORMERR - the server could not interpret the query
	RCodeServFail RCode = 2 // SERVFAIL - the server could not process the query
	RCodeNameErr  RCode = 3 // NAMEERR - the queried name does not exist
	RCodeNotImp   RCode = 4 // NOTIMP - the query kind is not supported
	RCodeRefused  RCode = 5 // REFUSED - the server refuses to answer
)

// rcodeMask keeps an RCode inside its 4-bit wire field.
const rcodeMask = 0x0F

// IsValid returns true if the RCode fits in the 4-bit header field.
func (r RCode) IsValid() bool {
	return r <= rcodeMask
}

// String returns the textual representation of the RCode.
func (r RCode) String() string {
	switch r {
	case RCodeNoError:
		return "NOERROR"
	case RCodeFormErr:
		return "FORMERR"
	case RCodeServFail:
		return "SERVFAIL"
	case RCodeNameErr:
		return "NAMEERR"
	case RCodeNotImp:
		return "NOTIMP"
	case RCodeRefused:
		return "REFUSED"
	default:
		return fmt.Sprintf("RCODE(%d)", uint8(r))
	}
}

// ParseRCode converts a string name to an RCode value.
// Unknown names map to NOERROR and ok=false.
func ParseRCode(s string) (RCode, bool) {
	switch s {
	case "NOERROR":
		return RCodeNoError, true
	case "FORMERR":
		return RCodeFormErr, true
	case "SERVFAIL":
		return RCodeServFail, true
	case "NAMEERR", "NXDOMAIN":
		return RCodeNameErr, true
	case "NOTIMP":
		return RCodeNotImp, true
	case "REFUSED":
		return RCodeRefused, true
	default:
		return RCodeNoError, false
	}
}
