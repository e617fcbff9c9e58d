package domain

import "fmt"

// RRType represents a DNS resource record type (QTYPE/TYPE field).
// Any 16-bit value is representable; the constants below are the types
// whose rdata has a structured textual form.
type RRType uint16

// DNS Resource Record Type constants (RFC 1035 §3.2.2, RFC 3596).
const (
	RRTypeA     RRType = 1  // A - IPv4 address
	RRTypeNS    RRType = 2  // NS - Authoritative name server
	RRTypeMD    RRType = 3  // MD - Mail destination (obsolete)
	RRTypeMF    RRType = 4  // MF - Mail forwarder (obsolete)
	RRTypeCNAME RRType = 5  // CNAME - Canonical name
	RRTypeSOA   RRType = 6  // SOA - Start of authority
	RRTypeMB    RRType = 7  // MB - Mailbox domain name
	RRTypeMG    RRType = 8  // MG - Mail group member
	RRTypeMR    RRType = 9  // MR - Mail rename domain name
	RRTypeNULL  RRType = 10 // NULL - Null RR
	RRTypeWKS   RRType = 11 // WKS - Well known service
	RRTypePTR   RRType = 12 // PTR - Domain name pointer
	RRTypeHINFO RRType = 13 // HINFO - Host information
	RRTypeMINFO RRType = 14 // MINFO - Mailbox information
	RRTypeMX    RRType = 15 // MX - Mail exchange
	RRTypeTXT   RRType = 16 // TXT - Text strings
	RRTypeAAAA  RRType = 28 // AAAA - IPv6 address
)

var rrTypeNames = map[RRType]string{
	RRTypeA:     "A",
	RRTypeNS:    "NS",
	RRTypeMD:    "MD",
	RRTypeMF:    "MF",
	RRTypeCNAME: "CNAME",
	RRTypeSOA:   "SOA",
	RRTypeMB:    "MB",
	RRTypeMG:    "MG",
	RRTypeMR:    "MR",
	RRTypeNULL:  "NULL",
	RRTypeWKS:   "WKS",
	RRTypePTR:   "PTR",
	RRTypeHINFO: "HINFO",
	RRTypeMINFO: "MINFO",
	RRTypeMX:    "MX",
	RRTypeTXT:   "TXT",
	RRTypeAAAA:  "AAAA",
}

// IsKnown returns true if the RRType is one of the enumerated types.
// Unknown types are still carried through the codec as opaque rdata.
func (t RRType) IsKnown() bool {
	_, ok := rrTypeNames[t]
	return ok
}

// String returns the mnemonic of the RRType, or "TYPE<n>" for unknown types.
func (t RRType) String() string {
	if name, ok := rrTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TYPE%d", uint16(t))
}

// RRTypeFromString converts a record type mnemonic to its RRType value.
// It returns 0 for unknown mnemonics.
func RRTypeFromString(s string) RRType {
	for t, name := range rrTypeNames {
		if name == s {
			return t
		}
	}
	return 0
}
