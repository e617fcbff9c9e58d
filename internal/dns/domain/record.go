package domain

// ResourceRecord is a decoded answer, authority or additional record.
//
// RData holds the textual form of the record data:
//   - A: dotted decimal
//   - AAAA: canonical colon-hex
//   - NS, CNAME, PTR, MINFO: dot-joined names
//   - MX: "<preference> <exchange>"
//   - SOA: "mname rname serial refresh retry expire minimum"
//   - TXT: character-strings joined by a single space
//   - anything else: uppercase hex of the raw bytes
//
// RDLength is the on-wire length the record was decoded with. The encoder
// recomputes it from RData.
type ResourceRecord struct {
	Name     string
	Type     RRType
	Class    RRClass
	TTL      uint32
	RDLength uint16
	RData    string
}
