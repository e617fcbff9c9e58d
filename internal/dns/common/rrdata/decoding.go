package rrdata

import (
	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
)

// Decode renders the rdata of type rrType found at msg[off:off+rdlength].
// msg is the whole message so that compressed names can be resolved.
func Decode(rrType domain.RRType, msg []byte, off, rdlength int) (string, error) {
	if err := need(msg, off, rdlength, rrType.String()+" rdata"); err != nil {
		return "", err
	}
	end := off + rdlength
	// Names inside rdata may point backwards but must not run past it.
	msg = msg[:end]
	rd := msg[off:end]

	switch rrType {
	case domain.RRTypeA: // 1
		return decodeAData(rd)
	case domain.RRTypeNS, domain.RRTypeCNAME, domain.RRTypePTR: // 2, 5, 12
		return decodeNameData(msg, off, end)
	case domain.RRTypeSOA: // 6
		return decodeSOAData(msg, off, end)
	case domain.RRTypeMINFO: // 14
		return decodeMINFOData(msg, off, end)
	case domain.RRTypeMX: // 15
		return decodeMXData(msg, off, end)
	case domain.RRTypeTXT: // 16
		return decodeTXTData(rd)
	case domain.RRTypeAAAA: // 28
		return decodeAAAAData(rd)
	default:
		return decodeOpaqueData(rd), nil
	}
}
