package rrdata

import (
	"fmt"

	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
)

// Encode encodes a record value based on its type, to its binary representation.
// Names are written uncompressed.
func Encode(rrType domain.RRType, data string) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	switch rrType {
	case domain.RRTypeA: // 1
		b, err = encodeAData(data)
	case domain.RRTypeNS, domain.RRTypeCNAME, domain.RRTypePTR: // 2, 5, 12
		b, err = encodeNameData(data)
	case domain.RRTypeSOA: // 6
		b, err = encodeSOAData(data)
	case domain.RRTypeMINFO: // 14
		b, err = encodeMINFOData(data)
	case domain.RRTypeMX: // 15
		b, err = encodeMXData(data)
	case domain.RRTypeTXT: // 16
		b, err = encodeTXTData(data)
	case domain.RRTypeAAAA: // 28
		b, err = encodeAAAAData(data)
	default:
		b, err = encodeOpaqueData(data)
	}
	if err != nil {
		return nil, err
	}
	if len(b) > MaxRDLength {
		return nil, fmt.Errorf("%w: %s rdata is %d bytes", ErrBufferOverflow, rrType, len(b))
	}
	return b, nil
}
