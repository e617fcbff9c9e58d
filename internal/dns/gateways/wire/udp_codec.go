// Package wire provides encoding and decoding of DNS messages for UDP transport.
// It handles the DNS wire format as specified in RFC 1035.
package wire

import (
	"fmt"

	"github.com/haukened/rr-dnsfwd/internal/dns/common/log"
	"github.com/haukened/rr-dnsfwd/internal/dns/common/rrdata"
	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
)

const (
	// minQuestionLen is a root name plus QTYPE and QCLASS.
	minQuestionLen = 5
	// minRecordLen is a root name plus TYPE, CLASS, TTL and RDLENGTH.
	minRecordLen = 11
)

// udpCodec implements the DNSCodec interface for standard DNS over UDP messages.
type udpCodec struct {
	logger log.Logger
}

// NewUDPCodec creates and returns a new instance of udpCodec using the provided logger.
// The logger is used for logging within the codec.
func NewUDPCodec(logger log.Logger) *udpCodec {
	return &udpCodec{
		logger: logger,
	}
}

// DecodeHeader parses the fixed 12-byte header at the start of data.
func (c *udpCodec) DecodeHeader(data []byte) (domain.Header, error) {
	if len(data) < domain.HeaderLen {
		return domain.Header{}, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(data))
	}
	flags := uint32(rrdata.ReadU16(data, 2))
	// Field ranges are constant and always within 32 bits.
	bits := func(offset, length int) uint32 {
		v, _ := rrdata.ReadBits(flags, offset, length)
		return v
	}
	return domain.Header{
		ID:      rrdata.ReadU16(data, 0),
		QR:      bits(15, 1) == 1,
		Opcode:  domain.Opcode(bits(11, 4)),
		AA:      bits(10, 1) == 1,
		TC:      bits(9, 1) == 1,
		RD:      bits(8, 1) == 1,
		RA:      bits(7, 1) == 1,
		Z:       uint8(bits(4, 3)),
		RCode:   domain.RCode(bits(0, 4)),
		QDCount: rrdata.ReadU16(data, 4),
		ANCount: rrdata.ReadU16(data, 6),
		NSCount: rrdata.ReadU16(data, 8),
		ARCount: rrdata.ReadU16(data, 10),
	}, nil
}

// DecodeRequest parses a DNS query: the header and exactly QDCOUNT questions.
func (c *udpCodec) DecodeRequest(data []byte) (domain.Message, error) {
	h, err := c.DecodeHeader(data)
	if err != nil {
		return domain.Message{}, err
	}
	questions, _, err := c.decodeQuestions(data, domain.HeaderLen, h.QDCount)
	if err != nil {
		return domain.Message{}, err
	}
	h.ANCount, h.NSCount, h.ARCount = 0, 0, 0

	c.logger.Debug(map[string]any{
		"step": "request_decoded",
		"id":   h.ID,
		"qd":   h.QDCount,
	}, "Decoded DNS request")

	return domain.Message{Header: h, Questions: questions}, nil
}

// DecodeResponse parses a complete DNS message, reading each section in order
// from the offset the previous one ended at.
func (c *udpCodec) DecodeResponse(data []byte) (domain.Message, error) {
	h, err := c.DecodeHeader(data)
	if err != nil {
		return domain.Message{}, err
	}
	msg := domain.Message{Header: h}

	off := domain.HeaderLen
	if msg.Questions, off, err = c.decodeQuestions(data, off, h.QDCount); err != nil {
		return domain.Message{}, err
	}
	if msg.Answers, off, err = c.decodeRecords(data, off, h.ANCount, "answer"); err != nil {
		return domain.Message{}, err
	}
	if msg.Authority, off, err = c.decodeRecords(data, off, h.NSCount, "authority"); err != nil {
		return domain.Message{}, err
	}
	if msg.Additional, off, err = c.decodeRecords(data, off, h.ARCount, "additional"); err != nil {
		return domain.Message{}, err
	}

	c.logger.Debug(map[string]any{
		"step":     "response_decoded",
		"id":       h.ID,
		"rcode":    h.RCode.String(),
		"an":       h.ANCount,
		"ns":       h.NSCount,
		"ar":       h.ARCount,
		"consumed": off,
		"size":     len(data),
	}, "Decoded DNS response")

	return msg, nil
}

// checkCount rejects section counts that cannot fit in the remaining bytes.
func checkCount(data []byte, off int, count uint16, minLen int, section string) error {
	if int(count)*minLen > len(data)-off {
		return fmt.Errorf("%w: %s count %d exceeds remaining %d bytes", rrdata.ErrTruncated, section, count, len(data)-off)
	}
	return nil
}

func (c *udpCodec) decodeQuestions(data []byte, off int, count uint16) ([]domain.Question, int, error) {
	if err := checkCount(data, off, count, minQuestionLen, "question"); err != nil {
		return nil, 0, err
	}
	questions := make([]domain.Question, 0, count)
	for i := 0; i < int(count); i++ {
		name, next, err := rrdata.ReadName(data, off)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to parse question %d name: %w", i, err)
		}
		if next+4 > len(data) {
			return nil, 0, fmt.Errorf("%w: question %d missing type/class", rrdata.ErrTruncated, i)
		}
		questions = append(questions, domain.Question{
			Name:  name,
			Type:  domain.RRType(rrdata.ReadU16(data, next)),
			Class: domain.RRClass(rrdata.ReadU16(data, next+2)),
		})
		off = next + 4
	}
	return questions, off, nil
}

func (c *udpCodec) decodeRecords(data []byte, off int, count uint16, section string) ([]domain.ResourceRecord, int, error) {
	if err := checkCount(data, off, count, minRecordLen, section); err != nil {
		return nil, 0, err
	}
	records := make([]domain.ResourceRecord, 0, count)
	for i := 0; i < int(count); i++ {
		rr, next, err := c.parseResourceRecord(data, off)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to parse %s record %d: %w", section, i, err)
		}
		records = append(records, rr)
		off = next
	}
	return records, off, nil
}

// parseResourceRecord extracts a single resource record starting at off.
func (c *udpCodec) parseResourceRecord(data []byte, off int) (domain.ResourceRecord, int, error) {
	name, off, err := rrdata.ReadName(data, off)
	if err != nil {
		return domain.ResourceRecord{}, 0, fmt.Errorf("failed to decode record name: %w", err)
	}
	if off+10 > len(data) {
		return domain.ResourceRecord{}, 0, fmt.Errorf("%w: record header after %q", rrdata.ErrTruncated, name)
	}

	rr := domain.ResourceRecord{
		Name:     name,
		Type:     domain.RRType(rrdata.ReadU16(data, off)),
		Class:    domain.RRClass(rrdata.ReadU16(data, off+2)),
		TTL:      rrdata.ReadU32(data, off+4),
		RDLength: rrdata.ReadU16(data, off+8),
	}
	off += 10

	rr.RData, err = rrdata.Decode(rr.Type, data, off, int(rr.RDLength))
	if err != nil {
		return domain.ResourceRecord{}, 0, fmt.Errorf("failed to decode %s rdata: %w", rr.Type, err)
	}
	return rr, off + int(rr.RDLength), nil
}

// packFlags builds the second header word.
func packFlags(h domain.Header) uint16 {
	var f uint16
	if h.QR {
		f |= 1 << 15
	}
	f |= uint16(h.Opcode&0x0F) << 11
	if h.AA {
		f |= 1 << 10
	}
	if h.TC {
		f |= 1 << 9
	}
	if h.RD {
		f |= 1 << 8
	}
	if h.RA {
		f |= 1 << 7
	}
	f |= uint16(h.Z&0x07) << 4
	f |= uint16(h.RCode & 0x0F)
	return f
}

// Encode serializes msg into at most MaxUDPMessageSize bytes. Header counts
// are written as given; RDLENGTH is derived from the encoded rdata.
func (c *udpCodec) Encode(msg domain.Message) ([]byte, error) {
	h := msg.Header
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}

	buf := make([]byte, 0, MaxUDPMessageSize)
	buf = rrdata.WriteU16(buf, h.ID)
	buf = rrdata.WriteU16(buf, packFlags(h))
	buf = rrdata.WriteU16(buf, h.QDCount)
	buf = rrdata.WriteU16(buf, h.ANCount)
	buf = rrdata.WriteU16(buf, h.NSCount)
	buf = rrdata.WriteU16(buf, h.ARCount)

	c.logger.Debug(map[string]any{
		"step": "header_written",
		"id":   h.ID,
		"qd":   h.QDCount,
		"an":   h.ANCount,
	}, "Wrote DNS header")

	var err error
	for i, q := range msg.Questions {
		if buf, err = rrdata.WriteName(buf, q.Name); err != nil {
			return nil, fmt.Errorf("failed to encode question %d: %w", i, err)
		}
		buf = rrdata.WriteU16(buf, uint16(q.Type))
		buf = rrdata.WriteU16(buf, uint16(q.Class))
	}

	sections := []struct {
		name    string
		records []domain.ResourceRecord
	}{
		{"answer", msg.Answers},
		{"authority", msg.Authority},
		{"additional", msg.Additional},
	}
	for _, s := range sections {
		for i, rr := range s.records {
			if buf, err = encodeRecord(buf, rr); err != nil {
				return nil, fmt.Errorf("failed to encode %s record %d: %w", s.name, i, err)
			}
		}
	}

	if len(buf) > MaxUDPMessageSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(buf))
	}

	c.logger.Debug(map[string]any{
		"step": "final_packet",
		"size": len(buf),
		"raw":  fmt.Sprintf("%x", buf),
	}, "Final encoded DNS message")

	return buf, nil
}

func encodeRecord(buf []byte, rr domain.ResourceRecord) ([]byte, error) {
	rdata, err := rrdata.Encode(rr.Type, rr.RData)
	if err != nil {
		return nil, err
	}
	if buf, err = rrdata.WriteName(buf, rr.Name); err != nil {
		return nil, err
	}
	buf = rrdata.WriteU16(buf, uint16(rr.Type))
	buf = rrdata.WriteU16(buf, uint16(rr.Class))
	buf = rrdata.WriteU32(buf, rr.TTL)
	buf = rrdata.WriteU16(buf, uint16(len(rdata)))
	return append(buf, rdata...), nil
}

// ToErrorResponse returns the SERVFAIL reply for msg.
func (c *udpCodec) ToErrorResponse(msg domain.Message) domain.Message {
	return domain.NewErrorResponse(msg)
}

var _ DNSCodec = &udpCodec{}
