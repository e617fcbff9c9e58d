package wire

import (
	"errors"

	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
)

// MaxUDPMessageSize is the RFC 1035 limit for DNS over UDP without EDNS0.
const MaxUDPMessageSize = 512

var (
	// ErrShortHeader is returned when data cannot hold a 12-byte header.
	ErrShortHeader = errors.New("message shorter than DNS header")
	// ErrMessageTooLarge is returned when an encoded message exceeds MaxUDPMessageSize.
	ErrMessageTooLarge = errors.New("message exceeds UDP size limit")
)

// DNSCodec converts whole DNS messages to and from the wire.
type DNSCodec interface {
	// DecodeHeader parses only the fixed header.
	DecodeHeader(data []byte) (domain.Header, error)
	// DecodeRequest parses the header and question section. Other sections
	// are dropped and their counts zeroed.
	DecodeRequest(data []byte) (domain.Message, error)
	// DecodeResponse parses all four sections.
	DecodeResponse(data []byte) (domain.Message, error)
	// Encode serializes msg, writing header counts verbatim.
	Encode(msg domain.Message) ([]byte, error)
	// ToErrorResponse synthesizes the SERVFAIL reply for msg.
	ToErrorResponse(msg domain.Message) domain.Message
}
