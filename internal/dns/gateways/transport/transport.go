// Package transport accepts DNS requests from clients. It handles the
// conversion between wire format and domain messages so the forwarding
// pipeline only ever sees domain types.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/haukened/rr-dnsfwd/internal/dns/common/log"
	"github.com/haukened/rr-dnsfwd/internal/dns/gateways/wire"
	"github.com/haukened/rr-dnsfwd/internal/dns/services/forwarder"
)

var (
	errAlreadyRunning    = errors.New("transport already running")
	errResponderRequired = errors.New("responder is required")
)

// ServerTransport is a listener that feeds decoded requests to a responder
// and writes exactly one reply per request it could identify.
type ServerTransport interface {
	// Start binds the listening socket and serves until Stop is called or
	// ctx is cancelled.
	Start(ctx context.Context, responder forwarder.DNSResponder) error

	// Stop closes the socket and waits for in-flight requests to finish.
	Stop() error

	// Address returns the bound address once started, or the configured one.
	Address() string
}

// TransportType names a listener protocol.
type TransportType string

// TransportUDP is classic DNS over UDP (RFC 1035).
const TransportUDP TransportType = "udp"

// NewTransport creates a listener of the given type.
func NewTransport(transportType TransportType, addr string, codec wire.DNSCodec, logger log.Logger) (ServerTransport, error) {
	switch transportType {
	case TransportUDP:
		return NewUDPTransport(addr, codec, logger), nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", transportType)
	}
}

// GetSupportedTransports returns the transport types NewTransport accepts.
func GetSupportedTransports() []TransportType {
	return []TransportType{TransportUDP}
}
