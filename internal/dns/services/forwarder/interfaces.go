package forwarder

import (
	"context"

	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
)

// UpstreamClient performs one asynchronous exchange with the upstream resolver.
type UpstreamClient interface {
	Forward(ctx context.Context, msg domain.Message) <-chan domain.Outcome
}

// DNSResponder is what a transport hands decoded requests to.
type DNSResponder interface {
	// Handle processes a request without blocking the caller. Exactly one
	// Outcome is delivered on the returned channel.
	Handle(ctx context.Context, req domain.Message) <-chan domain.Outcome
}

// Blocklist decides whether a queried name is blocked.
type Blocklist interface {
	Decide(name string) domain.BlockDecision
}
