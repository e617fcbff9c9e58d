package blocklist

import (
	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
	"github.com/haukened/rr-dnsfwd/internal/dns/services/forwarder"
)

// NoopBlocklist allows every name. It is used when no list files are
// configured.
type NoopBlocklist struct{}

func (NoopBlocklist) Decide(string) domain.BlockDecision { return domain.EmptyDecision() }

var _ forwarder.Blocklist = NoopBlocklist{}
var _ forwarder.Blocklist = (*repository)(nil)
