package domain

import (
	"fmt"
	"time"
)

// DNSError is the closed set of failures a forwarding exchange can end in.
// The unexported marker keeps the set closed to this package.
type DNSError interface {
	error
	// Kind returns a short stable name for logging.
	Kind() string
	dnsError()
}

// UpstreamTimeout is returned when no reply arrived within Timeout.
type UpstreamTimeout struct {
	Timeout time.Duration
}

// UpstreamFailure is an I/O or decode failure talking to the resolver.
type UpstreamFailure struct {
	Cause error
}

// RcodeFailure is returned when the upstream replied with a non-NOERROR rcode.
type RcodeFailure struct {
	RCode RCode
}

// InternalError wraps any other unexpected failure, including recovered panics.
type InternalError struct {
	Cause error
}

func (e UpstreamTimeout) Error() string {
	return fmt.Sprintf("upstream timeout after %s", e.Timeout)
}

func (e UpstreamFailure) Error() string {
	return fmt.Sprintf("upstream failure: %v", e.Cause)
}

func (e RcodeFailure) Error() string {
	return fmt.Sprintf("upstream returned %s", e.RCode)
}

func (e InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Cause)
}

func (e UpstreamFailure) Unwrap() error { return e.Cause }
func (e InternalError) Unwrap() error   { return e.Cause }

func (UpstreamTimeout) Kind() string { return "upstream_timeout" }
func (UpstreamFailure) Kind() string { return "upstream_failure" }
func (RcodeFailure) Kind() string    { return "rcode_failure" }
func (InternalError) Kind() string   { return "internal_error" }

func (UpstreamTimeout) dnsError() {}
func (UpstreamFailure) dnsError() {}
func (RcodeFailure) dnsError()    {}
func (InternalError) dnsError()   {}
