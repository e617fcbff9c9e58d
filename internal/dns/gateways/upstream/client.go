package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/haukened/rr-dnsfwd/internal/dns/common/clock"
	"github.com/haukened/rr-dnsfwd/internal/dns/common/log"
	"github.com/haukened/rr-dnsfwd/internal/dns/common/rrdata"
	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
	"github.com/haukened/rr-dnsfwd/internal/dns/gateways/wire"
)

// DefaultTimeout bounds a single upstream exchange.
const DefaultTimeout = 30 * time.Second

// Error message constants for consistent error handling
const (
	errNoServerProvided = "no upstream DNS server provided"
	errCodecRequired    = "DNS codec is required"
	errFailedToConnect  = "failed to connect to %s: %w"
	errEncodeFailed     = "encode failed: %w"
	errDeadlineFailed   = "set deadline failed: %w"
	errWriteFailed      = "write failed: %w"
	errReadFailed       = "read failed: %w"
	errDecodeFailed     = "decode failed: %w"
	errPanic            = "exchange panicked: %v"
)

// ErrClientClosed is the cause reported for exchanges requested after Close.
var ErrClientClosed = errors.New("upstream client closed")

// DialFunc defines a function type for establishing a network connection.
// It takes a context for cancellation, the network type (e.g., "tcp", "udp"),
// and the address to connect to, returning a net.Conn and an error if any occurs.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Options defines configuration parameters for the upstream client.
type Options struct {
	// required parameters
	Server string
	Codec  wire.DNSCodec
	// optional parameters
	Timeout time.Duration
	Logger  log.Logger
	// options to inject for testing purposes
	Dial  DialFunc
	Clock clock.Clock
}

// exchange is one queued request and the channel its outcome is delivered on.
type exchange struct {
	ctx    context.Context
	msg    domain.Message
	budget time.Duration
	result chan<- domain.Outcome
}

// Client forwards DNS messages to a single upstream resolver over one
// connected UDP socket. Exchanges are run one at a time by a dedicated
// worker, so a reply can never be delivered to the wrong caller.
type Client struct {
	server  string
	timeout time.Duration
	codec   wire.DNSCodec
	logger  log.Logger
	clock   clock.Clock
	conn    net.Conn

	// seq identifies the exchange in flight so a late cancellation cannot
	// expire the deadline of the next one.
	mu  sync.Mutex
	seq uint64

	queue     chan exchange
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient dials the upstream server and starts the exchange worker.
// The socket is kept for the lifetime of the Client.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.Server == "" {
		return nil, errors.New(errNoServerProvided)
	}
	if opts.Codec == nil {
		return nil, errors.New(errCodecRequired)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.Dial == nil {
		opts.Dial = (&net.Dialer{}).DialContext
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}

	conn, err := opts.Dial(ctx, "udp", opts.Server)
	if err != nil {
		return nil, fmt.Errorf(errFailedToConnect, opts.Server, err)
	}

	c := &Client{
		server:  opts.Server,
		timeout: opts.Timeout,
		codec:   opts.Codec,
		logger:  opts.Logger,
		clock:   opts.Clock,
		conn:    conn,
		queue:   make(chan exchange),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.run()

	c.logger.Info(map[string]any{
		"server":  c.server,
		"timeout": c.timeout.String(),
	}, "Upstream client connected")
	return c, nil
}

// Server returns the upstream address this client forwards to.
func (c *Client) Server() string {
	return c.server
}

// Forward queues msg for exchange with the upstream and returns immediately.
// Exactly one Outcome is delivered on the returned channel. Every failure
// carries a SERVFAIL fallback built from msg, except an upstream rcode
// failure whose fallback is built from the reply.
func (c *Client) Forward(ctx context.Context, msg domain.Message) <-chan domain.Outcome {
	out := make(chan domain.Outcome, 1)
	ex := exchange{ctx: ctx, msg: msg, budget: c.budget(ctx), result: out}

	go func() {
		select {
		case c.queue <- ex:
		case <-c.stop:
			out <- c.fail(domain.InternalError{Cause: ErrClientClosed}, msg)
		case <-ctx.Done():
			out <- c.contextFailure(ctx, msg, ex.budget)
		}
	}()
	return out
}

// Close stops the worker and releases the socket. An exchange in flight
// fails with an upstream failure; later calls to Forward fail immediately.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		err = c.conn.Close()
		<-c.done
		c.logger.Info(map[string]any{"server": c.server}, "Upstream client closed")
	})
	return err
}

func (c *Client) run() {
	defer close(c.done)
	for {
		select {
		case <-c.stop:
			return
		case ex := <-c.queue:
			ex.result <- c.serve(ex)
		}
	}
}

// serve performs one send/receive on the shared socket.
func (c *Client) serve(ex exchange) (out domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(map[string]any{
				"id":    ex.msg.Header.ID,
				"panic": r,
			}, "Recovered panic in upstream exchange")
			out = c.fail(domain.InternalError{Cause: fmt.Errorf(errPanic, r)}, ex.msg)
		}
	}()

	ctx, query := ex.ctx, ex.msg
	if ctx.Err() != nil {
		return c.contextFailure(ctx, query, ex.budget)
	}

	data, err := c.codec.Encode(query)
	if err != nil {
		return c.fail(domain.InternalError{Cause: fmt.Errorf(errEncodeFailed, err)}, query)
	}

	deadline := c.clock.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return c.fail(domain.UpstreamFailure{Cause: fmt.Errorf(errDeadlineFailed, err)}, query)
	}
	// Cancellation expires the deadline so a blocked read returns at once.
	seq := c.nextSeq()
	stopWatch := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.seq == seq {
			_ = c.conn.SetReadDeadline(time.Unix(1, 0))
		}
	})
	defer func() {
		stopWatch()
		c.nextSeq()
	}()

	c.logger.Debug(map[string]any{
		"id":     query.Header.ID,
		"server": c.server,
		"size":   len(data),
	}, "Forwarding query upstream")

	if _, err := c.conn.Write(data); err != nil {
		return c.ioFailure(ex, fmt.Errorf(errWriteFailed, err))
	}

	buf := make([]byte, wire.MaxUDPMessageSize)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			return c.ioFailure(ex, fmt.Errorf(errReadFailed, err))
		}
		// Late replies to earlier, timed-out exchanges are dropped.
		if n < 2 || rrdata.ReadU16(buf, 0) != query.Header.ID {
			c.logger.Debug(map[string]any{
				"want_id": query.Header.ID,
				"size":    n,
			}, "Discarding stale upstream reply")
			continue
		}

		reply, err := c.codec.DecodeResponse(buf[:n])
		if err != nil {
			return c.fail(domain.UpstreamFailure{Cause: fmt.Errorf(errDecodeFailed, err)}, query)
		}
		if reply.Header.RCode != domain.RCodeNoError {
			c.logger.Debug(map[string]any{
				"id":    reply.Header.ID,
				"rcode": reply.Header.RCode.String(),
			}, "Upstream returned error rcode")
			return domain.Left[domain.DNSError](domain.RcodeFailure{RCode: reply.Header.RCode}, c.codec.ToErrorResponse(reply))
		}
		return domain.Right[domain.DNSError](reply)
	}
}

func (c *Client) nextSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// fail builds a Left whose fallback is the SERVFAIL reply for msg.
func (c *Client) fail(err domain.DNSError, msg domain.Message) domain.Outcome {
	c.logger.Warn(map[string]any{
		"id":     msg.Header.ID,
		"server": c.server,
		"kind":   err.Kind(),
		"error":  err.Error(),
	}, "Upstream exchange failed")
	return domain.Left(err, c.codec.ToErrorResponse(msg))
}

// budget is the time the exchange may take: the client timeout, or less
// when ctx expires first.
func (c *Client) budget(ctx context.Context) time.Duration {
	if d, ok := ctx.Deadline(); ok {
		if left := d.Sub(c.clock.Now()); left < c.timeout {
			return max(left, 0)
		}
	}
	return c.timeout
}

// ioFailure classifies a socket error. Deadline expiry is a timeout unless
// the caller cancelled.
func (c *Client) ioFailure(ex exchange, err error) domain.Outcome {
	if ex.ctx.Err() != nil {
		return c.contextFailure(ex.ctx, ex.msg, ex.budget)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return c.fail(domain.UpstreamTimeout{Timeout: ex.budget}, ex.msg)
	}
	return c.fail(domain.UpstreamFailure{Cause: err}, ex.msg)
}

// contextFailure maps an expired caller context onto the error taxonomy.
// A deadline reports the budget that ran out.
func (c *Client) contextFailure(ctx context.Context, msg domain.Message, budget time.Duration) domain.Outcome {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return c.fail(domain.UpstreamTimeout{Timeout: budget}, msg)
	}
	return c.fail(domain.InternalError{Cause: ctx.Err()}, msg)
}
