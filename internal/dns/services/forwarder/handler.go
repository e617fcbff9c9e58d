// Package forwarder relays DNS requests to the upstream resolver, applying
// ordered request and response interceptors around each exchange.
package forwarder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haukened/rr-dnsfwd/internal/dns/common/clock"
	"github.com/haukened/rr-dnsfwd/internal/dns/common/log"
	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
)

var errUpstreamRequired = errors.New("upstream client is required")

// Chain is the rest of an interceptor chain.
type Chain func(msg domain.Message) domain.Message

// Interceptor inspects or rewrites msg and passes the result on by calling
// next exactly once. An interceptor that returns without calling next ends
// the chain for that message.
type Interceptor func(msg domain.Message, next Chain) domain.Message

// Identity is the terminal link of every chain.
func Identity(msg domain.Message) domain.Message { return msg }

// Compose folds interceptors into one Chain. The first interceptor runs
// first and its next is the second, ending with Identity.
func Compose(interceptors ...Interceptor) Chain {
	chain := Chain(Identity)
	for i := len(interceptors) - 1; i >= 0; i-- {
		ic, next := interceptors[i], chain
		chain = func(msg domain.Message) domain.Message {
			return ic(msg, next)
		}
	}
	return chain
}

// Handler is the forwarding pipeline.
type Handler struct {
	upstream UpstreamClient
	logger   log.Logger
	clock    clock.Clock
	request  Chain
	response Chain
}

// Options configures a Handler.
type Options struct {
	Upstream             UpstreamClient
	Logger               log.Logger
	Clock                clock.Clock
	RequestInterceptors  []Interceptor
	ResponseInterceptors []Interceptor
}

// NewHandler builds a Handler. Interceptors are composed once here and are
// not changed afterwards.
func NewHandler(opts Options) (*Handler, error) {
	if opts.Upstream == nil {
		return nil, errUpstreamRequired
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	return &Handler{
		upstream: opts.Upstream,
		logger:   opts.Logger,
		clock:    opts.Clock,
		request:  Compose(opts.RequestInterceptors...),
		response: Compose(opts.ResponseInterceptors...),
	}, nil
}

// Handle runs the request chain, forwards the result upstream and maps the
// response chain over a successful reply. A failure's fallback is passed
// through without interception.
func (h *Handler) Handle(ctx context.Context, req domain.Message) <-chan domain.Outcome {
	out := make(chan domain.Outcome, 1)
	go func() {
		out <- h.handle(ctx, req)
	}()
	return out
}

func (h *Handler) handle(ctx context.Context, req domain.Message) (outcome domain.Outcome) {
	start := h.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error(map[string]any{
				"id":    req.Header.ID,
				"panic": r,
			}, "Recovered panic in forwarding pipeline")
			outcome = domain.Left[domain.DNSError](
				domain.InternalError{Cause: fmt.Errorf("pipeline panicked: %v", r)},
				domain.NewErrorResponse(req),
			)
		}
		h.logOutcome(req, outcome, start)
	}()

	forwarded := h.request(req)
	result := <-h.upstream.Forward(ctx, forwarded)
	return result.MapRight(h.response)
}

func (h *Handler) logOutcome(req domain.Message, outcome domain.Outcome, start time.Time) {
	fields := map[string]any{
		"id":      req.Header.ID,
		"latency": h.clock.Now().Sub(start).String(),
	}
	if err, failed := outcome.Err(); failed {
		fields["kind"] = err.Kind()
		fields["error"] = err.Error()
		h.logger.Debug(fields, "Request failed, replying with fallback")
		return
	}
	fields["rcode"] = outcome.Value().Header.RCode.String()
	fields["answers"] = len(outcome.Value().Answers)
	h.logger.Debug(fields, "Request handled")
}
