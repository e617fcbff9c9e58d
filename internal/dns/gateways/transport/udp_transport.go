package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/haukened/rr-dnsfwd/internal/dns/common/log"
	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
	"github.com/haukened/rr-dnsfwd/internal/dns/gateways/wire"
	"github.com/haukened/rr-dnsfwd/internal/dns/services/forwarder"
)

// UDPTransport serves DNS over UDP (RFC 1035). Each datagram is handled on
// its own goroutine; the responder never blocks the read loop.
type UDPTransport struct {
	addr   string
	codec  wire.DNSCodec
	logger log.Logger

	mu        sync.RWMutex
	conn      net.PacketConn
	running   bool
	stopCh    chan struct{}
	done      chan struct{} // closed once the current run has drained
	cancel    context.CancelFunc
	stopWatch func() bool
	wg        sync.WaitGroup
}

// NewUDPTransport creates a UDP listener for addr. A port of 0 binds an
// ephemeral port; Address reports the real one after Start.
func NewUDPTransport(addr string, codec wire.DNSCodec, logger log.Logger) *UDPTransport {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &UDPTransport{
		addr:   addr,
		codec:  codec,
		logger: logger,
	}
}

// Start binds the UDP socket and starts the read loop.
func (t *UDPTransport) Start(ctx context.Context, responder forwarder.DNSResponder) error {
	if responder == nil {
		return errResponderRequired
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return errAlreadyRunning
	}

	conn, err := net.ListenPacket("udp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to bind UDP socket on %s: %w", t.addr, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	stopCh := make(chan struct{})

	t.conn = conn
	t.running = true
	t.stopCh = stopCh
	t.done = make(chan struct{})
	t.cancel = cancel
	t.stopWatch = context.AfterFunc(ctx, func() {
		_ = t.Stop()
	})

	t.logger.Info(map[string]any{
		"transport": string(TransportUDP),
		"address":   conn.LocalAddr().String(),
	}, "DNS transport started")

	t.wg.Add(1)
	go t.listenLoop(runCtx, conn, stopCh, responder)

	return nil
}

// Stop closes the socket, cancels in-flight exchanges and waits for their
// handlers to return. Concurrent callers all wait for the drain; calling
// Stop on a stopped transport is a no-op.
func (t *UDPTransport) Stop() error {
	t.mu.Lock()
	if !t.running {
		done := t.done
		t.mu.Unlock()
		if done != nil {
			<-done
		}
		return nil
	}

	done := t.done
	close(t.stopCh)
	t.stopWatch()
	t.cancel()

	closeErr := t.conn.Close()
	if closeErr != nil {
		t.logger.Warn(map[string]any{
			"error": closeErr.Error(),
		}, "Error closing UDP connection")
	}
	t.running = false
	address := t.conn.LocalAddr().String()
	t.mu.Unlock()

	t.wg.Wait()

	t.logger.Info(map[string]any{
		"transport": string(TransportUDP),
		"address":   address,
	}, "DNS transport stopped")
	close(done)

	return closeErr
}

// Address returns the bound address once started, otherwise the
// configured one.
func (t *UDPTransport) Address() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.conn != nil {
		return t.conn.LocalAddr().String()
	}
	return t.addr
}

func (t *UDPTransport) listenLoop(ctx context.Context, conn net.PacketConn, stopCh <-chan struct{}, responder forwarder.DNSResponder) {
	defer t.wg.Done()

	buffer := make([]byte, wire.MaxUDPMessageSize)
	for {
		n, clientAddr, err := conn.ReadFrom(buffer)
		if err != nil {
			select {
			case <-stopCh:
				t.logger.Debug(nil, "UDP transport read loop exiting")
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			t.logger.Warn(map[string]any{
				"error": err.Error(),
			}, "Failed to read UDP packet")
			continue
		}

		packet := make([]byte, n)
		copy(packet, buffer[:n])

		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.handlePacket(ctx, conn, stopCh, packet, clientAddr, responder)
		}()
	}
}

// handlePacket turns one datagram into exactly one reply, unless the
// datagram is too short to carry a header.
func (t *UDPTransport) handlePacket(ctx context.Context, conn net.PacketConn, stopCh <-chan struct{}, data []byte, clientAddr net.Addr, responder forwarder.DNSResponder) {
	var (
		req     domain.Message
		decoded bool
		replied bool
	)
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error(map[string]any{
				"client": clientAddr.String(),
				"panic":  fmt.Sprint(r),
			}, "Recovered panic while handling DNS packet")
			if !replied {
				t.replyAfterPanic(conn, stopCh, data, clientAddr, req, decoded)
			}
		}
	}()

	t.logger.Debug(map[string]any{
		"client": clientAddr.String(),
		"size":   len(data),
		"raw":    fmt.Sprintf("%x", data),
	}, "Received raw DNS request data")

	req, err := t.codec.DecodeRequest(data)
	if err != nil {
		replied = true
		t.replyUndecodable(conn, stopCh, data, clientAddr, err)
		return
	}
	decoded = true

	outcome, ok := <-responder.Handle(ctx, req)
	if !ok {
		outcome = domain.Left[domain.DNSError](
			domain.InternalError{Cause: errors.New("responder closed without an outcome")},
			t.codec.ToErrorResponse(req),
		)
	}
	reply := outcome.Value()

	payload, err := t.codec.Encode(reply)
	if err != nil {
		t.logger.Error(map[string]any{
			"client":   clientAddr.String(),
			"query_id": req.Header.ID,
			"error":    err.Error(),
		}, "Failed to encode DNS response, replying with SERVFAIL")
		reply = t.codec.ToErrorResponse(req)
		if payload, err = t.codec.Encode(reply); err != nil {
			t.logger.Error(map[string]any{
				"client":   clientAddr.String(),
				"query_id": req.Header.ID,
				"error":    err.Error(),
			}, "Failed to encode SERVFAIL response")
			return
		}
	}

	replied = true
	t.send(conn, stopCh, payload, clientAddr, reply)
}

// replyAfterPanic sends SERVFAIL for a datagram whose handling panicked.
// The id comes from the decoded request, or from the raw header when the
// panic happened before decoding finished.
func (t *UDPTransport) replyAfterPanic(conn net.PacketConn, stopCh <-chan struct{}, data []byte, clientAddr net.Addr, req domain.Message, decoded bool) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error(map[string]any{
				"client": clientAddr.String(),
				"panic":  fmt.Sprint(r),
			}, "Failed to send SERVFAIL after panic")
		}
	}()

	if !decoded {
		header, err := t.codec.DecodeHeader(data)
		if err != nil {
			return
		}
		req = domain.Message{Header: header}
	}

	reply := t.codec.ToErrorResponse(req)
	payload, err := t.codec.Encode(reply)
	if err != nil {
		t.logger.Error(map[string]any{
			"client":   clientAddr.String(),
			"query_id": req.Header.ID,
			"error":    err.Error(),
		}, "Failed to encode SERVFAIL response")
		return
	}
	t.send(conn, stopCh, payload, clientAddr, reply)
}

// replyUndecodable answers a malformed request with SERVFAIL when its
// header can still be read, so the client learns its id failed. Packets
// too short to carry a header are dropped.
func (t *UDPTransport) replyUndecodable(conn net.PacketConn, stopCh <-chan struct{}, data []byte, clientAddr net.Addr, decodeErr error) {
	header, err := t.codec.DecodeHeader(data)
	if err != nil {
		t.logger.Warn(map[string]any{
			"client": clientAddr.String(),
			"error":  decodeErr.Error(),
			"size":   len(data),
		}, "Dropping undecodable DNS packet")
		return
	}

	t.logger.Warn(map[string]any{
		"client":   clientAddr.String(),
		"query_id": header.ID,
		"error":    decodeErr.Error(),
		"size":     len(data),
	}, "Failed to decode DNS request, replying with SERVFAIL")

	reply := t.codec.ToErrorResponse(domain.Message{Header: header})
	payload, err := t.codec.Encode(reply)
	if err != nil {
		t.logger.Error(map[string]any{
			"client":   clientAddr.String(),
			"query_id": header.ID,
			"error":    err.Error(),
		}, "Failed to encode SERVFAIL response")
		return
	}
	t.send(conn, stopCh, payload, clientAddr, reply)
}

func (t *UDPTransport) send(conn net.PacketConn, stopCh <-chan struct{}, payload []byte, clientAddr net.Addr, reply domain.Message) {
	t.logger.Debug(map[string]any{
		"client":   clientAddr.String(),
		"query_id": reply.Header.ID,
		"size":     len(payload),
		"raw":      fmt.Sprintf("%x", payload),
	}, "Encoded DNS response data")

	if _, err := conn.WriteTo(payload, clientAddr); err != nil {
		fields := map[string]any{
			"client":   clientAddr.String(),
			"query_id": reply.Header.ID,
			"error":    err.Error(),
		}
		select {
		case <-stopCh:
			t.logger.Debug(fields, "Dropped DNS response during shutdown")
		default:
			t.logger.Error(fields, "Failed to send DNS response")
		}
		return
	}

	t.logger.Debug(map[string]any{
		"client":   clientAddr.String(),
		"query_id": reply.Header.ID,
		"rcode":    reply.Header.RCode.String(),
		"answers":  len(reply.Answers),
		"size":     len(payload),
	}, "Sent DNS response")
}
