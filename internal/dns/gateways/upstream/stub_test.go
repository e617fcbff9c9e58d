package upstream

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

// stubUpstream is a UDP resolver for tests. Each request is handled on its
// own goroutine; a nil reply from the handler means no answer is sent.
type stubUpstream struct {
	conn     net.PacketConn
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	wg       sync.WaitGroup

	mu       sync.Mutex
	handler  func(req *dns.Msg) []byte
	received []*dns.Msg
}

func newStubUpstream(t *testing.T, handler func(req *dns.Msg) []byte) *stubUpstream {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &stubUpstream{conn: conn, handler: handler}
	go s.serve()
	t.Cleanup(func() {
		_ = conn.Close()
		s.wg.Wait()
	})
	return s
}

func (s *stubUpstream) Addr() string {
	return s.conn.LocalAddr().String()
}

func (s *stubUpstream) serve() {
	buf := make([]byte, 512)
	for {
		n, addr, err := s.conn.ReadFrom(buf)
		if err != nil {
			return
		}
		req := new(dns.Msg)
		if err := req.Unpack(buf[:n]); err != nil {
			continue
		}
		s.mu.Lock()
		s.received = append(s.received, req)
		handler := s.handler
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			cur := s.inFlight.Add(1)
			for {
				prev := s.maxSeen.Load()
				if cur <= prev || s.maxSeen.CompareAndSwap(prev, cur) {
					break
				}
			}
			reply := handler(req)
			s.inFlight.Add(-1)
			if reply != nil {
				_, _ = s.conn.WriteTo(reply, addr)
			}
		}()
	}
}

func (s *stubUpstream) SetHandler(h func(req *dns.Msg) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

func (s *stubUpstream) Received() []*dns.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*dns.Msg(nil), s.received...)
}

// answerA replies to req with a single A record.
func answerA(t *testing.T, req *dns.Msg, ip string) []byte {
	resp := new(dns.Msg)
	resp.SetReply(req)
	rr, err := dns.NewRR(req.Question[0].Name + " 60 IN A " + ip)
	if err != nil {
		t.Errorf("NewRR: %v", err)
		return nil
	}
	resp.Answer = append(resp.Answer, rr)
	b, err := resp.Pack()
	if err != nil {
		t.Errorf("Pack: %v", err)
		return nil
	}
	return b
}

// answerRcode replies to req with an empty answer and the given rcode.
func answerRcode(t *testing.T, req *dns.Msg, rcode int) []byte {
	resp := new(dns.Msg)
	resp.SetRcode(req, rcode)
	b, err := resp.Pack()
	if err != nil {
		t.Errorf("Pack: %v", err)
		return nil
	}
	return b
}
