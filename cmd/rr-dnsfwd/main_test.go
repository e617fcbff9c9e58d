package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-dnsfwd/internal/dns/common/clock"
	"github.com/haukened/rr-dnsfwd/internal/dns/common/log"
	"github.com/haukened/rr-dnsfwd/internal/dns/config"
	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
	"github.com/haukened/rr-dnsfwd/internal/dns/repos/blocklist/parsers"
	"github.com/haukened/rr-dnsfwd/internal/dns/services/forwarder"
)

var testNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

// startResolver runs a miekg server on loopback that answers A queries with
// 1.2.3.4 and AAAA queries with 2001:db8::1.
func startResolver(t *testing.T) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
			q := r.Question[0]
			m := new(dns.Msg)
			m.SetReply(r)
			hdr := dns.RR_Header{Name: q.Name, Rrtype: q.Qtype, Class: dns.ClassINET, Ttl: 300}
			switch q.Qtype {
			case dns.TypeA:
				m.Answer = append(m.Answer, &dns.A{Hdr: hdr, A: net.IPv4(1, 2, 3, 4)})
			case dns.TypeAAAA:
				m.Answer = append(m.Answer, &dns.AAAA{Hdr: hdr, AAAA: net.ParseIP("2001:db8::1")})
			}
			_ = w.WriteMsg(m)
		}),
	}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

type staticBlocklist struct{}

func (staticBlocklist) Decide(string) domain.BlockDecision { return domain.EmptyDecision() }

// freePort returns a UDP port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	port := pc.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, pc.Close())
	return port
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func testConfig(t *testing.T, upstreamAddr string) *config.AppConfig {
	t.Helper()
	cfg := config.DEFAULT_APP_CONFIG
	cfg.Port = freePort(t)
	cfg.Upstream = upstreamAddr
	cfg.UpstreamTimeout = 2 * time.Second
	cfg.BlocklistDB = filepath.Join(t.TempDir(), "db", "blocklist.db")
	return &cfg
}

func TestBuildInterceptors(t *testing.T) {
	tests := []struct {
		name         string
		queryLog     bool
		withBlocks   bool
		wantRequest  int
		wantResponse int
	}{
		{name: "nothing", queryLog: false, withBlocks: false, wantRequest: 0, wantResponse: 0},
		{name: "query log only", queryLog: true, withBlocks: false, wantRequest: 1, wantResponse: 1},
		{name: "sinkhole only", queryLog: false, withBlocks: true, wantRequest: 0, wantResponse: 1},
		{name: "both", queryLog: true, withBlocks: true, wantRequest: 1, wantResponse: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DEFAULT_APP_CONFIG
			cfg.QueryLog = tt.queryLog
			var bl forwarder.Blocklist
			if tt.withBlocks {
				bl = staticBlocklist{}
			}

			req, resp := buildInterceptors(&cfg, bl, log.NewNoopLogger())
			assert.Len(t, req, tt.wantRequest)
			assert.Len(t, resp, tt.wantResponse)
		})
	}
}

func TestBuildBlocklist(t *testing.T) {
	t.Run("disabled without files", func(t *testing.T) {
		cfg := testConfig(t, "127.0.0.1:53")

		bl, store, err := buildBlocklist(cfg, log.NewNoopLogger(), clock.NewMockClock(testNow))

		require.NoError(t, err)
		assert.Nil(t, bl)
		assert.Nil(t, store)
		assert.NoFileExists(t, cfg.BlocklistDB)
	})

	t.Run("loads plain and hosts files", func(t *testing.T) {
		dir := t.TempDir()
		plain := writeFile(t, dir, "plain.txt", "# ads\nads.example\n*.tracker.example\n")
		hosts := writeFile(t, dir, "hosts", "0.0.0.0 hosts-blocked.example\n127.0.0.1 localhost\n")
		cfg := testConfig(t, "127.0.0.1:53")
		cfg.BlocklistFiles = []string{plain, parsers.HostsPrefix + hosts}

		bl, store, err := buildBlocklist(cfg, log.NewNoopLogger(), clock.NewMockClock(testNow))
		require.NoError(t, err)
		require.NotNil(t, bl)
		require.NotNil(t, store)
		t.Cleanup(func() { _ = store.Close() })

		assert.FileExists(t, cfg.BlocklistDB)
		assert.True(t, bl.Decide("ads.example").IsBlocked())
		assert.True(t, bl.Decide("tracker.example").IsBlocked())
		assert.True(t, bl.Decide("a.b.tracker.example").IsBlocked())
		assert.True(t, bl.Decide("hosts-blocked.example").IsBlocked())
		assert.False(t, bl.Decide("sub.ads.example").IsBlocked())
		assert.False(t, bl.Decide("example.org").IsBlocked())

		stats := store.Stats()
		assert.Equal(t, uint64(2), stats.ExactKeys)
		assert.Equal(t, uint64(1), stats.SuffixKeys)
		assert.Equal(t, uint64(testNow.Unix()), stats.Version)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := testConfig(t, "127.0.0.1:53")
		cfg.BlocklistFiles = []string{filepath.Join(t.TempDir(), "nope.txt")}

		bl, store, err := buildBlocklist(cfg, log.NewNoopLogger(), clock.NewMockClock(testNow))

		require.Error(t, err)
		assert.Nil(t, bl)
		assert.Nil(t, store)
	})

	t.Run("unusable database path", func(t *testing.T) {
		dir := t.TempDir()
		plain := writeFile(t, dir, "plain.txt", "ads.example\n")
		cfg := testConfig(t, "127.0.0.1:53")
		cfg.BlocklistFiles = []string{plain}
		cfg.BlocklistDB = dir // a directory cannot be opened as a database

		_, store, err := buildBlocklist(cfg, log.NewNoopLogger(), clock.NewMockClock(testNow))

		require.Error(t, err)
		assert.Nil(t, store)
	})
}

func TestBuildApplication(t *testing.T) {
	t.Run("without blocklist", func(t *testing.T) {
		cfg := testConfig(t, startResolver(t))

		app, err := buildApplication(context.Background(), cfg, log.NewNoopLogger(), clock.RealClock{})
		require.NoError(t, err)
		t.Cleanup(app.closeBackends)

		assert.Nil(t, app.store)
		assert.Equal(t, cfg.ListenAddr(), app.transport.Address())
		assert.Equal(t, cfg.Upstream, app.upstream.Server())
	})

	t.Run("blocklist error", func(t *testing.T) {
		cfg := testConfig(t, startResolver(t))
		cfg.BlocklistFiles = []string{filepath.Join(t.TempDir(), "missing")}

		app, err := buildApplication(context.Background(), cfg, log.NewNoopLogger(), clock.RealClock{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to build blocklist")
		assert.Nil(t, app)
	})
}

func TestApplication_RunFailsWhenPortTaken(t *testing.T) {
	cfg := testConfig(t, startResolver(t))
	pc, err := net.ListenPacket("udp", ":"+strconv.Itoa(cfg.Port))
	require.NoError(t, err)
	defer pc.Close()

	app, err := buildApplication(context.Background(), cfg, log.NewNoopLogger(), clock.RealClock{})
	require.NoError(t, err)

	err = app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start UDP transport")
}
