package config

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2053, cfg.Port)
	assert.Equal(t, "8.8.8.8:53", cfg.Upstream)
	assert.Equal(t, 30*time.Second, cfg.UpstreamTimeout)
	assert.True(t, cfg.QueryLog)
	assert.Empty(t, cfg.BlocklistFiles)
	assert.Equal(t, "/var/lib/rr-dnsfwd/blocklist.db", cfg.BlocklistDB)
	assert.Equal(t, 10000, cfg.BlocklistCacheSize)
	assert.Equal(t, 0.01, cfg.BlocklistFPRate)
	assert.Equal(t, ":2053", cfg.ListenAddr())

	v4, v6 := cfg.SinkholeAddrs()
	assert.Equal(t, netip.IPv4Unspecified(), v4)
	assert.Equal(t, netip.IPv6Unspecified(), v6)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DNS_ENV", "dev")
	t.Setenv("DNS_LOG_LEVEL", "debug")
	t.Setenv("DNS_PORT", "5353")
	t.Setenv("DNS_UPSTREAM", "1.1.1.1")
	t.Setenv("DNS_UPSTREAM_TIMEOUT", "5s")
	t.Setenv("DNS_QUERY_LOG", "false")
	t.Setenv("DNS_BLOCKLIST_FILES", "/etc/ads.txt, hosts:/etc/hosts.block")
	t.Setenv("DNS_BLOCKLIST_DB", "/tmp/bl.db")
	t.Setenv("DNS_BLOCKLIST_CACHE_SIZE", "0")
	t.Setenv("DNS_BLOCKLIST_FP_RATE", "0.001")
	t.Setenv("DNS_SINKHOLE_IPV4", "127.0.0.2")
	t.Setenv("DNS_SINKHOLE_IPV6", "::1")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5353, cfg.Port)
	assert.Equal(t, "1.1.1.1:53", cfg.Upstream)
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
	assert.False(t, cfg.QueryLog)
	assert.Equal(t, []string{"/etc/ads.txt", "hosts:/etc/hosts.block"}, cfg.BlocklistFiles)
	assert.Equal(t, "/tmp/bl.db", cfg.BlocklistDB)
	assert.Zero(t, cfg.BlocklistCacheSize)
	assert.Equal(t, 0.001, cfg.BlocklistFPRate)

	v4, v6 := cfg.SinkholeAddrs()
	assert.Equal(t, "127.0.0.2", v4.String())
	assert.Equal(t, "::1", v6.String())
}

func TestLoad_SingleBlocklistFile(t *testing.T) {
	t.Setenv("DNS_BLOCKLIST_FILES", "/etc/ads.txt")
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/etc/ads.txt"}, cfg.BlocklistFiles)
}

func TestLoad_Args(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		upstream string
		port     int
	}{
		{"none", nil, "8.8.8.8:53", 2053},
		{"upstream with port", []string{"u", "9.9.9.9:5353"}, "9.9.9.9:5353", 2053},
		{"upstream without port", []string{"u", "9.9.9.9"}, "9.9.9.9:53", 2053},
		{"ipv6 upstream", []string{"u", "2001:db8::1"}, "[2001:db8::1]:53", 2053},
		{"port", []string{"p", "8053"}, "8.8.8.8:53", 8053},
		{"both", []string{"p", "8053", "u", "1.0.0.1"}, "1.0.0.1:53", 8053},
		{"upper case flags", []string{"U", "1.0.0.1", "P", "8053"}, "1.0.0.1:53", 8053},
		{"unknown tokens skipped", []string{"x", "u", "1.0.0.1", "--verbose"}, "1.0.0.1:53", 2053},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.upstream, cfg.Upstream)
			assert.Equal(t, tt.port, cfg.Port)
		})
	}
}

func TestLoad_ArgsOverrideEnv(t *testing.T) {
	t.Setenv("DNS_UPSTREAM", "1.1.1.1:53")
	t.Setenv("DNS_PORT", "1053")

	cfg, err := Load([]string{"u", "8.8.4.4", "p", "3053"})
	require.NoError(t, err)
	assert.Equal(t, "8.8.4.4:53", cfg.Upstream)
	assert.Equal(t, 3053, cfg.Port)
}

func TestLoad_InvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing value", []string{"u"}},
		{"missing port value", []string{"x", "P"}},
		{"port not a number", []string{"p", "http"}},
		{"port out of range", []string{"p", "70000"}},
		{"port zero", []string{"p", "0"}},
		{"upstream hostname", []string{"u", "dns.google"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DNS_ENV", "staging"},
		{"DNS_LOG_LEVEL", "verbose"},
		{"DNS_PORT", "NaN"},
		{"DNS_PORT", "65536"},
		{"DNS_UPSTREAM", "not_an_ip:53"},
		{"DNS_UPSTREAM_TIMEOUT", "0s"},
		{"DNS_BLOCKLIST_CACHE_SIZE", "-1"},
		{"DNS_BLOCKLIST_FP_RATE", "1"},
		{"DNS_BLOCKLIST_DB", ""},
		{"DNS_SINKHOLE_IPV4", "::1"},
		{"DNS_SINKHOLE_IPV6", "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(nil)
			assert.Error(t, err)
		})
	}
}

func TestLoad_LoaderFailures(t *testing.T) {
	mocked := errors.New("mocked error")

	t.Run("defaults", func(t *testing.T) {
		orig := defaultLoader
		defaultLoader = func(*koanf.Koanf) error { return mocked }
		defer func() { defaultLoader = orig }()
		_, err := Load(nil)
		assert.ErrorIs(t, err, mocked)
	})
	t.Run("env", func(t *testing.T) {
		orig := envLoader
		envLoader = func(*koanf.Koanf) error { return mocked }
		defer func() { envLoader = orig }()
		_, err := Load(nil)
		assert.ErrorIs(t, err, mocked)
	})
	t.Run("args", func(t *testing.T) {
		orig := argsLoader
		argsLoader = func(*koanf.Koanf, []string) error { return mocked }
		defer func() { argsLoader = orig }()
		_, err := Load(nil)
		assert.ErrorIs(t, err, mocked)
	})
	t.Run("validation registration", func(t *testing.T) {
		orig := registerValidation
		registerValidation = func(*validator.Validate) error { return mocked }
		defer func() { registerValidation = orig }()
		_, err := Load(nil)
		assert.ErrorIs(t, err, mocked)
	})
}

func TestDefaultLoader_InvalidDefaultFailsValidation(t *testing.T) {
	orig := DEFAULT_APP_CONFIG
	defer func() { DEFAULT_APP_CONFIG = orig }()

	DEFAULT_APP_CONFIG.Upstream = "not_a_valid_ip_port"
	_, err := Load(nil)
	assert.Error(t, err)
}

func TestValidIPPort(t *testing.T) {
	cases := []struct {
		input    string
		expected bool
	}{
		{"1.2.3.4:53", true},
		{"127.0.0.1:5353", true},
		{"[::1]:53", true},
		{"::1:53", false},
		{"192.168.1.1:", false},
		{":53", false},
		{"not_an_ip:53", false},
		{"1.2.3.4:notaport", false},
		{"1.2.3.4:0", false},
		{"1.2.3.4:65536", false},
		{"", false},
		{"1.2.3.4", false},
	}

	validate := validator.New()
	require.NoError(t, validate.RegisterValidation("ip_port", validIPPort))
	type S struct {
		Addr string `validate:"ip_port"`
	}
	for _, tc := range cases {
		err := validate.Struct(S{Addr: tc.input})
		assert.Equal(t, tc.expected, err == nil, tc.input)
	}
}

func TestNormalizeUpstream(t *testing.T) {
	assert.Equal(t, "1.2.3.4:53", normalizeUpstream("1.2.3.4"))
	assert.Equal(t, "1.2.3.4:99", normalizeUpstream("1.2.3.4:99"))
	assert.Equal(t, "[::1]:53", normalizeUpstream("::1"))
	assert.Equal(t, "garbage", normalizeUpstream("garbage"))
}
