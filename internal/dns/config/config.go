// Package config loads AppConfig from defaults, DNS_-prefixed environment
// variables and the command line, in that order of precedence.
package config

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultUpstreamPort is used when an upstream is given without a port.
const DefaultUpstreamPort = 53

// AppConfig holds the forwarder's runtime settings.
type AppConfig struct {
	// Env selects the log encoder: "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel is one of "debug", "info", "warn" or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Port is the local UDP port to listen on.
	Port int `koanf:"port" validate:"required,gte=1,lte=65535"`

	// Upstream is the resolver every query is forwarded to, as ip:port.
	Upstream string `koanf:"upstream" validate:"required,ip_port"`

	// UpstreamTimeout bounds one upstream exchange.
	UpstreamTimeout time.Duration `koanf:"upstream_timeout" validate:"gt=0"`

	// QueryLog logs every question and reply at info level.
	QueryLog bool `koanf:"query_log"`

	// BlocklistFiles are sinkhole lists. A "hosts:" prefix selects hosts
	// file syntax. An empty list disables the sinkhole.
	BlocklistFiles []string `koanf:"blocklist_files" validate:"dive,required"`

	// BlocklistDB is the bbolt file the rules are indexed into.
	BlocklistDB string `koanf:"blocklist_db" validate:"required"`

	// BlocklistCacheSize caps the decision cache; 0 disables it.
	BlocklistCacheSize int `koanf:"blocklist_cache_size" validate:"gte=0"`

	// BlocklistFPRate is the Bloom filter's target false positive rate.
	BlocklistFPRate float64 `koanf:"blocklist_fp_rate" validate:"gt=0,lt=1"`

	// SinkholeIPv4 and SinkholeIPv6 replace A and AAAA answers for blocked names.
	SinkholeIPv4 string `koanf:"sinkhole_ipv4" validate:"required,ip4_addr"`
	SinkholeIPv6 string `koanf:"sinkhole_ipv6" validate:"required,ip6_addr"`
}

// DEFAULT_APP_CONFIG is the configuration used when nothing is overridden.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:                "prod",
	LogLevel:           "info",
	Port:               2053,
	Upstream:           "8.8.8.8:53",
	UpstreamTimeout:    30 * time.Second,
	QueryLog:           true,
	BlocklistFiles:     []string{},
	BlocklistDB:        "/var/lib/rr-dnsfwd/blocklist.db",
	BlocklistCacheSize: 10000,
	BlocklistFPRate:    0.01,
	SinkholeIPv4:       "0.0.0.0",
	SinkholeIPv6:       "::",
}

// ListenAddr is the UDP address the listener binds.
func (c *AppConfig) ListenAddr() string {
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

// SinkholeAddrs returns the parsed sinkhole addresses. Valid after Load.
func (c *AppConfig) SinkholeAddrs() (v4, v6 netip.Addr) {
	return netip.MustParseAddr(c.SinkholeIPv4), netip.MustParseAddr(c.SinkholeIPv6)
}

// validIPPort accepts "ip:port" with a literal IP and a port in 1-65535.
func validIPPort(fl validator.FieldLevel) bool {
	ip, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil || ip == "" || port == "" {
		return false
	}
	if _, err := netip.ParseAddr(ip); err != nil {
		return false
	}
	n, err := strconv.ParseUint(port, 10, 16)
	return err == nil && n > 0
}

// normalizeUpstream adds the default port to a bare address. Anything that
// is not an address is returned unchanged for validation to reject.
func normalizeUpstream(s string) string {
	if _, err := netip.ParseAddrPort(s); err == nil {
		return s
	}
	if addr, err := netip.ParseAddr(s); err == nil {
		return netip.AddrPortFrom(addr, DefaultUpstreamPort).String()
	}
	return s
}

// parseArgs reads the flag pairs "u <ip[:port]>" and "p <port>". Flags are
// case-insensitive and any other token is skipped.
func parseArgs(args []string) (map[string]any, error) {
	out := make(map[string]any)
	for i := 0; i < len(args); i++ {
		flag := strings.ToLower(strings.TrimSpace(args[i]))
		if flag != "u" && flag != "p" {
			continue
		}
		if i+1 >= len(args) {
			return nil, fmt.Errorf("argument %q needs a value", args[i])
		}
		i++
		val := strings.TrimSpace(args[i])
		if flag == "u" {
			out["upstream"] = normalizeUpstream(val)
			continue
		}
		port, err := strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", val, err)
		}
		out["port"] = port
	}
	return out, nil
}

// envLoader loads DNS_-prefixed variables. Values containing spaces or
// commas become lists.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "DNS_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "DNS_"))
			value = strings.TrimSpace(value)
			if key == "upstream" {
				return key, normalizeUpstream(value)
			}
			if strings.ContainsAny(value, " ,") {
				return key, strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
			}
			return key, value
		},
	}), nil)
}

var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

var argsLoader = func(k *koanf.Koanf, args []string) error {
	m, err := parseArgs(args)
	if err != nil {
		return err
	}
	return k.Load(confmap.Provider(m, "."), nil)
}

var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("ip_port", validIPPort)
}

// Load builds and validates the configuration. args are the process
// arguments without the program name.
func Load(args []string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}
	if err := argsLoader(k, args); err != nil {
		return nil, fmt.Errorf("error loading arguments: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &cfg, nil
}
