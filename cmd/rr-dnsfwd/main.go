package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/haukened/rr-dnsfwd/internal/dns/common/clock"
	"github.com/haukened/rr-dnsfwd/internal/dns/common/log"
	"github.com/haukened/rr-dnsfwd/internal/dns/config"
	"github.com/haukened/rr-dnsfwd/internal/dns/gateways/transport"
	"github.com/haukened/rr-dnsfwd/internal/dns/gateways/upstream"
	"github.com/haukened/rr-dnsfwd/internal/dns/gateways/wire"
	"github.com/haukened/rr-dnsfwd/internal/dns/repos/blocklist"
	"github.com/haukened/rr-dnsfwd/internal/dns/repos/blocklist/bloom"
	"github.com/haukened/rr-dnsfwd/internal/dns/repos/blocklist/bolt"
	"github.com/haukened/rr-dnsfwd/internal/dns/repos/blocklist/lru"
	"github.com/haukened/rr-dnsfwd/internal/dns/repos/blocklist/parsers"
	"github.com/haukened/rr-dnsfwd/internal/dns/services/forwarder"
)

const (
	version = "0.1.0-dev"
	appName = "rr-dnsfwd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the forwarder.
type Application struct {
	config    *config.AppConfig
	transport transport.ServerTransport
	handler   *forwarder.Handler
	upstream  *upstream.Client
	store     blocklist.Store // nil when the sinkhole is disabled
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Usage: %s [u <ip[:port]>] [p <port>]\n", appName)
		os.Exit(1)
	}

	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info(map[string]any{
		"version":          version,
		"env":              cfg.Env,
		"log_level":        cfg.LogLevel,
		"port":             cfg.Port,
		"upstream":         cfg.Upstream,
		"upstream_timeout": cfg.UpstreamTimeout.String(),
		"blocklist_files":  len(cfg.BlocklistFiles),
	}, "Starting RR-DNS forwarder")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	app, err := buildApplication(ctx, cfg, log.GetLogger(), clock.RealClock{})
	if err != nil {
		log.Fatal(map[string]any{"error": err.Error()}, "Failed to build application")
	}

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err.Error()}, "Forwarder failed")
	}

	log.Info(nil, "RR-DNS forwarder stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(ctx context.Context, cfg *config.AppConfig, logger log.Logger, clk clock.Clock) (*Application, error) {
	codec := wire.NewUDPCodec(logger)

	bl, store, err := buildBlocklist(cfg, logger, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to build blocklist: %w", err)
	}

	client, err := upstream.NewClient(ctx, upstream.Options{
		Server:  cfg.Upstream,
		Codec:   codec,
		Timeout: cfg.UpstreamTimeout,
		Logger:  logger,
		Clock:   clk,
	})
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("failed to create upstream client: %w", err)
	}

	logger.Info(map[string]any{
		"server":  client.Server(),
		"timeout": cfg.UpstreamTimeout.String(),
	}, "Upstream DNS client configured")

	requestInterceptors, responseInterceptors := buildInterceptors(cfg, bl, logger)
	handler, err := forwarder.NewHandler(forwarder.Options{
		Upstream:             client,
		Logger:               logger,
		Clock:                clk,
		RequestInterceptors:  requestInterceptors,
		ResponseInterceptors: responseInterceptors,
	})
	if err != nil {
		_ = client.Close()
		closeStore(store)
		return nil, fmt.Errorf("failed to create handler: %w", err)
	}

	tr, err := transport.NewTransport(transport.TransportUDP, cfg.ListenAddr(), codec, logger)
	if err != nil {
		_ = client.Close()
		closeStore(store)
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	return &Application{
		config:    cfg,
		transport: tr,
		handler:   handler,
		upstream:  client,
		store:     store,
	}, nil
}

// buildInterceptors orders the pipeline. The sinkhole runs before the
// response log so logged replies show what the client receives.
func buildInterceptors(cfg *config.AppConfig, bl forwarder.Blocklist, logger log.Logger) (request, response []forwarder.Interceptor) {
	if bl != nil {
		v4, v6 := cfg.SinkholeAddrs()
		response = append(response, forwarder.SinkholeInterceptor(bl, v4, v6, logger))
	}
	if cfg.QueryLog {
		request = append(request, forwarder.QueryLogInterceptor(logger))
		response = append(response, forwarder.ResponseLogInterceptor(logger))
	}
	return request, response
}

// buildBlocklist loads the configured list files into the bbolt index. With
// no files configured there is no sinkhole and no store is opened.
func buildBlocklist(cfg *config.AppConfig, logger log.Logger, clk clock.Clock) (forwarder.Blocklist, blocklist.Store, error) {
	if len(cfg.BlocklistFiles) == 0 {
		logger.Info(nil, "Blocklist disabled")
		return nil, nil, nil
	}

	now := clk.Now()
	rules, err := parsers.LoadFiles(cfg.BlocklistFiles, logger, now)
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.BlocklistDB), 0o750); err != nil {
		return nil, nil, fmt.Errorf("failed to create blocklist directory: %w", err)
	}
	store, err := bolt.New(cfg.BlocklistDB)
	if err != nil {
		return nil, nil, err
	}

	cache, err := lru.New(cfg.BlocklistCacheSize)
	if err != nil {
		closeStore(store)
		return nil, nil, err
	}

	repo := blocklist.NewRepository(store, cache, bloom.NewFactory(), cfg.BlocklistFPRate, logger)
	if err := repo.UpdateAll(rules, uint64(now.Unix()), now.Unix()); err != nil {
		closeStore(store)
		return nil, nil, err
	}

	stats := repo.Stats()
	logger.Info(map[string]any{
		"db":          cfg.BlocklistDB,
		"exact":       stats.Store.ExactKeys,
		"suffix":      stats.Store.SuffixKeys,
		"cache_size":  stats.Cache.Capacity,
		"fp_rate":     cfg.BlocklistFPRate,
		"sinkhole_v4": cfg.SinkholeIPv4,
		"sinkhole_v6": cfg.SinkholeIPv6,
	}, "Blocklist configured")

	return repo, store, nil
}

func closeStore(store blocklist.Store) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		log.Warn(map[string]any{"error": err.Error()}, "Error closing blocklist store")
	}
}

// Run starts the listener and blocks until ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	if err := app.transport.Start(ctx, app.handler); err != nil {
		app.closeBackends()
		return fmt.Errorf("failed to start UDP transport: %w", err)
	}

	log.Info(map[string]any{
		"address":   app.transport.Address(),
		"transport": string(transport.TransportUDP),
		"upstream":  app.upstream.Server(),
	}, "DNS forwarder started")

	<-ctx.Done()

	log.Info(nil, "Shutdown initiated")
	return app.shutdown(defaultShutdownTimeout)
}

// shutdown stops the listener first so no new exchanges reach the
// upstream client, then releases the client and the blocklist store.
func (app *Application) shutdown(timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		err := app.transport.Stop()
		app.closeBackends()
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Warn(map[string]any{"error": err.Error()}, "Error during transport shutdown")
		}
		log.Info(nil, "Graceful shutdown completed")
		return nil
	case <-time.After(timeout):
		log.Warn(map[string]any{"timeout": timeout.String()}, "Shutdown timeout exceeded")
		return errors.New("shutdown timeout")
	}
}

func (app *Application) closeBackends() {
	if err := app.upstream.Close(); err != nil {
		log.Warn(map[string]any{"error": err.Error()}, "Error closing upstream client")
	}
	closeStore(app.store)
}
