package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/five82/ntdash/internal/archive"
	"github.com/five82/ntdash/internal/backend"
	"github.com/five82/ntdash/internal/config"
	"github.com/five82/ntdash/internal/metrics"
	"github.com/five82/ntdash/internal/nt"
	"github.com/five82/ntdash/internal/state"
)

const (
	startupTimeout  = 5 * time.Second
	shutdownTimeout = 5 * time.Second
	reportEvery     = 10 * time.Second
)

// Options configure the ntdash application.
type Options struct {
	ConfigPath string
	PollEvery  time.Duration // zero uses poll_seconds from the config
	LogLevel   string        // empty uses log_level from the config
	Logger     *zap.Logger   // overrides LogLevel when set
}

type runtime struct {
	cfg    config.Config
	logger *zap.Logger
	api    backend.API
	close  func()
}

// load reads the config and builds the logger.
func load(opts Options) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	if opts.Logger != nil {
		return cfg, opts.Logger, nil
	}
	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := NewLogger(level)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// setup loads the config and opens the backend transport.
func setup(ctx context.Context, opts Options) (*runtime, error) {
	cfg, logger, err := load(opts)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()
	inv, closeInv, err := dialBackend(dialCtx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init backend: %w", err)
	}
	return &runtime{
		cfg:    cfg,
		logger: logger,
		api:    backend.NewClient(inv),
		close: func() {
			closeInv()
			_ = logger.Sync()
		},
	}, nil
}

// Run connects, subscribes every configured pattern and keeps the caches
// fresh until the context is cancelled. Caches are saved to the archive on
// the way out.
func Run(ctx context.Context, opts Options) error {
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()
	cfg, logger := rt.cfg, rt.logger

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	var arch *archive.Archive
	if cfg.ArchiveDir != "" {
		arch, err = archive.Open(cfg.ArchiveDir, cfg.CompressionLevel)
		if err != nil {
			return err
		}
		defer arch.Close()
	}

	registry := nt.NewRegistry(rt.api,
		nt.WithLogger(logger),
		nt.WithObserver(m),
		nt.WithHistoryLimit(cfg.HistoryLimit),
	)
	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	client, err := registry.Start(startCtx, cfg.Server, cfg.Port, cfg.Identity)
	cancel()
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.ServerIdentity(), err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := registry.StopAll(stopCtx); err != nil {
			logger.Warn("stop client", zap.Error(err))
		}
	}()

	if err := subscribeAll(ctx, client, cfg, arch, logger); err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer stop()
	}

	interval := cfg.PollInterval
	if opts.PollEvery > 0 {
		interval = opts.PollEvery
	}
	store := &state.Store{}
	done := StartPoller(ctx, store, client, interval, logger)

	ticker := time.NewTicker(reportEvery)
	defer ticker.Stop()
	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false
		case <-ticker.C:
			report(logger, store)
		}
	}
	<-done
	report(logger, store)

	if arch != nil {
		saveAll(client, cfg, arch, logger)
	}
	return nil
}

// subscribeAll subscribes every configured pattern and seeds each cache from
// the archive.
func subscribeAll(ctx context.Context, client *nt.Client, cfg config.Config, arch *archive.Archive, logger *zap.Logger) error {
	for _, s := range cfg.Subscriptions {
		sub, res, err := client.Subscribe(s.Pattern, s.Options())
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", s.Pattern, err)
		}
		go func(pattern string) {
			if err := res.Wait(ctx); err != nil && ctx.Err() == nil {
				logger.Error("subscription refused", zap.String("pattern", pattern), zap.Error(err))
			}
		}(s.Pattern)

		if arch == nil {
			continue
		}
		saved, err := arch.Load(ctx, archiveKey(cfg, s.Pattern))
		switch {
		case errors.Is(err, archive.ErrNotFound):
		case err != nil:
			logger.Warn("archive load failed", zap.String("pattern", s.Pattern), zap.Error(err))
		default:
			if err := sub.Restore(saved); err != nil {
				return err
			}
			logger.Info("restored cache",
				zap.String("pattern", s.Pattern),
				zap.Int("paths", saved.Len()),
				zap.Int("samples", saved.Samples()),
			)
		}
	}
	return nil
}

// archiveKey names a pattern's archive entry by the configured identity, so
// history can find it without asking the backend.
func archiveKey(cfg config.Config, pattern string) string {
	return archive.Key(cfg.ServerIdentity().String(), pattern)
}

func saveAll(client *nt.Client, cfg config.Config, arch *archive.Archive, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, sub := range client.Subscriptions() {
		if err := arch.Save(ctx, archiveKey(cfg, sub.Pattern()), sub.Snapshot()); err != nil {
			logger.Warn("archive save failed", zap.String("pattern", sub.Pattern()), zap.Error(err))
		}
	}
}

func report(logger *zap.Logger, store *state.Store) {
	for _, h := range store.Snapshot() {
		fields := []zap.Field{
			zap.String("pattern", h.Pattern),
			zap.Int("paths", h.Paths),
			zap.Int("samples", h.Samples),
			zap.Uint64("timestamp", uint64(h.Timestamp)),
		}
		if h.IsOffline() {
			logger.Warn("subscription offline", append(fields, zap.Int("failures", h.ConsecutiveFailures), zap.Error(h.LastError))...)
			continue
		}
		logger.Info("subscription", fields...)
	}
}

func serveMetrics(addr string, g prometheus.Gatherer, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
