package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/wingman/internal/api"
	"github.com/nvandessel/wingman/internal/config"
	"github.com/nvandessel/wingman/internal/ratelimit"
)

// limiterPruneInterval is how often idle in-memory buckets are dropped.
const limiterPruneInterval = time.Minute

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		Long: `Serve the analysis API over HTTP.

Endpoints:
  GET  /health
  POST /api/v1/analyze
  GET  /api/v1/rules
  POST /api/v1/rules/reload
  GET  /api/v1/history
  GET  /api/v1/history/{id}

Requests under /api/v1 are rate limited per caller (X-User-ID header, or
client IP). Set ratelimit.backend to "redis" to share limits between
replicas.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, cmd, appOptions{store: true, events: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				a.cfg.Server.Addr = addr
			}

			limiter, closeLimiter, err := newRateLimiter(ctx, a.cfg.RateLimit)
			if err != nil {
				return err
			}
			defer closeLimiter()

			srv := api.NewServer(api.Config{
				Addr:            a.cfg.Server.Addr,
				ReadTimeout:     a.cfg.Server.ReadTimeout,
				WriteTimeout:    a.cfg.Server.WriteTimeout,
				ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
			}, a.svc, limiter, a.logger)

			a.logger.Info("wingman API",
				"version", version,
				"rules", a.svc.Rules().Version,
				"store", a.cfg.Store.Driver,
				"ratelimit", a.cfg.RateLimit.Backend)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	return cmd
}

// newRateLimiter builds the API limiter. A nil Checker disables limiting.
func newRateLimiter(ctx context.Context, cfg config.RateLimitConfig) (ratelimit.Checker, func(), error) {
	if cfg.RequestsPerMinute == 0 {
		return nil, func() {}, nil
	}

	switch cfg.Backend {
	case "redis":
		client, err := ratelimit.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return ratelimit.NewRedisLimiter(client, cfg.RequestsPerMinute, time.Minute), func() { client.Close() }, nil
	case "memory", "":
		l := ratelimit.PerMinute(cfg.RequestsPerMinute, cfg.Burst)
		go pruneLoop(ctx, l)
		return l, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("invalid ratelimit backend: %s", cfg.Backend)
	}
}

func pruneLoop(ctx context.Context, l *ratelimit.Limiter) {
	ticker := time.NewTicker(limiterPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Prune()
		}
	}
}

// signalContext is cancelled on interrupt or termination.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
