package cmd

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"google.golang.org/grpc"

	"github.com/chatrelay/chat-relay/config"
	"github.com/chatrelay/chat-relay/internal/concurrent/pool"
	"github.com/chatrelay/chat-relay/internal/diag"
	"github.com/chatrelay/chat-relay/internal/group"
	"github.com/chatrelay/chat-relay/internal/rpc"
	"github.com/chatrelay/chat-relay/internal/rpc/notify"
	"github.com/chatrelay/chat-relay/internal/rpc/ws"
	"github.com/chatrelay/chat-relay/internal/storage"
)

// NewApp assembles config -> logger -> storage -> pool -> expander ->
// dispatcher -> gRPC server -> admin HTTP server, wired the way the
// teacher's cmd.NewApp composes fx.Module values, but as one fx.App
// since this service has a single cohesive domain rather than the
// teacher's several independently-deployable handler modules.
func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			func(c *config.Config) config.Logger { return c.Logger },
			diag.NewLogger,
			ProvideStorage,
			ProvideGroupExpander,
			ProvidePool,
			ProvideNotifier,
			ProvideDispatcher,
			ProvideGRPCServer,
		),
		fx.Invoke(
			RunPidFile,
			RunNotifier,
			RunGRPCServer,
			RunAdminServer,
			RunWebsocketBridge,
		),
	)
}

const defaultBreakerOpenFor = 30 * time.Second

// ProvideStorage opens the configured back-end and wraps it in the lock
// discipline + circuit breaker stack (internal/storage.Wrapper +
// BreakerWrapper).
func ProvideStorage(cfg *config.Config, log *slog.Logger) (storage.Accessor, error) {
	backend, err := openBackend(context.Background(), cfg.Storage)
	if err != nil {
		return nil, err
	}
	wrapped := storage.NewWrapper(backend)
	return storage.NewBreakerWrapper(wrapped, 5, defaultBreakerOpenFor), nil
}

// ProvideGroupExpander builds the login->addressee-set expander (§4.Q).
func ProvideGroupExpander() (*group.Expander, error) {
	return group.New(0)
}

// ProvidePool builds the shared worker pool dispatcher methods submit
// storage work onto, sized per config's [server] threads setting.
func ProvidePool(cfg *config.Config) pool.Pool {
	return pool.Simple(cfg.Server.Threads)
}

// ProvideNotifier returns nil when no AMQP URI is configured: the
// "message stored" fan-out is optional per SPEC_FULL.md's domain-stack
// table, so its absence is not a startup error. When cfg.Notify.AMQPURI
// is set it builds a watermill-amqp-backed Notifier instead.
func ProvideNotifier(cfg *config.Config, log *slog.Logger) (*notify.Notifier, error) {
	if cfg.Notify.AMQPURI == "" {
		return nil, nil
	}
	return notify.NewAMQP(cfg.Notify.AMQPURI, notify.NewSlogLogger(log))
}

// ProvideDispatcher wires the completion-queue-shaped RPC dispatcher.
func ProvideDispatcher(st storage.Accessor, exp *group.Expander, p pool.Pool, n *notify.Notifier, log *slog.Logger) *rpc.Dispatcher {
	return rpc.NewDispatcher(st, exp, p, n, log)
}

// ProvideGRPCServer wraps the dispatcher in go-grpc-middleware/v2
// recovery+logging interceptors and an otelgrpc stats handler.
func ProvideGRPCServer(d *rpc.Dispatcher, log *slog.Logger) *grpc.Server {
	return rpc.NewServer(d, log)
}

// RunPidFile writes the configured pid file on start and removes it on
// stop, per spec.md §6's persisted-state description.
func RunPidFile(lc fx.Lifecycle, cfg *config.Config) {
	var cleanup func()
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c, err := diag.WritePidFile(cfg.Server.Pid)
			if err != nil {
				return err
			}
			cleanup = c
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})
}

// RunNotifier closes the AMQP publisher's connection on stop, when a
// notifier was actually constructed.
func RunNotifier(lc fx.Lifecycle, n *notify.Notifier, log *slog.Logger) {
	if n == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := n.Close(); err != nil {
				log.Error("notify: close failed", "error", err)
			}
			return nil
		},
	})
}

// RunGRPCServer listens on the configured port and serves s until stop.
func RunGRPCServer(lc fx.Lifecycle, cfg *config.Config, s *grpc.Server, log *slog.Logger) error {
	lis, err := net.Listen("tcp", portAddr(cfg.Server.Port))
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := s.Serve(lis); err != nil {
					log.Error("grpc: serve failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.GracefulStop()
			return nil
		},
	})
	return nil
}

// RunAdminServer serves the chi-backed /healthz + /debug/pools surface
// on the admin port (the gRPC port plus one).
func RunAdminServer(lc fx.Lifecycle, cfg *config.Config, p pool.Pool, d *rpc.Dispatcher, log *slog.Logger) {
	router := diag.NewAdminRouter(map[string]pool.Pool{"dispatch": p}, d)
	srv := &http.Server{Addr: portAddr(cfg.Server.Port + 1), Handler: router}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("admin: serve failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// RunWebsocketBridge serves the gorilla/websocket ReceiveMessage bridge
// on its own HTTP server at the admin port's neighboring port (the gRPC
// port plus two), separate from the chi admin router.
func RunWebsocketBridge(lc fx.Lifecycle, cfg *config.Config, d *rpc.Dispatcher, log *slog.Logger) {
	handler := ws.NewHandler(log, d, 0)
	mux := http.NewServeMux()
	mux.Handle("/ws", handler)
	srv := &http.Server{Addr: portAddr(cfg.Server.Port + 2), Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("ws: serve failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
