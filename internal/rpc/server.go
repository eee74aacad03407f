package rpc

import (
	"context"
	"log/slog"
	"net"
	"time"

	recovery "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/chatrelay/chat-relay/gen/chatrelay"
)

// NewServer builds a *grpc.Server with recovery and logging interceptors
// (go-grpc-middleware/v2) plus an otelgrpc stats handler wrapping the
// dispatcher, and registers srv on it.
func NewServer(srv chatrelay.ChatRelayServer, log *slog.Logger) *grpc.Server {
	if log == nil {
		log = slog.Default()
	}

	recoveryOpts := []recovery.Option{
		recovery.WithRecoveryHandlerContext(func(ctx context.Context, p any) error {
			log.Error("rpc: panic recovered in handler", "panic", p)
			return errFatalPanic
		}),
	}

	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			loggingInterceptor(log),
			recovery.UnaryServerInterceptor(recoveryOpts...),
		),
	)

	chatrelay.RegisterChatRelayServer(s, srv)
	return s
}

// Serve blocks accepting connections on lis until the server is stopped.
func Serve(s *grpc.Server, lis net.Listener) error {
	return s.Serve(lis)
}

func loggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info("rpc: handled call", "method", info.FullMethod, "duration", time.Since(start), "error", err)
		return resp, err
	}
}

type fatalPanicError struct{}

func (fatalPanicError) Error() string { return "rpc: fatal invariant violation in call object" }

var errFatalPanic = fatalPanicError{}
