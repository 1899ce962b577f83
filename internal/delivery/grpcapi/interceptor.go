package grpcapi

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor logs every call with its duration and status code, and
// turns handler panics into Internal errors.
func LoggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Interface("panic", r).
					Str("method", info.FullMethod).
					Bytes("stack", debug.Stack()).
					Msg("grpc handler panicked")
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}

			code := status.Code(err)
			ev := logger.Debug()
			switch code {
			case codes.OK, codes.NotFound, codes.InvalidArgument, codes.FailedPrecondition, codes.AlreadyExists, codes.PermissionDenied:
			default:
				ev = logger.Warn().Err(err)
			}
			ev.Str("method", info.FullMethod).
				Str("code", code.String()).
				Str("caller", string(caller(ctx))).
				Dur("duration", time.Since(start)).
				Msg("grpc call")
		}()
		return handler(ctx, req)
	}
}
