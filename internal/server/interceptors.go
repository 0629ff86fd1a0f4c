package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/prp-express/internal/common"
)

// RequestIDHeader carries the caller's request id; one is generated when absent.
const RequestIDHeader = "x-request-id"

// UnaryInterceptor tags each call with a request id, converts panics into
// Internal errors and logs the outcome.
func UnaryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		start := time.Now()
		reqID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(RequestIDHeader); len(v) > 0 {
				reqID = v[0]
			}
		}
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx = common.WithRequestID(ctx, reqID)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, reqID))

		defer func() {
			if r := recover(); r != nil {
				logger.Error("grpc.panic", "method", info.FullMethod, "request_id", reqID, "panic", fmt.Sprint(r))
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}
			code := status.Code(err)
			attrs := []any{"method", info.FullMethod, "request_id", reqID, "code", code.String(), "elapsed_ms", time.Since(start).Milliseconds()}
			if err != nil && code != codes.InvalidArgument && code != codes.NotFound && code != codes.FailedPrecondition {
				logger.Warn("grpc.request", append(attrs, "error", err)...)
				return
			}
			logger.Info("grpc.request", attrs...)
		}()
		return handler(ctx, req)
	}
}
