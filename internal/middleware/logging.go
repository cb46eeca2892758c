package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/messbill/internal/metrics"
)

// LoggingInterceptor returns a Connect interceptor that logs and counts every RPC call.
// Install it inside RequireAuth so the member ID is known.
func LoggingInterceptor(m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure
			memberID := GetMemberID(ctx) // empty for public procedures

			resp, err := next(ctx, req)

			elapsed := time.Since(start)
			code := "ok"
			var connectErr *connect.Error
			switch {
			case err == nil:
				slog.Info("RPC ok",
					"procedure", procedure,
					"member_id", memberID,
					"duration_ms", elapsed.Milliseconds(),
				)
			case errors.As(err, &connectErr) && connectErr.Code() != connect.CodeInternal:
				code = connectErr.Code().String()
				slog.Warn("RPC error",
					"procedure", procedure,
					"code", code,
					"error", connectErr.Message(),
					"member_id", memberID,
					"duration_ms", elapsed.Milliseconds(),
				)
			default:
				code = connect.CodeOf(err).String()
				slog.Error("RPC error",
					"procedure", procedure,
					"error", err,
					"member_id", memberID,
					"duration_ms", elapsed.Milliseconds(),
				)
			}
			m.RPC(procedure, code, elapsed)

			return resp, err
		}
	}
}
