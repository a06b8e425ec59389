package obs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID stores the request ID used to correlate timing lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time logs how long an operation took. Use it as
//
//	defer obs.Time(ctx, "ors.Route")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	reqID := RequestID(ctx)

	return func(errp *error) {
		fields := []zap.Field{
			zap.String("op", name),
			zap.Int64("dur_ms", time.Since(start).Milliseconds()),
		}
		if reqID != "" {
			fields = append(fields, zap.String("req_id", reqID))
		}

		if errp != nil && *errp != nil {
			zap.L().Debug("op failed", append(fields, zap.Error(*errp))...)
			return
		}
		zap.L().Debug("op", fields...)
	}
}
