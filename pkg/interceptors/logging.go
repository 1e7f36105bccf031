package interceptors

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"splitit/pkg/logger"
)

// RequestIDHeader заголовок идентификатора запроса
const RequestIDHeader = "X-Request-Id"

// LoggingInterceptor логирует запросы. Идентификатор запроса берётся из
// заголовка или генерируется и возвращается клиенту.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			requestID := req.Header().Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
				req.Header().Set(RequestIDHeader, requestID)
			}

			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			duration := time.Since(start)
			log := logger.WithRequestID(requestID)

			if err != nil {
				log.Warn("Request failed",
					"method", procedure,
					"duration_ms", duration.Milliseconds(),
					"code", connect.CodeOf(err).String(),
					"error", err,
				)
			} else {
				log.Info("Request completed",
					"method", procedure,
					"duration_ms", duration.Milliseconds(),
				)
				resp.Header().Set(RequestIDHeader, requestID)
			}

			return resp, err
		}
	}
}
