package interceptors

import (
	"context"
	"time"

	"connectrpc.com/connect"

	"splitit/pkg/metrics"
)

// MetricsInterceptor записывает метрики запросов
func MetricsInterceptor(m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			m.Tracker().Start(procedure)
			defer m.Tracker().End(procedure)

			start := time.Now()

			resp, err := next(ctx, req)

			status := "ok"
			if err != nil {
				status = connect.CodeOf(err).String()
			}
			m.RecordRequest(procedure, status, time.Since(start))

			return resp, err
		}
	}
}
