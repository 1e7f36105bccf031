package telemetry

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// UnaryInterceptor создаёт connect interceptor для трейсинга
func UnaryInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure

			ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(req.Header()))
			ctx, span := StartSpan(ctx, procedure,
				trace.WithSpanKind(trace.SpanKindServer),
			)
			defer span.End()

			span.SetAttributes(
				attribute.String("rpc.system", "connect_rpc"),
				attribute.String("rpc.method", procedure),
			)

			resp, err := next(ctx, req)

			if err != nil {
				code := connect.CodeOf(err)
				msg := err.Error()
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					msg = connectErr.Message()
				}
				span.SetStatus(codes.Error, msg)
				span.SetAttributes(attribute.String("rpc.connect_rpc.error_code", code.String()))
				span.RecordError(err)
			} else {
				span.SetStatus(codes.Ok, "")
			}

			return resp, err
		}
	}
}

// HTTPMiddleware оборачивает обычные HTTP handlers (health, metrics) в span
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := StartSpan(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		span.SetAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
		)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
