package interceptors

import (
	"context"
	"errors"
	"strconv"
	"time"

	"connectrpc.com/connect"

	"splitit/pkg/apperror"
	"splitit/pkg/logger"
	"splitit/pkg/ratelimit"
)

// RateLimitInterceptor ограничивает частоту запросов по клиенту.
// Ошибка хранилища лимитов не блокирует запрос (fail open).
func RateLimitInterceptor(limiter ratelimit.Limiter) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			key := ratelimit.ClientKey(req.Header(), req.Peer().Addr)

			d, err := limiter.Allow(ctx, key)
			if err != nil {
				logger.Log.Warn("Rate limit check failed", "error", err, "key", key)
				return next(ctx, req)
			}

			if !d.Allowed {
				logger.Log.Warn("Rate limit exceeded",
					"key", key,
					"method", req.Spec().Procedure,
					"limit", d.Limit,
				)
				return nil, rateLimitError(d)
			}

			resp, err := next(ctx, req)
			if err == nil {
				resp.Header().Set("X-Ratelimit-Limit", strconv.Itoa(d.Limit))
				resp.Header().Set("X-Ratelimit-Remaining", strconv.Itoa(d.Remaining))
			}
			return resp, err
		}
	}
}

func rateLimitError(d *ratelimit.Decision) error {
	retryAfter := int(d.RetryAfter.Round(time.Second) / time.Second)
	if retryAfter < 1 {
		retryAfter = 1
	}

	err := apperror.ToConnect(apperror.Newf(apperror.CodeRateLimited,
		"rate limit exceeded, retry in %ds", retryAfter))

	var cerr *connect.Error
	if errors.As(err, &cerr) {
		cerr.Meta().Set("Retry-After", strconv.Itoa(retryAfter))
		cerr.Meta().Set("X-Ratelimit-Limit", strconv.Itoa(d.Limit))
		cerr.Meta().Set("X-Ratelimit-Remaining", "0")
	}
	return err
}
