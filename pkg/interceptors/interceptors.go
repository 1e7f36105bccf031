// Package interceptors содержит connect интерсепторы API: recovery,
// трейсинг, логирование, метрики, аудит, rate limiting и проверку токенов.
package interceptors

import (
	"context"

	"connectrpc.com/connect"

	"splitit/pkg/apperror"
	"splitit/pkg/audit"
	"splitit/pkg/auth"
	"splitit/pkg/logger"
	"splitit/pkg/metrics"
	"splitit/pkg/ratelimit"
	"splitit/pkg/telemetry"
)

// ServerConfig конфигурация серверных интерсепторов
type ServerConfig struct {
	Metrics     *metrics.Metrics
	RateLimiter ratelimit.Limiter // nil - без ограничений

	// Tokens включает проверку Bearer токенов, nil - API открыт
	Tokens *auth.TokenManager
	// Scopes области доступа по процедурам
	Scopes map[string]string

	// Audit журнал вызовов, nil - без журнала
	Audit        audit.Logger
	AuditService string
	// AuditActions действие журнала по процедуре, по умолчанию READ
	AuditActions map[string]audit.Action
}

// UnaryServerInterceptors возвращает цепочку в порядке выполнения.
// Аудит, rate limit и проверка токена стоят последними, чтобы отказы
// попадали в логи и метрики. Лимит проверяется до токена.
func UnaryServerInterceptors(cfg *ServerConfig) []connect.Interceptor {
	chain := []connect.Interceptor{
		RecoveryInterceptor(),
		telemetry.UnaryInterceptor(),
		LoggingInterceptor(),
	}

	if cfg.Metrics != nil {
		chain = append(chain, MetricsInterceptor(cfg.Metrics))
	}

	if cfg.Audit != nil {
		chain = append(chain, AuditInterceptor(cfg.Audit, cfg.AuditService, cfg.AuditActions))
	}

	if cfg.RateLimiter != nil {
		chain = append(chain, RateLimitInterceptor(cfg.RateLimiter))
	}

	if cfg.Tokens != nil {
		chain = append(chain, AuthInterceptor(cfg.Tokens, cfg.Scopes))
	}

	return chain
}

// HandlerOption оборачивает цепочку в опцию connect handler
func HandlerOption(cfg *ServerConfig) connect.HandlerOption {
	return connect.WithInterceptors(UnaryServerInterceptors(cfg)...)
}

// RecoveryInterceptor превращает панику в handler в connect ошибку
func RecoveryInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (resp connect.AnyResponse, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Log.Error("Panic in handler",
						"method", req.Spec().Procedure,
						"panic", r,
					)
					err = apperror.ToConnect(apperror.Newf(apperror.CodeInternal, "internal error: %v", r))
				}
			}()
			return next(ctx, req)
		}
	}
}
