package interceptors

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"splitit/pkg/apperror"
	"splitit/pkg/auth"
	"splitit/pkg/logger"
)

// AuthInterceptor требует Bearer токен. scopes задаёт область доступа для
// процедуры; процедуры без записи доступны любому валидному токену.
func AuthInterceptor(tokens *auth.TokenManager, scopes map[string]string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure

			raw, ok := bearerToken(req.Header().Get("Authorization"))
			if !ok {
				return nil, apperror.ToConnect(apperror.New(apperror.CodeUnauthenticated,
					"missing bearer token"))
			}

			claims, err := tokens.Validate(raw)
			reportSubject(ctx, claims)
			if err != nil {
				logger.Log.Warn("Rejected token", "method", procedure, "error", err)
				return nil, apperror.ToConnect(apperror.New(apperror.CodeUnauthenticated,
					"invalid or expired token"))
			}

			if scope, ok := scopes[procedure]; ok && !claims.HasScope(scope) {
				logger.Log.Warn("Token lacks scope",
					"method", procedure,
					"subject", claims.Subject,
					"scope", scope,
				)
				return nil, apperror.ToConnect(apperror.Newf(apperror.CodePermissionDenied,
					"token has no %q scope", scope))
			}

			return next(auth.WithClaims(ctx, claims), req)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
