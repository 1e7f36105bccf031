package interceptors

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"

	"splitit/pkg/audit"
	"splitit/pkg/auth"
	"splitit/pkg/logger"
	"splitit/pkg/ratelimit"
)

// AuditInterceptor пишет запись журнала на каждый вызов. Стоит перед
// проверкой токена, чтобы отказы тоже попадали в журнал; subject берётся
// из claims, которые положил AuthInterceptor.
func AuditInterceptor(l audit.Logger, service string, actions map[string]audit.Action) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure

			action, ok := actions[procedure]
			if !ok {
				action = audit.ActionRead
			}

			var subject string
			start := time.Now()
			resp, err := next(withSubjectSink(ctx, &subject), req)

			b := audit.NewEntry().
				Service(service).
				Procedure(procedure).
				Action(action).
				Subject(subject).
				Client(ratelimit.ClientKey(req.Header(), req.Peer().Addr), req.Header().Get("User-Agent")).
				RequestID(req.Header().Get(RequestIDHeader)).
				Duration(time.Since(start))

			switch {
			case err == nil:
				b.Outcome(audit.OutcomeSuccess).RunID(resp.Header().Get("X-Run-Id"))
			case isDenied(err):
				b.Outcome(audit.OutcomeDenied).Error(errorCode(err), connect.CodeOf(err).String())
			default:
				b.Outcome(audit.OutcomeFailure).Error(errorCode(err), errorMessage(err))
			}

			if logErr := l.Log(ctx, b.Build()); logErr != nil {
				logger.Log.Warn("Failed to write audit entry", "method", procedure, "error", logErr)
			}

			return resp, err
		}
	}
}

type subjectSinkKey struct{}

// withSubjectSink даёт AuthInterceptor место, куда записать subject
func withSubjectSink(ctx context.Context, subject *string) context.Context {
	return context.WithValue(ctx, subjectSinkKey{}, subject)
}

// reportSubject передаёт subject проверенного токена в журнал аудита
func reportSubject(ctx context.Context, claims *auth.Claims) {
	if sink, ok := ctx.Value(subjectSinkKey{}).(*string); ok && claims != nil {
		*sink = claims.Subject
	}
}

func isDenied(err error) bool {
	switch connect.CodeOf(err) {
	case connect.CodeUnauthenticated, connect.CodePermissionDenied, connect.CodeResourceExhausted:
		return true
	}
	return false
}

func errorCode(err error) string {
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		if code := cerr.Meta().Get("X-Error-Code"); code != "" {
			return code
		}
	}
	return connect.CodeOf(err).String()
}

func errorMessage(err error) string {
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		return cerr.Message()
	}
	return err.Error()
}
