package interceptors

import (
	"context"
	"sync"
	"testing"

	"connectrpc.com/connect"

	"splitit/pkg/apperror"
	"splitit/pkg/audit"
	"splitit/pkg/auth"
)

type captureLogger struct {
	mu      sync.Mutex
	entries []*audit.Entry
}

func (c *captureLogger) Log(_ context.Context, e *audit.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
	return nil
}

func (c *captureLogger) Close() error { return nil }

func (c *captureLogger) last(t *testing.T) *audit.Entry {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		t.Fatal("no audit entries")
	}
	return c.entries[len(c.entries)-1]
}

func TestAuditInterceptor(t *testing.T) {
	log := &captureLogger{}
	// bare requests have an empty procedure
	interceptor := AuditInterceptor(log, "splitit", map[string]audit.Action{"": audit.ActionSettle})

	t.Run("success", func(t *testing.T) {
		req := newRequest()
		req.Header().Set(RequestIDHeader, "req-7")
		req.Header().Set("X-Forwarded-For", "10.0.0.1")

		_, err := interceptor(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, _ := okHandler(ctx, req)
			resp.Header().Set("X-Run-Id", "run-1")
			return resp, nil
		})(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		e := log.last(t)
		if e.Outcome != audit.OutcomeSuccess || e.Action != audit.ActionSettle {
			t.Errorf("entry = %+v", e)
		}
		if e.RunID != "run-1" || e.RequestID != "req-7" || e.ClientIP != "10.0.0.1" || e.Service != "splitit" {
			t.Errorf("entry = %+v", e)
		}
		if e.ID == "" {
			t.Error("entry should have an id")
		}
	})

	t.Run("failure keeps error code", func(t *testing.T) {
		_, _ = interceptor(func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
			return nil, apperror.ToConnect(apperror.New(apperror.CodeNoDebtors, "nobody owes money"))
		})(context.Background(), newRequest())

		e := log.last(t)
		if e.Outcome != audit.OutcomeFailure || e.ErrorCode != "NO_DEBTORS" || e.ErrorMessage != "nobody owes money" {
			t.Errorf("entry = %+v", e)
		}
	})

	t.Run("denied", func(t *testing.T) {
		_, _ = interceptor(func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
			return nil, apperror.ToConnect(apperror.New(apperror.CodeUnauthenticated, "missing bearer token"))
		})(context.Background(), newRequest())

		if e := log.last(t); e.Outcome != audit.OutcomeDenied || e.ErrorCode != "UNAUTHENTICATED" {
			t.Errorf("entry = %+v", e)
		}
	})
}

func TestAuditInterceptor_RecordsSubject(t *testing.T) {
	tokens, err := auth.NewTokenManager(&auth.Config{Secret: testSecret})
	if err != nil {
		t.Fatal(err)
	}
	token, _, err := tokens.Issue("alice", []string{auth.ScopeSettle}, 0)
	if err != nil {
		t.Fatal(err)
	}

	log := &captureLogger{}
	handler := AuditInterceptor(log, "splitit", nil)(AuthInterceptor(tokens, nil)(okHandler))

	req := newRequest()
	req.Header().Set("Authorization", "Bearer "+token)
	if _, err := handler(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := log.last(t)
	if e.Subject != "alice" {
		t.Errorf("subject = %q, want alice", e.Subject)
	}
	if e.Action != audit.ActionRead {
		t.Errorf("action = %s, want default READ", e.Action)
	}
}
