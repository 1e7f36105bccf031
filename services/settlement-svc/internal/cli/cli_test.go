// services/settlement-svc/internal/cli/cli_test.go

package cli

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"splitit/pkg/apperror"
	"splitit/pkg/audit"
	"splitit/pkg/auth"
	"splitit/pkg/config"
	"splitit/pkg/interceptors"
	"splitit/pkg/metrics"
	"splitit/services/settlement-svc/internal/handlers"
	"splitit/services/settlement-svc/internal/service"
)

// executeCommand runs a fresh command tree and returns its combined output.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := root.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := executeCommand(NewRootCmd(), "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	for _, want := range []string{"splitit version", "commit:", "built:", "go:", "os/arch:"} {
		if !strings.Contains(output, want) {
			t.Errorf("version output missing %q: %s", want, output)
		}
	}
}

func TestSettleCommand_Pairs(t *testing.T) {
	output, err := executeCommand(NewRootCmd(), "settle", "john=40", "kate=10", "ann=10")
	if err != nil {
		t.Fatalf("settle command failed: %v", err)
	}

	for _, want := range []string{
		"'Split It' is always here to help!",
		"Kate gives 10.00 to John",
		"Ann gives 10.00 to John",
		"Total amount settled: 20.00",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestSettleCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trip.yaml")
	content := "payments:\n  - name: a\n    paid: 0\n  - name: b\n    paid: 50\n  - name: c\n    paid: 100\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := executeCommand(NewRootCmd(), "settle", "-f", path, "--format", "markdown")
	if err != nil {
		t.Fatalf("settle command failed: %v", err)
	}
	if !strings.Contains(output, "| A | C |") {
		t.Errorf("markdown output missing transfer row:\n%s", output)
	}
}

func TestSettleCommand_Stdin(t *testing.T) {
	root := NewRootCmd()
	root.SetIn(strings.NewReader("john: 40\nkate: 10\nann: 10\n"))

	output, err := executeCommand(root, "settle", "-f", "-", "--format", "json")
	if err != nil {
		t.Fatalf("settle command failed: %v", err)
	}
	if !strings.Contains(output, `"transfers"`) {
		t.Errorf("json output missing transfers:\n%s", output)
	}
}

func TestSettleCommand_Paths(t *testing.T) {
	output, err := executeCommand(NewRootCmd(), "settle", "--paths", "a=40", "b=10", "c=10")
	if err != nil {
		t.Fatalf("settle command failed: %v", err)
	}
	if !strings.Contains(output, "source -> b -> a -> sink") {
		t.Errorf("output missing augmenting path:\n%s", output)
	}
}

func TestSettleCommand_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trip.xlsx")

	output, err := executeCommand(NewRootCmd(), "settle", "--format", "excel", "-o", path, "a=40", "b=10", "c=10")
	if err != nil {
		t.Fatalf("settle command failed: %v", err)
	}
	if !strings.Contains(output, "Report written to") {
		t.Errorf("output = %q", output)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("PK")) {
		t.Error("excel report should be a zip archive")
	}
}

func TestSettleCommand_BinaryNeedsOutput(t *testing.T) {
	_, err := executeCommand(NewRootCmd(), "settle", "--format", "pdf", "a=40", "b=10")
	if err == nil || !strings.Contains(err.Error(), "--output") {
		t.Errorf("expected --output hint, got %v", err)
	}
}

func TestSettleCommand_NothingToSettle(t *testing.T) {
	output, err := executeCommand(NewRootCmd(), "settle", "a=100", "b=100")
	if err != nil {
		t.Fatalf("settle command failed: %v", err)
	}
	if !strings.Contains(output, "Nobody owes money, everything is settled up.") {
		t.Errorf("output = %q", output)
	}
}

func TestSettleCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code apperror.ErrorCode
	}{
		{
			name: "no input",
			args: []string{"settle"},
			code: apperror.CodeEmptyInput,
		},
		{
			name: "bad pair",
			args: []string{"settle", "john40"},
			code: apperror.CodeInvalidArgument,
		},
		{
			name: "bad amount",
			args: []string{"settle", "john=forty", "kate=10"},
			code: apperror.CodeInvalidAmount,
		},
		{
			name: "duplicate",
			args: []string{"settle", "john=40", "JOHN=10"},
			code: apperror.CodeDuplicateParticipant,
		},
		{
			name: "file and args",
			args: []string{"settle", "-f", "trip.yaml", "john=40"},
			code: apperror.CodeInvalidArgument,
		},
		{
			name: "unknown format",
			args: []string{"settle", "--format", "docx", "a=40", "b=10"},
			code: apperror.CodeInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(NewRootCmd(), tt.args...)
			if got := apperror.Code(err); got != tt.code {
				t.Errorf("code = %q, want %q (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestRootCommand_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splitit.yaml")
	content := "settlement:\n  default_format: csv\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := executeCommand(NewRootCmd(), "--config", path, "settle", "a=40", "b=10")
	if err != nil {
		t.Fatalf("settle command failed: %v", err)
	}
	if !strings.Contains(output, "b,a,15.00") {
		t.Errorf("csv output missing transfer:\n%s", output)
	}
}

func TestRootCommand_MissingEnvFile(t *testing.T) {
	_, err := executeCommand(NewRootCmd(), "--env-file", filepath.Join(t.TempDir(), "missing.env"), "settle", "a=1", "b=2")
	if err == nil {
		t.Fatal("expected error for missing env file")
	}
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Version: "1.2.3"},
		HTTP: config.HTTPConfig{Port: 8080, MaxBodyBytes: 512},
		Metrics: config.MetricsConfig{
			Enabled: true,
			Port:    8080,
			Path:    "/metrics",
		},
		Swagger:    config.SwaggerConfig{Enabled: true, BasePath: "/swagger"},
		Settlement: config.SettlementConfig{DefaultFormat: "text"},
	}
}

func newTestHandler(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()

	svc := service.NewSettlementService(service.DefaultOptions(), nil)
	h := handlers.NewSettlementHandler(svc, cfg.Settlement.DefaultFormat)
	m := metrics.NewMetrics(prometheus.NewRegistry(), "test", "cli")
	return newHandler(cfg, h, &interceptors.ServerConfig{Metrics: m})
}

func TestNewHandler_Routes(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t, testConfig()))
	defer srv.Close()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "health", method: http.MethodGet, path: "/health", status: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", status: http.StatusOK},
		{
			name:   "settle",
			method: http.MethodPost,
			path:   handlers.SettleProcedure,
			body:   `{"payments":[{"name":"a","paid":40},{"name":"b","paid":10}]}`,
			status: http.StatusOK,
		},
		{name: "swagger", method: http.MethodGet, path: "/swagger/openapi.json", status: http.StatusOK},
		{name: "unknown", method: http.MethodGet, path: "/nope", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := srv.Client().Do(req)
			if err != nil {
				t.Fatalf("request error = %v", err)
			}
			resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func TestNewHandler_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t, testConfig()))
	defer srv.Close()

	body := `{"payments":[` + strings.Repeat(`{"name":"someone","paid":10},`, 40) + `{"name":"x","paid":1}]}`
	resp, err := srv.Client().Post(srv.URL+handlers.SettleProcedure, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		t.Error("oversized body should be rejected")
	}
}

func TestNewHandler_SeparateMetricsPort(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Port = 9090

	if !separateMetricsPort(cfg) {
		t.Fatal("metrics should use their own port")
	}

	rec := httptest.NewRecorder()
	newTestHandler(t, cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 on the API port", rec.Code)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "plain error", err: errors.New("boom"), want: ExitFailure},
		{name: "input error", err: apperror.New(apperror.CodeInvalidAmount, "bad"), want: ExitInvalidArg},
		{name: "invariant violation", err: apperror.NewCritical(apperror.CodeInvariantViolation, "bad"), want: ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHistoryCommand_Disabled(t *testing.T) {
	for _, args := range [][]string{
		{"history", "list"},
		{"history", "show", "run-1"},
		{"history", "delete", "run-1"},
	} {
		_, err := executeCommand(NewRootCmd(), args...)
		if err == nil {
			t.Errorf("%v: expected error when history is disabled", args)
			continue
		}
		if !apperror.Is(err, apperror.CodeUnimplemented) {
			t.Errorf("%v: error = %v, want UNIMPLEMENTED", args, err)
		}
		if exitCode(err) != ExitFailure {
			t.Errorf("%v: exit code = %d, want %d", args, exitCode(err), ExitFailure)
		}
	}
}

func TestHistoryCommand_ShowNeedsID(t *testing.T) {
	_, err := executeCommand(NewRootCmd(), "history", "show")
	if err == nil || !strings.Contains(err.Error(), "accepts 1 arg") {
		t.Errorf("error = %v, want argument count error", err)
	}
}

func TestMigrateCommand_Subcommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"up", "down", "status", "version"} {
		cmd, _, err := root.Find([]string{"migrate", name})
		if err != nil || cmd.Name() != name {
			t.Errorf("migrate %s not registered: %v", name, err)
		}
	}
}

func TestTokenCommand(t *testing.T) {
	const secret = "0123456789abcdef0123456789abcdef"
	t.Setenv("SPLITIT_AUTH_SECRET", secret)

	root := NewRootCmd()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"--log-level", "error", "token", "--subject", "ci", "--scope", "history", "--ttl", "1h"})

	if err := root.Execute(); err != nil {
		t.Fatalf("token command failed: %v", err)
	}

	tokens, err := auth.NewTokenManager(&auth.Config{Secret: secret, Issuer: "splitit"})
	if err != nil {
		t.Fatal(err)
	}
	claims, err := tokens.Validate(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("issued token is invalid: %v", err)
	}
	if claims.Subject != "ci" || !claims.HasScope(auth.ScopeHistory) || claims.HasScope(auth.ScopeSettle) {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenCommand_Errors(t *testing.T) {
	t.Run("no secret", func(t *testing.T) {
		t.Setenv("SPLITIT_AUTH_SECRET", "")
		_, err := executeCommand(NewRootCmd(), "token")
		if exitCode(err) != ExitInvalidArg {
			t.Errorf("error = %v, want invalid argument", err)
		}
	})

	t.Run("unknown scope", func(t *testing.T) {
		t.Setenv("SPLITIT_AUTH_SECRET", "0123456789abcdef0123456789abcdef")
		_, err := executeCommand(NewRootCmd(), "token", "--scope", "admin")
		if err == nil || !strings.Contains(err.Error(), "unknown scope") {
			t.Errorf("error = %v, want unknown scope", err)
		}
	})
}

func TestNewHandler_Auth(t *testing.T) {
	tokens, err := auth.NewTokenManager(&auth.Config{Secret: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatal(err)
	}
	historyOnly, _, err := tokens.Issue("viewer", []string{auth.ScopeHistory}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	settler, _, err := tokens.Issue("ci", []string{auth.ScopeSettle}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	svc := service.NewSettlementService(service.DefaultOptions(), nil)
	h := handlers.NewSettlementHandler(svc, cfg.Settlement.DefaultFormat)
	srv := httptest.NewServer(newHandler(cfg, h, &interceptors.ServerConfig{
		Metrics: metrics.NewMetrics(prometheus.NewRegistry(), "test", "cli_auth"),
		Tokens:  tokens,
		Scopes:  handlers.ProcedureScopes(),
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{name: "no token", status: http.StatusUnauthorized},
		{name: "wrong scope", token: historyOnly, status: http.StatusForbidden},
		{name: "settle scope", token: settler, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, srv.URL+handlers.SettleProcedure,
				strings.NewReader(`{"payments":[{"name":"a","paid":40},{"name":"b","paid":10}]}`))
			if err != nil {
				t.Fatal(err)
			}
			req.Header.Set("Content-Type", "application/json")
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}

			resp, err := srv.Client().Do(req)
			if err != nil {
				t.Fatalf("request error = %v", err)
			}
			resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}

	// health stays open
	resp, err := srv.Client().Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}
}

func TestSettleCommand_Server(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t, testConfig()))
	defer srv.Close()
	addr := srv.Listener.Addr().String()

	output, err := executeCommand(NewRootCmd(), "settle", "--server", addr, "a=40", "b=10")
	if err != nil {
		t.Fatalf("remote settle failed: %v", err)
	}
	if !strings.Contains(output, "B gives 15.00 to A") {
		t.Errorf("output = %q", output)
	}

	output, err = executeCommand(NewRootCmd(), "settle", "--server", addr, "a=10", "b=10")
	if err != nil {
		t.Fatalf("remote settle failed: %v", err)
	}
	if !strings.Contains(output, "Nobody owes money") {
		t.Errorf("output = %q, want nothing-to-settle message", output)
	}

	_, err = executeCommand(NewRootCmd(), "settle", "--server", addr, "a=-1", "b=10")
	if exitCode(err) != ExitInvalidArg {
		t.Errorf("error = %v, want invalid argument exit code", err)
	}
}

func TestRecordAudit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	t.Setenv("SPLITIT_AUDIT_ENABLED", "true")
	t.Setenv("SPLITIT_AUDIT_BACKEND", "file")
	t.Setenv("SPLITIT_AUDIT_FILE_PATH", path)

	a := &app{}
	cmd := &cobra.Command{Use: "delete"}
	if err := a.init(cmd, nil); err != nil {
		t.Fatalf("init: %v", err)
	}

	a.recordAudit(cmd, audit.NewEntry().Action(audit.ActionDelete).RunID("run-1"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	for _, want := range []string{`"action":"DELETE"`, `"run_id":"run-1"`, `"procedure":"cli:delete"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("audit log %s missing %s", data, want)
		}
	}
}
