package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"splitit/gen/openapi"
	"splitit/pkg/auth"
	"splitit/pkg/config"
	"splitit/pkg/interceptors"
	"splitit/pkg/logger"
	"splitit/pkg/metrics"
	"splitit/pkg/ratelimit"
	"splitit/pkg/server"
	"splitit/pkg/swagger"
	"splitit/pkg/telemetry"
	"splitit/services/settlement-svc/internal/handlers"
	"splitit/services/settlement-svc/internal/service"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the settlement API server",
		Long: `Serve the connect API (splitit.settlement.v1.SettlementService) together
with /health and Prometheus metrics. Shuts down gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				a.cfg.HTTP.Port = port
			}
			return a.runServe(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (default from config)")

	return cmd
}

func (a *app) runServe(ctx context.Context) error {
	cfg := a.cfg

	tp, err := telemetry.Init(ctx, telemetry.FromConfig(cfg))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)

	sc, closeCache, err := a.settlementCache()
	if err != nil {
		return err
	}
	defer closeCache()

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter, err = ratelimit.New(ratelimit.FromConfig(&cfg.RateLimit, &cfg.Cache))
		if err != nil {
			return fmt.Errorf("init rate limiter: %w", err)
		}
		logger.Info("Rate limiter initialized",
			"requests", cfg.RateLimit.Requests,
			"window", cfg.RateLimit.Window,
			"strategy", cfg.RateLimit.Strategy,
			"backend", cfg.RateLimit.Backend,
		)
	}

	var tokens *auth.TokenManager
	if cfg.Auth.Enabled {
		tokens, err = auth.NewTokenManager(auth.FromConfig(&cfg.Auth))
		if err != nil {
			return fmt.Errorf("init auth: %w", err)
		}
		logger.Info("Token authentication enabled", "issuer", cfg.Auth.Issuer)
	}

	auditLog, err := a.auditLogger()
	if err != nil {
		return err
	}

	runs, closeRuns, err := a.runRepository(ctx)
	if err != nil {
		return err
	}
	defer closeRuns()

	svc := service.NewSettlementService(service.OptionsFromConfig(cfg), sc)
	if runs != nil {
		svc.WithHistory(runs)
		logger.Info("Settlement history enabled", "database", cfg.Database.Database)
	}
	h := handlers.NewSettlementHandler(svc, cfg.Settlement.DefaultFormat)

	srv := server.New(cfg, newHandler(cfg, h, &interceptors.ServerConfig{
		Metrics:      m,
		RateLimiter:  limiter,
		Tokens:       tokens,
		Scopes:       handlers.ProcedureScopes(),
		Audit:        auditLog,
		AuditService: cfg.App.Name,
		AuditActions: handlers.ProcedureActions(),
	}))
	if separateMetricsPort(cfg) {
		srv.WithMetricsServer(metrics.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path))
	}
	srv.OnShutdown("telemetry", tp.Shutdown)
	if limiter != nil {
		srv.OnShutdown("rate limiter", func(context.Context) error { return limiter.Close() })
	}
	if auditLog != nil {
		srv.OnShutdown("audit log", func(context.Context) error { return auditLog.Close() })
	}

	return srv.Run(ctx)
}

// newHandler собирает mux: connect API, /health, Swagger UI и /metrics,
// если метрики не вынесены на отдельный порт.
func newHandler(cfg *config.Config, h *handlers.SettlementHandler, ic *interceptors.ServerConfig) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(h.Routes(interceptors.HandlerOption(ic)))
	mux.Handle("/health", telemetry.HTTPMiddleware(ic.Metrics.Middleware(handlers.HealthHandler(cfg.App.Version))))

	if cfg.Metrics.Enabled && !separateMetricsPort(cfg) {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	if cfg.Swagger.Enabled {
		swagger.RegisterRoutes(mux, swagger.FromConfig(&cfg.Swagger), openapi.MustGetSpec())
	}

	var handler http.Handler = mux
	if cfg.HTTP.MaxBodyBytes > 0 {
		handler = http.MaxBytesHandler(handler, cfg.HTTP.MaxBodyBytes)
	}

	// h2c для gRPC клиентов без TLS
	return h2c.NewHandler(handler, &http2.Server{})
}

func separateMetricsPort(cfg *config.Config) bool {
	return cfg.Metrics.Enabled && cfg.Metrics.Port != 0 && cfg.Metrics.Port != cfg.HTTP.Port
}
