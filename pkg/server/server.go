// Package server запускает HTTP сервер API с graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"splitit/pkg/config"
	"splitit/pkg/logger"
)

// Server обёртка над http.Server. Отдельный сервер метрик и ресурсы,
// которые нужно закрыть при остановке, регистрируются до Run.
type Server struct {
	http            *http.Server
	metrics         *http.Server
	shutdownTimeout time.Duration
	serviceName     string
	version         string
	hooks           []hook
}

type hook struct {
	name string
	fn   func(context.Context) error
}

// New создаёт сервер API
func New(cfg *config.Config, handler http.Handler) *Server {
	timeout := cfg.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Server{
		http: &http.Server{
			Addr:              cfg.HTTP.Address(),
			Handler:           handler,
			ReadTimeout:       cfg.HTTP.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.HTTP.WriteTimeout,
		},
		shutdownTimeout: timeout,
		serviceName:     cfg.App.Name,
		version:         cfg.App.Version,
	}
}

// WithMetricsServer добавляет отдельный сервер метрик
func (s *Server) WithMetricsServer(ms *http.Server) *Server {
	s.metrics = ms
	return s
}

// OnShutdown регистрирует функцию остановки. Вызываются в обратном порядке
// после остановки HTTP серверов.
func (s *Server) OnShutdown(name string, fn func(context.Context) error) {
	s.hooks = append(s.hooks, hook{name: name, fn: fn})
}

// Addr возвращает адрес API
func (s *Server) Addr() string {
	return s.http.Addr
}

// Run слушает адрес из конфигурации и работает до SIGINT/SIGTERM или
// отмены ctx.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return s.Serve(ctx, lis)
}

// Serve обслуживает lis до отмены ctx, затем останавливает сервер
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 2)

	go func() {
		logger.Log.Info("Starting HTTP server",
			"service", s.serviceName,
			"addr", lis.Addr().String(),
			"version", s.version,
		)
		if err := s.http.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if s.metrics != nil {
		go func() {
			logger.Log.Info("Starting metrics server", "addr", s.metrics.Addr)
			if err := s.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Log.Info("Received shutdown signal")
	case runErr = <-errCh:
		logger.Log.Error("Server failed", "error", runErr)
	}

	s.shutdown()
	return runErr
}

func (s *Server) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		logger.Log.Warn("Forcing server stop", "error", err)
		_ = s.http.Close()
	}

	if s.metrics != nil {
		if err := s.metrics.Shutdown(ctx); err != nil {
			logger.Log.Warn("Failed to stop metrics server", "error", err)
		}
	}

	for i := len(s.hooks) - 1; i >= 0; i-- {
		h := s.hooks[i]
		if err := h.fn(ctx); err != nil {
			logger.Log.Warn("Shutdown hook failed", "name", h.name, "error", err)
		}
	}

	logger.Log.Info("Server stopped gracefully")
}
