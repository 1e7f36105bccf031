package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitit/pkg/config"
	"splitit/pkg/logger"
)

func init() {
	logger.Init("error")
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Name: "test-app", Version: "1.0.0"},
		HTTP: config.HTTPConfig{Port: 8080, ShutdownTimeout: time.Second},
	}
}

func TestNew(t *testing.T) {
	srv := New(testConfig(), http.NotFoundHandler())

	assert.Equal(t, ":8080", srv.Addr())
	assert.Equal(t, time.Second, srv.shutdownTimeout)
}

func TestNew_DefaultShutdownTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.ShutdownTimeout = 0

	srv := New(cfg, http.NotFoundHandler())

	assert.Equal(t, 10*time.Second, srv.shutdownTimeout)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "pong")
	})
	srv := New(testConfig(), handler)

	var order []string
	srv.OnShutdown("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	srv.OnShutdown("second", func(context.Context) error {
		order = append(order, "second")
		return errors.New("ignored")
	})

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	resp, err := http.Get("http://" + lis.Addr().String() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	// Хуки вызываются в обратном порядке, ошибка не прерывает остальные
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestServer_ServeError(t *testing.T) {
	srv := New(testConfig(), http.NotFoundHandler())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	lis.Close()

	err = srv.Serve(context.Background(), lis)
	assert.Error(t, err)
}
