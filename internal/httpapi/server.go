package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dmitrymomot/localesync/pkg/logger"
)

const (
	defaultAddress           = ":8080"
	defaultShutdownTimeout   = 30 * time.Second
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
)

// ServerOption configures Serve.
type ServerOption func(*serverConfig)

type serverConfig struct {
	logger          *slog.Logger
	ready           func(addr string)
	address         string
	shutdownHooks   []func(context.Context) error
	shutdownTimeout time.Duration
}

// Address sets the listen address. Defaults to ":8080".
func Address(addr string) ServerOption {
	return func(c *serverConfig) {
		if addr != "" {
			c.address = addr
		}
	}
}

// ServerLogger sets the server logger.
func ServerLogger(l *slog.Logger) ServerOption {
	return func(c *serverConfig) { c.logger = logger.OrNope(l) }
}

// ShutdownTimeout bounds graceful shutdown. Defaults to 30 seconds.
func ShutdownTimeout(d time.Duration) ServerOption {
	return func(c *serverConfig) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// ShutdownHook runs after the server stops accepting requests, in
// registration order.
func ShutdownHook(fn func(context.Context) error) ServerOption {
	return func(c *serverConfig) { c.shutdownHooks = append(c.shutdownHooks, fn) }
}

// OnReady is called with the bound address once the listener is open.
func OnReady(fn func(addr string)) ServerOption {
	return func(c *serverConfig) { c.ready = fn }
}

// Serve runs handler until ctx is done, then shuts down gracefully and runs
// the shutdown hooks.
func Serve(ctx context.Context, handler http.Handler, opts ...ServerOption) error {
	cfg := &serverConfig{
		logger:          logger.NewNope(),
		address:         defaultAddress,
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.logger

	server := &http.Server{
		Handler:           handler,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	ln, err := net.Listen("tcp", cfg.address)
	if err != nil {
		return err
	}
	if cfg.ready != nil {
		cfg.ready(ln.Addr().String())
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	for _, hook := range cfg.shutdownHooks {
		if err := hook(shutdownCtx); err != nil {
			errs = append(errs, err)
			log.Error("shutdown hook failed", slog.Any("error", err))
		}
	}

	if len(errs) > 0 {
		log.Error("shutdown completed with errors")
		return errors.Join(errs...)
	}
	log.Info("shutdown completed")
	return nil
}
