package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tcpchat/internal/config"
	"github.com/vovakirdan/tcpchat/internal/core"
	"github.com/vovakirdan/tcpchat/internal/netpoll"
	transporthttp "github.com/vovakirdan/tcpchat/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	listener        net.Listener
	poller          *netpoll.Poller
	hub             *core.Hub
	admin           *stdhttp.Server
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New binds the chat listener and constructs the application.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Addr(), err)
	}

	poller := netpoll.New(cfg.ReadBufferSize, logger)
	hub := core.NewHub(poller, logger, core.WithWriteTimeout(cfg.WriteTimeout))

	a := &App{
		listener:        ln,
		poller:          poller,
		hub:             hub,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}
	if cfg.AdminAddr != "" {
		a.admin = transporthttp.NewServer(hub, cfg, logger)
	}

	logger.Info().
		Str("addr", ln.Addr().String()).
		Int("max_connections", cfg.MaxConnections).
		Int("read_buffer_size", cfg.ReadBufferSize).
		Msg("server started")
	return a, nil
}

// Addr returns the bound chat address.
func (a *App) Addr() net.Addr {
	return a.listener.Addr()
}

// Hub exposes the event loop for in-process inspection.
func (a *App) Hub() *core.Hub {
	return a.hub
}

// Run serves until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	a.poller.Listen(a.listener)

	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})

	if a.admin != nil {
		g.Go(func() error {
			a.log.Info().Str("addr", a.admin.Addr).Msg("admin http server started")
			if err := a.admin.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				return fmt.Errorf("admin server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
			defer cancel()

			a.log.Info().Msg("shutting down admin http server")
			return a.admin.Shutdown(shutdownCtx)
		})
	}

	<-gctx.Done()
	a.cleanup()
	return g.Wait()
}

// cleanup stops accepting and releases goroutines blocked on readiness.
func (a *App) cleanup() {
	if err := a.poller.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close listener")
	} else {
		a.log.Info().Msg("listener closed")
	}
}
