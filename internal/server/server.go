// Package server boots the catalog: store, schema, cache, kernel and the
// HTTP listener with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/solestore/solestore/app/services"
	"github.com/solestore/solestore/config"
	_ "github.com/solestore/solestore/database/migrations"
	"github.com/solestore/solestore/internal/kernel"
	"github.com/solestore/solestore/pkg/cache"
	"github.com/solestore/solestore/pkg/database"
	"github.com/solestore/solestore/pkg/migration"
)

// Start connects everything from config and serves until ctx is cancelled.
func Start(ctx context.Context, log *slog.Logger) error {
	db, err := database.Connect(ctx)
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck

	if _, err := migration.New(db, nil).Run(ctx); err != nil {
		return err
	}

	store, err := cache.Connect(ctx)
	if err != nil {
		log.Warn("cache unavailable, serving uncached", "driver", config.CacheDriver(), "error", err)
		store = cache.Nop{}
	}

	catalog := services.NewCatalogService(db, services.CatalogOptions{
		Cache:   store,
		TTL:     config.CacheTTL(),
		Timeout: config.DatabaseTimeout(),
	})

	k := kernel.NewHTTPKernel(catalog, kernel.Options{
		Logger:         log,
		RequestTimeout: config.RequestTimeout(),
		RateLimit:      config.RateLimit(),
	})
	go k.Run(ctx)

	addr := net.JoinHostPort(config.AppHost(), config.AppPort())
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}

	return Serve(ctx, ln, k.Handler(), log, Timeouts{
		Read:     config.ReadTimeout(),
		Write:    config.WriteTimeout(),
		Shutdown: config.ShutdownTimeout(),
	})
}

type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Shutdown time.Duration
}

// Serve runs handler on ln until ctx is done, then drains in-flight
// requests for at most t.Shutdown.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, log *slog.Logger, t Timeouts) error {
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  t.Read,
		WriteTimeout: t.Write,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), t.Shutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: forced shutdown: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}
