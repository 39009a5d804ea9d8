// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, services, middleware and routes
// into the running HTTP application.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"codeberg.org/stemmww/recipeshare/internal/cache"
	"codeberg.org/stemmww/recipeshare/internal/config"
	"codeberg.org/stemmww/recipeshare/internal/database"
	"codeberg.org/stemmww/recipeshare/internal/handlers"
	"codeberg.org/stemmww/recipeshare/internal/i18n"
	"codeberg.org/stemmww/recipeshare/internal/repository"
	"codeberg.org/stemmww/recipeshare/internal/services/auth"
	"codeberg.org/stemmww/recipeshare/internal/services/email"
	"codeberg.org/stemmww/recipeshare/internal/services/recovery"
	"codeberg.org/stemmww/recipeshare/internal/services/session"
	"codeberg.org/stemmww/recipeshare/internal/services/token"
	"codeberg.org/stemmww/recipeshare/internal/services/totp"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// tokenIssuer is the "iss" claim of API tokens.
const tokenIssuer = "recipeshare"

const shutdownTimeout = 10 * time.Second

// App is the wired application.
type App struct {
	Echo     *echo.Echo
	Handlers *handlers.Handlers
	cache    *cache.Cache
}

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := database.Close(db); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	app, err := New(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			slog.Error("failed to close cache", "error", closeErr)
		}
	}()

	return startWithGracefulShutdown(ctx, app.Echo, cfg)
}

// New builds the services on top of an open, migrated database and
// returns the Echo instance with middleware and routes installed.
func New(ctx context.Context, cfg *config.Config, db *sqlx.DB) (*App, error) {
	secure := isSecure(cfg)
	repo := repository.New(db)

	// A nil *email.Service must not end up in the interface.
	var notifier auth.LockNotifier
	if cfg.SMTP.Enabled() {
		mailer, err := email.NewService(&cfg.SMTP, cfg.Server.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to set up mail: %w", err)
		}
		notifier = mailer
	} else {
		slog.Info("smtp not configured, lock notifications disabled")
	}

	sessions, err := session.NewManager(&cfg.Session, secure)
	if err != nil {
		return nil, fmt.Errorf("failed to set up sessions: %w", err)
	}

	tokens, err := token.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, tokenIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tokens: %w", err)
	}

	recipeCache, err := cache.New(cfg.Cache.RedisURL, cfg.Cache.TTL)
	if err != nil {
		return nil, err
	}
	if recipeCache.Enabled() {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if pingErr := recipeCache.Ping(pingCtx); pingErr != nil {
			slog.Warn("redis unreachable, recipe lookups will miss", "error", pingErr)
		} else {
			slog.Info("recipe cache enabled", "ttl", cfg.Cache.TTL)
		}
		cancel()
	}

	h := handlers.New(handlers.Options{
		Repo:     repo,
		Auth:     auth.NewService(repo, &cfg.Auth, notifier),
		Sessions: sessions,
		Tokens:   tokens,
		TOTP:     totp.NewService(cfg.Auth.TOTPIssuer, 1),
		Recovery: recovery.NewService(repo),
		Cache:    recipeCache,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	// Event streams never finish on their own.
	e.Server.RegisterOnShutdown(h.Hub().Close)
	e.TLSServer.RegisterOnShutdown(h.Hub().Close)

	setupMiddleware(e, cfg, sessions, repo)
	setupRoutes(e, h, tokens)

	return &App{Echo: e, Handlers: h, cache: recipeCache}, nil
}

// Close releases resources held by the application.
func (a *App) Close() error {
	return a.cache.Close()
}

// isSecure reports whether cookies must carry the Secure flag.
func isSecure(cfg *config.Config) bool {
	return strings.HasPrefix(cfg.Server.BaseURL, "https://")
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	tlsResult, err := SetupTLS(cfg)
	if err != nil {
		return fmt.Errorf("TLS setup failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)

	// ACME answers HTTP-01 challenges and redirects to HTTPS on :80.
	var httpServer *http.Server

	switch tlsResult.Mode {
	case TLSModeOff:
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("server running", "url", cfg.Server.BaseURL)
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeACME:
		go func() {
			slog.Info("server running", "url", cfg.Server.BaseURL)
			if err := serveTLS(ctx, e, ":443", tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		httpServer = &http.Server{
			Addr:              ":80",
			Handler:           tlsResult.HTTPHandler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("http to https redirect active", "addr", ":80")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeManual:
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("server running", "url", cfg.Server.BaseURL)
			if err := serveTLS(ctx, e, addr, tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown main server", "error", err)
	}
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown http redirect server", "error", err)
		}
	}

	slog.Info("server stopped")
	return nil
}

// serveTLS serves e on addr with a custom TLS configuration.
func serveTLS(ctx context.Context, e *echo.Echo, addr string, tlsConfig *tls.Config) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	e.TLSListener = tls.NewListener(ln, tlsConfig)
	e.TLSServer.TLSConfig = tlsConfig
	return e.TLSServer.Serve(e.TLSListener)
}
