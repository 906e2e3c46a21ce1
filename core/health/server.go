// Package health serves the liveness endpoints and Prometheus metrics.
package health

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/m3rciful/carhub/core/buildinfo"
	"github.com/m3rciful/carhub/core/logger"
)

const component = "health"

// Banner is returned on the root path.
const Banner = "Telegram bot is running!"

// ShutdownTimeout bounds the graceful shutdown of the listener.
const ShutdownTimeout = 5 * time.Second

// Check reports readiness of a dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// Options configure a Server.
type Options struct {
	Addr    string
	Metrics http.Handler
	Checks  map[string]Check
	Now     func() time.Time
}

// Server is the liveness HTTP server.
type Server struct {
	echo    *echo.Echo
	addr    string
	checks  map[string]Check
	now     func() time.Time
	started time.Time

	mu       sync.Mutex
	listener net.Listener
}

// Status is the JSON body of /healthz.
type Status struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// NewServer builds the server and its routes.
func NewServer(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Server{
		echo:    e,
		addr:    opts.Addr,
		checks:  opts.Checks,
		now:     now,
		started: now(),
	}

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, Banner)
	})
	e.GET("/healthz", s.healthz)
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) healthz(c echo.Context) error {
	body := Status{
		Status:  "ok",
		Version: buildinfo.Version,
		Uptime:  s.now().Sub(s.started).Round(time.Second).String(),
	}
	code := http.StatusOK
	if len(s.checks) > 0 {
		body.Checks = make(map[string]string, len(s.checks))
		for name, check := range s.checks {
			if err := check(c.Request().Context()); err != nil {
				body.Checks[name] = err.Error()
				body.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			body.Checks[name] = "ok"
		}
	}
	return c.JSON(code, body)
}

// Addr returns the bound address once Run has started listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		logger.Error(ctx, component, "listen", slog.String("addr", s.addr), slog.Any("err", err))
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.echo.Listener = ln
	s.mu.Unlock()

	logger.Info(ctx, component, "start", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start("")
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error(ctx, component, "serve", slog.Any("err", err))
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	err = s.echo.Shutdown(shutdownCtx)
	logger.Info(ctx, component, "stop", slog.String("status", logger.Status(err)))
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
