package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"smartparking/internal/health"
	"smartparking/pkg/background"
	"smartparking/pkg/config"
	"smartparking/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

const IdempotencyHeader = "Idempotency-Key"

// RouteRegistrar is implemented by every HTTP handler the service mounts.
type RouteRegistrar interface {
	RegisterRoutes(*httprouter.Router)
}

type namedCloser struct {
	name   string
	closer io.Closer
}

type Application struct {
	cfg              *config.Config
	runner           *background.Runner
	server           *http.Server
	idempotencyStore middleware.IdempotencyStore
	rateLimiter      *middleware.ClientRateLimiter
	healthHandler    http.Handler
	appHttpHandler   http.Handler
	closers          []namedCloser
	readiness        map[string]health.Check
}

func NewApplication(cfg *config.Config, runner *background.Runner) *Application {
	return &Application{
		cfg:       cfg,
		runner:    runner,
		readiness: map[string]health.Check{},
	}
}

// AddReadinessCheck registers a dependency probe reported by /ready. It must
// be called before SetApp.
func (a *Application) AddReadinessCheck(name string, check health.Check) {
	a.readiness[name] = check
}

func (a *Application) SetApp(db health.Pinger, handlers ...RouteRegistrar) {
	a.setHealthHandler(db)
	a.setAppHandler(handlers)
	a.setAppServer()
}

// RegisterCloser adds a resource released during shutdown, after in-flight
// requests and background tasks have finished.
func (a *Application) RegisterCloser(name string, closer io.Closer) {
	a.closers = append(a.closers, namedCloser{name: name, closer: closer})
}

func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) setHealthHandler(db health.Pinger) {
	healthRouter := httprouter.New()
	a.readiness["database"] = health.MongoCheck(db)
	health.NewHealthHandler(a.cfg.Log, a.readiness).RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(handlers []RouteRegistrar) {
	appRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(appRouter)
	}

	a.idempotencyStore = a.newIdempotencyStore()
	a.rateLimiter = middleware.NewClientRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		middleware.ClientIPExtractor,
		a.cfg.Log,
	)

	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.Idempotency(a.idempotencyStore, IdempotencyHeader)(appHttpHandler)
	appHttpHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(appHttpHandler)
	appHttpHandler = middleware.ClientRateLimit(a.rateLimiter)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(a.cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	a.cfg.Log.Info("Application endpoints configured with full middleware stack")
}

func (a *Application) newIdempotencyStore() middleware.IdempotencyStore {
	if a.cfg.Client != nil && a.cfg.Client.Redis != nil {
		a.cfg.Log.Info("Idempotency keys stored in Redis", "prefix", a.cfg.RedisKeyPrefix)
		return middleware.NewRedisIdempotencyStore(a.cfg.Client.Redis, a.cfg.RedisKeyPrefix, a.cfg.IdempotencyTTL)
	}
	return middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHttpHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			a.cfg.Log.Fatal("HTTP server failed", "error", err)
		}

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		a.Shutdown(ctx)
	}
}

// Shutdown stops accepting requests, waits for background notifications and
// events to drain, then releases registered closers and the database client.
func (a *Application) Shutdown(ctx context.Context) {
	a.cfg.Log.Info("Starting graceful shutdown...")

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Error("Could not stop server gracefully", "error", err)
		}
	}
	a.cfg.Log.Info("Server stopped")

	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()

	if a.runner != nil {
		if err := a.runner.Close(ctx); err != nil {
			a.cfg.Log.Warn("Background tasks did not finish before shutdown deadline", "error", err)
		} else {
			a.cfg.Log.Info("Background tasks drained")
		}
	}

	for _, c := range a.closers {
		if err := c.closer.Close(); err != nil {
			a.cfg.Log.Error("Failed to close resource", "resource", c.name, "error", err)
		}
	}

	a.cfg.GracefulShutdown()
	a.cfg.Log.Info("Shutdown complete")
}
