package internal

import (
	"context"
	"flairhq/internal/audit"
	"flairhq/internal/audit/interfaces"
	"flairhq/internal/controllers"
	"flairhq/internal/providers"
	"flairhq/internal/storage"
	"flairhq/internal/structures"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

type App struct {
	WebServer *http.Server
}

// NewHandler mounts the health, metrics and API routes behind the shared middleware.
func NewHandler(conf *structures.Config, router providers.RouterProviderInterface, healthController *controllers.HealthController, metrics providers.MetricsProviderInterface) http.Handler {
	origins := conf.WebServer.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(providers.RealIPMiddleware(conf.WebServer.TrustedProxies))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", healthController.Health)
	if conf.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// API routes are instrumented, infrastructure routes are not
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return providers.MetricsMiddleware(metrics, next)
		})
		for _, route := range router.GetRoutes() {
			r.Method(route.Method, route.Url, route.Handler)
		}
	})
	return r
}

func NewApp(handler http.Handler, flairs storage.FlairStoreInterface, scheduler interfaces.SchedulerInterface, writer *audit.Writer, conf *structures.Config, logger providers.Logger) (*App, error) {
	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)

	if len(conf.Flair.Definitions) > 0 {
		if err := flairs.PutFlairs(context.Background(), conf.Flair.Definitions); err != nil {
			return nil, fmt.Errorf("seed flair definitions: %w", err)
		}
		logger.Infof(providers.TypeApp, "Loaded %d flair definitions", len(conf.Flair.Definitions))
	}

	err := scheduler.Restore()
	if err != nil {
		logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}

	app := &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      handler,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof(providers.TypeApp, "Listening HTTP clients on %s:%d", conf.WebServer.Host, conf.WebServer.Port)
		if err := app.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		scheduler.Stop()
		writer.Close()
		return nil, fmt.Errorf("server error: %w", err)
	}

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = app.WebServer.Shutdown(ctx); err != nil {
		return nil, err
	}

	// drain pending audit events so the archive holds them
	writer.Close()
	stats := writer.Stats()
	logger.Infof(providers.TypeApp, "Audit writer drained: %d written, %d dropped, %d failed", stats.Written, stats.Dropped, stats.Failed)

	err = scheduler.Persist()
	if err != nil {
		return nil, err
	}
	logger.Infof(providers.TypeApp, "gracefully stopped")
	return app, nil
}
