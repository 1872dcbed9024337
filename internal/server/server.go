package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	mwecho "github.com/labstack/echo/v4/middleware"
	mwsvc "winsbygroup.com/custserver/internal/middleware"

	"winsbygroup.com/custserver/internal/config"
	"winsbygroup.com/custserver/internal/customer"
	"winsbygroup.com/custserver/internal/demodata"
	"winsbygroup.com/custserver/internal/events"
	"winsbygroup.com/custserver/internal/metrics"
	"winsbygroup.com/custserver/internal/postgres"
	"winsbygroup.com/custserver/internal/sqlite"
	"winsbygroup.com/custserver/internal/telemetry"

	apihttp "winsbygroup.com/custserver/internal/http/api"
	webhttp "winsbygroup.com/custserver/internal/http/web"
)

type Server struct {
	Echo      *echo.Echo
	HTTP      *http.Server
	DB        *sqlx.DB // nil for the memory store
	Publisher events.Publisher
	Telemetry *telemetry.Providers // nil unless SQL tracing is enabled
	Registry  *prometheus.Registry
}

func Build(cfg *config.Config) (_ *Server, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{}
	defer func() {
		if err != nil {
			s.Close(context.Background())
		}
	}()

	//
	// Telemetry (must precede opening the database so otelsql picks up
	// the providers)
	//
	if cfg.TraceSQL {
		if s.Telemetry, err = telemetry.Setup(os.Stderr, telemetry.DefaultInterval); err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
	}

	//
	// Store
	//
	store, err := s.openStore(cfg)
	if err != nil {
		return nil, err
	}

	//
	// Events
	//
	if s.Publisher, err = events.New(cfg.Events); err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}

	//
	// Domain services
	//
	customerSvc := customer.NewService(store, customer.WithNotifier(s.Publisher))

	//
	// Handlers
	//
	apiHandler := apihttp.NewHandler(customerSvc)
	webHandler := webhttp.NewHandler(customerSvc)

	//
	// Metrics
	//
	s.Registry = prometheus.NewRegistry()
	s.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(s.Registry)

	//
	// Echo
	//
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apihttp.HTTPErrorHandler

	// Middleware
	e.Use(mwsvc.RequestID())
	e.Use(mwsvc.RequestLogger(log.WithField("component", "http")))
	e.Use(mwecho.Recover())
	e.Use(mwecho.BodyLimit("1M"))
	e.Use(mwsvc.Metrics(httpMetrics))

	// Health endpoints
	e.GET("/livez", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	e.GET("/readyz", func(c echo.Context) error {
		if s.DB != nil {
			if err := s.DB.PingContext(c.Request().Context()); err != nil {
				return c.String(http.StatusServiceUnavailable, "DB not ready")
			}
		}
		return c.String(http.StatusOK, "Ready")
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})))

	// Customer API
	apiGroup := e.Group("/api")
	apihttp.RegisterRoutes(apiGroup, apiHandler)

	// Web UI
	webGroup := e.Group("/web")
	webGroup.Use(mwsvc.Version()) // Add app version to context
	webhttp.RegisterRoutes(webGroup, webHandler)

	//
	// HTTP server
	//
	s.Echo = e
	s.HTTP = &http.Server{
		Addr:         cfg.Addr,
		Handler:      e,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s, nil
}

func (s *Server) openStore(cfg *config.Config) (customer.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		log.Info("Using in-memory store; data is lost on exit")
		return customer.NewMemoryStore(), nil

	case config.StorePostgres:
		db, err := postgres.Open(cfg.PostgresDSN, cfg.TraceSQL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		s.DB = db
		log.Info("Connected to postgres")
		return customer.NewSQLStore(db, customer.Postgres), nil

	default:
		isNewDB := false
		if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
			isNewDB = true
			log.Infof("Creating database '%s' (from %s setting)", cfg.DBPath, cfg.DBPathSource)
		} else {
			log.Infof("Opening database '%s' (from %s setting)", cfg.DBPath, cfg.DBPathSource)
		}

		db, err := sqlite.Open(cfg.DBPath, cfg.TraceSQL)
		if err != nil {
			return nil, err
		}
		s.DB = db

		// Load demo data if requested and database is new
		if cfg.DemoMode && isNewDB {
			n, err := demodata.Load(context.Background(), db.DB)
			if err != nil {
				return nil, fmt.Errorf("failed to load demo data: %w", err)
			}
			log.WithField("customers", n).Info("Demo data loaded")
		}
		return customer.NewSQLStore(db, customer.SQLite), nil
	}
}

// Close releases the publisher, database and telemetry providers. It does
// not stop the HTTP server; call HTTP.Shutdown first.
func (s *Server) Close(ctx context.Context) error {
	var errs []error
	if s.Publisher != nil {
		errs = append(errs, s.Publisher.Close())
	}
	if s.DB != nil {
		errs = append(errs, s.DB.Close())
	}
	if s.Telemetry != nil {
		errs = append(errs, s.Telemetry.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
