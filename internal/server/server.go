// Package server assembles the FunnelForge API: database, cache, broker,
// clone engine, DI container and HTTP routes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/funnelforge/funnelforge/config"
	clonerecordrepo "github.com/funnelforge/funnelforge/internal/repositories/clonerecord"
	funnelrepo "github.com/funnelforge/funnelforge/internal/repositories/funnel"
	funnelsettingsrepo "github.com/funnelforge/funnelforge/internal/repositories/funnelsettings"
	memberrepo "github.com/funnelforge/funnelforge/internal/repositories/member"
	pagerepo "github.com/funnelforge/funnelforge/internal/repositories/page"
	paymentrepo "github.com/funnelforge/funnelforge/internal/repositories/payment"
	rolepermissionrepo "github.com/funnelforge/funnelforge/internal/repositories/rolepermission"
	subdomainrepo "github.com/funnelforge/funnelforge/internal/repositories/subdomain"
	themerepo "github.com/funnelforge/funnelforge/internal/repositories/theme"
	userrepo "github.com/funnelforge/funnelforge/internal/repositories/user"
	workspacerepo "github.com/funnelforge/funnelforge/internal/repositories/workspace"
	"github.com/funnelforge/funnelforge/pkg/cache"
	"github.com/funnelforge/funnelforge/pkg/clone"
	"github.com/funnelforge/funnelforge/pkg/database"
	"github.com/funnelforge/funnelforge/pkg/events"
	"github.com/funnelforge/funnelforge/pkg/kafka"
	"github.com/funnelforge/funnelforge/pkg/middleware"
	"github.com/funnelforge/funnelforge/pkg/provisioner"
	cloneworkspaceroutes "github.com/funnelforge/funnelforge/pkg/routes/cloneworkspace"
	funnelroutes "github.com/funnelforge/funnelforge/pkg/routes/funnel"
	"github.com/funnelforge/funnelforge/pkg/routes/health"
	workspaceroutes "github.com/funnelforge/funnelforge/pkg/routes/workspace"
	"github.com/funnelforge/funnelforge/pkg/startup"
	"github.com/funnelforge/funnelforge/pkg/tracing"
	"github.com/funnelforge/funnelforge/pkg/tracing/exporters"
)

const version = "0.1.0"

// Server owns the process lifecycle: backing services come up through the
// startup manager, then routes are wired and traffic is served until the
// context is cancelled.
type Server struct {
	cfg    *config.Config
	logger ectologger.Logger

	echo     *echo.Echo
	db       database.DB
	redisCli *cache.Client
	producer *kafka.Producer
	checker  *health.Checker

	tracingShutdown func(context.Context) error
}

// New creates a server from configuration
func New(cfg *config.Config, logger ectologger.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
	}
}

// Run brings the server up and blocks until ctx is cancelled or the HTTP
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.TracingEnabled {
		shutdown, err := tracing.Init(ctx, s.cfg.AppName, exporters.OTLPConfig{
			Endpoint: s.cfg.TracingOTLPEndpoint,
			Protocol: s.cfg.TracingOTLPProtocol,
			Insecure: true,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		s.tracingShutdown = shutdown
	}

	boot := startup.New(s.logger, s.cfg.StartupMaxAttempts)
	boot.AddDependency(&postgresDependency{server: s})
	boot.AddDependency(&redisDependency{server: s})
	if s.cfg.KafkaProducerEnabled {
		boot.AddDependency(&kafkaDependency{server: s})
	}
	if err := boot.Start(ctx); err != nil {
		return err
	}

	if err := s.wire(); err != nil {
		return err
	}
	s.routes()
	s.checker.SetReady(true)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.StartServer(&http.Server{
			Addr:         fmt.Sprintf(":%d", s.cfg.Port),
			ReadTimeout:  time.Duration(s.cfg.HttpServerReadTimeoutSeconds) * time.Second,
			WriteTimeout: time.Duration(s.cfg.HttpServerWriteTimeoutSeconds) * time.Second,
			IdleTimeout:  time.Duration(s.cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		})
	}()

	s.logger.Infof("Listening on :%d", s.cfg.Port)

	select {
	case err := <-errCh:
		s.shutdown(boot)
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.echo.Shutdown(shutdownCtx)
		s.shutdown(boot)
		return err
	}
}

func (s *Server) shutdown(boot *startup.Startup) {
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := boot.Stop(stopCtx); err != nil {
		s.logger.WithError(err).Error("Failed to stop dependencies cleanly")
	}
	if s.tracingShutdown != nil {
		if err := s.tracingShutdown(stopCtx); err != nil {
			s.logger.WithError(err).Error("Failed to flush traces")
		}
	}
}

// wire builds repositories and services and registers them with the DI
// container the route handlers resolve from.
func (s *Server) wire() error {
	workspaces := workspacerepo.NewRepository(s.db, s.logger)
	funnels := funnelrepo.NewRepository(s.db, s.logger)
	pages := pagerepo.NewRepository(s.db, s.logger)
	themes := themerepo.NewRepository(s.db, s.logger)
	settings := funnelsettingsrepo.NewRepository(s.db, s.logger)
	roleTemplates := rolepermissionrepo.NewRepository(s.db, s.logger)
	users := userrepo.NewRepository(s.db, s.logger)
	payments := paymentrepo.NewRepository(s.db, s.logger)
	cloneRecords := clonerecordrepo.NewRepository(s.db, s.logger)
	members := memberrepo.NewRepository(s.db, s.logger)
	subdomains := subdomainrepo.NewRepository(s.db, s.logger)

	workspaceCache := cache.NewWorkspaces(s.redisCli, s.logger, s.cfg.CacheTTL)

	var publisher events.Publisher
	if s.producer != nil {
		publisher = s.producer
	}
	emitter := events.NewEmitter(publisher, s.logger)

	prov := provisioner.NewService(
		s.logger,
		&provisioner.NoopDNS{Logger: s.logger},
		members,
		subdomains,
		s.cfg.SubdomainBase,
	)

	engine := clone.NewEngine(
		s.logger,
		workspaces,
		funnels,
		pages,
		themes,
		settings,
		roleTemplates,
		payments,
		users,
		cloneRecords,
		prov,
		emitter,
		workspaceCache,
		s.cfg.SlugMaxAttempts,
	)

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return fmt.Errorf("failed to create DI container: %w", err)
	}

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, s.logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[database.DB](container, s.db); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*workspacerepo.Repository](container, workspaces); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*funnelrepo.Repository](container, funnels); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*cache.Workspaces](container, workspaceCache); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*events.Emitter](container, emitter); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*clone.Engine](container, engine); err != nil {
		return err
	}

	return nil
}

// routes configures the echo instance and mounts every route group
func (s *Server) routes() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(s.logger)

	e.Use(otelecho.Middleware(s.cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(s.logger))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: s.cfg.AllowOrigins,
		AllowMethods: s.cfg.AllowMethods,
	}))

	var cachePinger health.Pinger
	if s.redisCli != nil {
		cachePinger = s.redisCli
	}
	s.checker = health.NewChecker(s.db, cachePinger, version)
	s.checker.RegisterRoutes(e)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	g := e.Group("/api/v1")
	cloneworkspaceroutes.Register(g)
	workspaceroutes.Register(g)
	funnelroutes.Register(g)

	s.echo = e
}
