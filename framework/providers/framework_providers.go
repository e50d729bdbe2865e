package providers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/go-registry/framework/config"
	"github.com/km-arc/go-registry/framework/container"
	"github.com/km-arc/go-registry/framework/inspect"
	"github.com/km-arc/go-registry/framework/logging"
	"github.com/km-arc/go-registry/framework/metrics"
	"github.com/km-arc/go-registry/framework/service"
)

// Service names registered by the framework providers.
const (
	ConfigService         = "config"
	LoggerService         = "logger"
	MetricsService        = "metrics"
	MetricsHandlerService = "metrics.handler"
	InspectService        = "inspect"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the loaded configuration.
//
// Registered names:
//   - "config"         → *config.Config (not overridable)
//   - "configuration"  → alias of "config"
type ConfigServiceProvider struct {
	container.BaseProvider
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	cfg := p.Config
	if cfg == nil {
		cfg = config.Load()
	}
	if err := container.Declare[*config.Config](app, ConfigService); err != nil {
		return err
	}
	if err := app.Register(service.NewInstance(ConfigService, cfg, service.WithAllowOverride(false))); err != nil {
		return err
	}
	return app.Extend("configuration", ConfigService)
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider binds the logger and installs the initializer that
// hands it to every logging.Aware service built anywhere below app.
//
// Registered names:
//   - "logger"  → *zap.Logger
type LoggingServiceProvider struct {
	container.BaseProvider
	Logger *zap.Logger
}

func (p *LoggingServiceProvider) Register(app *container.Container) error {
	l := p.Logger
	if l == nil {
		l = app.Logger()
	}
	if err := app.Register(service.NewInstance(LoggerService, l)); err != nil {
		return err
	}
	app.InitializerChain().AddCallback(logging.Initializer(l), container.DefaultPriority)
	return nil
}

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider binds the Prometheus recorder the tree reports to.
//
// Registered names:
//   - "metrics"          → *metrics.Recorder
//   - "metrics.handler"  → http.Handler serving the exposition format
type MetricsServiceProvider struct {
	container.BaseProvider
	Recorder *metrics.Recorder
}

func (p *MetricsServiceProvider) Register(app *container.Container) error {
	rec := p.Recorder
	if rec == nil {
		rec = metrics.New(metrics.Options{})
	}
	if err := app.Register(service.NewInstance(MetricsService, rec)); err != nil {
		return err
	}
	return app.Register(service.NewFactory(MetricsHandlerService, func(*container.BuildContext) (any, error) {
		return rec.Handler(), nil
	}))
}

// ── InspectServiceProvider ────────────────────────────────────────────────────

// InspectServiceProvider is deferred: the inspection server is only wired
// when "inspect" is first resolved. It reads "config", "logger" and, when
// enabled in config, "metrics.handler".
//
// Registered names:
//   - "inspect"  → *inspect.Server
type InspectServiceProvider struct {
	container.BaseProvider
}

func (p *InspectServiceProvider) IsDeferred() bool   { return true }
func (p *InspectServiceProvider) Provides() []string { return []string{InspectService} }

func (p *InspectServiceProvider) Register(app *container.Container) error {
	return app.Register(service.NewFactory(InspectService, func(bc *container.BuildContext) (any, error) {
		c := bc.Container
		cfg, err := container.Resolve[*config.Config](c, ConfigService)
		if err != nil {
			return nil, err
		}
		logger, err := container.Resolve[*zap.Logger](c, LoggerService)
		if err != nil {
			return nil, err
		}

		opts := []inspect.Option{
			inspect.WithLogger(logger.Named("inspect")),
			inspect.WithAddr(cfg.Inspect.Addr),
			inspect.WithTimeouts(cfg.Inspect.ReadTimeout, cfg.Inspect.WriteTimeout),
		}
		if cfg.Inspect.Metrics && c.Has(MetricsHandlerService) {
			h, err := container.Resolve[http.Handler](c, MetricsHandlerService)
			if err != nil {
				return nil, err
			}
			opts = append(opts, inspect.WithMetrics(h))
		}
		return inspect.New(c.Root(), opts...), nil
	}))
}
