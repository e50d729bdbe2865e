package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/km-arc/go-registry/framework/builder"
	"github.com/km-arc/go-registry/framework/config"
	"github.com/km-arc/go-registry/framework/container"
	"github.com/km-arc/go-registry/framework/inspect"
	"github.com/km-arc/go-registry/framework/logging"
	"github.com/km-arc/go-registry/framework/metrics"
	"github.com/km-arc/go-registry/framework/providers"
)

// Application is the root of a registry process. It embeds the root
// Container, so user code can call app.Get(), app.Extend(), app.From()
// directly, and owns the providers, logger and metrics recorder shared by
// the whole tree.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	cfg      *config.Config
	logger   *zap.Logger
	recorder *metrics.Recorder
	catalog  *builder.Catalog
}

// New creates the application and registers the framework providers.
// A nil cfg is loaded from the environment.
func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.Load()
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	rec := metrics.New(metrics.Options{Runtime: cfg.IsProduction()})

	root := container.New(
		container.WithNamespace(cfg.Registry.Namespace),
		container.WithLogger(logger),
		container.WithRecorder(rec),
	)
	a := &Application{
		Container: root,
		Providers: container.NewProviderRegistry(root),
		cfg:       cfg,
		logger:    logger,
		recorder:  rec,
		catalog:   builder.NewCatalog(),
	}

	for _, p := range []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.LoggingServiceProvider{Logger: logger},
		&providers.MetricsServiceProvider{Recorder: rec},
		&providers.InspectServiceProvider{},
	} {
		if err := a.Providers.Register(p); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Catalog holds the service classes and initializers definitions may use.
// Extend it before calling Load.
func (a *Application) Catalog() *builder.Catalog { return a.catalog }

// Load applies a definition to the root container. Containers created for
// nested definitions share the application's logger and recorder.
func (a *Application) Load(def *builder.Definition) error {
	b := builder.New(a.catalog, container.WithLogger(a.logger), container.WithRecorder(a.recorder))
	if err := b.Apply(a.Container, def); err != nil {
		return fmt.Errorf("app: load definitions: %w", err)
	}
	return nil
}

// LoadFile parses a YAML or JSON definitions file and applies it.
func (a *Application) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	def, err := builder.Parse(data)
	if err != nil {
		return err
	}
	return a.Load(def)
}

// Config returns the configuration the application was built with.
func (a *Application) Config() *config.Config { return a.cfg }

// Logger returns the application logger.
func (a *Application) Logger() *zap.Logger { return a.logger }

// Metrics returns the recorder every container of the tree reports to.
func (a *Application) Metrics() *metrics.Recorder { return a.recorder }

// Inspector resolves the inspection server, loading its deferred provider.
func (a *Application) Inspector() (*inspect.Server, error) {
	return container.Resolve[*inspect.Server](a.Container, providers.InspectService)
}

// Run boots the application (if needed) and serves the inspection endpoints
// until ctx is cancelled. With inspection disabled it just waits for ctx.
func (a *Application) Run(ctx context.Context) error {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return err
		}
	}
	a.logger.Info("registry started",
		zap.String("app", a.cfg.App.Name),
		zap.String("env", a.cfg.App.Env),
		zap.String("root", a.ID()),
	)
	defer func() { _ = a.logger.Sync() }()

	if !a.cfg.Inspect.Enabled {
		<-ctx.Done()
		return nil
	}
	srv, err := a.Inspector()
	if err != nil {
		return err
	}
	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Environment returns the REGISTRY_ENV value.
func (a *Application) Environment() string { return a.cfg.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.cfg.App.Debug }
func (a *Application) Version() string     { return Version }

// Version is the registry release.
const Version = "0.1.0"
