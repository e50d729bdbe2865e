package container

import (
	"fmt"

	"go.uber.org/zap"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related registrations.
//
// Register only registers services, aliases and initializers; Boot runs after
// every eager provider is registered, so it may resolve services.
//
//	type MailProvider struct{ container.BaseProvider }
//
//	func (p *MailProvider) Register(app *container.Container) error {
//	    return app.Register(service.NewFactory("mailer", newMailer))
//	}
type ServiceProvider interface {
	Register(app *Container) error
	Boot(app *Container) error

	// Provides lists the names a deferred provider registers.
	Provides() []string

	// IsDeferred reports whether Register should wait until one of Provides()
	// is first built.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable no-op implementation of everything but
// Register.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers and boots providers against one container,
// loading deferred providers lazily.
//
// A deferred provider loads into the container that builds one of its names.
// That is app itself, or a clone of app made by Nest, so each clone gets its
// own registration.
type ProviderRegistry struct {
	app        *Container
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider // canonical name → provider
	loaded     map[loadKey]bool
	registered map[ServiceProvider]bool
	booted     bool
}

// loadKey records that a provider was loaded into one container.
type loadKey struct {
	container string
	provider  ServiceProvider
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		loaded:     make(map[loadKey]bool),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider. Eager providers register immediately (and boot
// immediately if the registry already booted); deferred providers install a
// placeholder service for each provided name. Registering the same provider
// twice is a no-op.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		for _, name := range provider.Provides() {
			key, err := r.app.canonical(name)
			if err != nil {
				return err
			}
			r.deferred[key] = provider
			if err := r.app.Register(&deferredService{name: name, provider: provider, registry: r}); err != nil {
				return err
			}
		}
		return nil
	}

	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("provider %T: register: %w", provider, err)
	}
	r.eager = append(r.eager, provider)

	if r.booted {
		return provider.Boot(r.app)
	}
	return nil
}

// Boot boots every eager provider once. Must run after all providers are
// registered.
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	r.booted = true
	for _, provider := range r.eager {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("provider %T: boot: %w", provider, err)
		}
	}
	return nil
}

// Booted reports whether Boot has run.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns the eager providers in registration order.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.eager }

// Deferred reports whether name is still waiting on a deferred provider in
// the registry's own container.
func (r *ProviderRegistry) Deferred(name string) bool {
	key, err := r.app.canonical(name)
	if err != nil {
		return false
	}
	_, ok := r.deferred[key]
	return ok
}

// load registers (and, after Boot, boots) a deferred provider into target the
// first time target builds one of its names.
func (r *ProviderRegistry) load(provider ServiceProvider, target *Container) error {
	key := loadKey{container: target.id, provider: provider}
	if r.loaded[key] {
		return nil
	}
	r.loaded[key] = true
	if target == r.app {
		for name, p := range r.deferred {
			if p == provider {
				delete(r.deferred, name)
			}
		}
	}

	target.logger.Debug("loading deferred provider",
		zap.String("namespace", target.Path()),
		zap.String("provider", fmt.Sprintf("%T", provider)),
	)

	if err := provider.Register(target); err != nil {
		return fmt.Errorf("provider %T: register: %w", provider, err)
	}
	if r.booted {
		return provider.Boot(target)
	}
	return nil
}

// deferredService stands in for a name until its provider loads. The first
// build loads the provider into the building container, which replaces the
// placeholder, and then builds through the real service. Later builds use the
// real service directly, with its own AlwaysFresh flag.
type deferredService struct {
	name     string
	provider ServiceProvider
	registry *ProviderRegistry
}

func (d *deferredService) Name() string        { return d.name }
func (d *deferredService) AllowOverride() bool { return true }

func (d *deferredService) CreateService(bc *BuildContext) (any, error) {
	target := d.registry.app
	if bc != nil && bc.Container != nil {
		target = bc.Container
	}
	if err := d.registry.load(d.provider, target); err != nil {
		return nil, err
	}
	real, ok := target.Service(d.name)
	if !ok {
		return nil, fmt.Errorf("deferred provider %T did not register %q", d.provider, d.name)
	}
	if _, still := real.(*deferredService); still {
		return nil, fmt.Errorf("deferred provider %T did not register %q", d.provider, d.name)
	}
	return real.CreateService(bc)
}
