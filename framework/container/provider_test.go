package container_test

import (
	"errors"
	"testing"

	"github.com/km-arc/go-registry/framework/container"
	"github.com/km-arc/go-registry/framework/service"
)

// ── stub providers ────────────────────────────────────────────────────────────

type eagerProvider struct {
	container.BaseProvider
	registerCalled int
	bootCalled     bool
}

func (p *eagerProvider) Register(app *container.Container) error {
	p.registerCalled++
	return app.Register(service.NewInstance("eager-svc", "eager"))
}

func (p *eagerProvider) Boot(app *container.Container) error {
	p.bootCalled = true
	return nil
}

// deferredProvider only registers when "deferred-svc" is first built.
type deferredProvider struct {
	container.BaseProvider
	registerCalled bool
	bootCalled     bool
}

func (p *deferredProvider) Register(app *container.Container) error {
	p.registerCalled = true
	return app.Register(service.NewFactory("deferred-svc", func(*container.BuildContext) (any, error) {
		return "deferred-value", nil
	}))
}

func (p *deferredProvider) Boot(app *container.Container) error {
	p.bootCalled = true
	return nil
}

func (p *deferredProvider) IsDeferred() bool   { return true }
func (p *deferredProvider) Provides() []string { return []string{"deferred-svc"} }

// lyingProvider promises a name it never registers.
type lyingProvider struct{ container.BaseProvider }

func (p *lyingProvider) Register(*container.Container) error { return nil }
func (p *lyingProvider) IsDeferred() bool                    { return true }
func (p *lyingProvider) Provides() []string                  { return []string{"ghost"} }

// multiProvider registers several names and an alias.
type multiProvider struct {
	container.BaseProvider
}

func (p *multiProvider) Register(app *container.Container) error {
	if err := app.Register(service.NewInstance("alpha", "α")); err != nil {
		return err
	}
	if err := app.Register(service.NewInstance("beta", "β")); err != nil {
		return err
	}
	return app.Extend("first", "alpha")
}

type failingProvider struct {
	container.BaseProvider
	err error
}

func (p *failingProvider) Register(*container.Container) error { return nil }
func (p *failingProvider) Boot(*container.Container) error     { return p.err }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

func TestRegistry_EagerProvider_RegisterCalled(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())

	p := &eagerProvider{}
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if p.registerCalled != 1 {
		t.Error("Register() should be called immediately for eager providers")
	}
}

func TestRegistry_EagerProvider_BootCalledAfterBoot(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())

	p := &eagerProvider{}
	_ = reg.Register(p)

	if p.bootCalled {
		t.Error("Boot() should NOT be called before registry.Boot()")
	}

	if err := reg.Boot(); err != nil {
		t.Fatalf("Boot: %v", err)
	}

	if !p.bootCalled {
		t.Error("Boot() should be called after registry.Boot()")
	}
}

func TestRegistry_EagerProvider_ServiceResolvable(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	_ = reg.Register(&eagerProvider{})
	_ = reg.Boot()

	got, err := container.Resolve[string](c, "eager-svc")
	if err != nil || got != "eager" {
		t.Errorf("eager-svc: got %q (%v), want 'eager'", got, err)
	}
}

func TestRegistry_Boot_IdempotentCallsAreIgnored(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	_ = reg.Register(&eagerProvider{})

	_ = reg.Boot()
	if err := reg.Boot(); err != nil {
		t.Errorf("second Boot() should be a no-op, got %v", err)
	}

	if !reg.Booted() {
		t.Error("Booted() should be true after Boot()")
	}
}

func TestRegistry_Booted_FalseBeforeBoot(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	if reg.Booted() {
		t.Error("Booted() should be false before Boot()")
	}
}

func TestRegistry_DuplicateRegister_Ignored(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())

	p := &eagerProvider{}
	_ = reg.Register(p)
	_ = reg.Register(p)

	if p.registerCalled != 1 {
		t.Errorf("provider registered %d times, want 1", p.registerCalled)
	}
}

func TestRegistry_BootError_IsReturned(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	boom := errors.New("boom")
	_ = reg.Register(&failingProvider{err: boom})

	if err := reg.Boot(); !errors.Is(err, boom) {
		t.Errorf("Boot() error: got %v, want wrapping %v", err, boom)
	}
}

// ── Deferred providers ────────────────────────────────────────────────────────

func TestRegistry_DeferredProvider_NotRegisteredEagerly(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &deferredProvider{}
	_ = reg.Register(p)
	_ = reg.Boot()

	if p.registerCalled {
		t.Error("deferred provider Register() should not be called until Get()")
	}
	if !reg.Deferred("Deferred-Svc") {
		t.Error("Deferred() should report the pending name")
	}
	if !c.Has("deferred-svc") {
		t.Error("a placeholder should be registered for deferred names")
	}
}

func TestRegistry_DeferredProvider_RegisteredOnFirstGet(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &deferredProvider{}
	_ = reg.Register(p)
	_ = reg.Boot()

	got, err := container.Resolve[string](c, "deferred-svc")
	if err != nil || got != "deferred-value" {
		t.Errorf("deferred-svc: got %q (%v), want 'deferred-value'", got, err)
	}
	if !p.registerCalled || !p.bootCalled {
		t.Error("deferred provider should be registered and booted on first Get()")
	}
	if reg.Deferred("deferred-svc") {
		t.Error("Deferred() should be false once the provider loaded")
	}

	again, _ := c.Get("deferred-svc")
	if again != "deferred-value" {
		t.Errorf("second Get: got %v", again)
	}
}

func TestRegistry_DeferredProvider_LoadsIntoNestedClone(t *testing.T) {
	proto := container.New()
	reg := container.NewProviderRegistry(proto)
	_ = reg.Register(&deferredProvider{})
	_ = reg.Boot()

	root := container.New()
	if err := root.Nest(proto, "mail"); err != nil {
		t.Fatalf("Nest: %v", err)
	}
	mail, err := root.From("mail")
	if err != nil {
		t.Fatalf("From: %v", err)
	}

	got, err := mail.Get("deferred-svc")
	if err != nil || got != "deferred-value" {
		t.Errorf("deferred-svc: got %v (%v), want 'deferred-value'", got, err)
	}

	svc, _ := mail.Service("deferred-svc")
	if _, ok := svc.(*service.Factory); !ok {
		t.Errorf("clone should hold the provider's service, got %T", svc)
	}
	if !reg.Deferred("deferred-svc") {
		t.Error("the prototype should still be waiting on its provider")
	}
	if protoSvc, _ := proto.Service("deferred-svc"); protoSvc == svc {
		t.Error("loading into the clone must not touch the prototype")
	}
}

func TestRegistry_DeferredProvider_MissingName(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	_ = reg.Register(&lyingProvider{})

	_, err := c.Get("ghost")
	if !errors.Is(err, container.ErrServiceCreation) {
		t.Errorf("ghost: got %v, want ServiceCreation", err)
	}
}

// ── Multiple providers ────────────────────────────────────────────────────────

func TestRegistry_MultipleProviders_AllServicesResolvable(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	_ = reg.Register(&multiProvider{})
	_ = reg.Register(&eagerProvider{})
	_ = reg.Boot()

	for name, want := range map[string]string{"alpha": "α", "beta": "β", "first": "α", "eager-svc": "eager"} {
		got, err := container.Resolve[string](c, name)
		if err != nil || got != want {
			t.Errorf("%s: got %q (%v), want %q", name, got, err, want)
		}
	}
}

// ── Providers list ────────────────────────────────────────────────────────────

func TestRegistry_Providers_ReturnsEagerOnes(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	_ = reg.Register(&eagerProvider{})
	_ = reg.Register(&deferredProvider{})

	if len(reg.Providers()) != 1 {
		t.Errorf("Providers(): got %d, want 1 (eager only)", len(reg.Providers()))
	}
}

// ── BaseProvider defaults ─────────────────────────────────────────────────────

func TestBaseProvider_Defaults(t *testing.T) {
	var p container.BaseProvider

	if err := p.Boot(container.New()); err != nil {
		t.Errorf("BaseProvider.Boot() = %v", err)
	}
	if p.IsDeferred() {
		t.Error("BaseProvider.IsDeferred() should be false")
	}
	if len(p.Provides()) != 0 {
		t.Error("BaseProvider.Provides() should return empty slice")
	}
}

// ── Boot after registration (late provider) ───────────────────────────────────

func TestRegistry_RegisterAfterBoot_BootsImmediately(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	_ = reg.Boot()

	p := &eagerProvider{}
	_ = reg.Register(p)

	if !p.bootCalled {
		t.Error("provider registered after Boot() should be booted immediately")
	}
}
