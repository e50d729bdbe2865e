package container

import (
	"fmt"
	"maps"
	"reflect"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ── Container ─────────────────────────────────────────────────────────────────

// Container is one namespace of the service registry tree.
//
// It holds:
//   - services: canonical name → Service strategy
//   - aliases: canonical name → another name, or a name inside another namespace
//   - a cache of built instances keyed by (name, invocation args)
//   - declared interfaces instances of a name must satisfy
//   - an initializer chain applied to everything it builds
//   - nested child namespaces
//
// Map access is guarded per container, but the lock is never held while a
// service or initializer runs, so get-or-build and nest are not atomic.
// Concurrent Get calls for a name that is already cached are safe. Two
// goroutines building the same uncached name at once may see one of them fail
// with ErrCircularDependency, because the in-progress marker is per container,
// not per goroutine. Warm the cache first, or serialize construction and
// mutation externally.
type Container struct {
	mu sync.RWMutex

	id        string
	namespace string

	// parent never owns this node; it is only followed for path lookups,
	// root discovery and ancestor initializers.
	parent   *Container
	children map[string]*Container

	services   map[string]Service
	interfaces map[string]reflect.Type
	aliases    *aliasTable
	cache      *instanceCache
	names      *canonicalizer

	initializer *InitializerChain

	// canonical names currently being built, for cycle detection
	building map[string]struct{}

	logger   *zap.Logger
	recorder Recorder
}

// Option configures a Container at construction.
type Option func(*Container)

// WithNamespace sets the container's own namespace, used by Nest when no
// namespace is given.
func WithNamespace(namespace string) Option {
	return func(c *Container) { c.namespace = namespace }
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder. Defaults to a no-op recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Container) {
		if r != nil {
			c.recorder = r
		}
	}
}

// New creates an empty container with the awareness initializer installed.
//
//	root := container.New(container.WithLogger(logger))
//	_ = root.Register(service.NewFactory("mailer", newMailer))
//	m, err := root.Get("mailer")
func New(opts ...Option) *Container {
	c := &Container{
		id:          uuid.NewString(),
		children:    make(map[string]*Container),
		services:    make(map[string]Service),
		interfaces:  make(map[string]reflect.Type),
		aliases:     newAliasTable(),
		cache:       newInstanceCache(),
		names:       newCanonicalizer(),
		initializer: NewInitializerChain(),
		building:    make(map[string]struct{}),
		logger:      zap.NewNop(),
		recorder:    nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.initializer.AddCallback(injectAwareness, awarenessPriority)
	return c
}

// ID uniquely identifies this node. Clones made by Nest get their own ID.
func (c *Container) ID() string { return c.id }

// Namespace returns the node's namespace ("" for an unnamed root).
func (c *Container) Namespace() string { return c.namespace }

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger { return c.logger }

// InitializerChain exposes the mutable chain so builders can install
// cross-cutting callbacks before anything is constructed.
func (c *Container) InitializerChain() *InitializerChain { return c.initializer }

// ── Registration ──────────────────────────────────────────────────────────────

// Register adds svc under its canonical name. It fails with ErrDuplicateName
// when the name is taken by an alias, or by a service that does not allow
// override; otherwise the last registration wins.
func (c *Container) Register(svc Service) error {
	if svc == nil {
		return newError(CodeInvalidName, c.Path(), "", "service must not be nil", nil)
	}
	key, err := c.canonical(svc.Name())
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.aliases.has(key) {
		return duplicateName(c.Path(), svc.Name())
	}
	if existing, ok := c.services[key]; ok && !existing.AllowOverride() {
		return duplicateName(c.Path(), svc.Name())
	}
	c.services[key] = svc

	c.logger.Debug("service registered",
		zap.String("namespace", c.Path()),
		zap.String("service", key),
	)
	return nil
}

// Has reports whether a service is registered under name. Aliases are not
// followed.
func (c *Container) Has(name string) bool {
	key, err := c.canonical(name)
	if err != nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.services[key]
	return ok
}

// HasAlias reports whether name is an alias in this container.
func (c *Container) HasAlias(name string) bool {
	key, err := c.canonical(name)
	if err != nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.aliases.has(key)
}

// Service returns the strategy registered under name, without building it.
func (c *Container) Service(name string) (Service, bool) {
	key, err := c.canonical(name)
	if err != nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	svc, ok := c.services[key]
	return svc, ok
}

// DeclareInterface requires future instances of name to satisfy iface: for an
// interface type the instance must implement it, otherwise it must be
// assignable to it. Declarations must precede the service's registration.
func (c *Container) DeclareInterface(name string, iface reflect.Type) error {
	key, err := c.canonical(name)
	if err != nil {
		return err
	}
	if iface == nil {
		return newError(CodeInvalidName, c.Path(), name, "declared interface must not be nil", nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.services[key]; ok {
		return newError(CodeConfiguration, c.Path(), name, fmt.Sprintf(
			"interface %s declared after service %q was registered", iface, name), nil)
	}
	c.interfaces[key] = iface
	return nil
}

// Declare is DeclareInterface for the type parameter.
//
//	_ = container.Declare[io.Closer](c, "db")
func Declare[T any](c *Container, name string) error {
	return c.DeclareInterface(name, reflect.TypeOf((*T)(nil)).Elem())
}

// ── Aliases ───────────────────────────────────────────────────────────────────

// Extend makes alias resolve to target, itself a service or another alias.
// The target does not need to exist yet.
//
//	c.Extend("cache", "redis")
func (c *Container) Extend(alias, target string) error {
	if _, err := c.canonical(target); err != nil {
		return err
	}
	return c.extend(alias, AliasTarget{Name: target})
}

// ExtendNested makes alias a window onto service name inside the namespace at
// path, which may be relative or start at the root.
//
//	c.ExtendNested("sysdir", "/filesystem/system", "folder")
func (c *Container) ExtendNested(alias, path, name string) error {
	if canonicalPath(path) == "" {
		return newError(CodeInvalidName, c.Path(), alias, "alias namespace path must not be empty", nil)
	}
	if _, err := c.canonical(name); err != nil {
		return err
	}
	return c.extend(alias, AliasTarget{Namespace: path, Name: name})
}

func (c *Container) extend(alias string, target AliasTarget) error {
	key, err := c.canonical(alias)
	if err != nil {
		return err
	}
	if !target.Nested() {
		if tk, _ := c.canonical(target.Name); tk == key {
			return newError(CodeConfiguration, c.Path(), alias,
				fmt.Sprintf("%q is aliased to itself", alias), nil)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.aliases.has(key) {
		return newError(CodeDuplicateAlias, c.Path(), alias,
			fmt.Sprintf("alias %q is already defined", alias), nil)
	}
	if existing, ok := c.services[key]; ok && !existing.AllowOverride() {
		return duplicateName(c.Path(), alias)
	}
	c.aliases.set(key, target)

	c.logger.Debug("alias registered",
		zap.String("namespace", c.Path()),
		zap.String("alias", key),
		zap.Stringer("target", target),
	)
	return nil
}

// ResolveAlias returns where name ends up after following aliases in this
// container. A nested target is returned without entering its namespace.
func (c *Container) ResolveAlias(name string) (AliasTarget, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	target, err := c.aliases.resolve(name, c.canonical)
	if err != nil {
		if e, ok := err.(*Error); ok && e.Namespace == "" {
			e.Namespace = c.Path()
		}
		return AliasTarget{}, err
	}
	return target, nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get returns the instance for name and args, building it on first use.
// Structurally equal args share one cached instance.
//
//	conn, err := c.Get("db")
//	client, err := c.Get("http.client", "api.example.com", 30)
func (c *Container) Get(name string, args ...any) (any, error) {
	return c.resolve(name, args, false, nil)
}

// Fresh always builds a new instance and stores it as the cached one, so a
// later Get with the same args returns it.
func (c *Container) Fresh(name string, args ...any) (any, error) {
	return c.resolve(name, args, true, nil)
}

// MustGet is Get that panics on error.
func (c *Container) MustGet(name string, args ...any) any {
	inst, err := c.Get(name, args...)
	if err != nil {
		panic(err)
	}
	return inst
}

// hop is one (namespace, name) stop of an alias chase.
type hop struct {
	id   string
	name string
}

// resolve runs the lookup state machine. hops records every namespace the
// chase has entered so far, so alias cycles that cross namespaces terminate.
func (c *Container) resolve(name string, args []any, fresh bool, hops []hop) (any, error) {
	target, err := c.ResolveAlias(name)
	if err != nil {
		return nil, err
	}
	if target.Nested() {
		if hops == nil {
			start, err := c.canonical(name)
			if err != nil {
				return nil, err
			}
			hops = []hop{{id: c.id, name: start}}
		}
		ns, err := c.From(target.Namespace)
		if err != nil {
			return nil, err
		}
		next, err := ns.canonical(target.Name)
		if err != nil {
			return nil, err
		}
		h := hop{id: ns.id, name: next}
		if slices.Contains(hops, h) {
			return nil, newError(CodeConfiguration, c.Path(), name, fmt.Sprintf(
				"alias cycle detected: %q returns to %q in %s", name, target.Name, ns.Path()), nil)
		}
		return ns.resolve(target.Name, args, fresh, append(hops, h))
	}

	key, err := c.canonical(target.Name)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	svc, ok := c.services[key]
	iface := c.interfaces[key]
	c.mu.RUnlock()

	if !ok {
		return nil, c.notFound(name, target.Name)
	}

	ck := cacheKey(key, args)
	if !fresh && !alwaysFresh(svc) {
		if inst, hit := c.cache.get(ck); hit {
			c.recorder.CacheHit(c.Path(), key)
			return inst, nil
		}
		c.recorder.CacheMiss(c.Path(), key)
	}

	inst, err := c.construct(key, svc, args)
	if err != nil {
		c.recorder.ConstructionFailed(c.Path(), key)
		c.logger.Warn("service construction failed",
			zap.String("namespace", c.Path()),
			zap.String("service", key),
			zap.Error(err),
		)
		return nil, err
	}

	if iface != nil && !satisfies(inst, iface) {
		c.recorder.ConstructionFailed(c.Path(), key)
		return nil, newError(CodeInterfaceMismatch, c.Path(), key, fmt.Sprintf(
			"instance of %q is %T, which does not satisfy %s", key, inst, iface), nil)
	}

	c.cache.put(ck, inst)
	return inst, nil
}

// construct runs the service between two passes of the ancestor initializer
// chains. Returned errors and panics both surface as ErrServiceCreation.
func (c *Container) construct(key string, svc Service, args []any) (instance any, err error) {
	c.mu.Lock()
	if _, busy := c.building[key]; busy {
		c.mu.Unlock()
		return nil, serviceCreation(c.Path(), key, newError(CodeCircularDependency, c.Path(), key,
			fmt.Sprintf("%q is already being built", key), nil))
	}
	c.building[key] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.building, key)
		c.mu.Unlock()
	}()

	bc := &BuildContext{Container: c, Name: key, Args: args}
	start := time.Now()

	err = trap(func() error {
		if err := c.initialize(svc, bc); err != nil {
			return err
		}
		inst, err := svc.CreateService(bc)
		if err != nil {
			return err
		}
		if err := c.initialize(inst, bc); err != nil {
			return err
		}
		instance = inst
		return nil
	})
	if err != nil {
		return nil, serviceCreation(c.Path(), key, err)
	}

	c.recorder.Constructed(c.Path(), key, time.Since(start))
	return instance, nil
}

// trap runs fn and turns a panic into a *PanicError.
func trap(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// ── Initializers ──────────────────────────────────────────────────────────────

// Initialize runs this container's chain and then every ancestor's chain on
// target, as happens to everything the container builds.
func (c *Container) Initialize(target any, args ...any) error {
	return c.initialize(target, &BuildContext{Container: c, Args: args})
}

func (c *Container) initialize(target any, bc *BuildContext) error {
	for n := c; n != nil; n = n.parent {
		if err := n.initializer.Run(target, bc); err != nil {
			return err
		}
	}
	return nil
}

// ── Introspection ─────────────────────────────────────────────────────────────

// Services returns the canonical names of registered services, sorted.
func (c *Container) Services() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.services))
}

// Aliases returns a copy of the alias table.
func (c *Container) Aliases() map[string]AliasTarget {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.aliases.entries)
}

// CachedInstances returns the number of cached instances.
func (c *Container) CachedInstances() int { return c.cache.len() }

// ── helpers ───────────────────────────────────────────────────────────────────

func (c *Container) canonical(raw string) (string, error) {
	key, err := c.names.canonicalize(raw)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.Namespace = c.Path()
		}
		return "", err
	}
	return key, nil
}

func (c *Container) notFound(requested, resolved string) error {
	msg := fmt.Sprintf("service %q was requested but no service could be found", requested)
	if requested != resolved {
		msg = fmt.Sprintf("alias %q led to missing service %q", requested, resolved)
	}
	return newError(CodeServiceNotFound, c.Path(), requested, msg, nil)
}

func satisfies(instance any, iface reflect.Type) bool {
	if instance == nil {
		return false
	}
	t := reflect.TypeOf(instance)
	if iface.Kind() == reflect.Interface {
		return t.Implements(iface)
	}
	return t.AssignableTo(iface)
}
