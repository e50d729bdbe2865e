package container

// ── Service capability ────────────────────────────────────────────────────────

// Service is the strategy a container asks to build instances of one name.
// Concrete strategies (closures, pre-built values, ...) live in
// framework/service; anything satisfying this interface can be registered.
type Service interface {
	// Name is the raw name the service registers under.
	Name() string

	// CreateService builds a new instance. The context carries the owning
	// container and the invocation arguments passed to Get/Fresh.
	CreateService(bc *BuildContext) (any, error)

	// AllowOverride reports whether a later Register under the same name may
	// replace this service.
	AllowOverride() bool
}

// FreshService is implemented by services whose instances must be rebuilt on
// every Get. Their result still overwrites the cache entry.
type FreshService interface {
	AlwaysFresh() bool
}

// BuildContext is threaded through a single construction: it reaches the
// service's CreateService and every initializer that runs around it.
type BuildContext struct {
	// Container is the namespace that owns the service being built.
	Container *Container
	// Name is the canonical name being built.
	Name string
	// Args are the invocation arguments given to Get or Fresh.
	Args []any
}

// Get resolves another service from the owning container, forwarding nothing
// of the current invocation.
func (bc *BuildContext) Get(name string, args ...any) (any, error) {
	return bc.Container.Get(name, args...)
}

// ── Capability interfaces probed by the default initializer ───────────────────

// ContainerAware targets receive the container that built them.
type ContainerAware interface {
	SetContainer(c *Container)
}

// InvocationArgsAware targets receive the arguments of the Get/Fresh call that
// built them.
type InvocationArgsAware interface {
	SetInvocationArgs(args []any)
}

func alwaysFresh(s Service) bool {
	f, ok := s.(FreshService)
	return ok && f.AlwaysFresh()
}
