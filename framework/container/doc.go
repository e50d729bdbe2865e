// Package container provides a hierarchical service registry: named,
// lazily built services organised in nested namespaces.
//
// # Overview
//
// A Container maps canonical names to Service strategies. Instances are built
// on first Get, run through an initializer chain, and cached per invocation
// arguments. Containers nest under each other to form a namespace tree;
// aliases can point at names in the same container or at a service anywhere
// in the tree.
//
// Names are case-insensitive and ignore spaces ("Mail Transport" and
// "mailtransport" are the same key). They cannot contain "/", which separates
// namespace path segments.
//
// # Registering and resolving
//
//	c := container.New()
//	_ = c.Register(service.NewFactory("mailer", func(bc *container.BuildContext) (any, error) {
//	    return smtp.New(), nil
//	}))
//
//	m, err := c.Get("mailer")                       // built once, then cached
//	m2, err := c.Fresh("mailer")                    // rebuilt, replaces the cached one
//	cli, err := container.Resolve[*http.Client](c, "client", "api.example.com")
//
// Get with structurally equal arguments returns the same instance; different
// arguments get their own cache entry.
//
// # Aliases
//
//	c.Extend("mail", "mailer")                              // mail → mailer
//	c.ExtendNested("sysdir", "/filesystem/system", "folder") // window into another namespace
//
// # Namespaces
//
//	fs := container.New(container.WithNamespace("filesystem"))
//	_ = root.Nest(fs, "")                 // nests a clone at /filesystem
//	sys, err := root.From("/filesystem/system")
//	if ns, ok := root.With("cache"); ok { ... }
//
// From accepts absolute paths ("/a/b"), relative paths ("a/b") and ".." to
// climb to the parent.
//
// # Initializers
//
// Every container owns an InitializerChain. When a service is built, the
// chains of its container and of every ancestor run on the service
// descriptor, then again on the new instance. Higher priorities run first;
// equal priorities run in insertion order. Each container installs one
// initializer that injects the owning container into ContainerAware targets
// and the invocation arguments into InvocationArgsAware targets.
//
//	root.InitializerChain().AddCallback(func(target any, bc *container.BuildContext) error {
//	    if l, ok := target.(logging.Aware); ok {
//	        l.SetLogger(logger)
//	    }
//	    return nil
//	}, container.DefaultPriority)
//
// # Errors
//
// All operations return *Error values comparable with errors.Is against the
// package sentinels (ErrServiceNotFound, ErrDuplicateName, ...). Errors and
// panics raised while building an instance are reported as
// ErrServiceCreation with the original cause attached; a failed build never
// populates the cache.
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return app.Register(service.NewFactory("mailer", newMailer))
//	}
//
//	registry := container.NewProviderRegistry(c)
//	_ = registry.Register(&AppServiceProvider{})
//	_ = registry.Boot()
package container
