package builder

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/km-arc/go-registry/framework/container"
	"github.com/km-arc/go-registry/framework/service"
)

// ServiceConstructor turns a definition entry into a Service. name is the
// key the entry was declared under.
type ServiceConstructor func(name string, def ServiceDefinition) (container.Service, error)

type initializerEntry struct {
	fn       container.InitializerFunc
	priority int
}

// Catalog is the set of service classes and named initializers a Definition
// may refer to. Lookups are case-insensitive.
type Catalog struct {
	mu           sync.RWMutex
	classes      map[string]ServiceConstructor
	initializers map[string]initializerEntry
}

// NewCatalog returns a catalog holding the built-in classes:
//
//   - instance: hands out options.value as is
//   - options:  hands out the options map itself, a plain configuration bag
func NewCatalog() *Catalog {
	c := &Catalog{
		classes:      make(map[string]ServiceConstructor),
		initializers: make(map[string]initializerEntry),
	}
	c.RegisterClass("instance", instanceClass)
	c.RegisterClass("options", optionsClass)
	return c
}

// RegisterClass adds or replaces a service class.
//
//	cat.RegisterClass("smtp", func(name string, def builder.ServiceDefinition) (container.Service, error) {
//	    host, _ := def.Options["host"].(string)
//	    return service.NewFactory(name, func(*container.BuildContext) (any, error) {
//	        return smtp.Dial(host)
//	    }, def.ServiceOptions()...), nil
//	})
func (c *Catalog) RegisterClass(class string, ctor ServiceConstructor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.classes[strings.ToLower(class)] = ctor
}

// RegisterInitializer adds or replaces a named initializer.
func (c *Catalog) RegisterInitializer(name string, fn container.InitializerFunc, priority int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initializers[strings.ToLower(name)] = initializerEntry{fn: fn, priority: priority}
}

// Classes lists the registered class names, sorted.
func (c *Catalog) Classes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.classes))
}

func (c *Catalog) class(name string) (ServiceConstructor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ctor, ok := c.classes[strings.ToLower(name)]
	return ctor, ok
}

func (c *Catalog) initializer(name string) (initializerEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.initializers[strings.ToLower(name)]
	return e, ok
}

// ── built-in classes ──────────────────────────────────────────────────────────

func instanceClass(name string, def ServiceDefinition) (container.Service, error) {
	value, ok := def.Options["value"]
	if !ok {
		return nil, fmt.Errorf("builder: %w: instance %q needs options.value", container.ErrConfiguration, name)
	}
	return service.NewInstance(name, value, def.ServiceOptions()...), nil
}

func optionsClass(name string, def ServiceDefinition) (container.Service, error) {
	bag := maps.Clone(def.Options)
	if bag == nil {
		bag = map[string]any{}
	}
	return service.NewInstance(name, bag, def.ServiceOptions()...), nil
}

// ServiceOptions translates the registration flags of def, for use by class
// constructors.
func (def ServiceDefinition) ServiceOptions() []service.Option {
	opts := []service.Option{service.WithAlwaysFresh(def.AlwaysFresh)}
	if def.AllowOverride != nil {
		opts = append(opts, service.WithAllowOverride(*def.AllowOverride))
	}
	return opts
}
