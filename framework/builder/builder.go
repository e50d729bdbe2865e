// Package builder assembles container trees from declarative definitions.
package builder

import (
	"fmt"
	"maps"
	"slices"

	"github.com/km-arc/go-registry/framework/container"
)

// Builder applies Definitions using the classes and initializers of a Catalog.
type Builder struct {
	catalog *Catalog
	opts    []container.Option
}

// New returns a Builder. opts are passed to every container it creates, so
// a whole tree shares one logger and recorder.
func New(catalog *Catalog, opts ...container.Option) *Builder {
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &Builder{catalog: catalog, opts: opts}
}

// Build creates a container named def.Namespace and applies def to it.
func (b *Builder) Build(def *Definition) (*container.Container, error) {
	opts := slices.Clone(b.opts)
	if def != nil && def.Namespace != "" {
		opts = append(opts, container.WithNamespace(def.Namespace))
	}
	c := container.New(opts...)
	if err := b.Apply(c, def); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply configures an existing container. Initializers go first, since
// nested containers and services may be built while the rest is applied;
// then nested containers, aliases and services. Map entries are applied in
// key order.
func (b *Builder) Apply(c *container.Container, def *Definition) error {
	if def == nil {
		return nil
	}
	steps := []func(*container.Container, *Definition) error{
		b.applyInitializers,
		b.applyNested,
		b.applyAliases,
		b.applyServices,
	}
	for _, step := range steps {
		if err := step(c, def); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) applyInitializers(c *container.Container, def *Definition) error {
	for _, in := range def.Initializers {
		entry, ok := b.catalog.initializer(in.Name)
		if !ok {
			return fmt.Errorf("builder %s: %w: unknown initializer %q", c.Path(), container.ErrConfiguration, in.Name)
		}
		priority := entry.priority
		if in.Priority != nil {
			priority = *in.Priority
		}
		c.InitializerChain().AddCallback(entry.fn, priority)
	}
	return nil
}

func (b *Builder) applyNested(c *container.Container, def *Definition) error {
	for _, ns := range slices.Sorted(maps.Keys(def.Nested)) {
		child, err := b.Build(def.Nested[ns])
		if err != nil {
			return fmt.Errorf("builder %s: nested %q: %w", c.Path(), ns, err)
		}
		if err := c.Nest(child, ns); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) applyAliases(c *container.Container, def *Definition) error {
	for _, alias := range slices.Sorted(maps.Keys(def.Aliases)) {
		target, err := aliasTarget(alias, def.Aliases[alias])
		if err != nil {
			return err
		}
		if target.Nested() {
			err = c.ExtendNested(alias, target.Namespace, target.Name)
		} else {
			err = c.Extend(alias, target.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) applyServices(c *container.Container, def *Definition) error {
	for _, name := range slices.Sorted(maps.Keys(def.Services)) {
		sd := def.Services[name]
		ctor, ok := b.catalog.class(sd.Class)
		if !ok {
			return fmt.Errorf("builder %s: %w: service %q has unknown class %q",
				c.Path(), container.ErrConfiguration, name, sd.Class)
		}
		svc, err := ctor(name, sd)
		if err != nil {
			return fmt.Errorf("builder %s: service %q: %w", c.Path(), name, err)
		}
		if err := c.Register(svc); err != nil {
			return err
		}
	}
	return nil
}
