package container

import "fmt"

// ── Plugin manager ────────────────────────────────────────────────────────────

// PluginValidator checks a plugin instance before it is handed out.
type PluginValidator func(plugin any) error

// Invokable plugins are called by PluginManager.Call instead of being returned.
type Invokable interface {
	Invoke(args ...any) (any, error)
}

// PluginManager decorates a Container so that every instance it returns has
// passed validation, e.g. "every view helper implements Helper".
//
//	helpers := container.NewPluginManager(container.New(), func(p any) error {
//	    if _, ok := p.(Helper); !ok {
//	        return fmt.Errorf("%T is not a Helper", p)
//	    }
//	    return nil
//	})
type PluginManager struct {
	*Container
	validate PluginValidator
}

// NewPluginManager wraps c. A nil validator accepts everything.
func NewPluginManager(c *Container, validate PluginValidator) *PluginManager {
	if validate == nil {
		validate = func(any) error { return nil }
	}
	return &PluginManager{Container: c, validate: validate}
}

// Get resolves name and validates the result.
func (p *PluginManager) Get(name string, args ...any) (any, error) {
	plugin, err := p.Container.Get(name, args...)
	if err != nil {
		return nil, err
	}
	return p.check(name, plugin)
}

// Fresh builds a new instance of name and validates it.
func (p *PluginManager) Fresh(name string, args ...any) (any, error) {
	plugin, err := p.Container.Fresh(name, args...)
	if err != nil {
		return nil, err
	}
	return p.check(name, plugin)
}

// Nest only accepts other plugin managers, so that every namespace below a
// plugin manager keeps validating.
func (p *PluginManager) Nest(child *PluginManager, namespace string) error {
	if child == nil {
		return newError(CodeInvalidPlugin, p.Path(), namespace, "nested plugin manager must not be nil", nil)
	}
	return p.Container.Nest(child.Container, namespace)
}

// From returns the plugin manager for a nested namespace, sharing this
// manager's validator.
func (p *PluginManager) From(path string) (*PluginManager, error) {
	c, err := p.Container.From(path)
	if err != nil {
		return nil, err
	}
	return &PluginManager{Container: c, validate: p.validate}, nil
}

// Call resolves name with no invocation args. An Invokable plugin is invoked
// with args and its result returned; any other plugin is returned as is.
//
//	out, err := helpers.Call("escape", "<b>")
func (p *PluginManager) Call(name string, args ...any) (any, error) {
	plugin, err := p.Get(name)
	if err != nil {
		return nil, err
	}
	if inv, ok := plugin.(Invokable); ok {
		return inv.Invoke(args...)
	}
	return plugin, nil
}

func (p *PluginManager) check(name string, plugin any) (any, error) {
	if err := p.validate(plugin); err != nil {
		return nil, newError(CodeInvalidPlugin, p.Path(), name,
			fmt.Sprintf("plugin %q (%T) failed validation", name, plugin), err)
	}
	return plugin, nil
}
