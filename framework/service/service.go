// Package service holds the stock container.Service strategies: a factory
// closure, a pre-built instance and a functor over invocation arguments.
package service

import (
	"fmt"

	"github.com/km-arc/go-registry/framework/container"
)

// Option tunes a strategy's registration flags.
type Option func(*base)

// WithAllowOverride controls whether a later registration may replace the
// service. Services allow override unless told otherwise.
func WithAllowOverride(allow bool) Option {
	return func(b *base) { b.allowOverride = allow }
}

// WithAlwaysFresh makes every Get build a new instance.
func WithAlwaysFresh(fresh bool) Option {
	return func(b *base) { b.alwaysFresh = fresh }
}

type base struct {
	name          string
	allowOverride bool
	alwaysFresh   bool
}

func newBase(name string, opts []Option) base {
	b := base{name: name, allowOverride: true}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) Name() string        { return b.name }
func (b *base) AllowOverride() bool { return b.allowOverride }
func (b *base) AlwaysFresh() bool   { return b.alwaysFresh }

// ── Factory ───────────────────────────────────────────────────────────────────

// FactoryFunc builds an instance. bc.Container is the owning namespace, so a
// factory can pull its own dependencies:
//
//	func(bc *container.BuildContext) (any, error) {
//	    dir, err := bc.Container.From("files")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return dir.Get("folder")
//	}
type FactoryFunc func(bc *container.BuildContext) (any, error)

// Factory delegates construction to a closure.
type Factory struct {
	base
	fn FactoryFunc
}

// NewFactory returns a Factory service named name.
func NewFactory(name string, fn FactoryFunc, opts ...Option) *Factory {
	return &Factory{base: newBase(name, opts), fn: fn}
}

func (f *Factory) CreateService(bc *container.BuildContext) (any, error) {
	if f.fn == nil {
		return nil, fmt.Errorf("factory %q has no delegate", f.name)
	}
	return f.fn(bc)
}

// ── Instance ──────────────────────────────────────────────────────────────────

// Instance hands out a value built elsewhere.
type Instance struct {
	base
	value any
}

// NewInstance returns an Instance service for value.
//
//	c.Register(service.NewInstance("config", cfg))
func NewInstance(name string, value any, opts ...Option) *Instance {
	return &Instance{base: newBase(name, opts), value: value}
}

func (i *Instance) CreateService(*container.BuildContext) (any, error) {
	return i.value, nil
}

// ── Functor ───────────────────────────────────────────────────────────────────

// FunctorFunc receives the invocation arguments of the Get/Fresh call.
type FunctorFunc func(bc *container.BuildContext, args ...any) (any, error)

// Functor calls its closure with the invocation arguments. It is always fresh
// unless WithAlwaysFresh(false) is given.
//
//	c.Register(service.NewFunctor("greet", func(_ *container.BuildContext, args ...any) (any, error) {
//	    return fmt.Sprintf("%v %v", args[0], args[1]), nil
//	}))
//	v, _ := c.Get("greet", "hello", "world") // "hello world"
type Functor struct {
	base
	fn FunctorFunc
}

// NewFunctor returns a Functor service named name.
func NewFunctor(name string, fn FunctorFunc, opts ...Option) *Functor {
	opts = append([]Option{WithAlwaysFresh(true)}, opts...)
	return &Functor{base: newBase(name, opts), fn: fn}
}

func (f *Functor) CreateService(bc *container.BuildContext) (any, error) {
	if f.fn == nil {
		return nil, fmt.Errorf("functor %q has no callback", f.name)
	}
	return f.fn(bc, bc.Args...)
}
