package container

import (
	"slices"
	"sync"
)

// DefaultPriority is the priority AddCallback users conventionally pass.
const DefaultPriority = 10

// awarenessPriority runs the built-in awareness injection before user
// initializers.
const awarenessPriority = 10000

// InitializerFunc is applied to every object a container produces: first to
// the service descriptor, then to the instance it created.
//
//	c.InitializerChain().AddCallback(func(target any, bc *container.BuildContext) error {
//	    if t, ok := target.(Tracer); ok {
//	        t.SetTraceName(bc.Name)
//	    }
//	    return nil
//	}, container.DefaultPriority)
type InitializerFunc func(target any, bc *BuildContext) error

type initializerEntry struct {
	fn       InitializerFunc
	chain    *InitializerChain
	priority int
	seq      uint64
}

// InitializerChain is an ordered set of initializers. Higher priority runs
// first; entries with equal priority run in insertion order.
type InitializerChain struct {
	mu              sync.RWMutex
	entries         []initializerEntry
	seq             uint64
	defaultPriority int
}

// NewInitializerChain returns an empty chain whose default priority, used when
// it is added to another chain via AddChain, is 0.
func NewInitializerChain() *InitializerChain {
	return &InitializerChain{}
}

// AddCallback appends fn with the given priority.
func (ch *InitializerChain) AddCallback(fn InitializerFunc, priority int) *InitializerChain {
	if fn == nil {
		return ch
	}
	ch.insert(initializerEntry{fn: fn, priority: priority})
	return ch
}

// AddChain nests sub under its own default priority.
func (ch *InitializerChain) AddChain(sub *InitializerChain) *InitializerChain {
	return ch.AddChainWithPriority(sub, sub.DefaultPriority())
}

// AddChainWithPriority nests sub under an explicit priority. When ch runs, sub
// runs on the same target at that position.
func (ch *InitializerChain) AddChainWithPriority(sub *InitializerChain, priority int) *InitializerChain {
	if sub == nil || sub == ch {
		return ch
	}
	ch.insert(initializerEntry{chain: sub, priority: priority})
	return ch
}

// DefaultPriority is the priority used when this chain is nested with AddChain.
func (ch *InitializerChain) DefaultPriority() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.defaultPriority
}

// SetDefaultPriority changes the priority used by AddChain.
func (ch *InitializerChain) SetDefaultPriority(p int) *InitializerChain {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.defaultPriority = p
	return ch
}

// Len returns the number of direct entries.
func (ch *InitializerChain) Len() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return len(ch.entries)
}

// Run applies every entry to target in order. The first error stops the run.
// Entries added while running take effect on the next run.
func (ch *InitializerChain) Run(target any, bc *BuildContext) error {
	for _, e := range ch.snapshot() {
		var err error
		if e.chain != nil {
			err = e.chain.Run(target, bc)
		} else {
			err = e.fn(target, bc)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (ch *InitializerChain) insert(e initializerEntry) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.seq++
	e.seq = ch.seq
	ch.entries = append(ch.entries, e)
	slices.SortStableFunc(ch.entries, compareEntries)
}

func compareEntries(a, b initializerEntry) int {
	if a.priority != b.priority {
		if a.priority > b.priority {
			return -1
		}
		return 1
	}
	switch {
	case a.seq < b.seq:
		return -1
	case a.seq > b.seq:
		return 1
	}
	return 0
}

func (ch *InitializerChain) snapshot() []initializerEntry {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return slices.Clone(ch.entries)
}

// clone deep-copies the chain, nested chains included. A sub-chain reached
// twice is copied once.
func (ch *InitializerChain) clone() *InitializerChain {
	return ch.cloneWith(make(map[*InitializerChain]*InitializerChain))
}

func (ch *InitializerChain) cloneWith(done map[*InitializerChain]*InitializerChain) *InitializerChain {
	if out, ok := done[ch]; ok {
		return out
	}
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	out := &InitializerChain{
		entries:         slices.Clone(ch.entries),
		seq:             ch.seq,
		defaultPriority: ch.defaultPriority,
	}
	done[ch] = out
	for i, e := range out.entries {
		if e.chain != nil {
			out.entries[i].chain = e.chain.cloneWith(done)
		}
	}
	return out
}

// injectAwareness is installed on every container. It uses the container from
// the build context, so ancestor chains inject the owning namespace too.
func injectAwareness(target any, bc *BuildContext) error {
	if bc == nil {
		return nil
	}
	if aware, ok := target.(ContainerAware); ok && bc.Container != nil {
		aware.SetContainer(bc.Container)
	}
	if aware, ok := target.(InvocationArgsAware); ok {
		aware.SetInvocationArgs(bc.Args)
	}
	return nil
}
