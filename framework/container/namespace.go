package container

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ── Nesting ───────────────────────────────────────────────────────────────────

// Nest attaches a clone of child (and its whole subtree) under namespace.
// An empty namespace falls back to the child's own. The same prototype can be
// nested under several parents; each gets independent state.
//
//	fs := container.New(container.WithNamespace("filesystem"))
//	root.Nest(fs, "")           // reachable as /filesystem
//	root.Nest(fs, "backup")     // a second, independent copy at /backup
func (c *Container) Nest(child *Container, namespace string) error {
	if child == nil {
		return newError(CodeInvalidName, c.Path(), namespace, "nested container must not be nil", nil)
	}
	if namespace == "" {
		namespace = child.Namespace()
	}
	if namespace == "" {
		return newError(CodeInvalidName, c.Path(), "", "namespace must be set to nest a container", nil)
	}
	key, err := c.canonical(namespace)
	if err != nil {
		return err
	}
	if key == "." || key == ".." {
		return newError(CodeInvalidName, c.Path(), namespace, "namespace cannot be a relative path segment", nil)
	}

	// Clone before taking the lock: child may be c itself.
	nested := child.cloneTree()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.children[key]; ok {
		return newError(CodeDuplicateName, c.Path(), namespace,
			fmt.Sprintf("namespace %q already exists", namespace), nil)
	}
	nested.namespace = key
	nested.parent = c
	c.children[key] = nested

	c.logger.Debug("namespace nested",
		zap.String("namespace", c.Path()),
		zap.String("child", key),
		zap.String("child_id", nested.id),
	)
	return nil
}

// Clone returns a detached deep copy of c and its subtree.
func (c *Container) Clone() *Container {
	return c.cloneTree()
}

func (c *Container) cloneTree() *Container {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := &Container{
		id:          uuid.NewString(),
		namespace:   c.namespace,
		children:    make(map[string]*Container, len(c.children)),
		services:    maps.Clone(c.services),
		interfaces:  maps.Clone(c.interfaces),
		aliases:     c.aliases.clone(),
		cache:       c.cache.clone(),
		names:       newCanonicalizer(),
		initializer: c.initializer.clone(),
		building:    make(map[string]struct{}),
		logger:      c.logger,
		recorder:    c.recorder,
	}
	for key, child := range c.children {
		cc := child.cloneTree()
		cc.parent = out
		out.children[key] = cc
	}
	return out
}

// ── Lookup ────────────────────────────────────────────────────────────────────

// From returns the namespace at path, relative to c. A leading separator
// starts at the root, ".." climbs to the parent, and an empty path is c.
// Backslashes are accepted as separators.
//
//	c.From("filesystem/system")
//	c.From("/filesystem")      // from the root
//	c.From("../sibling")
func (c *Container) From(path string) (*Container, error) {
	p := canonicalPath(path)
	cur := c
	if strings.HasPrefix(p, Separator) {
		cur = c.Root()
	}
	p = strings.Trim(p, Separator)
	if p == "" {
		return cur, nil
	}

	for _, seg := range strings.Split(p, Separator) {
		switch seg {
		case "", ".":
			continue
		case "..":
			if cur.parent == nil {
				return nil, c.namespaceNotFound(path, "cannot ascend above the root")
			}
			cur = cur.parent
		default:
			key, err := cur.canonical(seg)
			if err != nil {
				return nil, err
			}
			next, ok := cur.child(key)
			if !ok {
				return nil, c.namespaceNotFound(path, fmt.Sprintf("no nested container %q under %s", seg, cur.Path()))
			}
			cur = next
		}
	}
	return cur, nil
}

// With is From without the error: ok is false when path does not exist.
func (c *Container) With(path string) (*Container, bool) {
	ns, err := c.From(path)
	if err != nil {
		return nil, false
	}
	return ns, true
}

// Ensure returns the direct child namespace, creating an empty one first if
// it does not exist.
func (c *Container) Ensure(namespace string) (*Container, error) {
	key, err := c.canonical(namespace)
	if err != nil {
		return nil, err
	}
	if child, ok := c.child(key); ok {
		return child, nil
	}
	if err := c.Nest(New(WithLogger(c.logger), WithRecorder(c.recorder)), key); err != nil {
		return nil, err
	}
	child, _ := c.child(key)
	return child, nil
}

// ── Tree ──────────────────────────────────────────────────────────────────────

// Parent returns the container c is nested in, or nil for a root.
func (c *Container) Parent() *Container { return c.parent }

// Root walks parents to the top of the tree.
func (c *Container) Root() *Container {
	cur := c
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Path is the absolute namespace path of c: "/" for the root, "/a/b" below.
func (c *Container) Path() string {
	if c.parent == nil {
		return Separator
	}
	var segs []string
	for n := c; n.parent != nil; n = n.parent {
		segs = append(segs, n.namespace)
	}
	slices.Reverse(segs)
	return Separator + strings.Join(segs, Separator)
}

// Children returns the direct child namespaces ordered by namespace.
func (c *Container) Children() []*Container {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Container, 0, len(c.children))
	for _, key := range slices.Sorted(maps.Keys(c.children)) {
		out = append(out, c.children[key])
	}
	return out
}

func (c *Container) child(key string) (*Container, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.children[key]
	return ch, ok
}

func (c *Container) namespaceNotFound(path, reason string) error {
	return newError(CodeNamespaceNotFound, c.Path(), path,
		fmt.Sprintf("namespace %q not found: %s", path, reason), nil)
}
