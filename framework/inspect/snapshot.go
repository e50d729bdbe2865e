// Package inspect exposes a read-only view of a registry tree, as JSON over
// HTTP and as plain values for the CLI.
package inspect

import (
	"github.com/km-arc/go-registry/framework/container"
)

// Node is a point-in-time description of one container and its subtree.
type Node struct {
	ID        string                           `json:"id"`
	Namespace string                           `json:"namespace"`
	Path      string                           `json:"path"`
	Services  []string                         `json:"services"`
	Aliases   map[string]container.AliasTarget `json:"aliases,omitempty"`
	Cached    int                              `json:"cached"`
	Children  []Node                           `json:"children,omitempty"`
}

// Snapshot describes c and everything nested below it. depth limits how many
// levels of children are included; a negative depth means all of them.
func Snapshot(c *container.Container, depth int) Node {
	n := Node{
		ID:        c.ID(),
		Namespace: c.Namespace(),
		Path:      c.Path(),
		Services:  c.Services(),
		Cached:    c.CachedInstances(),
	}
	if aliases := c.Aliases(); len(aliases) > 0 {
		n.Aliases = aliases
	}
	if depth == 0 {
		return n
	}
	for _, child := range c.Children() {
		n.Children = append(n.Children, Snapshot(child, depth-1))
	}
	return n
}

// Count returns the number of containers in the snapshot.
func (n Node) Count() int {
	total := 1
	for _, ch := range n.Children {
		total += ch.Count()
	}
	return total
}
