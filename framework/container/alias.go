package container

import (
	"fmt"
	"strings"
)

// AliasTarget is where an alias points: a plain name in the same container,
// or, when Namespace is set, the service Name inside the container reached by
// that path.
type AliasTarget struct {
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name"`
}

// Nested reports whether the target redirects into another namespace.
func (t AliasTarget) Nested() bool { return t.Namespace != "" }

func (t AliasTarget) String() string {
	if !t.Nested() {
		return t.Name
	}
	return fmt.Sprintf("[%s, %s]", t.Namespace, t.Name)
}

// aliasTable maps canonical alias names to their targets. Targets are stored
// as given and canonicalized while chasing, so they may name services that are
// registered later.
type aliasTable struct {
	entries map[string]AliasTarget
}

func newAliasTable() *aliasTable {
	return &aliasTable{entries: make(map[string]AliasTarget)}
}

func (t *aliasTable) has(key string) bool {
	_, ok := t.entries[key]
	return ok
}

func (t *aliasTable) set(key string, target AliasTarget) {
	t.entries[key] = target
}

func (t *aliasTable) clone() *aliasTable {
	out := newAliasTable()
	for k, v := range t.entries {
		out.entries[k] = v
	}
	return out
}

// resolve follows plain targets until a name with no alias, or a nested
// target, is reached. A name that was never aliased comes back unchanged.
// canon is the owning container's canonicalizer.
func (t *aliasTable) resolve(name string, canon func(string) (string, error)) (AliasTarget, error) {
	current := AliasTarget{Name: name}
	visited := make(map[string]struct{})
	var chain []string

	for {
		key, err := canon(current.Name)
		if err != nil {
			return AliasTarget{}, err
		}
		next, ok := t.entries[key]
		if !ok {
			return current, nil
		}
		if _, seen := visited[key]; seen {
			return AliasTarget{}, newError(CodeConfiguration, "", name, fmt.Sprintf(
				"alias cycle detected: %s -> %s", strings.Join(chain, " -> "), current.Name), nil)
		}
		visited[key] = struct{}{}
		chain = append(chain, current.Name)

		if next.Nested() {
			return next, nil
		}
		current = next
	}
}
