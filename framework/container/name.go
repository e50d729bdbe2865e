package container

import (
	"strings"
	"sync"
)

// Separator splits namespace segments in a path ("/filesystem/system").
const Separator = "/"

// pathSeparatorAlt is accepted in path arguments and mapped to Separator.
const pathSeparatorAlt = `\`

// canonicalizer turns raw service, alias and namespace names into comparison
// keys. Results are memoized per raw string; the memo belongs to one container.
type canonicalizer struct {
	mu   sync.Mutex
	memo map[string]string
}

func newCanonicalizer() *canonicalizer {
	return &canonicalizer{memo: make(map[string]string)}
}

// canonicalize lower-cases raw and strips spaces. Names may not contain the
// namespace separator.
func (n *canonicalizer) canonicalize(raw string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if key, ok := n.memo[raw]; ok {
		return key, nil
	}
	if raw == "" {
		return "", invalidName("", raw, "name must be a non-empty string")
	}
	if strings.Contains(raw, Separator) {
		return "", invalidName("", raw, "name cannot contain the namespace separator "+Separator)
	}

	key := strings.ToLower(strings.ReplaceAll(raw, " ", ""))
	if key == "" {
		return "", invalidName("", raw, "name must be a non-empty string")
	}
	n.memo[raw] = key
	return key, nil
}

// canonicalPath normalizes a namespace path argument: backslashes become the
// separator and spaces are removed. Segments are canonicalized by the caller.
func canonicalPath(raw string) string {
	return strings.ReplaceAll(strings.ReplaceAll(raw, pathSeparatorAlt, Separator), " ", "")
}
