package indexer

import "strings"

// defaultSystemPrefixes are the path prefixes treated as system includes when
// the host does not configure its own set.
var defaultSystemPrefixes = []string{
	"/usr/include",
	"/usr/local/include",
	"/usr/lib",
}

// SystemPathPredicate returns a pure predicate reporting whether a path lies
// under one of the given prefixes. Files matching the predicate contribute no
// dependency edges and no PCH dependency entries.
func SystemPathPredicate(prefixes []string) func(string) bool {
	if prefixes == nil {
		prefixes = defaultSystemPrefixes
	}

	return func(path string) bool {
		for _, prefix := range prefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}

		return false
	}
}
