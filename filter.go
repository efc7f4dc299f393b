package rentalAuth

import "strings"

// pathMatcher decides which request paths pass through the authentication
// filter. Patterns are exact paths or prefixes ending in "/*".
type pathMatcher struct {
	exact    map[string]struct{}
	prefixes []string
}

func newPathMatcher(patterns []string) pathMatcher {
	m := pathMatcher{exact: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "/*"); ok {
			m.prefixes = append(m.prefixes, prefix)
			continue
		}
		m.exact[p] = struct{}{}
	}
	return m
}

func (m pathMatcher) match(path string) bool {
	if _, ok := m.exact[path]; ok {
		return true
	}
	for _, prefix := range m.prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
