package routes

import (
	"fmt"
	"net/http"
)

// Group collects the routes of one resource under a shared path prefix.
// Children inherit the prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Patterns returns every ServeMux pattern the group expands to, parents
// before children.
func (g Group) Patterns() []string {
	var out []string
	g.walk("", func(pattern string, _ http.HandlerFunc) {
		out = append(out, pattern)
	})
	return out
}

func (g Group) walk(parent string, visit func(string, http.HandlerFunc)) {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		visit(r.pattern(prefix), r.Handler)
	}
	for _, child := range g.Children {
		child.walk(prefix, visit)
	}
}

// Register adds every route of groups to mux and returns the registered
// patterns in order. A pattern repeated across groups panics with both
// occurrences named, the way ServeMux does for a conflicting registration.
func Register(mux *http.ServeMux, groups ...Group) []string {
	var registered []string
	seen := make(map[string]int)

	for i, g := range groups {
		g.walk("", func(pattern string, h http.HandlerFunc) {
			if prev, ok := seen[pattern]; ok {
				panic(fmt.Sprintf("routes: %q registered by group %d and group %d", pattern, prev, i))
			}
			seen[pattern] = i
			mux.HandleFunc(pattern, h)
			registered = append(registered, pattern)
		})
	}

	return registered
}
