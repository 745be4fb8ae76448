package routes

import (
	"net/http"
	"strings"
)

// Route binds an HTTP method and a pattern, relative to its group, to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// pattern renders the ServeMux pattern for r mounted under prefix.
// An empty Method matches every method.
func (r Route) pattern(prefix string) string {
	path := prefix + r.Pattern
	if path == "" {
		path = "/"
	}
	if r.Method == "" {
		return path
	}
	return strings.ToUpper(r.Method) + " " + path
}
