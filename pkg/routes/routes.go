// Package routes declares HTTP route groups and registers them on a ServeMux.
package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group organizes routes under a common prefix.
type Group struct {
	Prefix string
	Routes []Route
}

// Patterns returns the fully qualified ServeMux patterns for the group.
func (g Group) Patterns() []string {
	patterns := make([]string, len(g.Routes))
	for i, route := range g.Routes {
		patterns[i] = route.Method + " " + g.Prefix + route.Pattern
	}
	return patterns
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		for i, pattern := range group.Patterns() {
			mux.HandleFunc(pattern, group.Routes[i].Handler)
		}
	}
}
