// Package module mounts prefixed sub-applications, each with its own
// middleware stack, onto a single root handler.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/JaimeStill/cadence/pkg/middleware"
)

// Module is an HTTP handler that strips its prefix and delegates to an inner
// router wrapped in its own middleware stack.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System
}

// New creates a Module with the given single-level prefix (e.g. "/api").
// Panics if the prefix is empty, missing a leading slash, or multi-level.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use adds middleware to the module's stack.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.middleware.Use(mw)
}

// ServeHTTP strips the module prefix and dispatches to the wrapped router.
func (m *Module) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, m.prefix)
	if path == "" {
		path = "/"
	}

	inner := req.Clone(req.Context())
	inner.URL = new(url.URL)
	*inner.URL = *req.URL
	inner.URL.Path = path
	inner.URL.RawPath = ""

	m.middleware.Apply(m.router).ServeHTTP(w, inner)
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("module prefix cannot be empty")
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	}
	if strings.Count(prefix, "/") != 1 {
		return fmt.Errorf("module prefix must be single-level sub-path: %s", prefix)
	}
	return nil
}

// Router dispatches requests to mounted modules by their first path segment,
// falling back to a native ServeMux for everything else.
type Router struct {
	modules map[string]*Module
	native  *http.ServeMux
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{
		modules: make(map[string]*Module),
		native:  http.NewServeMux(),
	}
}

// HandleNative registers a handler on the fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Mount registers a module under its prefix.
func (r *Router) Mount(m *Module) {
	r.modules[m.prefix] = m
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req.URL.Path = strings.TrimSuffix(p, "/")
	}

	segment, _, _ := strings.Cut(strings.TrimPrefix(req.URL.Path, "/"), "/")
	if m, ok := r.modules["/"+segment]; ok {
		m.ServeHTTP(w, req)
		return
	}

	r.native.ServeHTTP(w, req)
}
