// Package guard decides whether navigation to a route is allowed for the
// current session state.
package guard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/memorymap/internal/errors"
	"github.com/felixgeelhaar/memorymap/internal/sessionctx"
)

// Routes known to the client.
const (
	RouteRoot      = "/"
	RouteLogin     = "/login"
	RouteRegister  = "/register"
	RouteDashboard = "/dashboard"
	RouteProfile   = "/profile"
)

// Decision is the outcome of a guard check.
type Decision struct {
	Allow    bool
	Redirect string
}

// Decide allows protected content only when loading has completed and a user
// is present; otherwise it redirects to the login route. Token expiry is not
// checked.
func Decide(state sessionctx.State) Decision {
	if state.Authenticated() {
		return Decision{Allow: true}
	}
	return Decision{Redirect: RouteLogin}
}

// Route is an entry of the route table.
type Route struct {
	Path      string
	Protected bool
	// RedirectTo, when set, sends navigation elsewhere unconditionally.
	RedirectTo string
}

// Router resolves paths against a route table.
type Router struct {
	routes map[string]Route
}

// DefaultRoutes is the client's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Path: RouteLogin},
		{Path: RouteRegister},
		{Path: RouteProfile, Protected: true},
		{Path: RouteDashboard, Protected: true},
		{Path: RouteRoot, RedirectTo: RouteDashboard},
	}
}

// NewRouter creates a router over routes. With no routes, DefaultRoutes is used.
func NewRouter(routes ...Route) *Router {
	if len(routes) == 0 {
		routes = DefaultRoutes()
	}
	r := &Router{routes: make(map[string]Route, len(routes))}
	for _, route := range routes {
		r.routes[route.Path] = route
	}
	return r
}

// Resolution is the result of resolving a navigation.
type Resolution struct {
	// Requested is the normalized path that was asked for.
	Requested string
	// Path is where navigation ends up.
	Path string
	// Redirected reports whether Path differs from Requested.
	Redirected bool
}

// Resolve follows unconditional redirects and applies protection for state.
// Unknown paths fail with a route-not-found error.
func (r *Router) Resolve(path string, state sessionctx.State) (Resolution, error) {
	requested := Normalize(path)
	current := requested

	seen := map[string]bool{}
	for {
		route, ok := r.routes[current]
		if !ok {
			return Resolution{}, errors.New(errors.ErrCodeRouteNotFound, fmt.Sprintf("no route for %s", current)).
				WithSuggestion("Known routes: " + strings.Join(r.Paths(), ", "))
		}
		if seen[current] {
			return Resolution{}, errors.New(errors.ErrCodeRouteNotFound, fmt.Sprintf("redirect loop at %s", current))
		}
		seen[current] = true

		if route.RedirectTo != "" {
			current = route.RedirectTo
			continue
		}
		if route.Protected {
			if d := Decide(state); !d.Allow {
				current = d.Redirect
				continue
			}
		}
		return Resolution{Requested: requested, Path: current, Redirected: current != requested}, nil
	}
}

// Paths lists the known routes in sorted order.
func (r *Router) Paths() []string {
	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Normalize adds a leading slash and drops a trailing one.
func Normalize(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
