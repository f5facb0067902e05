package views

import "github.com/pollmaster/console/internal/domain"

// Route identifies a navigable screen.
type Route string

const (
	RouteLogin      Route = "login"
	RouteRegister   Route = "register"
	RouteDashboard  Route = "dashboard"
	RoutePollDetail Route = "poll"
	RouteCreatePoll Route = "create"
	RouteProfile    Route = "profile"
)

// RequiresAuth reports whether the route needs a session.
func (r Route) RequiresAuth() bool {
	switch r {
	case RouteLogin, RouteRegister:
		return false
	default:
		return true
	}
}

// AdminOnly reports whether the route needs the admin role on top of a session.
func (r Route) AdminOnly() bool {
	return r == RouteCreatePoll
}

// Allow is the route guard predicate: true iff the route needs no auth, or a
// session exists and, for admin-only routes, carries the admin role.
func Allow(route Route, sess *domain.Session) bool {
	if !route.RequiresAuth() {
		return true
	}
	if sess == nil {
		return false
	}
	if route.AdminOnly() {
		return sess.User.IsAdmin()
	}
	return true
}

// RedirectTarget says where a denied navigation lands: the login route when
// there is no session, the dashboard when an authenticated non-admin hits an
// admin-only route. For an allowed navigation it returns the route itself.
func RedirectTarget(route Route, sess *domain.Session) Route {
	if Allow(route, sess) {
		return route
	}
	if sess == nil {
		return RouteLogin
	}
	return RouteDashboard
}
