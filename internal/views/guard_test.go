package views

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pollmaster/console/internal/domain"
)

func TestRouteGuard(t *testing.T) {
	admin := &domain.Session{User: domain.User{Role: domain.RoleAdmin}}
	user := &domain.Session{User: domain.User{Role: domain.RoleUser}}

	tests := []struct {
		name         string
		route        Route
		sess         *domain.Session
		wantAllowed  bool
		wantRedirect Route
	}{
		{"login open to everyone", RouteLogin, nil, true, RouteLogin},
		{"register open to everyone", RouteRegister, nil, true, RouteRegister},
		{"dashboard needs session", RouteDashboard, nil, false, RouteLogin},
		{"dashboard with session", RouteDashboard, user, true, RouteDashboard},
		{"detail needs session", RoutePollDetail, nil, false, RouteLogin},
		{"detail with session", RoutePollDetail, user, true, RoutePollDetail},
		{"profile needs session", RouteProfile, nil, false, RouteLogin},
		{"create denied to regular user", RouteCreatePoll, user, false, RouteDashboard},
		{"create allowed for admin", RouteCreatePoll, admin, true, RouteCreatePoll},
		{"create without session goes to login", RouteCreatePoll, nil, false, RouteLogin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantAllowed, Allow(tt.route, tt.sess))
			assert.Equal(t, tt.wantRedirect, RedirectTarget(tt.route, tt.sess))
		})
	}
}
