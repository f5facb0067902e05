// Package session holds the process-wide session cache: the viewer's identity,
// role and bearer credential, persisted across restarts and cleared globally
// when any request comes back with an authentication rejection.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pollmaster/console/internal/domain"
)

// AuthExchanger performs the credential exchanges against the backend. It is
// implemented by the API client; the manager owns what comes back.
type AuthExchanger interface {
	ExchangeLogin(ctx context.Context, email, password string) (*domain.Session, error)
	ExchangeRegister(ctx context.Context, name, email, password, role string) error
}

// Manager is the session cache. It is written by Login, Logout and Invalidate
// only, and read by every component that branches on authentication or role.
type Manager struct {
	mu        sync.RWMutex
	store     domain.SessionStore
	exchanger AuthExchanger
	session   *domain.Session

	// generation increments whenever a session is established, so a burst of
	// concurrent 401s against the same session collapses into one logout.
	generation     uint64
	logoutGroup    singleflight.Group
	onForcedLogout func(reason string)
}

// NewManager creates the manager and restores any persisted session. An
// expired or unreadable stored session is discarded rather than surfaced.
func NewManager(store domain.SessionStore) *Manager {
	m := &Manager{store: store}

	sess, err := store.Load()
	if err != nil {
		slog.Warn("Discarding unreadable stored session", "error", err)
		_ = store.Clear()
		return m
	}
	if sess == nil {
		return m
	}
	if expired, expiry := tokenExpired(sess.Token, time.Now()); expired {
		slog.Info("Discarding expired stored session", "expiry", expiry)
		_ = store.Clear()
		return m
	}

	m.session = sess
	m.generation = 1
	return m
}

// SetExchanger wires the API client in after construction. The client needs
// the manager for credentials and the manager needs the client for the login
// exchange, so one side binds late.
func (m *Manager) SetExchanger(exchanger AuthExchanger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exchanger = exchanger
}

// SetOnForcedLogout registers the hook invoked after a forced logout, used by
// the shell to navigate back to the login route.
func (m *Manager) SetOnForcedLogout(hook func(reason string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onForcedLogout = hook
}

// Current returns the active session, or nil when the viewer is logged out.
func (m *Manager) Current() *domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Token returns the bearer credential, empty when logged out. Used by the API
// client on every outbound call.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.Token
}

// IsAdmin reports whether the active session carries the admin role.
func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session != nil && m.session.User.IsAdmin()
}

// Login exchanges credentials for a session and makes it current. A rejected
// exchange surfaces as *apierr.AuthError and leaves the cache untouched.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	m.mu.RLock()
	exchanger := m.exchanger
	m.mu.RUnlock()
	if exchanger == nil {
		return nil, fmt.Errorf("session manager has no auth exchanger wired")
	}

	sess, err := exchanger.ExchangeLogin(ctx, email, password)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.session = sess
	m.generation++
	m.mu.Unlock()

	if err := m.store.Save(sess); err != nil {
		slog.Warn("Failed to persist session", "error", err)
	}
	slog.Info("Logged in", "user", sess.User.Email, "role", sess.User.Role)
	return sess, nil
}

// Register creates an account. It does not authenticate the caller; the
// original flow sends the user to the login form afterwards.
func (m *Manager) Register(ctx context.Context, name, email, password, role string) error {
	m.mu.RLock()
	exchanger := m.exchanger
	m.mu.RUnlock()
	if exchanger == nil {
		return fmt.Errorf("session manager has no auth exchanger wired")
	}
	return exchanger.ExchangeRegister(ctx, name, email, password, role)
}

// Logout clears the session deliberately.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		slog.Warn("Failed to clear persisted session", "error", err)
	}
	slog.Info("Logged out")
}

// Invalidate is the forced-logout side effect: any 401 from any request lands
// here, even one from a background fetch. Concurrent invalidations of the
// same session generation clear it exactly once and fire the hook once.
func (m *Manager) Invalidate(reason string) {
	m.mu.RLock()
	gen := m.generation
	hasSession := m.session != nil
	m.mu.RUnlock()
	if !hasSession {
		return
	}

	key := strconv.FormatUint(gen, 10)
	m.logoutGroup.Do(key, func() (interface{}, error) {
		m.mu.Lock()
		stillCurrent := m.session != nil && m.generation == gen
		if stillCurrent {
			m.session = nil
		}
		hook := m.onForcedLogout
		m.mu.Unlock()

		if !stillCurrent {
			return nil, nil
		}

		if err := m.store.Clear(); err != nil {
			slog.Warn("Failed to clear persisted session", "error", err)
		}
		slog.Warn("Session invalidated", "reason", reason)
		if hook != nil {
			hook(reason)
		}
		return nil, nil
	})
}
