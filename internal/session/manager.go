// Package session orchestrates the sign-in lifecycle: login, logout,
// profile caching, and proactive expiry monitoring.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dentavia/portal/internal/api"
	"github.com/dentavia/portal/internal/token"
	"github.com/dentavia/portal/pkg/logging"
)

// State is the authentication state of the portal process.
type State int

const (
	// StateUnknown is the state before Initialize has run.
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// expiryThreshold is how close to expiry the monitor lets the access token
// get before forcing a sign-out. Ending the session proactively beats
// surfacing a failed user action because the token aged out mid-flow.
const expiryThreshold = time.Minute

// Manager owns session state. All methods are safe for concurrent use.
type Manager struct {
	client *api.Client
	store  token.Store
	logger *logging.Logger
	now    func() time.Time

	mu    sync.Mutex
	state State
	user  *api.User
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock substitutes the time source. Tests freeze it.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a session manager over the given client and store.
func NewManager(client *api.Client, store token.Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		client: client,
		store:  store,
		logger: logging.Default(),
		now:    time.Now,
		state:  StateUnknown,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize restores the session at process start. With no stored tokens it
// settles on unauthenticated without touching the network. With a stored but
// locally-expired access token it clears storage and settles on
// unauthenticated, again without a network call. Otherwise it validates the
// session by fetching the profile.
func (m *Manager) Initialize(ctx context.Context) error {
	tokens, ok := m.store.ReadTokens()
	if !ok {
		m.setState(StateUnauthenticated, nil)
		return nil
	}

	claims := token.Inspect(tokens.Access)
	if claims.Expired(m.now()) {
		m.logger.Info("stored access token expired, discarding session")
		m.clearSession()
		return nil
	}

	user, err := m.client.CurrentUser(ctx)
	if err != nil {
		m.logger.Warn("session restore failed, discarding session", "error", err)
		m.clearSession()
		return fmt.Errorf("session: restore: %w", err)
	}

	m.cacheProfile(user)
	m.setState(StateAuthenticated, user)
	m.logger.Info("session restored", "user_id", user.ID, "role", user.Role)
	return nil
}

// Login signs in with email and password. The token pair is persisted as
// soon as the token call succeeds so the follow-up profile fetch can use it;
// if that fetch fails the tokens are rolled back — an authenticated session
// without a known profile is not a permitted state.
func (m *Manager) Login(ctx context.Context, email, password string) (*api.User, error) {
	pair, err := m.client.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("session: login: %w", err)
	}

	if err := m.store.SaveTokens(pair.Access, pair.Refresh); err != nil {
		return nil, fmt.Errorf("session: persist tokens: %w", err)
	}

	user, err := m.client.CurrentUser(ctx)
	if err != nil {
		// Roll back: no tokens may outlive a failed profile fetch.
		m.clearSession()
		return nil, fmt.Errorf("session: fetch profile after login: %w", err)
	}

	m.cacheProfile(user)
	m.setState(StateAuthenticated, user)
	m.logger.Info("signed in", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Logout clears the session unconditionally. It cannot fail.
func (m *Manager) Logout() {
	m.clearSession()
	m.logger.Info("signed out")
}

// RefreshProfile re-fetches the profile. On failure the cached profile and
// the authentication state are kept; the caller decides whether the failure
// is fatal.
func (m *Manager) RefreshProfile(ctx context.Context) (*api.User, error) {
	user, err := m.client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: refresh profile: %w", err)
	}
	m.cacheProfile(user)

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
	return user, nil
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated reports whether a signed-in user is present.
func (m *Manager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// CurrentUser returns the cached profile, falling back to the persisted
// snapshot. The profile is advisory: it is never fresher than the last
// successful fetch.
func (m *Manager) CurrentUser() *api.User {
	m.mu.Lock()
	user := m.user
	m.mu.Unlock()
	if user != nil {
		return user
	}

	data, ok := m.store.ReadProfile()
	if !ok {
		return nil
	}
	var cached api.User
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupt cache reads as absent.
		return nil
	}
	return &cached
}

// HasRole reports whether the cached profile carries the role. False when
// no profile is present.
func (m *Manager) HasRole(role string) bool {
	user := m.CurrentUser()
	return user != nil && user.Role == role
}

// HasAnyRole reports whether the cached profile carries any of the roles.
func (m *Manager) HasAnyRole(roles ...string) bool {
	user := m.CurrentUser()
	if user == nil {
		return false
	}
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

// Permissions returns the permission set derived from the cached role.
// Client-side only — the backend re-checks every protected operation.
func (m *Manager) Permissions() []string {
	user := m.CurrentUser()
	if user == nil {
		return nil
	}
	switch user.Role {
	case api.RoleAdmin:
		return []string{"all"}
	case api.RoleDentist:
		return []string{
			"view_patients", "edit_patients",
			"view_appointments", "edit_appointments",
			"view_treatments",
		}
	case api.RolePatient:
		return []string{"view_own_appointments", "view_own_treatments"}
	default:
		return nil
	}
}

// HasPermission reports whether the cached role grants the permission.
func (m *Manager) HasPermission(permission string) bool {
	for _, p := range m.Permissions() {
		if p == "all" || p == permission {
			return true
		}
	}
	return false
}

// RunExpiryMonitor watches the access token and forces a sign-out shortly
// before it expires, instead of letting the next request fail. Blocks until
// ctx is cancelled; run it in its own goroutine.
func (m *Manager) RunExpiryMonitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkExpiry()
		}
	}
}

func (m *Manager) checkExpiry() {
	tokens, ok := m.store.ReadTokens()
	if !ok {
		return
	}
	claims := token.Inspect(tokens.Access)
	if claims.ExpiringWithin(m.now(), expiryThreshold) {
		m.logger.Warn("access token about to expire, signing out",
			"remaining", claims.Remaining(m.now()).String())
		m.Logout()
	}
}

func (m *Manager) setState(state State, user *api.User) {
	m.mu.Lock()
	m.state = state
	m.user = user
	m.mu.Unlock()
}

func (m *Manager) clearSession() {
	if err := m.store.Clear(); err != nil {
		m.logger.Error("failed to clear session store", "error", err)
	}
	m.setState(StateUnauthenticated, nil)
}

func (m *Manager) cacheProfile(user *api.User) {
	data, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := m.store.SaveProfile(data); err != nil {
		m.logger.Warn("failed to cache profile", "error", err)
	}
}
