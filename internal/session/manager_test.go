package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentavia/portal/internal/api"
	"github.com/dentavia/portal/internal/config"
	"github.com/dentavia/portal/internal/tenant"
	"github.com/dentavia/portal/internal/token"
	"github.com/dentavia/portal/pkg/logging"
)

func mintToken(t *testing.T, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": float64(7),
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(expiresIn).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// testBackend is a fake clinic backend that counts every request it sees.
type testBackend struct {
	server *httptest.Server
	hits   atomic.Int64
}

func newTestBackend(t *testing.T, handler http.Handler) *testBackend {
	t.Helper()
	b := &testBackend{}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func newTestManager(t *testing.T, baseURL string, store token.Store) *Manager {
	t.Helper()
	cfg := &config.Config{APIBaseURL: baseURL}
	resolver := tenant.NewResolverWithLoader(func() *config.Config { return cfg })
	client := api.NewClient(resolver, store, 5*time.Second, api.WithLogger(logging.Discard()))
	return NewManager(client, store, WithLogger(logging.Discard()))
}

func profileHandler(t *testing.T, user api.User) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/usuarios/me/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(user)
	})
	return mux
}

func TestInitializeWithoutTokens(t *testing.T) {
	backend := newTestBackend(t, profileHandler(t, api.User{ID: 7}))
	store := token.NewMemoryStore()
	m := newTestManager(t, backend.server.URL, store)

	require.NoError(t, m.Initialize(context.Background()))

	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Equal(t, int64(0), backend.hits.Load(), "no network call without stored tokens")
}

func TestInitializeWithExpiredToken(t *testing.T) {
	backend := newTestBackend(t, profileHandler(t, api.User{ID: 7}))
	store := token.NewMemoryStore()
	require.NoError(t, store.SaveTokens(mintToken(t, -time.Hour), "refresh-1"))
	m := newTestManager(t, backend.server.URL, store)

	require.NoError(t, m.Initialize(context.Background()))

	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Equal(t, int64(0), backend.hits.Load(), "local expiry check must not touch the network")

	_, ok := store.ReadTokens()
	assert.False(t, ok, "expired session is discarded from storage")
}

func TestInitializeRestoresSession(t *testing.T) {
	backend := newTestBackend(t, profileHandler(t, api.User{ID: 7, Email: "dr@clinic.test", Role: api.RoleDentist}))
	store := token.NewMemoryStore()
	require.NoError(t, store.SaveTokens(mintToken(t, time.Hour), "refresh-1"))
	m := newTestManager(t, backend.server.URL, store)

	require.NoError(t, m.Initialize(context.Background()))

	assert.Equal(t, StateAuthenticated, m.State())
	require.NotNil(t, m.CurrentUser())
	assert.Equal(t, int64(7), m.CurrentUser().ID)

	// The fetched profile is persisted for the next process start.
	data, ok := store.ReadProfile()
	require.True(t, ok)
	var cached api.User
	require.NoError(t, json.Unmarshal(data, &cached))
	assert.Equal(t, "dr@clinic.test", cached.Email)
}

func TestInitializeDiscardsOnProfileFailure(t *testing.T) {
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"boom"}`))
	}))
	store := token.NewMemoryStore()
	require.NoError(t, store.SaveTokens(mintToken(t, time.Hour), "refresh-1"))
	m := newTestManager(t, backend.server.URL, store)

	err := m.Initialize(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateUnauthenticated, m.State())

	_, ok := store.ReadTokens()
	assert.False(t, ok)
}

func TestLogin(t *testing.T) {
	access := mintToken(t, time.Hour)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token/", func(w http.ResponseWriter, r *http.Request) {
		var creds api.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "dr@clinic.test", creds.Email)
		json.NewEncoder(w).Encode(api.TokenPair{Access: access, Refresh: "refresh-1"})
	})
	mux.HandleFunc("/api/usuarios/me/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+access, r.Header.Get("Authorization"),
			"profile fetch uses the just-issued token")
		json.NewEncoder(w).Encode(api.User{ID: 7, Role: api.RoleDentist})
	})
	backend := newTestBackend(t, mux)

	store := token.NewMemoryStore()
	m := newTestManager(t, backend.server.URL, store)

	user, err := m.Login(context.Background(), "dr@clinic.test", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, StateAuthenticated, m.State())

	tokens, ok := store.ReadTokens()
	require.True(t, ok)
	assert.Equal(t, access, tokens.Access)
	assert.Equal(t, "refresh-1", tokens.Refresh)
}

func TestLoginRollsBackOnProfileFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.TokenPair{Access: mintToken(t, time.Hour), Refresh: "refresh-1"})
	})
	mux.HandleFunc("/api/usuarios/me/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"boom"}`))
	})
	backend := newTestBackend(t, mux)

	store := token.NewMemoryStore()
	m := newTestManager(t, backend.server.URL, store)

	_, err := m.Login(context.Background(), "dr@clinic.test", "secret")
	require.Error(t, err)
	assert.Equal(t, StateUnauthenticated, m.State())

	_, ok := store.ReadTokens()
	assert.False(t, ok, "tokens must not outlive a failed profile fetch")
}

func TestLoginBadCredentials(t *testing.T) {
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"credenciales invalidas"}`))
	}))

	store := token.NewMemoryStore()
	m := newTestManager(t, backend.server.URL, store)

	_, err := m.Login(context.Background(), "dr@clinic.test", "wrong")
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))

	_, ok := store.ReadTokens()
	assert.False(t, ok)
}

func TestLogout(t *testing.T) {
	backend := newTestBackend(t, profileHandler(t, api.User{ID: 7, Role: api.RoleAdmin}))
	store := token.NewMemoryStore()
	require.NoError(t, store.SaveTokens(mintToken(t, time.Hour), "refresh-1"))
	m := newTestManager(t, backend.server.URL, store)
	require.NoError(t, m.Initialize(context.Background()))

	m.Logout()

	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Nil(t, m.CurrentUser())
	_, ok := store.ReadTokens()
	assert.False(t, ok)
	_, ok = store.ReadProfile()
	assert.False(t, ok)
}

func TestRefreshProfileFailureKeepsSession(t *testing.T) {
	var fail atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/usuarios/me/", func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail":"boom"}`))
			return
		}
		json.NewEncoder(w).Encode(api.User{ID: 7, Role: api.RoleDentist})
	})
	backend := newTestBackend(t, mux)

	store := token.NewMemoryStore()
	require.NoError(t, store.SaveTokens(mintToken(t, time.Hour), "refresh-1"))
	m := newTestManager(t, backend.server.URL, store)
	require.NoError(t, m.Initialize(context.Background()))

	fail.Store(true)
	_, err := m.RefreshProfile(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateAuthenticated, m.State(), "a failed refresh is not a sign-out")
	require.NotNil(t, m.CurrentUser())
	assert.Equal(t, int64(7), m.CurrentUser().ID)
}

func TestCurrentUserFallsBackToPersistedProfile(t *testing.T) {
	store := token.NewMemoryStore()
	data, err := json.Marshal(api.User{ID: 9, Email: "paciente@clinic.test", Role: api.RolePatient})
	require.NoError(t, err)
	require.NoError(t, store.SaveProfile(data))

	m := newTestManager(t, "http://127.0.0.1:1", store)

	user := m.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, int64(9), user.ID)
	assert.Equal(t, api.RolePatient, user.Role)
}

func TestCurrentUserWithCorruptProfile(t *testing.T) {
	store := token.NewMemoryStore()
	require.NoError(t, store.SaveProfile([]byte(`{not json`)))

	m := newTestManager(t, "http://127.0.0.1:1", store)
	assert.Nil(t, m.CurrentUser(), "corrupt cache reads as absent")
}

func TestRoleChecksWithoutSession(t *testing.T) {
	m := newTestManager(t, "http://127.0.0.1:1", token.NewMemoryStore())

	assert.False(t, m.HasRole(api.RoleAdmin))
	assert.False(t, m.HasAnyRole(api.RoleAdmin, api.RoleDentist, api.RolePatient))
	assert.False(t, m.HasPermission("view_patients"))
	assert.Nil(t, m.Permissions())
}

func TestPermissions(t *testing.T) {
	tests := []struct {
		role    string
		granted []string
		denied  []string
	}{
		{api.RoleAdmin, []string{"view_patients", "edit_appointments", "anything_at_all"}, nil},
		{api.RoleDentist, []string{"view_patients", "edit_appointments", "view_treatments"}, []string{"view_own_appointments", "delete_clinic"}},
		{api.RolePatient, []string{"view_own_appointments", "view_own_treatments"}, []string{"view_patients", "edit_appointments"}},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			backend := newTestBackend(t, profileHandler(t, api.User{ID: 1, Role: tt.role}))
			store := token.NewMemoryStore()
			require.NoError(t, store.SaveTokens(mintToken(t, time.Hour), "refresh-1"))
			m := newTestManager(t, backend.server.URL, store)
			require.NoError(t, m.Initialize(context.Background()))

			for _, p := range tt.granted {
				assert.True(t, m.HasPermission(p), "%s should hold %s", tt.role, p)
			}
			for _, p := range tt.denied {
				assert.False(t, m.HasPermission(p), "%s should not hold %s", tt.role, p)
			}
		})
	}
}

func TestCheckExpirySignsOutNearExpiry(t *testing.T) {
	backend := newTestBackend(t, profileHandler(t, api.User{ID: 7, Role: api.RoleDentist}))
	store := token.NewMemoryStore()
	require.NoError(t, store.SaveTokens(mintToken(t, time.Hour), "refresh-1"))
	m := newTestManager(t, backend.server.URL, store)
	require.NoError(t, m.Initialize(context.Background()))

	// Not yet near expiry.
	m.checkExpiry()
	assert.Equal(t, StateAuthenticated, m.State())

	// Move the clock to within the expiry threshold.
	m.now = func() time.Time { return time.Now().Add(time.Hour - 30*time.Second) }
	m.checkExpiry()

	assert.Equal(t, StateUnauthenticated, m.State())
	_, ok := store.ReadTokens()
	assert.False(t, ok)
}

func TestCheckExpiryWithoutTokensIsNoop(t *testing.T) {
	m := newTestManager(t, "http://127.0.0.1:1", token.NewMemoryStore())
	m.checkExpiry()
	assert.Equal(t, StateUnknown, m.State(), "nothing to check, nothing changes")
}
