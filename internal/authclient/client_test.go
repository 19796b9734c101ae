package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifyHandler(t *testing.T, status int, body AuthResponse) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/verify-session" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := New(Options{BaseURL: baseURL})
	require.NoError(t, err)
	return client
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestCheckAuthentication_Success(t *testing.T) {
	srv := httptest.NewServer(verifyHandler(t, http.StatusOK, AuthResponse{
		Authenticated: true,
		User:          &AuthUser{ID: "1", Role: "admin", Email: "a@example.com"},
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	result := client.CheckAuthentication(context.Background())

	assert.True(t, result.Authenticated)
	require.NotNil(t, result.User)
	assert.Equal(t, "admin", result.User.Role)
	require.NotNil(t, client.User())
	assert.Equal(t, "1", client.User().ID)
}

func TestCheckAuthentication_AttachesBearerToken(t *testing.T) {
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(AuthResponse{
			Authenticated: true,
			User:          &AuthUser{ID: "1", Role: "customer"},
		})
	}))
	defer srv.Close()

	store := NewMemoryStore()
	require.NoError(t, store.SaveToken("tok-123"))
	client, err := New(Options{BaseURL: srv.URL, TokenStore: store})
	require.NoError(t, err)

	client.CheckAuthentication(context.Background())
	assert.Equal(t, "Bearer tok-123", gotAuth.Load())
}

func TestCheckAuthentication_SavesReturnedToken(t *testing.T) {
	srv := httptest.NewServer(verifyHandler(t, http.StatusOK, AuthResponse{
		Authenticated: true,
		User:          &AuthUser{ID: "1", Role: "customer"},
		Token:         "fresh-token",
	}))
	defer srv.Close()

	store := NewMemoryStore()
	client, err := New(Options{BaseURL: srv.URL, TokenStore: store})
	require.NoError(t, err)

	client.CheckAuthentication(context.Background())

	token, err := store.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
}

func TestCheckAuthentication_401WithRedirect(t *testing.T) {
	srv := httptest.NewServer(verifyHandler(t, http.StatusUnauthorized, AuthResponse{
		Authenticated:    false,
		RequiresRedirect: true,
		LoginURL:         "https://x/login",
	}))
	defer srv.Close()

	store := NewMemoryStore()
	require.NoError(t, store.SaveToken("stale"))
	client, err := New(Options{BaseURL: srv.URL, TokenStore: store})
	require.NoError(t, err)

	result := client.CheckAuthentication(context.Background())

	assert.False(t, result.Authenticated)
	assert.True(t, result.RequiresRedirect)
	assert.Equal(t, "https://x/login", result.LoginURL)
	assert.Nil(t, client.User())

	// 401 evicts the stored token
	_, err = store.LoadToken()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestCheckAuthentication_401WithoutRedirect(t *testing.T) {
	srv := httptest.NewServer(verifyHandler(t, http.StatusUnauthorized, AuthResponse{
		Authenticated: false,
		Message:       "expired",
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	result := client.CheckAuthentication(context.Background())

	assert.False(t, result.Authenticated)
	assert.False(t, result.RequiresRedirect)
	assert.Equal(t, "expired", result.Message)
	assert.Nil(t, client.User())
}

func TestCheckAuthentication_NetworkErrorIsSwallowed(t *testing.T) {
	// Point at a closed server so the request fails at the transport layer
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := newTestClient(t, srv.URL)
	result := client.CheckAuthentication(context.Background())

	assert.False(t, result.Authenticated)
	assert.Contains(t, result.Message, "network error")
	assert.Nil(t, client.User())
}

func TestCheckAuthentication_FailureClearsPriorUser(t *testing.T) {
	authenticated := atomic.Bool{}
	authenticated.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authenticated.Load() {
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(AuthResponse{Authenticated: true, User: &AuthUser{ID: "1", Role: "customer"}})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(AuthResponse{Authenticated: false, Message: "backend down"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	client.CheckAuthentication(context.Background())
	require.NotNil(t, client.User())

	authenticated.Store(false)
	result := client.CheckAuthentication(context.Background())
	assert.False(t, result.Authenticated)
	assert.Nil(t, client.User())
}

func TestCheckAuthentication_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	result := client.CheckAuthentication(context.Background())

	assert.False(t, result.Authenticated)
	assert.Contains(t, result.Message, "unexpected response")
	assert.Nil(t, client.User())
}

func TestLogout_ClearsStateEvenWhenRemoteFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := NewMemoryStore()
	require.NoError(t, store.SaveToken("tok"))
	nav := &RecordingNavigator{}
	client, err := New(Options{BaseURL: srv.URL, TokenStore: store, Navigator: nav})
	require.NoError(t, err)

	client.setUser(&AuthUser{ID: "1", Role: "customer"})
	client.StartPeriodicCheck(time.Hour)

	client.Logout(context.Background())

	assert.Nil(t, client.User())
	_, err = store.LoadToken()
	assert.ErrorIs(t, err, ErrNoToken)
	assert.False(t, client.PeriodicCheckActive())
	assert.Equal(t, srv.URL+"/auth/users/login", nav.Last())
}

func TestLogout_SendsBearerToken(t *testing.T) {
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/logout" && r.Method == http.MethodPost {
			gotAuth.Store(r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewMemoryStore()
	require.NoError(t, store.SaveToken("tok-1"))
	client, err := New(Options{BaseURL: srv.URL, TokenStore: store})
	require.NoError(t, err)

	client.Logout(context.Background())
	assert.Equal(t, "Bearer tok-1", gotAuth.Load())
}

func TestStartPeriodicCheck_SecondStartCancelsFirst(t *testing.T) {
	srv := httptest.NewServer(verifyHandler(t, http.StatusOK, AuthResponse{
		Authenticated: true,
		User:          &AuthUser{ID: "1", Role: "customer"},
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	client.StartPeriodicCheck(time.Hour)
	client.checkMu.Lock()
	first := client.checkStop
	client.checkMu.Unlock()

	client.StartPeriodicCheck(time.Hour)
	client.checkMu.Lock()
	second := client.checkStop
	client.checkMu.Unlock()

	assert.NotEqual(t, first, second)
	select {
	case <-first:
		// first task was cancelled
	default:
		t.Fatal("first periodic check was not cancelled")
	}
	assert.True(t, client.PeriodicCheckActive())

	client.StopPeriodicCheck()
	assert.False(t, client.PeriodicCheckActive())
}

func TestPeriodicCheck_RedirectsOnFailure(t *testing.T) {
	srv := httptest.NewServer(verifyHandler(t, http.StatusUnauthorized, AuthResponse{
		Authenticated: false,
	}))
	defer srv.Close()

	nav := &RecordingNavigator{}
	client, err := New(Options{BaseURL: srv.URL, Navigator: nav})
	require.NoError(t, err)

	client.StartPeriodicCheck(10 * time.Millisecond)
	defer client.StopPeriodicCheck()

	assert.Eventually(t, func() bool {
		return nav.Last() == srv.URL+"/auth/users/login"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRolePredicates(t *testing.T) {
	client := newTestClient(t, "http://auth.local")

	// No cached user
	assert.False(t, client.HasRole("admin"))
	assert.False(t, client.IsAdmin())

	client.setUser(&AuthUser{ID: "1", Role: "admin"})
	assert.True(t, client.HasRole("admin"))
	assert.True(t, client.HasAnyRole("courier", "admin"))
	assert.True(t, client.IsAdmin())

	client.setUser(&AuthUser{ID: "2", Role: "super_admin"})
	assert.True(t, client.IsAdmin())

	client.setUser(&AuthUser{ID: "3", Role: "customer"})
	assert.False(t, client.IsAdmin())
	assert.False(t, client.HasRole("admin"))

	// Exact string match only
	client.setUser(&AuthUser{ID: "4", Role: "Admin"})
	assert.False(t, client.IsAdmin())
}

func TestLoginURL(t *testing.T) {
	client := newTestClient(t, "https://accounts.example.com/")

	assert.Equal(t, "https://accounts.example.com/auth/users/login", client.LoginURL(""))
	assert.Equal(t,
		"https://accounts.example.com/auth/users/login?callbackUrl=https%3A%2F%2Fapp%2Fdashboard",
		client.LoginURL("https://app/dashboard"))
	assert.Equal(t, "https://accounts.example.com/auth/users/register", client.RegisterURL())
}

func TestRedirectToLogin_UsesNavigator(t *testing.T) {
	nav := &RecordingNavigator{}
	client, err := New(Options{BaseURL: "https://accounts.example.com", Navigator: nav})
	require.NoError(t, err)

	client.RedirectToLogin("/services")
	assert.Equal(t, "https://accounts.example.com/auth/users/login?callbackUrl=%2Fservices", nav.Last())
}
