package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/errandhub-dev/errandhub/internal/authclient"
)

// mockAuthService fakes the access-management service login and
// verify-session endpoints for command tests.
func mockAuthService(t *testing.T, email, password, token string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/users/login", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("email") != email || r.FormValue("password") != password {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(authclient.AuthResponse{Message: "invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(authclient.AuthResponse{
			Authenticated: true,
			Token:         token,
			SessionID:     "sess-1",
			User:          &authclient.AuthUser{ID: "u-1", Email: email, Name: "Test User", Role: "customer"},
		})
	})
	mux.HandleFunc("GET /api/auth/verify-session", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(authclient.AuthResponse{RequiresRedirect: true, LoginURL: "/auth/users/login"})
			return
		}
		json.NewEncoder(w).Encode(authclient.AuthResponse{
			Authenticated: true,
			User:          &authclient.AuthUser{ID: "u-1", Email: email, Name: "Test User", Role: "customer"},
		})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return httptest.NewServer(mux)
}

func TestRunLogin_SavesToken(t *testing.T) {
	srv := mockAuthService(t, "test@example.com", "password123", "tok-abc")
	defer srv.Close()

	store := authclient.NewMemoryStore()
	if err := runLogin(srv.URL, store, "test@example.com", "password123", nil); err != nil {
		t.Fatalf("runLogin failed: %v", err)
	}

	token, err := store.LoadToken()
	if err != nil {
		t.Fatalf("expected token to be stored: %v", err)
	}
	if token != "tok-abc" {
		t.Errorf("expected token 'tok-abc', got %q", token)
	}
}

func TestRunLogin_BadCredentials(t *testing.T) {
	srv := mockAuthService(t, "test@example.com", "password123", "tok-abc")
	defer srv.Close()

	store := authclient.NewMemoryStore()
	err := runLogin(srv.URL, store, "test@example.com", "wrong", nil)
	if err == nil {
		t.Fatal("expected error for bad credentials, got nil")
	}
	if _, loadErr := store.LoadToken(); loadErr == nil {
		t.Error("no token should be stored after a failed login")
	}
}

func TestRunLogout_ClearsToken(t *testing.T) {
	srv := mockAuthService(t, "test@example.com", "password123", "tok-abc")
	defer srv.Close()

	store := authclient.NewMemoryStore()
	if err := store.SaveToken("tok-abc"); err != nil {
		t.Fatal(err)
	}

	if err := runLogout(srv.URL, store); err != nil {
		t.Fatalf("runLogout failed: %v", err)
	}
	if _, err := store.LoadToken(); err == nil {
		t.Error("expected stored token to be deleted after logout")
	}
}

func TestRunWhoami_NotAuthenticated(t *testing.T) {
	srv := mockAuthService(t, "test@example.com", "password123", "tok-abc")
	defer srv.Close()

	store := authclient.NewMemoryStore()
	if err := runWhoami(srv.URL, store); err == nil {
		t.Error("expected error when no token is stored, got nil")
	}
}

func TestRunWhoami_Authenticated(t *testing.T) {
	srv := mockAuthService(t, "test@example.com", "password123", "tok-abc")
	defer srv.Close()

	store := authclient.NewMemoryStore()
	if err := store.SaveToken("tok-abc"); err != nil {
		t.Fatal(err)
	}
	if err := runWhoami(srv.URL, store); err != nil {
		t.Errorf("runWhoami failed: %v", err)
	}
}

func TestRunStatus_NeverErrorsOnMissingToken(t *testing.T) {
	srv := mockAuthService(t, "test@example.com", "password123", "tok-abc")
	defer srv.Close()

	store := authclient.NewMemoryStore()
	if err := runStatus(srv.URL, store); err != nil {
		t.Errorf("runStatus should report, not fail: %v", err)
	}
}

func TestResolveAuthURL(t *testing.T) {
	if _, err := resolveAuthURL("://bad"); err == nil {
		t.Error("expected error for malformed URL")
	}

	got, err := resolveAuthURL("https://auth.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://auth.example.com" {
		t.Errorf("flag value should win, got %q", got)
	}

	t.Setenv("ERRANDHUB_AUTH_URL", "https://env.example.com")
	got, err = resolveAuthURL("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://env.example.com" {
		t.Errorf("env var should be used when flag is empty, got %q", got)
	}
}

func TestLoginCommand_Flags(t *testing.T) {
	cmd := NewLoginCmd()
	if cmd.Use != "login" {
		t.Errorf("expected Use to be 'login', got %s", cmd.Use)
	}
	for _, name := range []string{"server", "email", "password"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected --%s flag to exist", name)
		}
	}
}
