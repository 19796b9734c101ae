package commands

import (
	"fmt"
	"net/url"
	"os"

	"github.com/errandhub-dev/errandhub/internal/authclient"
	"github.com/errandhub-dev/errandhub/internal/cli/auth"
)

const defaultAuthURL = "http://localhost:9090"

// resolveAuthURL returns the auth service base URL. The --server flag
// wins over ERRANDHUB_AUTH_URL, which wins over the local default.
func resolveAuthURL(flagValue string) (string, error) {
	raw := flagValue
	if raw == "" {
		raw = os.Getenv("ERRANDHUB_AUTH_URL")
	}
	if raw == "" {
		raw = defaultAuthURL
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("invalid auth service URL %q", raw)
	}
	return raw, nil
}

// resolveTokenStore picks where tokens live. The OS keychain is the
// default; ERRANDHUB_TOKEN_FILE switches to a plain file for CI and
// containers where no keychain daemon is running.
func resolveTokenStore(baseURL string) (authclient.TokenStore, error) {
	if path := os.Getenv("ERRANDHUB_TOKEN_FILE"); path != "" {
		return authclient.NewFileStore(path), nil
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid auth service URL %q", baseURL)
	}
	return auth.NewKeyringStore(parsed.Host), nil
}

// newAuthClient wires a client against the resolved auth service with
// the resolved token store. The CLI never navigates a browser, so login
// URLs are printed instead of followed.
func newAuthClient(baseURL string, store authclient.TokenStore) (*authclient.Client, error) {
	return authclient.New(authclient.Options{
		BaseURL:    baseURL,
		TokenStore: store,
		Navigator: authclient.NavigatorFunc(func(target string) {
			fmt.Printf("Open %s in your browser to sign in.\n", target)
		}),
	})
}
