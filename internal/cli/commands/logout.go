package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/errandhub-dev/errandhub/internal/authclient"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the current session and discard the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL, err := resolveAuthURL(server)
			if err != nil {
				return err
			}
			store, err := resolveTokenStore(baseURL)
			if err != nil {
				return err
			}
			return runLogout(baseURL, store)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Auth service URL (or set ERRANDHUB_AUTH_URL)")

	return cmd
}

func runLogout(baseURL string, store authclient.TokenStore) error {
	// No point suggesting a fresh sign-in right after logging out.
	client, err := authclient.New(authclient.Options{
		BaseURL:    baseURL,
		TokenStore: store,
		Navigator:  authclient.NopNavigator{},
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Local state is cleared even when the auth service is unreachable.
	client.Logout(ctx)

	fmt.Println("✓ Logged out.")
	return nil
}
