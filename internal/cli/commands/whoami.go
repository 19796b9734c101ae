package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/errandhub-dev/errandhub/internal/authclient"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL, err := resolveAuthURL(server)
			if err != nil {
				return err
			}
			store, err := resolveTokenStore(baseURL)
			if err != nil {
				return err
			}
			return runWhoami(baseURL, store)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Auth service URL (or set ERRANDHUB_AUTH_URL)")

	return cmd
}

func runWhoami(baseURL string, store authclient.TokenStore) error {
	client, err := newAuthClient(baseURL, store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result := client.CheckAuthentication(ctx)
	if !result.Authenticated {
		if result.Message != "" {
			return fmt.Errorf("not authenticated: %s", result.Message)
		}
		return fmt.Errorf("not authenticated. Please run 'errandhub login' first")
	}

	user := result.User
	fmt.Printf("%s <%s>\n", user.Name, user.Email)
	fmt.Printf("  ID:   %s\n", user.ID)
	fmt.Printf("  Role: %s\n", user.Role)
	if user.Provider != "" {
		fmt.Printf("  Via:  %s\n", user.Provider)
	}
	return nil
}
