package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/errandhub-dev/errandhub/internal/authclient"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show auth service connectivity and session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL, err := resolveAuthURL(server)
			if err != nil {
				return err
			}
			store, err := resolveTokenStore(baseURL)
			if err != nil {
				return err
			}
			return runStatus(baseURL, store)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Auth service URL (or set ERRANDHUB_AUTH_URL)")

	return cmd
}

func runStatus(baseURL string, store authclient.TokenStore) error {
	fmt.Printf("Auth service: %s\n", baseURL)

	if _, err := store.LoadToken(); err != nil {
		if errors.Is(err, authclient.ErrNoToken) {
			fmt.Println("Token:        none stored")
		} else {
			fmt.Printf("Token:        unreadable (%v)\n", err)
		}
	} else {
		fmt.Println("Token:        stored")
	}

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

	result := client.CheckAuthentication(ctx)
	switch {
	case result.Authenticated:
		fmt.Printf("Session:      active as %s (%s)\n", result.User.Email, result.User.Role)
	case result.RequiresRedirect:
		fmt.Println("Session:      none")
		fmt.Printf("Sign in at:   %s\n", result.LoginURL)
	default:
		fmt.Printf("Session:      unknown (%s)\n", result.Message)
	}
	return nil
}
