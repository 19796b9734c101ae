package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/errandhub-dev/errandhub/internal/authclient"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var server, email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the ErrandHub auth service",
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL, err := resolveAuthURL(server)
			if err != nil {
				return err
			}
			store, err := resolveTokenStore(baseURL)
			if err != nil {
				return err
			}

			if email == "" {
				email = os.Getenv("ERRANDHUB_EMAIL")
			}
			if password == "" {
				password = os.Getenv("ERRANDHUB_PASSWORD")
			}
			if email == "" {
				return fmt.Errorf("email is required (use --email flag or ERRANDHUB_EMAIL env var)")
			}
			if password == "" {
				if !term.IsTerminal(int(syscall.Stdin)) {
					return fmt.Errorf("password is required in non-interactive mode (use --password flag or ERRANDHUB_PASSWORD env var)")
				}
				fmt.Print("Password: ")
				bytePassword, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = string(bytePassword)
				fmt.Println()
			}

			return runLogin(baseURL, store, email, password, nil)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Auth service URL (or set ERRANDHUB_AUTH_URL)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (or set ERRANDHUB_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set ERRANDHUB_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(baseURL string, store authclient.TokenStore, email, password string, httpClient *http.Client) error {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	fmt.Printf("Logging in to %s...\n", baseURL)

	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)

	resp, err := httpClient.Post(
		baseURL+"/auth/users/login",
		"application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("login failed: invalid credentials")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: unexpected status %d", resp.StatusCode)
	}

	var authResp authclient.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return fmt.Errorf("login failed: invalid response: %w", err)
	}
	if !authResp.Authenticated || authResp.Token == "" {
		return fmt.Errorf("login failed: %s", authResp.Message)
	}

	if err := store.SaveToken(authResp.Token); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}

	fmt.Println("✓ Login successful!")
	if authResp.User != nil {
		fmt.Printf("  User: %s (%s)\n", authResp.User.Name, authResp.User.Email)
		if authResp.User.Role != "" {
			fmt.Printf("  Role: %s\n", authResp.User.Role)
		}
	}
	return nil
}
