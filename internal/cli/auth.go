package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/earshot/internal/auth"
	"github.com/tessro/earshot/internal/wizard"
)

var loginEmail string

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage backend authentication",
	Long:  `Commands for logging in to and out of the earshot backend.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the backend",
	Long: `Prompts for an email and password and stores the bearer token the
backend issues. For scripts, set EARSHOT_EMAIL and EARSHOT_PASSWORD.`,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token",
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	RunE:  runAuthStatus,
}

func init() {
	authLoginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	creds := wizard.Credentials{
		Email:    loginEmail,
		Password: os.Getenv("EARSHOT_PASSWORD"),
	}
	if creds.Email == "" {
		creds.Email = os.Getenv("EARSHOT_EMAIL")
	}

	if creds.Email == "" || creds.Password == "" {
		if !wizard.IsTerminal() {
			return fmt.Errorf("no terminal for the login prompt. Set EARSHOT_EMAIL and EARSHOT_PASSWORD")
		}
		var err error
		if creds, err = wizard.PromptLogin(creds.Email); err != nil {
			return fmt.Errorf("login cancelled: %w", err)
		}
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	token, err := client.Login(cmd.Context(), creds.Email, creds.Password)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "authenticated", "email": token.Email})
	}
	fmt.Printf("Logged in as %s.\n", token.Email)
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	storage, err := auth.NewTokenStorage(cfg.API.TokenFile)
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}

	if !storage.Exists() {
		if JSONOutput() {
			return printJSON(map[string]string{"status": "not_authenticated"})
		}
		fmt.Println("Not logged in.")
		return nil
	}

	if err := storage.Delete(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "logged_out"})
	}
	fmt.Println("Logged out.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	storage, err := auth.NewTokenStorage(cfg.API.TokenFile)
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}

	token, err := storage.Load()
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}

	if JSONOutput() {
		out := map[string]any{"authenticated": token != nil && !token.IsExpired()}
		if token != nil {
			out["email"] = token.Email
			out["issued_at"] = token.IssuedAt
			if !token.ExpiresAt.IsZero() {
				out["expires_at"] = token.ExpiresAt
			}
		}
		return printJSON(out)
	}

	switch {
	case token == nil:
		fmt.Println("Not logged in.")
		fmt.Println("Run 'earshot auth login' to authenticate.")
	case token.IsExpired():
		fmt.Println("Token expired.")
		fmt.Println("Run 'earshot auth login' to re-authenticate.")
	default:
		fmt.Printf("Logged in as %s against %s\n", token.Email, cfg.API.BaseURL)
		fmt.Printf("Token issued: %s\n", token.IssuedAt.Format(time.RFC3339))
		if !token.ExpiresAt.IsZero() {
			fmt.Printf("Token expires: %s\n", token.ExpiresAt.Format(time.RFC3339))
		}
		fmt.Printf("Stored at: %s\n", storage.Path())
	}
	return nil
}
