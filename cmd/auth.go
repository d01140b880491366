package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/api"
)

// resolvePassword picks the password: flag first, then the
// TASKDECK_PASSWORD environment variable, then an interactive prompt.
func resolvePassword(flagValue string, in *bufio.Reader, out *os.File) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("TASKDECK_PASSWORD"); env != "" {
		return env, nil
	}
	fmt.Fprint(out, "Password: ")
	line, err := in.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

func newLoginCmd() *cobra.Command {
	var (
		apiURL   string
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the task API and persist the session",
		Long: `Authenticate against the task API with email and password. The session is
persisted locally, so subsequent dashboard invocations reuse it until you
log out.

The password can be passed via --password, the TASKDECK_PASSWORD env var,
or typed at the prompt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}

			pw, err := resolvePassword(password, bufio.NewReader(cmd.InOrStdin()), os.Stderr)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ac, err := newDashboardAppContext(ctx, apiURL)
			if err != nil {
				return err
			}
			defer func() { _ = ac.Shutdown() }()

			user, err := ac.Board().Login(ctx, api.Credentials{Email: email, Password: pw})
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>; %d tasks loaded\n",
				user.Name, user.Email, ac.Cache().Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Task API base URL. Can also use TASKDECK_API_URL env var. Default: "+DefaultAPIURL)
	cmd.Flags().StringVar(&email, "email", "", "Account email address")
	cmd.Flags().StringVar(&password, "password", "", "Account password. Can also use TASKDECK_PASSWORD env var or the interactive prompt.")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Logout only touches local state; no remote health gate here.
			ac, err := newAppContextWithoutHealthCheck(ctx, apiURL)
			if err != nil {
				return err
			}
			defer func() { _ = ac.Shutdown() }()

			if err := ac.Board().Logout(ctx); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Task API base URL. Can also use TASKDECK_API_URL env var. Default: "+DefaultAPIURL)

	return cmd
}
