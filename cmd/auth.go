package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/reelmark/auth"
	"github.com/s0up4200/reelmark/session"
)

var (
	loginEmail    string
	loginPassword string
	firstName     string
	lastName      string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Long: `Log in with your email and password. The password is read from
--password, the REELMARK_PASSWORD environment variable, or standard input.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session",
	Long:  `Log out on the server and remove the local session. The local session is removed even if the server cannot be reached.`,
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
		c.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")
	}
	registerCmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	registerCmd.Flags().StringVar(&lastName, "last-name", "", "last name")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	email, password, err := credentials(cmd)
	if err != nil {
		return err
	}

	if err := current.auth.Login(cmd.Context(), email, password); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", email)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	email, password, err := credentials(cmd)
	if err != nil {
		return err
	}

	profile := auth.Profile{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := current.auth.Register(cmd.Context(), profile); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := current.auth.Login(cmd.Context(), email, password); err != nil {
		current.logger.Debug().Err(err).Msg("Login after registration failed")
		fmt.Fprintln(out, "Registration successful but login failed. Please log in manually.")
		return nil
	}

	fmt.Fprintf(out, "Registered and logged in as %s\n", email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	return current.auth.Logout(cmd.Context())
}

type whoami struct {
	ID        string     `json:"id" yaml:"id"`
	Email     string     `json:"email" yaml:"email"`
	Name      string     `json:"name" yaml:"name"`
	Role      string     `json:"role,omitempty" yaml:"role,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

func runWhoami(cmd *cobra.Command, args []string) error {
	if err := requireLogin(); err != nil {
		return err
	}

	user, err := current.auth.CurrentUser(cmd.Context())
	if err != nil {
		return err
	}

	info := whoami{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.DisplayName(),
		Role:  user.Role,
	}
	if claims, err := session.PeekClaims(current.store.Token()); err == nil && claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		info.ExpiresAt = &exp
	}

	return render(cmd, info, func() string {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s <%s>\n", info.Name, info.Email)
		fmt.Fprintf(&sb, "ID:   %s\n", info.ID)
		if info.Role != "" {
			fmt.Fprintf(&sb, "Role: %s\n", info.Role)
		}
		if info.ExpiresAt != nil {
			fmt.Fprintf(&sb, "Session expires in %s\n", time.Until(*info.ExpiresAt).Round(time.Second))
		}
		return sb.String()
	})
}

// credentials resolves email and password from flags, environment or stdin
func credentials(cmd *cobra.Command) (string, string, error) {
	email, password := loginEmail, loginPassword
	if password == "" {
		password = os.Getenv("REELMARK_PASSWORD")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	if email == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Email: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", "", fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if password == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	return email, password, nil
}
