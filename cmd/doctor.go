package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/reelmark/config"
	"github.com/s0up4200/reelmark/directus"
	"github.com/s0up4200/reelmark/session"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Aliases: []string{"ping"},
	Short:   "Check the server connection and the local session",
	Args:    cobra.NoArgs,
	RunE:    runDoctor,
}

var sessionWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow login and logout from other terminals",
	Long: `Watch the session file and report whenever another reelmark process logs
in or out. Requires the file session backend. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runSessionWatch,
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect the local session",
}

func init() {
	sessionCmd.AddCommand(sessionWatchCmd)
	rootCmd.AddCommand(doctorCmd, sessionCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg := current.cfg

	fmt.Fprintf(out, "Checking connection to %s...\n", cfg.Directus.URL)
	start := time.Now()
	if err := current.client.Ping(cmd.Context()); err != nil {
		fmt.Fprintf(out, "✗ %s\n", directus.DisplayMessage(err))
		return err
	}
	fmt.Fprintf(out, "✓ Server reachable (%s)\n", time.Since(start).Round(time.Millisecond))

	fmt.Fprintf(out, "\nSession backend: %s\n", cfg.Session.Backend)
	if fb, ok := current.backend.(*session.FileBackend); ok {
		fmt.Fprintf(out, "Session file:    %s\n", fb.Path())
	}

	if !current.store.Authenticated() {
		fmt.Fprintln(out, "Session:         not logged in")
		return nil
	}

	if claims, err := session.PeekClaims(current.store.Token()); err == nil {
		if claims.Expired(time.Now()) {
			fmt.Fprintln(out, "Session:         token expired, log in again")
			return nil
		}
		if claims.ExpiresAt != nil {
			fmt.Fprintf(out, "Session:         token valid for %s\n", claims.ExpiresIn(time.Now()).Round(time.Second))
		}
	}

	user, err := current.auth.CurrentUser(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "✗ Token rejected: %s\n", directus.DisplayMessage(err))
		return nil
	}
	fmt.Fprintf(out, "✓ Logged in as %s\n", user.DisplayName())
	return nil
}

func runSessionWatch(cmd *cobra.Command, args []string) error {
	fb, ok := current.backend.(*session.FileBackend)
	if !ok {
		return fmt.Errorf("session watch requires the %q backend", config.BackendFile)
	}

	watcher, err := current.store.NewWatcher(fb.Path())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	cancel := current.store.Subscribe(func(token string) {
		if token == "" {
			fmt.Fprintln(out, "Logged out")
			return
		}
		fmt.Fprintln(out, "Logged in")
	})
	defer cancel()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return watcher.Run(ctx)
}
