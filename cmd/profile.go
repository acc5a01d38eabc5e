package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/reelmark/auth"
)

var profileSet []string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update your profile",
	Args:  cobra.NoArgs,
	RunE:  runProfile,
}

var profileUpdateCmd = &cobra.Command{
	Use:     "update",
	Short:   "Change profile fields",
	Example: `  reelmark profile update --set location=Berlin --set language=de-DE`,
	Args:    cobra.NoArgs,
	RunE:    runProfileUpdate,
}

func init() {
	profileUpdateCmd.Flags().StringArrayVar(&profileSet, "set", nil, "field=value to change (repeatable)")
	profileCmd.AddCommand(profileUpdateCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	if err := requireLogin(); err != nil {
		return err
	}

	user, err := current.auth.CurrentUser(cmd.Context())
	if err != nil {
		return err
	}
	return showProfile(cmd, user.DisplayName(), user.Extra)
}

func runProfileUpdate(cmd *cobra.Command, args []string) error {
	if err := requireLogin(); err != nil {
		return err
	}

	changes, err := parseAssignments(profileSet)
	if err != nil {
		return err
	}

	user, err := current.auth.UpdateProfile(cmd.Context(), changes)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "Nothing to update")
	}
	return showProfile(cmd, user.DisplayName(), user.Extra)
}

func showProfile(cmd *cobra.Command, name string, record map[string]any) error {
	fields := auth.ProfileFields(record)
	return render(cmd, fields, func() string {
		var sb strings.Builder
		fmt.Fprintf(&sb, "\n%s\n%s\n", name, strings.Repeat("─", max(len(name), 10)))
		for _, f := range fields {
			fmt.Fprintf(&sb, "%-16s %s\n", f.Label+":", f.Value)
		}
		return sb.String()
	})
}

// parseAssignments turns key=value pairs into a change set. "true", "false"
// and "null" are sent as JSON literals.
func parseAssignments(pairs []string) (map[string]any, error) {
	changes := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, expected field=value", pair)
		}
		if !auth.Editable(key) {
			return nil, fmt.Errorf("field %q cannot be changed", key)
		}

		switch value {
		case "null":
			changes[key] = nil
		case "true", "false":
			changes[key] = value == "true"
		default:
			changes[key] = value
		}
	}
	return changes, nil
}
