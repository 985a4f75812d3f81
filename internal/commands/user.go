package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUserCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage local users",
	}

	var tz string
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(o, func(cmd *cobra.Command, args []string, rt *runtime) error {
			u, err := rt.auth.EnsureUser(cmd.Context(), args[0], tz)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s user %s (%s)\n", okStyle.Render("✓"), u.Username, u.Timezone)
			return nil
		}),
	}
	add.Flags().StringVar(&tz, "timezone", "", "IANA timezone for the new user (default UTC)")

	setTZ := &cobra.Command{
		Use:   "tz <zone>",
		Short: "Set the profile timezone of the current user",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(o, func(cmd *cobra.Command, args []string, rt *runtime) error {
			if err := rt.auth.SetTimezone(cmd.Context(), rt.user.ID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s timezone for %s set to %s\n", okStyle.Render("✓"), rt.user.Username, args[0])
			return nil
		}),
	}

	cmd.AddCommand(add, setTZ)
	return cmd
}
