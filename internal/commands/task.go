package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cadence/internal/domain"

	"github.com/spf13/cobra"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", domain.ErrValidation, s)
	}
	return id, nil
}

func newTaskCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Add, list and complete tasks",
	}

	var deadline string
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a backlog task",
		Long: `Add a backlog task.

Examples:
  cadencectl task add "write quarterly report"
  cadencectl task add "renew passport" --deadline 2024-03-01`,
		Args: cobra.MinimumNArgs(1),
		RunE: withRuntime(o, func(cmd *cobra.Command, args []string, rt *runtime) error {
			var due *time.Time
			if deadline != "" {
				d, err := domain.ParseDay(domain.LoadLocation(rt.zone()), deadline)
				if err != nil {
					return fmt.Errorf("%w: deadline must be YYYY-MM-DD", domain.ErrValidation)
				}
				due = &d
			}
			t, err := rt.tasks.Create(cmd.Context(), rt.user.ID, strings.Join(args, " "), due)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s task #%d: %s\n", okStyle.Render("✓"), t.ID, t.Title)
			return nil
		}),
	}
	add.Flags().StringVar(&deadline, "deadline", "", "due day as YYYY-MM-DD")

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: withRuntime(o, func(cmd *cobra.Command, args []string, rt *runtime) error {
			items, err := rt.tasks.List(cmd.Context(), rt.user.ID, domain.TaskStatus(status))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("no tasks"))
				return nil
			}
			for _, t := range items {
				fmt.Fprintf(out, "#%-4d %-10s %s\n", t.ID, t.Status, t.Title)
			}
			return nil
		}),
	}
	list.Flags().StringVar(&status, "status", "", "filter by status (backlog, focus, postponed, done)")

	setStatus := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a task to backlog, focus, postponed or done",
		Args:  cobra.ExactArgs(2),
		RunE: withRuntime(o, func(cmd *cobra.Command, args []string, rt *runtime) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, err := rt.tasks.SetStatus(cmd.Context(), rt.user.ID, id, domain.TaskStatus(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s task #%d is now %s\n", okStyle.Render("✓"), t.ID, t.Status)
			return nil
		}),
	}

	cmd.AddCommand(add, list, setStatus)
	return cmd
}

// zone is the --tz override or the user's profile timezone.
func (rt *runtime) zone() string {
	if rt.tz != "" {
		return rt.tz
	}
	return rt.user.Timezone
}
