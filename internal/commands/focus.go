package commands

import (
	"context"
	"fmt"
	"io"

	"cadence/internal/app"
	"cadence/internal/domain"
	"cadence/internal/tui"

	"github.com/spf13/cobra"
)

func newFocusCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Run focus sessions on tasks",
	}

	var force bool
	start := &cobra.Command{
		Use:   "start <task-id>",
		Short: "Start a focus session",
		Long: `Start a focus session on a task. Owed daily or weekly reviews block the
start unless --force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: withRuntime(o, func(cmd *cobra.Command, args []string, rt *runtime) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !force {
				decision, err := rt.gate.Decide(cmd.Context(), rt.user.ID, "/api/focus/start")
				if err != nil {
					return err
				}
				if !decision.Allow {
					return fmt.Errorf("%s: run 'cadencectl review submit %s' first", decision.Reason, reviewForRedirect(decision.Redirect))
				}
			}
			sess, err := rt.focus.Start(cmd.Context(), rt.user.ID, taskID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s focus session #%d started on task #%d at %s\n",
				okStyle.Render("▶"), sess.ID, sess.TaskID, sess.StartTime.In(domain.LoadLocation(rt.zone())).Format("15:04"))
			return nil
		}),
	}
	start.Flags().BoolVar(&force, "force", false, "start even when a review is owed")

	type transition func(ctx context.Context, userID, id int64) (*domain.FocusSession, error)
	byID := func(use, short, verb string, fn func(rt *runtime) transition) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <session-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: withRuntime(o, func(cmd *cobra.Command, args []string, rt *runtime) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				sess, err := fn(rt)(cmd.Context(), rt.user.ID, id)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), rt, sess, verb)
				return nil
			}),
		}
	}

	recoverCmd := &cobra.Command{
		Use:   "recover [session-id]",
		Short: "Force-close an orphaned session (the open one when no id is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withRuntime(o, func(cmd *cobra.Command, args []string, rt *runtime) error {
			var id int64
			if len(args) == 1 {
				var err error
				if id, err = parseID(args[0]); err != nil {
					return err
				}
			}
			sess, err := rt.focus.Recover(cmd.Context(), rt.user.ID, id)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), rt, sess, "recovered")
			return nil
		}),
	}

	current := &cobra.Command{
		Use:   "current",
		Short: "Show the open focus session",
		Args:  cobra.NoArgs,
		RunE: withRuntime(o, func(cmd *cobra.Command, args []string, rt *runtime) error {
			sess, err := rt.focus.Current(cmd.Context(), rt.user.ID)
			if err != nil {
				return err
			}
			if sess == nil {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("no open focus session"))
				return nil
			}
			printSession(cmd.OutOrStdout(), rt, sess, string(sess.State()))
			return nil
		}),
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Follow the open session full screen",
		Long: `Follow the open focus session in a full-screen timer. p pauses and
resumes, e ends the session, q leaves it running.`,
		Args: cobra.NoArgs,
		RunE: withRuntime(o, func(cmd *cobra.Command, args []string, rt *runtime) error {
			sess, err := rt.focus.Current(cmd.Context(), rt.user.ID)
			if err != nil {
				return err
			}
			if sess == nil {
				return fmt.Errorf("%w: no open focus session", domain.ErrNotFound)
			}
			title := fmt.Sprintf("task #%d", sess.TaskID)
			if task, err := rt.db.GetTask(cmd.Context(), rt.user.ID, sess.TaskID); err == nil && task != nil {
				title = task.Title
			}
			return tui.RunFocus(cmd.Context(), rt.focus, rt.user.ID, sess, title, cmd.OutOrStdout())
		}),
	}

	cmd.AddCommand(
		start,
		byID("pause", "Pause a session", "paused", func(rt *runtime) transition { return rt.focus.Pause }),
		byID("resume", "Resume a paused session", "resumed", func(rt *runtime) transition { return rt.focus.Resume }),
		byID("end", "End a session and record its duration", "ended", func(rt *runtime) transition { return rt.focus.End }),
		recoverCmd,
		current,
		watch,
	)
	return cmd
}

func printSession(w io.Writer, rt *runtime, sess *domain.FocusSession, verb string) {
	fmt.Fprintf(w, "%s focus session #%d on task #%d\n", titleStyle.Render(verb), sess.ID, sess.TaskID)
	if sess.DurationMinutes != nil {
		fmt.Fprintln(w, field("duration", fmt.Sprintf("%d min", *sess.DurationMinutes)))
		return
	}
	fmt.Fprintln(w, field("elapsed", formatDuration(rt.focus.Elapsed(sess))))
}

func reviewForRedirect(redirect string) string {
	if redirect == app.WeeklyReviewPath {
		return string(domain.ReviewWeekly)
	}
	return string(domain.ReviewDaily)
}
