package commands

import (
	"fmt"
	"strings"
	"time"

	"cadence/internal/domain"

	"github.com/spf13/cobra"
)

func newStatsCmd(o *options) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show streaks, milestones and recent activity",
		Args:  cobra.NoArgs,
		RunE: withRuntime(o, func(cmd *cobra.Command, args []string, rt *runtime) error {
			st, err := rt.gamification.Get(cmd.Context(), rt.user.ID, rt.tz)
			if err != nil {
				return err
			}
			points, err := rt.activity.GetDaily(cmd.Context(), rt.user.ID, rt.tz, days)
			if err != nil {
				return err
			}

			labels := make(map[string]string)
			for _, m := range domain.Milestones() {
				labels[m.ID] = m.Label
			}
			reached := make([]string, 0, len(st.Milestones.Reached))
			for _, id := range st.Milestones.Reached {
				reached = append(reached, labels[id])
			}
			milestones := mutedStyle.Render("none yet")
			if len(reached) > 0 {
				milestones = strings.Join(reached, ", ")
			}

			streaks := strings.Join([]string{
				titleStyle.Render("Streaks"),
				field("completion", fmt.Sprintf("%d days", st.CompletionStreak)),
				field("daily review", fmt.Sprintf("%d days", st.DailyReviewStreak)),
				field("focus", fmt.Sprintf("%d days", st.FocusDaysStreak)),
				field("tasks done", st.Totals.CompletedTasks),
				field("focus time", formatDuration(time.Duration(st.Totals.FocusMinutes)*time.Minute)),
				labelStyle.Render("milestones        ") + milestones,
			}, "\n")

			var b strings.Builder
			b.WriteString(titleStyle.Render("Activity"))
			for _, p := range points {
				review := mutedStyle.Render("·")
				if p.DailyReview {
					review = okStyle.Render("✓")
				}
				fmt.Fprintf(&b, "\n%s %s %2d done  %3d min focus", labelStyle.Render(p.Day), review, p.CompletedTasks, p.FocusMinutes)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, sectionStyle.Render(streaks))
			fmt.Fprintln(out, sectionStyle.Render(b.String()))
			return nil
		}),
	}
	cmd.Flags().IntVar(&days, "days", 7, "days of activity to show")
	return cmd
}

func newDayCmd(o *options) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Show the local day boundaries for an instant",
		Args:  cobra.NoArgs,
		RunE: withRuntime(o, func(cmd *cobra.Command, args []string, rt *runtime) error {
			var t time.Time
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("%w: --at must be RFC 3339", domain.ErrValidation)
				}
				t = parsed
			}
			rng, zone, err := rt.period.DayRange(cmd.Context(), rt.user.ID, rt.tz, t)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, field("timezone", zone))
			fmt.Fprintln(out, field("day", domain.DayKey(domain.LoadLocation(zone), rng.Start)))
			fmt.Fprintln(out, field("start", rng.Start.Format(time.RFC3339)))
			fmt.Fprintln(out, field("end", rng.End.Format(time.RFC3339)))
			fmt.Fprintln(out, field("length", rng.End.Sub(rng.Start)))
			return nil
		}),
	}
	cmd.Flags().StringVar(&at, "at", "", "instant as RFC 3339 (default now)")
	return cmd
}
