package commands

import (
	"fmt"
	"strconv"
	"strings"

	"cadence/internal/domain"

	"github.com/spf13/cobra"
)

func newReviewCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Check and submit daily, weekly and monthly reviews",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show which reviews are owed",
		Args:  cobra.NoArgs,
		RunE: withRuntime(o, func(cmd *cobra.Command, args []string, rt *runtime) error {
			st, err := rt.reviews.Status(cmd.Context(), rt.user.ID, rt.tz)
			if err != nil {
				return err
			}
			lines := []string{
				titleStyle.Render("Reviews") + mutedStyle.Render("  "+st.Timezone),
				field("daily", yesNo(st.DailyRequired, "due", "done today")),
				field("weekly", yesNo(st.WeeklyRequired, "due", "up to date")),
				field("monthly", yesNo(st.MonthlyRequired, "due", "up to date")),
			}
			if st.WeeklyLastPeriodEnd != nil {
				lines = append(lines, field("last weekly", domain.DayKey(domain.LoadLocation(st.Timezone), *st.WeeklyLastPeriodEnd)))
			}
			if st.MonthlyLastPeriodEnd != nil {
				lines = append(lines, field("last monthly", domain.DayKey(domain.LoadLocation(st.Timezone), *st.MonthlyLastPeriodEnd)))
			}
			fmt.Fprintln(cmd.OutOrStdout(), sectionStyle.Render(strings.Join(lines, "\n")))
			return nil
		}),
	}

	var (
		fields     []string
		priorities []string
	)
	submit := &cobra.Command{
		Use:   "submit <daily|weekly|monthly>",
		Short: "Submit a review",
		Long: `Submit a review. Content is given as key=value pairs.

Examples:
  cadencectl review submit daily --field plan="ship the report"
  cadencectl review submit weekly --field wins="launched" --priority 3=1 --priority 7=2`,
		Args: cobra.ExactArgs(1),
		RunE: withRuntime(o, func(cmd *cobra.Command, args []string, rt *runtime) error {
			typ := domain.ReviewType(args[0])
			if !typ.Valid() {
				return fmt.Errorf("%w: unknown review type %q", domain.ErrValidation, args[0])
			}
			content, err := parseFields(fields)
			if err != nil {
				return err
			}
			prios, err := parsePriorities(priorities)
			if err != nil {
				return err
			}
			if len(prios) > 0 && typ != domain.ReviewWeekly {
				return fmt.Errorf("%w: priorities are only captured with weekly reviews", domain.ErrValidation)
			}

			var review *domain.Review
			if typ == domain.ReviewWeekly {
				review, err = rt.reviews.SubmitWeekly(cmd.Context(), rt.user.ID, content, prios)
			} else {
				review, err = rt.reviews.Submit(cmd.Context(), rt.user.ID, typ, content)
			}
			if err != nil {
				return err
			}
			loc := domain.LoadLocation(rt.zone())
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s review recorded for %s..%s\n", okStyle.Render("✓"), review.Type,
				domain.DayKey(loc, review.PeriodStart), domain.DayKey(loc, review.PeriodEnd))
			return nil
		}),
	}
	submit.Flags().StringArrayVar(&fields, "field", nil, "content entry as key=value (repeatable)")
	submit.Flags().StringArrayVar(&priorities, "priority", nil, "weekly project priority as projectID=priority (repeatable)")

	cmd.AddCommand(status, submit)
	return cmd
}

func parseFields(kvs []string) (map[string]any, error) {
	out := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: field %q must be key=value", domain.ErrValidation, kv)
		}
		out[k] = v
	}
	return out, nil
}

func parsePriorities(kvs []string) ([]domain.ProjectPriority, error) {
	var out []domain.ProjectPriority
	for _, kv := range kvs {
		p, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("%w: priority %q must be projectID=priority", domain.ErrValidation, kv)
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: project id %q", domain.ErrValidation, p)
		}
		prio, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: priority %q", domain.ErrValidation, v)
		}
		out = append(out, domain.ProjectPriority{ProjectID: id, Priority: prio})
	}
	return out, nil
}
