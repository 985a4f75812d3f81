// Package commands implements cadencectl, a local command-line front end to
// the cadence services backed by an SQLite file.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/user"

	"cadence/internal/adapter/sqlite"
	"cadence/internal/app"
	"cadence/internal/domain"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

type options struct {
	dbPath   string
	username string
	tz       string
	clock    app.Clock
}

// runtime is everything a subcommand needs, built once per invocation.
type runtime struct {
	db   *sqlite.DB
	user *domain.User
	tz   string

	auth         *app.AuthService
	tasks        *app.TaskService
	focus        *app.FocusService
	reviews      *app.ReviewService
	gate         *app.GateService
	gamification *app.GamificationService
	activity     *app.ActivityService
	period       *app.PeriodService
}

func (o *options) open(ctx context.Context) (*runtime, error) {
	path := o.dbPath
	if path == "" {
		p, err := sqlite.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		path = p
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}

	clock := o.clock
	if clock == nil {
		clock = app.SystemClock()
	}
	db.WithClock(clock.Now)
	rt := &runtime{
		db:           db,
		tz:           o.tz,
		auth:         app.NewAuthService(db, sqlite.NewSessionRepo(db), clock, 0),
		tasks:        app.NewTaskService(db, clock),
		focus:        app.NewFocusService(db, db, clock),
		reviews:      app.NewReviewService(db, db, clock),
		gamification: app.NewGamificationService(db, db, db, db, clock),
		activity:     app.NewActivityService(db, db, db, db, clock),
		period:       app.NewPeriodService(db, clock),
	}
	rt.gate = app.NewGateService(rt.reviews)

	rt.user, err = rt.auth.EnsureUser(ctx, o.username, o.tz)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return rt, nil
}

// withRuntime wraps a command function to open the database first.
func withRuntime(o *options, fn func(*cobra.Command, []string, *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := o.open(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = rt.db.Close() }()
		return fn(cmd, args, rt)
	}
}

func defaultUsername() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "local"
}

// NewRootCmd builds the cadencectl command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{})
}

func newRootCmd(o *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "cadencectl",
		Short: "Reviews, focus sessions and streaks from the terminal",
		Long: `cadencectl tracks daily, weekly and monthly reviews, runs focus sessions
on tasks, and reports streaks and milestones, all in a local SQLite file.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&o.dbPath, "db", "", "database file (default ~/.cadence/cadence.db)")
	root.PersistentFlags().StringVar(&o.username, "user", defaultUsername(), "user to act as")
	root.PersistentFlags().StringVar(&o.tz, "tz", "", "IANA timezone override for day boundaries")

	root.AddCommand(
		newUserCmd(o),
		newTaskCmd(o),
		newFocusCmd(o),
		newReviewCmd(o),
		newStatsCmd(o),
		newDayCmd(o),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "cadencectl %s (commit %s, built %s)\n", version, commit, date)
			},
		},
	)
	return root
}

// Execute runs the root command and prints any error.
func Execute() error {
	root := NewRootCmd()
	root.SilenceErrors = true
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("Error: "+err.Error()))
	}
	return err
}
