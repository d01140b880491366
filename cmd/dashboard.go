package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/cache"
	"github.com/taskdeck/taskdeck/internal/server"
)

// DefaultAPIURL is used when neither --api-url nor TASKDECK_API_URL is set.
const DefaultAPIURL = "http://localhost:5000"

// resolveAPIURL picks the API base URL: flag first, then the
// TASKDECK_API_URL environment variable, then the default.
func resolveAPIURL(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("TASKDECK_API_URL"); env != "" {
		return env
	}
	return DefaultAPIURL
}

// newAppContextWithoutHealthCheck creates the app context for CLI
// commands that only touch local state.
func newAppContextWithoutHealthCheck(ctx context.Context, apiURL string) (*server.AppContext, error) {
	return server.NewAppContext(ctx, server.AppContextConfig{
		APIBaseURL: resolveAPIURL(apiURL),
	})
}

// newDashboardAppContext creates the app context for CLI commands and
// verifies the remote API is reachable before anything else runs.
func newDashboardAppContext(ctx context.Context, apiURL string) (*server.AppContext, error) {
	ac, err := newAppContextWithoutHealthCheck(ctx, apiURL)
	if err != nil {
		return nil, err
	}

	if err := ac.CheckRemote(ctx); err != nil {
		_ = ac.Shutdown()
		return nil, fmt.Errorf("task API at %s is not reachable: %w", ac.APIClient().BaseURL(), err)
	}
	return ac, nil
}

func newDashboardCmd() *cobra.Command {
	var (
		apiURL   string
		status   string
		priority string
		search   string
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show task statistics and the task table",
		Long: `Fetch your tasks from the remote API and print the dashboard: aggregate
statistics (totals per status, overdue count, completion rate) followed by
the task table, optionally filtered by status, priority or a search term.

Requires an active session; log in first with 'taskdeck login'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := cache.Filter{Search: search}
			if status != "" {
				s := api.Status(status)
				if !s.IsValid() {
					return fmt.Errorf("invalid status %q (expected pending, in_progress or completed)", status)
				}
				filter.Status = s
			}
			if priority != "" {
				p := api.Priority(priority)
				if !p.IsValid() {
					return fmt.Errorf("invalid priority %q (expected low, medium or high)", priority)
				}
				filter.Priority = p
			}

			ctx := cmd.Context()
			ac, err := newDashboardAppContext(ctx, apiURL)
			if err != nil {
				return err
			}
			defer func() { _ = ac.Shutdown() }()

			user, ok := ac.Sessions().User()
			if !ok {
				return fmt.Errorf("not logged in; run 'taskdeck login' first")
			}

			if err := ac.Board().Refresh(ctx); err != nil {
				return fmt.Errorf("failed to load tasks: %w", err)
			}
			ac.Cache().SetFilter(filter)

			printDashboard(cmd.OutOrStdout(), user, ac.Cache())
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Task API base URL. Can also use TASKDECK_API_URL env var. Default: "+DefaultAPIURL)
	cmd.Flags().StringVar(&status, "status", "", "Only show tasks with this status: pending, in_progress or completed")
	cmd.Flags().StringVar(&priority, "priority", "", "Only show tasks with this priority: low, medium or high")
	cmd.Flags().StringVar(&search, "search", "", "Only show tasks whose title or description contains this text")

	return cmd
}

// printDashboard renders the stats block and the filtered task table.
func printDashboard(out io.Writer, user api.User, c *cache.Cache) {
	stats := c.Stats()

	fmt.Fprintf(out, "Tasks for %s <%s>\n\n", user.Name, user.Email)
	fmt.Fprintf(out, "  Total: %d   Pending: %d   In progress: %d   Completed: %d   Overdue: %d   Completion: %.2f%%\n\n",
		stats.Total, stats.Pending, stats.InProgress, stats.Completed, stats.Overdue, stats.CompletionRate)

	tasks := c.View()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks match.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRIORITY\tSTATUS\tDUE\tCALENDAR")
	now := time.Now()
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
			if t.IsOverdue(now) {
				due += " (overdue)"
			}
		}
		calendar := "-"
		if t.CalendarEventID != "" {
			calendar = "scheduled"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Priority, t.Status, due, calendar)
	}
	_ = w.Flush()
}
