package root

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ganot/timeflow/internal/mcp"
	"github.com/ganot/timeflow/internal/ui"
)

// readCmd builds a read-only command over an open session.
func readCmd(e *env, use, short string, run func(ctx context.Context, cmd *cobra.Command, s *session) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, cleanup, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer cleanup()
			return run(ctx, cmd, s)
		},
	}
}

func newDashboardCmd(e *env) *cobra.Command {
	return readCmd(e, "dashboard", "Today's progress, tree and streak", func(ctx context.Context, cmd *cobra.Command, s *session) error {
		d, err := s.app.Handler.Dashboard(ctx, s.owner)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Heading(ui.TreeIcon(string(d.Tree)), "Today "+d.Date.String()))
		fmt.Fprintln(out, ui.LabelValue("Goal", fmt.Sprintf("%d / %d min", d.Today.MinutesCompleted, d.Today.GoalMinutes)))
		fmt.Fprintln(out, ui.Bar(d.Percent, 30)+" "+ui.Muted.Render(fmt.Sprintf("%.0f%%", d.Percent)))
		if d.Today.GoalCompleted {
			fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" goal reached"))
		}
		fmt.Fprintln(out, ui.LabelValue("Tree", d.Tree))
		fmt.Fprintln(out, ui.LabelValue("Streak", fmt.Sprintf("%s %d days (best %d)", ui.IconFire, d.CurrentStreak, d.MaxStreak)))
		fmt.Fprintln(out, ui.LabelValue("Total", fmt.Sprintf("%d min in %d sessions", d.TotalMinutes, d.CompletedSessions)))
		return nil
	})
}

func newWeekCmd(e *env) *cobra.Command {
	return readCmd(e, "week", "Minutes per day this week", func(ctx context.Context, cmd *cobra.Command, s *session) error {
		w, err := s.app.Handler.Weekly(ctx, s.owner)
		if err != nil {
			return err
		}
		peak := 1
		for _, d := range w.Days {
			peak = max(peak, d.Minutes)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Heading(ui.IconChart, "This week"))
		for _, d := range w.Days {
			fmt.Fprintf(out, "%s %s %3d min\n", ui.Key.Render(d.Day), ui.Bar(float64(d.Minutes)*100/float64(peak), 20), d.Minutes)
		}
		fmt.Fprintln(out, ui.LabelValue("Total", fmt.Sprintf("%d min", w.TotalMinutes)))
		return nil
	})
}

func newCalendarCmd(e *env) *cobra.Command {
	return readCmd(e, "calendar", "Goal days this month", func(ctx context.Context, cmd *cobra.Command, s *session) error {
		c, err := s.app.Handler.Calendar(ctx, s.owner)
		if err != nil {
			return err
		}
		cells := make([]string, 0, len(c.Days))
		for _, d := range c.Days {
			day := d.Date.String()[8:]
			switch {
			case d.Completed:
				cells = append(cells, ui.Good.Render(day))
			case d.Progress > 0:
				cells = append(cells, ui.Warn.Render(day))
			default:
				cells = append(cells, ui.Muted.Render(day))
			}
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Heading(ui.IconChart, "This month"))
		for i := 0; i < len(cells); i += 7 {
			fmt.Fprintln(out, strings.Join(cells[i:min(i+7, len(cells))], " "))
		}
		fmt.Fprintln(out, ui.LabelValue("Goal days", c.CompletedDays))
		return nil
	})
}

func newAchievementsCmd(e *env) *cobra.Command {
	return readCmd(e, "achievements", "Milestones and progress", func(ctx context.Context, cmd *cobra.Command, s *session) error {
		list, err := s.app.Handler.Achievements(ctx, s.owner)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Heading(ui.IconTrophy, "Achievements"))
		for _, a := range list {
			if a.Unlocked {
				fmt.Fprintf(out, "- %s %s %s\n", ui.IconTrophy, ui.Gold.Render(a.Title), ui.Muted.Render(a.Description))
				continue
			}
			fmt.Fprintf(out, "- %s %s %s %s\n", ui.IconLock, a.Title, ui.Bar(float64(a.Progress), 10), ui.Muted.Render(a.Description))
		}
		return nil
	})
}

func newLeaderboardCmd(e *env) *cobra.Command {
	var limit int
	cmd := readCmd(e, "leaderboard", "Top owners by completed minutes", func(ctx context.Context, cmd *cobra.Command, s *session) error {
		board, err := s.app.Handler.Leaderboard(ctx, s.owner, mcp.LimitParams{Limit: limit})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Heading(ui.IconTrophy, "Leaderboard"))
		for _, entry := range board.Top {
			name := entry.DisplayName
			if name == "" {
				name = entry.OwnerID
			}
			line := fmt.Sprintf("%2d. %-20s %5d pts %s %d", entry.Rank, name, entry.Points, ui.IconFire, entry.CurrentStreak)
			if entry.OwnerID == s.owner {
				line = ui.Gold.Render(line)
			}
			fmt.Fprintln(out, line)
		}
		if board.You != nil {
			fmt.Fprintln(out, ui.LabelValue("Your rank", board.You.Rank))
		}
		return nil
	})
	cmd.Flags().IntVar(&limit, "limit", 10, "entries to show")
	return cmd
}

func newHistoryCmd(e *env) *cobra.Command {
	var limit int
	cmd := readCmd(e, "history", "Recent focus sessions", func(ctx context.Context, cmd *cobra.Command, s *session) error {
		resp, err := s.app.Handler.Sessions(ctx, s.owner, mcp.LimitParams{Limit: limit})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(resp.Sessions) == 0 {
			fmt.Fprintln(out, ui.Muted.Render("no sessions yet"))
			return nil
		}
		for _, sess := range resp.Sessions {
			mark := ui.Warn.Render("partial")
			if sess.Completed {
				mark = ui.Good.Render("done")
			}
			fmt.Fprintf(out, "%s %3d min %s\n", ui.Muted.Render(sess.CreatedAt.Local().Format("2006-01-02 15:04")), sess.Duration, mark)
		}
		return nil
	})
	cmd.Flags().IntVar(&limit, "limit", 20, "sessions to show")
	return cmd
}
