package root

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ganot/timeflow/internal/mcp"
	"github.com/ganot/timeflow/internal/ui"
)

func newGoalCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "goal [minutes]",
		Short: "Show or change the daily goal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, cleanup, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				p, err := s.app.Handler.Profile(ctx, s.owner)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, ui.LabelValue("Daily goal", fmt.Sprintf("%d min", p.GoalMinutes)))
				return nil
			}

			n, err := parseMinutes(args[0])
			if err != nil {
				return err
			}
			res, err := s.app.Handler.SetGoal(ctx, s.owner, mcp.SetGoalParams{Minutes: n})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.LabelValue("Daily goal", fmt.Sprintf("%d min", res.Profile.GoalMinutes)))
			if res.Today != nil {
				fmt.Fprintln(out, ui.LabelValue("Today", fmt.Sprintf("%d / %d min", res.Today.MinutesCompleted, res.Today.GoalMinutes)))
			}
			if res.GoalAchieved {
				fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" goal reached"))
			}
			return nil
		},
	}
}

func newNameCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "name <display name>",
		Short: "Set the name shown on the leaderboard",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, cleanup, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := s.app.Handler.SetName(ctx, s.owner, mcp.SetNameParams{DisplayName: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Name", p.DisplayName))
			return nil
		},
	}
}

func newResetDataCmd(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset-data",
		Short: "Delete all sessions, progress, streak and activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, cleanup, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := s.app.Handler.ResetData(ctx, s.owner, mcp.ResetDataParams{Confirm: yes}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconDone+" all focus data deleted"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
