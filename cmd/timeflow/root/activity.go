package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ganot/timeflow/internal/mcp"
	"github.com/ganot/timeflow/internal/ui"
)

func newActivityCmd(e *env) *cobra.Command {
	var (
		typ   string
		limit int
	)
	cmd := readCmd(e, "activity", "Recent timer and settings activity", func(ctx context.Context, cmd *cobra.Command, s *session) error {
		list, err := s.app.Handler.RecentActivity(ctx, s.owner, mcp.RecentActivityParams{Type: typ, Limit: limit})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, ui.Muted.Render("no activity yet"))
			return nil
		}
		for _, entry := range list {
			fmt.Fprintf(out, "%s %s %s\n",
				ui.Muted.Render(entry.Timestamp.Local().Format("01-02 15:04:05")),
				ui.Key.Render(string(entry.Type)),
				entry.Summary)
		}
		return nil
	})
	cmd.Flags().StringVar(&typ, "type", "", "only entries of this type (e.g. session_completed)")
	cmd.Flags().IntVar(&limit, "limit", 20, "entries to show")
	return cmd
}
