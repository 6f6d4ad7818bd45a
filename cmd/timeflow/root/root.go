package root

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ganot/timeflow/internal/mcp"
	"github.com/ganot/timeflow/internal/ui"
)

const Version = "0.1.0"

// env carries the persistent flags shared by every command.
type env struct {
	dbPath       string
	snapshotPath string
	owner        string
}

func NewRootCmd() *cobra.Command {
	e := &env{}
	cmd := &cobra.Command{
		Use:           "timeflow",
		Short:         "Focus timer with daily goals and streaks",
		Long:          "timeflow runs focus sessions against a local database and tracks daily goals, streaks and achievements.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Version = Version
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	cmd.PersistentFlags().StringVar(&e.dbPath, "db", "", "database path (default from TIMEFLOW_DB_PATH or config)")
	cmd.PersistentFlags().StringVar(&e.snapshotPath, "snapshot", "", "timer snapshot file (default from TIMEFLOW_SNAPSHOT_PATH or config)")
	cmd.PersistentFlags().StringVar(&e.owner, "owner", "", "owner id (default from TIMEFLOW_OWNER or config)")

	cmd.AddCommand(
		newStartCmd(e),
		newPauseCmd(e),
		newResumeCmd(e),
		newResetCmd(e),
		newStatusCmd(e),
		newWatchCmd(e),
		newRetryCmd(e),
		newDurationCmd(e),
		newDashboardCmd(e),
		newWeekCmd(e),
		newCalendarCmd(e),
		newAchievementsCmd(e),
		newLeaderboardCmd(e),
		newHistoryCmd(e),
		newGoalCmd(e),
		newNameCmd(e),
		newResetDataCmd(e),
		newActivityCmd(e),
		newAPIKeyCmd(e),
	)
	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+describeError(err)))
		os.Exit(1)
	}
}

// describeError renders API errors with their recovery hint.
func describeError(err error) string {
	var apiErr *mcp.APIError
	if !errors.As(err, &apiErr) {
		apiErr = mcp.MapError(err)
	}
	if apiErr == nil {
		return err.Error()
	}
	if apiErr.RecoveryHint != "" {
		return fmt.Sprintf("%s (%s)", apiErr.Message, apiErr.RecoveryHint)
	}
	return apiErr.Message
}
