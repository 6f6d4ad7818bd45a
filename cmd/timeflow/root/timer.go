package root

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ganot/timeflow/internal/domain/timer"
	"github.com/ganot/timeflow/internal/mcp"
	"github.com/ganot/timeflow/internal/ui"
)

// timerCmd builds a command that runs one handler operation and prints the
// resulting timer.
func timerCmd(e *env, use, short string, args cobra.PositionalArgs, op func(ctx context.Context, s *session, args []string) (*mcp.TimerResponse, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, cleanup, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			resp, err := op(ctx, s, args)
			if err != nil {
				return err
			}
			renderTimer(cmd.OutOrStdout(), resp)
			return nil
		},
	}
}

func newStartCmd(e *env) *cobra.Command {
	return timerCmd(e, "start [minutes]", "Start a focus session", cobra.MaximumNArgs(1),
		func(ctx context.Context, s *session, args []string) (*mcp.TimerResponse, error) {
			var req mcp.StartTimerParams
			if len(args) == 1 {
				n, err := parseMinutes(args[0])
				if err != nil {
					return nil, err
				}
				req.Minutes = n
			}
			return s.app.Handler.StartTimer(ctx, s.owner, req)
		})
}

func newPauseCmd(e *env) *cobra.Command {
	return timerCmd(e, "pause", "Pause the running session", cobra.NoArgs,
		func(ctx context.Context, s *session, _ []string) (*mcp.TimerResponse, error) {
			return s.app.Handler.PauseTimer(ctx, s.owner)
		})
}

func newResumeCmd(e *env) *cobra.Command {
	return timerCmd(e, "resume", "Resume a paused session", cobra.NoArgs,
		func(ctx context.Context, s *session, _ []string) (*mcp.TimerResponse, error) {
			return s.app.Handler.ResumeTimer(ctx, s.owner)
		})
}

func newResetCmd(e *env) *cobra.Command {
	return timerCmd(e, "reset", "Stop the session, keeping whole elapsed minutes", cobra.NoArgs,
		func(ctx context.Context, s *session, _ []string) (*mcp.TimerResponse, error) {
			return s.app.Handler.ResetTimer(ctx, s.owner)
		})
}

func newStatusCmd(e *env) *cobra.Command {
	return timerCmd(e, "status", "Show the timer", cobra.NoArgs,
		func(ctx context.Context, s *session, _ []string) (*mcp.TimerResponse, error) {
			return s.app.Handler.TimerStatus(ctx, s.owner)
		})
}

func newRetryCmd(e *env) *cobra.Command {
	return timerCmd(e, "retry", "Retry saving a completed session", cobra.NoArgs,
		func(ctx context.Context, s *session, _ []string) (*mcp.TimerResponse, error) {
			return s.app.Handler.RetryPending(ctx, s.owner)
		})
}

func newDurationCmd(e *env) *cobra.Command {
	return timerCmd(e, "duration <minutes>", "Set the length of the next session", cobra.ExactArgs(1),
		func(ctx context.Context, s *session, args []string) (*mcp.TimerResponse, error) {
			n, err := parseMinutes(args[0])
			if err != nil {
				return nil, err
			}
			return s.app.Handler.SetDuration(ctx, s.owner, mcp.SetDurationParams{Minutes: n})
		})
}

func newWatchCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the running session until it ends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, cleanup, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			ctrl := s.app.Hub.Get(ctx, s.owner)
			if st := ctrl.Status(); st.State != timer.StateRunning && st.State != timer.StatePaused {
				renderTimer(out, &mcp.TimerResponse{Timer: st})
				return nil
			}

			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				st := ctrl.Status()
				fmt.Fprintf(out, "\r%s %s %s %s ", ui.IconTimer, ui.StateText(string(st.State)), ui.Clock(st.SecondsLeft), ui.Bar(st.Progress, 30))
				if st.State == timer.StateIdle {
					fmt.Fprintln(out)
					if st.PendingCompletion {
						fmt.Fprintln(out, ui.Warn.Render(ui.IconWarn+" session finished but was not saved; run `timeflow retry`"))
					} else {
						fmt.Fprintln(out, ui.Good.Render(fmt.Sprintf("%s %d minute session complete", ui.IconDone, st.Duration)))
					}
					return nil
				}
				select {
				case <-ctx.Done():
					fmt.Fprintln(out)
					return nil
				case <-ticker.C:
					s.app.Hub.TickAll(ctx)
				}
			}
		},
	}
}

func renderTimer(w io.Writer, resp *mcp.TimerResponse) {
	st := resp.Timer
	lines := []string{
		ui.Heading(ui.IconTimer, "Focus timer"),
		ui.LabelValue("State", ui.StateText(string(st.State))),
		ui.LabelValue("Session", fmt.Sprintf("%d min", st.Duration)),
	}
	if st.State == timer.StateRunning || st.State == timer.StatePaused {
		lines = append(lines,
			ui.LabelValue("Left", ui.Clock(st.SecondsLeft)),
			ui.Bar(st.Progress, 30))
	}
	if st.PendingCompletion {
		lines = append(lines, ui.Warn.Render(ui.IconWarn+" a completed session is waiting to be saved"))
	}
	fmt.Fprintln(w, ui.Panel.Render(strings.Join(lines, "\n")))
	if resp.Warning != "" {
		fmt.Fprintln(w, ui.Warn.Render(ui.IconWarn+" "+resp.Warning))
	}
}

func parseMinutes(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("minutes must be a whole number: %q", s)
	}
	return n, nil
}
