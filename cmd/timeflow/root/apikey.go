package root

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ganot/timeflow/internal/ui"
)

func newAPIKeyCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage bearer tokens for the HTTP server",
	}
	cmd.AddCommand(newAPIKeyCreateCmd(e))
	return cmd
}

func newAPIKeyCreateCmd(e *env) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a token for the current owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, cleanup, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			token := uuid.NewString()
			if err := s.app.APIKeys.Create(ctx, s.owner, token, description); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.LabelValue("Owner", s.owner))
			fmt.Fprintln(out, ui.LabelValue("Token", token))
			fmt.Fprintln(out, ui.Muted.Render("the token is stored hashed and cannot be shown again"))
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "cli", "what the token is for")
	return cmd
}
