package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/memorymap/internal/errors"
	"github.com/felixgeelhaar/memorymap/internal/guard"
	"github.com/felixgeelhaar/memorymap/internal/sessionctx"
	"github.com/felixgeelhaar/memorymap/internal/tui"
)

func newDashboardCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Browse your memory maps interactively",
		Long: `Open the interactive dashboard. It lists your memory maps as cards.

Keys:
  r        refresh
  q, esc   quit

The dashboard requires a session; without one you are sent to login.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			manager := sessionctx.FromContext(ctx)

			res, err := cc.Router.Resolve(guard.RouteDashboard, manager.State())
			if err != nil {
				return err
			}
			if res.Redirected {
				return NotLoggedInError()
			}

			model := tui.NewModel(ctx, manager, cc.Maps.List)
			defer model.Close()

			program := tea.NewProgram(
				model,
				tea.WithContext(ctx),
				tea.WithInput(cc.in),
				tea.WithOutput(cc.out),
				tea.WithAltScreen(),
			)
			final, err := program.Run()
			if err != nil {
				return err
			}

			if m, ok := final.(tui.Model); ok && m.Expired() {
				msg := m.Err()
				if msg == "" {
					msg = msgSessionExpired
				}
				return errors.NewSessionExpiredError(msg)
			}
			return nil
		},
	}
}
