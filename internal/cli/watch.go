package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// watchCommand creates the interactive terminal view.
func (c *CLI) watchCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the topology live in the terminal",
		Long: `Watch shows the node table live, refreshing on the configured interval.

Selecting one node highlights its reachable neighborhood; selecting a
second highlights the paths between them. Key bindings:

  up/down, j/k   move the cursor
  enter, space   toggle selection of the highlighted node
  c, esc         clear the selection
  r              force a refresh
  q, ctrl+c      quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			eng, cleanup, err := c.newEngine(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer cleanup()

			m := newWatchModel(eng, cfg.Refresh.Interval.Std())
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response caching")

	return cmd
}
