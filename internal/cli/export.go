package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshview/meshview/pkg/errors"
	"github.com/meshview/meshview/pkg/render"
)

// Output formats for the export command.
const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPNG = "png"
)

// exportCommand creates the export command for one-shot renders.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		format     string
		output     string
		selects    []string
		detailed   bool
		hideDimmed bool
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the current topology to a file",
		Long: `Export fetches the topology once and renders it to DOT, SVG, or PNG.

Selecting one node with --select highlights its reachable neighborhood;
selecting two highlights the paths between them (first is the source,
second the target).`,
		Example: `  meshview export -o mesh.svg
  meshview export -f png -o mesh.png --detailed
  meshview export -o paths.svg --select '!a1b2c3d4' --select '!b2c3d4e5'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			if len(selects) > 2 {
				return errors.New(errors.ErrCodeInvalidSelection, "at most two nodes can be selected")
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			eng, cleanup, err := c.newEngine(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer cleanup()

			spin := newSpinner(ctx, "Fetching topology...")
			spin.Start()

			prog := newProgress(logger)
			res, err := eng.Refresh(ctx)
			if err != nil {
				spin.StopWithError(errors.UserMessage(err))
				return err
			}
			spin.Stop()
			prog.done(fmt.Sprintf("Fetched %d nodes, %d links", res.Nodes, res.Links))

			for _, id := range selects {
				if err := eng.Toggle(id); err != nil {
					return err
				}
			}

			dot := render.ToDOT(eng.Buffer(), eng.Style(), render.Options{
				Detailed:   detailed,
				HideDimmed: hideDimmed,
			})

			var data []byte
			switch strings.ToLower(format) {
			case formatDOT:
				data = []byte(dot)
			case formatSVG:
				data, err = render.SVG(dot)
			case formatPNG:
				data, err = render.PNG(dot)
			default:
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (dot, svg, png)", format)
			}
			if err != nil {
				return err
			}

			if output == "" {
				output = "mesh." + strings.ToLower(format)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "write %s", output)
			}

			printSuccess("Exported topology")
			printFile(output)
			printStats(res.Nodes, res.Links, false)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatSVG, "output format: dot, svg, or png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default mesh.<format>)")
	cmd.Flags().StringArrayVar(&selects, "select", nil, "node ID to select (repeat for path mode)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include role, address, and last-seen on node labels")
	cmd.Flags().BoolVar(&hideDimmed, "hide-dimmed", false, "omit dimmed entities in selection modes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response caching")

	return cmd
}
