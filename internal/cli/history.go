package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/meshview/meshview/pkg/errors"
)

// historyCommand creates the snapshot history command.
func (c *CLI) historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect archived topology snapshots",
		Long: `History lists, shows, and prunes snapshot records from the archive.

Requires a MongoDB archive ([archive] enabled = true with mongo_uri set).`,
	}

	cmd.AddCommand(c.historyListCommand())
	cmd.AddCommand(c.historyShowCommand())
	cmd.AddCommand(c.historyPruneCommand())

	return cmd
}

// historyListCommand creates the "history list" subcommand.
func (c *CLI) historyListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := c.openArchive(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			recs, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				printInfo("No archived snapshots")
				return nil
			}

			for _, rec := range recs {
				fmt.Printf("%s  %s  %s\n",
					StyleValue.Render(rec.ID),
					StyleDim.Render(rec.Taken.Format("2006-01-02 15:04:05")),
					StyleDim.Render(fmt.Sprintf("%d nodes, %d links", rec.NodeCount, rec.LinkCount)))
			}
			printDetail("%d records", len(recs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum records to list (0 for all)")

	return cmd
}

// historyShowCommand creates the "history show" subcommand.
func (c *CLI) historyShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one archived snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := c.openArchive(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			rec, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
}

// historyPruneCommand creates the "history prune" subcommand.
func (c *CLI) historyPruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune <keep>",
		Short: "Delete all but the newest N snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			keep, err := strconv.Atoi(args[0])
			if err != nil || keep < 0 {
				return errors.New(errors.ErrCodeInvalidInput, "keep must be a non-negative integer")
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := c.openArchive(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			removed, err := store.Prune(ctx, keep)
			if err != nil {
				return err
			}
			printSuccess("Removed %d snapshots, kept the newest %d", removed, keep)
			return nil
		},
	}
}
