package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lectern/internal/sis"
)

func newBlackoutCommand(ctx *commandContext) *cobra.Command {
	blackoutCmd := &cobra.Command{
		Use:   "blackout",
		Short: "Manage term blackout dates in the feed file",
	}

	blackoutCmd.AddCommand(newBlackoutListCommand(ctx))
	blackoutCmd.AddCommand(newBlackoutAddCommand(ctx))
	blackoutCmd.AddCommand(newBlackoutRemoveCommand(ctx))

	return blackoutCmd
}

func newBlackoutListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List blackout ranges for the current term",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snapshot, err := sis.LoadSnapshot(cfg.Paths.FeedPath)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, snapshot.Term.Blackouts)
			}

			stdout := cmd.OutOrStdout()
			if len(snapshot.Term.Blackouts) == 0 {
				fmt.Fprintln(stdout, "No blackout ranges")
				return nil
			}
			rows := make([][]string, 0, len(snapshot.Term.Blackouts))
			for _, blackout := range snapshot.Term.Blackouts {
				rows = append(rows, []string{
					blackout.Name,
					blackout.Start.String(),
					blackout.End.String(),
				})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Name", "Start", "End"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newBlackoutAddCommand(ctx *commandContext) *cobra.Command {
	var name string
	var startRaw string
	var endRaw string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a blackout range to the feed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := sis.ParseDate(startRaw)
			if err != nil {
				return fmt.Errorf("parse --start: %w", err)
			}
			end, err := sis.ParseDate(endRaw)
			if err != nil {
				return fmt.Errorf("parse --end: %w", err)
			}
			if end.Before(start) {
				return fmt.Errorf("blackout end %s is before start %s", end, start)
			}

			return ctx.editFeed(func(snapshot *sis.Snapshot) error {
				for _, existing := range snapshot.Term.Blackouts {
					if existing.Name == name {
						return fmt.Errorf("blackout %q already exists", name)
					}
				}
				snapshot.Term.Blackouts = append(snapshot.Term.Blackouts, sis.DateRange{
					Name:  name,
					Start: start,
					End:   end,
				})
				fmt.Fprintf(cmd.OutOrStdout(), "Added blackout %q (%s to %s)\n", name, start, end)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Blackout name")
	cmd.Flags().StringVar(&startRaw, "start", "", "First blacked-out date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endRaw, "end", "", "Last blacked-out date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newBlackoutRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a named blackout range from the feed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.editFeed(func(snapshot *sis.Snapshot) error {
				kept := snapshot.Term.Blackouts[:0]
				removed := false
				for _, blackout := range snapshot.Term.Blackouts {
					if blackout.Name == args[0] {
						removed = true
						continue
					}
					kept = append(kept, blackout)
				}
				if !removed {
					return fmt.Errorf("no blackout named %q", args[0])
				}
				snapshot.Term.Blackouts = kept
				fmt.Fprintf(cmd.OutOrStdout(), "Removed blackout %q\n", args[0])
				return nil
			})
		},
	}
}

// editFeed round-trips the raw feed file so edits do not pick up the loader's
// cross-listing canonicalization.
func (c *commandContext) editFeed(edit func(*sis.Snapshot) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(cfg.Paths.FeedPath)
	if err != nil {
		return fmt.Errorf("read feed: %w", err)
	}
	var snapshot sis.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return fmt.Errorf("parse feed: %w", err)
	}
	if err := edit(&snapshot); err != nil {
		return err
	}
	updated, err := json.MarshalIndent(&snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}
	if err := os.WriteFile(cfg.Paths.FeedPath, updated, 0o644); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	return nil
}
