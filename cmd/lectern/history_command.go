package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var sectionID string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent schedule change history",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			entries, err := client.history(cmd.Context(), sectionID, limit)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, entries)
			}

			stdout := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(stdout, "No history entries")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				change := entry.FieldName
				if entry.ValueOld != "" || entry.ValueNew != "" {
					change = fmt.Sprintf("%s: %s -> %s", entry.FieldName, entry.ValueOld, entry.ValueNew)
				}
				rows = append(rows, []string{
					entry.CreatedAt,
					entry.SectionID,
					change,
					entry.RequestedBy,
					entry.Status,
				})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"When", "Section", "Change", "Requested By", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&sectionID, "section", "", "Limit history to one section")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries")
	return cmd
}
