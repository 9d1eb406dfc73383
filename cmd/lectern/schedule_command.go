package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect active recording series",
	}

	scheduleCmd.AddCommand(newScheduleListCommand(ctx))
	scheduleCmd.AddCommand(newScheduleShowCommand(ctx))

	return scheduleCmd
}

func newScheduleListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active recording series for the current term",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			series, err := client.schedule(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, series)
			}

			stdout := cmd.OutOrStdout()
			if len(series) == 0 {
				fmt.Fprintln(stdout, "No active recording series")
				return nil
			}

			rows := make([][]string, 0, len(series))
			for _, s := range series {
				rows = append(rows, []string{
					s.SectionID,
					s.Title,
					s.MeetingDays,
					s.StartTime + "-" + s.EndTime,
					s.StartDate + " to " + s.EndDate,
					s.RecordingType,
					s.SeriesID,
				})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Section", "Title", "Days", "Time", "Dates", "Recording", "Series"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newScheduleShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <section-id>",
		Short: "Show the recording series scheduled for one section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			series, err := client.schedule(cmd.Context())
			if err != nil {
				return err
			}

			matches := make([]scheduledSeries, 0, 1)
			for _, s := range series {
				if s.SectionID == args[0] {
					matches = append(matches, s)
				}
			}
			if len(matches) == 0 {
				return fmt.Errorf("no active series for section %s", args[0])
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, matches)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			for i, s := range matches {
				if i > 0 {
					fmt.Fprintln(stdout)
				}
				for _, line := range renderSectionHeader(s.Title, colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Section", statusInfo, s.SectionID, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Pattern", statusInfo, s.PatternID, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Series", statusInfo, s.SeriesID, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Room", statusInfo, s.RoomID, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Meets", statusInfo, fmt.Sprintf("%s %s-%s", s.MeetingDays, s.StartTime, s.EndTime), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Dates", statusInfo, s.StartDate+" to "+s.EndDate, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Recording", statusInfo, s.RecordingType, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Publish", statusInfo, s.PublishType, colorize))
			}
			return nil
		},
	}
}
