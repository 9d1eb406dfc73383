package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and last pass status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.status(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			runKind := statusOK
			runDetail := "running"
			if !status.Running {
				runKind = statusError
				runDetail = "stopped"
			}
			fmt.Fprintln(stdout, renderStatusLine("Workflow", runKind, runDetail, colorize))
			fmt.Fprintln(stdout, renderStatusLine("State database", statusInfo, status.StateDBPath, colorize))
			if status.NextPassAt != nil {
				fmt.Fprintln(stdout, renderStatusLine("Next pass", statusInfo, status.NextPassAt.Local().Format(time.RFC3339), colorize))
			}
			if status.LastError != "" {
				fmt.Fprintln(stdout, renderStatusLine("Last error", statusError, status.LastError, colorize))
			}

			report := status.LastPass
			if report == nil {
				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, "No reconciliation pass has completed yet")
				return nil
			}

			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("Last Pass", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, renderStatusLine("Pass", statusInfo, report.PassID, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Term", statusInfo, report.TermID, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Started", statusInfo, report.StartedAt.Local().Format(time.RFC3339), colorize))
			fmt.Fprintln(stdout, renderStatusLine("Duration", statusInfo, fmt.Sprintf("%.1fs", report.DurationS), colorize))

			rows := [][]string{
				{"Created", strconv.Itoa(report.Created)},
				{"Replaced", strconv.Itoa(report.Replaced)},
				{"Updated", strconv.Itoa(report.Updated)},
				{"Canceled", strconv.Itoa(report.Canceled)},
				{"Skipped", strconv.Itoa(report.Skipped)},
				{"Frozen", strconv.Itoa(report.Frozen)},
				{"Failed", strconv.Itoa(report.Failed)},
				{"Mail sent", strconv.Itoa(report.MailSent)},
			}
			fmt.Fprintln(stdout, renderTable([]string{"Result", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

			for _, message := range report.Errors {
				fmt.Fprintln(stdout, renderStatusLine("Pass error", statusWarn, message, colorize))
			}
			return nil
		},
	}
}
