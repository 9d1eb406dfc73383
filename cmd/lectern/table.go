package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Column alignment for renderTable. Counts read better right-aligned.
type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable draws the rounded-style table shared by the schedule, history,
// blackout, and config listings. Rows shorter than the header are padded.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	if len(headers) == 0 {
		return ""
	}

	writer := table.NewWriter()
	writer.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, label := range headers {
		header[i] = label
	}
	writer.AppendHeader(header)

	for _, row := range rows {
		cells := make(table.Row, len(headers))
		for i := range headers {
			cells[i] = ""
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		writer.AppendRow(cells)
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	writer.SetColumnConfigs(configs)

	return writer.Render()
}
