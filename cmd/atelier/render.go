package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"atelier/internal/queue"
)

type column struct {
	header string
	right  bool
}

func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, col := range columns {
		header[i] = col.header
		align := text.AlignLeft
		if col.right {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorize(value, color string, enabled bool) string {
	if !enabled || color == "" {
		return value
	}
	return color + value + ansiReset
}

func priorityColor(priority string) string {
	switch priority {
	case queue.PriorityUrgent.String():
		return ansiRed
	case queue.PriorityHigh.String():
		return ansiYellow
	default:
		return ""
	}
}

func statusColor(status string) string {
	switch {
	case status == queue.Published().String():
		return ansiGreen
	case status == queue.Rejected().String():
		return ansiRed
	case strings.HasSuffix(status, "/"+string(queue.PhaseHold)):
		return ansiYellow
	default:
		return ansiBlue
	}
}

var titleCaser = cases.Title(language.Und)

// displayLabel turns a snake_case token such as "marketplace_prep" into a
// heading ("Marketplace Prep").
func displayLabel(token string) string {
	return titleCaser.String(strings.ReplaceAll(token, "_", " "))
}

func formatHours(hours float64) string {
	if hours >= 48 {
		return fmt.Sprintf("%.1fd", hours/24)
	}
	return fmt.Sprintf("%.1fh", hours)
}

// formatTimestamp trims API timestamps to minute precision for tables.
func formatTimestamp(value string) string {
	if len(value) >= 16 {
		return strings.Replace(value[:16], "T", " ", 1)
	}
	return value
}
