package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. A positive wrap soft-wraps cells wider
// than that many runes.
type column struct {
	title string
	align text.Align
	wrap  int
}

func left(title string) column { return column{title: title, align: text.AlignLeft} }
func right(title string) column { return column{title: title, align: text.AlignRight} }

func wrapped(title string, width int) column {
	return column{title: title, align: text.AlignLeft, wrap: width}
}

// renderTable renders rows under cols. Short rows are padded and a non-nil
// footer is rendered below them in the same alignment.
func renderTable(cols []column, rows [][]string, footer []string) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault

	tw.AppendHeader(tableRow(len(cols), func(i int) string { return cols[i].title }))
	for _, row := range rows {
		tw.AppendRow(tableRow(len(cols), cellOf(row)))
	}
	if footer != nil {
		tw.AppendFooter(tableRow(len(cols), cellOf(footer)))
	}

	configs := make([]table.ColumnConfig, 0, len(cols))
	for i, c := range cols {
		cfg := table.ColumnConfig{
			Number:           i + 1,
			Align:            c.align,
			AlignFooter:      c.align,
			AlignHeader:      text.AlignLeft,
			WidthMax:         c.wrap,
			WidthMaxEnforcer: text.WrapSoft,
		}
		configs = append(configs, cfg)
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func tableRow(n int, cell func(int) string) table.Row {
	r := make(table.Row, n)
	for i := range n {
		r[i] = cell(i)
	}
	return r
}

func cellOf(values []string) func(int) string {
	return func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}
}
