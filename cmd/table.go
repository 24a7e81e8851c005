package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"menuscan/internal/menu"
	"menuscan/pkg/models"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// maxCellWidth wraps long descriptions.
const maxCellWidth = 48

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:           i + 1,
			Align:            align,
			AlignHeader:      text.AlignLeft,
			WidthMax:         maxCellWidth,
			WidthMaxEnforcer: text.WrapSoft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderItemsTable(items []models.ParsedItem) string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		desc := ""
		if it.Description != nil {
			desc = *it.Description
		}
		rows = append(rows, []string{it.Category, it.Name, it.Price, desc, strings.Join(it.Tags, ", ")})
	}
	return renderTable(
		[]string{"Category", "Name", "Price", "Description", "Tags"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func renderLinesTable(lines []menu.Line) string {
	rows := make([][]string, 0, len(lines))
	for _, ln := range lines {
		rows = append(rows, []string{
			fmt.Sprintf("%d", ln.Page),
			fmt.Sprintf("%.3f", ln.X),
			fmt.Sprintf("%.3f", ln.Y),
			string(ln.Type),
			ln.Text,
		})
	}
	return renderTable(
		[]string{"Page", "X", "Y", "Type", "Text"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft},
	)
}
