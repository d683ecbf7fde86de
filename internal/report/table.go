// Package report renders stat comparisons, trends and workbooks.
package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// cellStyler decorates an already padded cell. row -1 is the header.
type cellStyler func(row, col int, cell string) string

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	return formatStyledTable(headers, rows, rightAlignCols, nil)
}

func formatStyledTable(headers []string, rows [][]string, rightAlignCols map[int]bool, style cellStyler) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount && i < len(row); i++ {
			if w := displayWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(-1, headers, widths, rightAlignCols, style))
	}
	for r, row := range rows {
		lines = append(lines, formatRow(r, row, widths, rightAlignCols, style))
	}
	return lines
}

func formatRow(r int, row []string, widths []int, rightAlignCols map[int]bool, style cellStyler) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		padded := padCell(cell, widths[i], rightAlignCols[i])
		if style != nil {
			padded = style(r, i, padded)
		}
		b.WriteString(padded)
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
