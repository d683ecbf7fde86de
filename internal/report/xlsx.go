package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/gh674055/sports-compare-bots/internal/engine"
	"github.com/gh674055/sports-compare-bots/internal/round"
)

const maxSheetName = 31

var sheetNameReplacer = strings.NewReplacer("/", "-", "\\", "-", "?", "", "*", "", "[", "(", "]", ")", ":", "-")

func sheetName(category string, used map[string]bool) string {
	name := sheetNameReplacer.Replace(category)
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	base := name
	for i := 2; used[name]; i++ {
		suffix := fmt.Sprintf(" %d", i)
		name = base
		if len(name)+len(suffix) > maxSheetName {
			name = name[:maxSheetName-len(suffix)]
		}
		name += suffix
	}
	used[name] = true
	return name
}

// WriteWorkbook saves one sheet per comparison to path. Numbers are written
// rounded for display; best values are bold.
func WriteWorkbook(path string, comparisons []Comparison, opts Options) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create workbook style: %w", err)
	}

	used := map[string]bool{}
	for n, c := range comparisons {
		sheet := sheetName(c.Category, used)
		if n == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		if err := writeComparison(f, sheet, c, opts, bold); err != nil {
			return fmt.Errorf("failed to write %s: %w", c.Category, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeComparison(f *excelize.File, sheet string, c Comparison, opts Options, bold int) error {
	header := make([]any, 0, len(c.Subjects)+1)
	header = append(header, "Stat")
	for _, s := range c.Subjects {
		header = append(header, s)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", end, bold); err != nil {
		return err
	}

	rowIdx := 2
	for _, i := range c.visibleRows(opts) {
		d := c.Stats[i]
		best := Best(d, c.Values[i])
		row := make([]any, 0, len(c.Values[i])+1)
		row = append(row, d.Name)
		for _, v := range c.Values[i] {
			row = append(row, cellValue(v, d.Round))
		}
		start, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, start, &row); err != nil {
			return err
		}
		for j, b := range best {
			if !b {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+2, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, cell, bold); err != nil {
				return err
			}
		}
		rowIdx++
	}
	return nil
}

// cellValue returns a number for numeric values and display text otherwise.
func cellValue(v engine.Value, spec round.Spec) any {
	if v.Kind != engine.KindNumber {
		return v.Format(spec)
	}
	return round.Apply(v.Num, spec)
}
