package report

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	if got := sheetName("Advanced/Defense/Back", used); got != "Advanced-Defense-Back" {
		t.Fatalf("unexpected sheet name %q", got)
	}
	long := "Fantasy/Scrimmage/All Purpose Extra Long"
	first := sheetName(long, used)
	if len(first) != maxSheetName {
		t.Fatalf("expected truncation to %d, got %q", maxSheetName, first)
	}
	second := sheetName(long, used)
	if second == first || len(second) > maxSheetName {
		t.Fatalf("expected a distinct name, got %q", second)
	}
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compare.xlsx")
	second := sampleComparison()
	second.Category = "Fantasy/Passing"
	if err := WriteWorkbook(path, []Comparison{sampleComparison(), second}, Options{}); err != nil {
		t.Fatalf("WriteWorkbook failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Passing" || sheets[1] != "Fantasy-Passing" {
		t.Fatalf("unexpected sheets: %v", sheets)
	}
	rows, err := f.GetRows("Passing")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "Brady" || rows[1][0] != "Yds" || rows[1][2] != "5476" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if rows[2][2] != "67.7" {
		t.Fatalf("expected percent value 67.7, got %q", rows[2][2])
	}
}
