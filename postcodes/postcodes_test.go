package postcodes

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet("VIC"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	f.SetCellValue("VIC", "A1", "postcode")
	f.SetCellValue("VIC", "A2", "3000")
	f.SetCellValue("VIC", "A3", "3121")
	f.SetCellValue("VIC", "A4", "") // blank row
	f.SetCellValue("VIC", "A5", "3182")

	if _, err := f.NewSheet("NSW"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	f.SetCellValue("NSW", "A1", "2000")

	path := filepath.Join(t.TempDir(), "grouped_postcodes_by_state.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestByState(t *testing.T) {
	path := writeWorkbook(t)

	got, err := ByState(path, "VIC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{3000, 3121, 3182}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("postcode %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestByStateMissingSheet(t *testing.T) {
	path := writeWorkbook(t)

	if _, err := ByState(path, "WA"); err == nil {
		t.Fatal("expected an error for a missing sheet")
	}
}

func TestByStateMissingFile(t *testing.T) {
	if _, err := ByState("/nonexistent/postcodes.xlsx", "VIC"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
