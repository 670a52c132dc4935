// Package postcodes reads the grouped postcode workbook, which holds one
// sheet per state abbreviation with that state's postcodes.
package postcodes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ByState returns the postcodes listed on the sheet named after the state
// abbreviation (e.g. "VIC"). Blank and non-numeric cells are skipped; a
// leading "postcode" header row is tolerated.
func ByState(path, state string) ([]int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("postcodes: open %q: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(state)
	if err != nil {
		return nil, fmt.Errorf("postcodes: sheet %q: %w", state, err)
	}

	var out []int
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if cell == "" || strings.EqualFold(cell, "postcode") {
			continue
		}
		n, err := strconv.Atoi(cell)
		if err != nil {
			continue
		}
		out = append(out, n)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("postcodes: sheet %q has no postcodes", state)
	}
	return out, nil
}
