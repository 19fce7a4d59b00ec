package split

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/julianknutsen/cuneiset/internal/dataset"
)

// WriteSummary writes one sheet per split listing its period counts and,
// beside them, its genre counts.
func WriteSummary(path string, parts []Part) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, p := range parts {
		idx, err := f.NewSheet(p.Name)
		if err != nil {
			return fmt.Errorf("adding sheet %s: %w", p.Name, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		if err := f.SetSheetRow(p.Name, "A1", &[]any{"rows", p.Table.Len()}); err != nil {
			return err
		}
		if err := writeCounts(f, p.Name, 1, "period", p.Periods); err != nil {
			return err
		}
		if err := writeCounts(f, p.Name, 4, "genre", p.Genres); err != nil {
			return err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// writeCounts writes a header and one value/count row per entry starting
// at row 3 of the given column.
func writeCounts(f *excelize.File, sheet string, col int, label string, counts []dataset.Count) error {
	cell, err := excelize.CoordinatesToCellName(col, 3)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &[]any{label, "count"}); err != nil {
		return err
	}
	for i, c := range counts {
		cell, err := excelize.CoordinatesToCellName(col, 4+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &[]any{c.Value, c.N}); err != nil {
			return err
		}
	}
	return nil
}
