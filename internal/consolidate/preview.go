package consolidate

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/tonyg-mp/pubchem/internal/tree"
)

// Ellipsis marks a truncated preview cell
const Ellipsis = "…"

// previewPriority lists the preview columns that lead the sheet
var previewPriority = []string{
	ColCID,
	ColPrimaryName,
	ColInChIKey,
	ColSMILES,
	ColConnectivitySMILES,
	ColMolecularFormula,
	ColMolecularWeight,
	ColSynonymsN,
	ColSynonymsPreview,
	ColPatentIDsN,
	ColPatentIDsPreview,
	ColMeSHN,
	ColMeSHPreview,
	ColFDAN,
	ColFDAPreview,
	ColHeadingCodes,
}

// PreviewColumns returns the prioritized columns present in wide, then
// every other *_json column in table order.
func PreviewColumns(wide *Wide) []string {
	present := make(map[string]bool, len(wide.Columns))
	for _, c := range wide.Columns {
		present[c] = true
	}

	var cols []string
	picked := make(map[string]bool)
	for _, c := range previewPriority {
		if present[c] {
			cols = append(cols, c)
			picked[c] = true
		}
	}
	for _, c := range wide.Columns {
		if strings.HasSuffix(c, "_json") && !picked[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// Truncate cuts s to limit characters and appends Ellipsis. Strings within
// the limit, and non-positive limits, leave s unchanged.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + Ellipsis
		}
		n++
	}
	return s
}

// PreviewSheet is the worksheet holding the preview
const PreviewSheet = "pubchem_wide"

// WritePreviewXLSX writes the first maxRows rows of the preview projection
// as a single-sheet workbook, or every row when maxRows <= 0.
// String cells longer than cellLimit are truncated; null cells are empty.
func WritePreviewXLSX(w io.Writer, wide *Wide, maxRows, cellLimit int) (written int, err error) {
	cols := PreviewColumns(wide)
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = wide.Index(c)
	}

	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", closeErr)
		}
	}()
	if err := f.SetSheetName(f.GetSheetName(0), PreviewSheet); err != nil {
		return 0, fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(PreviewSheet)
	if err != nil {
		return 0, fmt.Errorf("open sheet: %w", err)
	}

	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	n := len(wide.Rows)
	if maxRows > 0 && maxRows < n {
		n = maxRows
	}
	for r := 0; r < n; r++ {
		record := make([]interface{}, len(cols))
		for i, j := range idx {
			record[i] = previewCell(wide.Rows[r][j], cellLimit)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return r, err
		}
		if err := sw.SetRow(cell, record); err != nil {
			return r, fmt.Errorf("write row %d: %w", r, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return n, fmt.Errorf("flush sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return n, fmt.Errorf("write workbook: %w", err)
	}
	return n, nil
}

// WritePreviewFile writes the preview workbook to path
func WritePreviewFile(path string, wide *Wide, maxRows, cellLimit int) (int, error) {
	var written int
	err := writeFileAtomic(path, func(w io.Writer) error {
		var err error
		written, err = WritePreviewXLSX(w, wide, maxRows, cellLimit)
		return err
	})
	return written, err
}

// previewCell converts a wide cell to a sheet value: nil for null,
// integers as numbers, strings truncated to cellLimit.
func previewCell(v tree.Value, cellLimit int) interface{} {
	switch v.Kind() {
	case tree.Null:
		return nil
	case tree.String:
		s, _ := v.Str()
		return Truncate(s, cellLimit)
	case tree.Number:
		if n, ok := v.Int(); ok {
			return n
		}
		s, _ := v.Text()
		return s
	default:
		return Truncate(v.String(), cellLimit)
	}
}
