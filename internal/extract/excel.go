package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel flattens a workbook into indexable text. Sheet names are
// included since they often carry the only description of the data.
func extractExcel(content []byte) (string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("read workbook: %w", err)
	}
	defer wb.Close()

	var parts []string
	for _, sheet := range wb.GetSheetList() {
		parts = append(parts, sheet)
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			for _, cell := range row {
				if cell = strings.TrimSpace(cell); cell != "" {
					parts = append(parts, cell)
				}
			}
		}
	}
	return strings.Join(parts, " "), nil
}
