package excel

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"rag-presupuestos-be/pkg/budget/enrich"
)

const sheetName = "Presupuesto"

var headers = []string{"Código", "Concepto", "Unidad", "Precio (€)", "Origen", "Observaciones"}

// Write renders the enriched budget as a single-sheet XLSX workbook. Lines
// that failed enrichment are written with their error in the remarks column
// so the export stays complete.
func Write(lines []enrich.Line, projectName string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("excel export: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("excel export: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
	})
	if err != nil {
		return nil, fmt.Errorf("excel export: %w", err)
	}

	f.SetCellValue(sheetName, "A1", projectName)
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		f.SetCellValue(sheetName, cell, h)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	row := 4
	for _, line := range lines {
		origin := "Base de conocimiento"
		remarks := ""
		switch {
		case line.Err != nil:
			origin = "Error"
			remarks = line.Err.Error()
		case line.Estimated:
			origin = "Estimación de mercado"
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), line.Item.Code)
		summary := line.Item.Summary
		if summary == "" {
			summary = line.Query
		}
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), summary)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), line.Item.Unit)
		if line.Item.Price > 0 {
			f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), line.Item.Price)
		}
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), origin)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), remarks)
		row++
	}

	f.SetColWidth(sheetName, "B", "B", 50)
	f.SetColWidth(sheetName, "E", "F", 25)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excel export: %w", err)
	}
	return buf, nil
}
