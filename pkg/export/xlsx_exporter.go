package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Attendance"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes notes, then a styled header row, then the rows.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	row := 1
	if data.Title != "" {
		f.SetCellValue(xlsxSheet, cellName(1, row), data.Title)
		row += 2
	}
	for _, note := range data.Notes {
		f.SetCellValue(xlsxSheet, cellName(1, row), note[0])
		f.SetCellValue(xlsxSheet, cellName(2, row), note[1])
		row++
	}
	if len(data.Notes) > 0 {
		row++
	}

	for i, header := range data.Headers {
		f.SetCellValue(xlsxSheet, cellName(i+1, row), header)
	}
	f.SetCellStyle(xlsxSheet, cellName(1, row), cellName(len(data.Headers), row), headerStyle)
	lastCol, _ := excelize.ColumnNumberToName(len(data.Headers))
	f.SetColWidth(xlsxSheet, "A", lastCol, 16)
	row++

	for _, record := range data.Rows {
		for i, header := range data.Headers {
			f.SetCellValue(xlsxSheet, cellName(i+1, row), record[header])
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
