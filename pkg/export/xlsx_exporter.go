package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const maxSheetNameLength = 31

// XLSXExporter renders reports into a workbook with one sheet per section.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render builds the workbook and returns its bytes.
func (e *XLSXExporter) Render(report Report) ([]byte, error) {
	if len(report.Sections) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one section")
	}
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for i, section := range report.Sections {
		if len(section.Headers) == 0 {
			return nil, fmt.Errorf("xlsx section %q has no headers", section.Name)
		}
		name := sheetName(section.Name, i)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return nil, fmt.Errorf("rename sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}

		if err := writeRow(f, name, 1, section.Headers); err != nil {
			return nil, err
		}
		for r, row := range section.Rows {
			if err := writeRow(f, name, r+2, section.record(row)); err != nil {
				return nil, err
			}
		}
	}
	f.SetActiveSheet(0)
	if report.Title != "" {
		if err := f.SetDocProps(&excelize.DocProperties{Title: report.Title}); err != nil {
			return nil, fmt.Errorf("set workbook title: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("resolve cell for row %d: %w", row, err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func sheetName(name string, index int) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if cleaned == "" {
		cleaned = fmt.Sprintf("Sheet%d", index+1)
	}
	if runes := []rune(cleaned); len(runes) > maxSheetNameLength {
		cleaned = string(runes[:maxSheetNameLength])
	}
	return cleaned
}
