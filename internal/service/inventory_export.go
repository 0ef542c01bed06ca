package service

import (
	"bytes"
	"fmt"

	"careline/internal/models"

	"github.com/xuri/excelize/v2"
)

const inventorySheet = "Inventory"

// InventoryExportHeader is the column order of the inventory workbook.
var InventoryExportHeader = []string{
	"ID",
	"Name",
	"Category",
	"Quantity",
	"Unit",
	"Reorder Level",
	"Needs Reorder",
	"Supplier",
	"Updated At",
}

var inventoryColumnWidths = []float64{8, 30, 14, 10, 10, 14, 14, 28, 20}

// GenerateInventoryExport renders items as an .xlsx workbook with one row per item.
func GenerateInventoryExport(items []models.InventoryItem) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(inventorySheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	lowStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FDE2E2"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create highlight style: %w", err)
	}

	for col, header := range InventoryExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(inventorySheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(inventorySheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(inventorySheet, name, name, inventoryColumnWidths[col]); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, item := range items {
		row := i + 2
		supplier := ""
		if item.Supplier != nil {
			supplier = item.Supplier.Name
		}
		needsReorder := "No"
		if item.NeedsReorder() {
			needsReorder = "Yes"
		}
		values := []any{
			item.ID,
			item.Name,
			string(item.Category),
			item.Quantity,
			item.Unit,
			item.ReorderLevel,
			needsReorder,
			supplier,
			item.UpdatedAt.Format("2006-01-02 15:04"),
		}
		start, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(inventorySheet, start, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
		if item.NeedsReorder() {
			end, _ := excelize.CoordinatesToCellName(len(values), row)
			if err := f.SetCellStyle(inventorySheet, start, end, lowStyle); err != nil {
				return nil, fmt.Errorf("failed to set row style: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
