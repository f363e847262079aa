// AngelaMos | 2026
// export.go

package medicine

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const inventorySheet = "Inventory"

var inventoryHeaders = []string{
	"Name", "Generic Name", "Category", "Manufacturer", "SKU", "Batch",
	"Stock", "Minimum", "Reserved", "Available", "Stock Status",
	"Cost Price", "Selling Price", "MRP", "Stock Value",
	"Expiry Date", "Expiry Status", "Rx Required",
}

// ExportInventory renders the tenant's active medicines as an XLSX
// workbook, one row per medicine, with a totals row at the end.
func (s *Service) ExportInventory(ctx context.Context, tenantID string) (*bytes.Buffer, error) {
	meds, err := s.repo.ListAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return buildWorkbook(meds, s.opts.Now(), s.opts.Windows)
}

func buildWorkbook(meds []Medicine, now time.Time, w ExpiryWindows) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory workbook

	if err := f.SetSheetName("Sheet1", inventorySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	alertStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#F8CBAD"}},
	})
	if err != nil {
		return nil, fmt.Errorf("alert style: %w", err)
	}

	for i, h := range inventoryHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(inventorySheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	lastCol, _ := excelize.CoordinatesToCellName(len(inventoryHeaders), 1) //nolint:errcheck // constant bounds
	if err := f.SetCellStyle(inventorySheet, "A1", lastCol, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	var totalValue float64
	for i := range meds {
		m := &meds[i]
		row := i + 2
		value := float64(m.StockCurrent) * m.SellingPrice
		totalValue += value

		values := []any{
			m.Name, m.GenericName, m.Category, m.Manufacturer, m.SKU, m.BatchNumber,
			m.StockCurrent, m.StockMinimum, m.StockReserved, m.Available(), string(m.StockStatus()),
			m.CostPrice, m.SellingPrice, m.MRP, value,
			m.ExpiryDate.Format("2006-01-02"), string(m.ExpiryStatus(now, w)), m.RequiresPrescription,
		}

		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, fmt.Errorf("row cell: %w", err)
		}
		if err := f.SetSheetRow(inventorySheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}

		if m.StockStatus() == OutOfStock || m.StockStatus() == LowStock ||
			m.ExpiryStatus(now, w) == Expired {
			end, _ := excelize.CoordinatesToCellName(len(inventoryHeaders), row) //nolint:errcheck // constant bounds
			if err := f.SetCellStyle(inventorySheet, cell, end, alertStyle); err != nil {
				return nil, fmt.Errorf("style row %d: %w", row, err)
			}
		}
	}

	totalRow := len(meds) + 2
	if err := f.SetCellValue(inventorySheet, fmt.Sprintf("A%d", totalRow), "Total"); err != nil {
		return nil, fmt.Errorf("write totals: %w", err)
	}
	if err := f.SetCellValue(inventorySheet, fmt.Sprintf("O%d", totalRow), totalValue); err != nil {
		return nil, fmt.Errorf("write totals: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}

	return buf, nil
}
