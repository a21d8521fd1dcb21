package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/lashkaryadi/kuber-be/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ExportService renders tenant data as downloadable spreadsheets.
type ExportService interface {
	// SoldItems returns an XLSX workbook with one row per settled sale.
	SoldItems(ctx context.Context, tenantID uuid.UUID) ([]byte, error)
}

type exportService struct {
	sales repository.SaleRepository
}

func NewExportService(sales repository.SaleRepository) ExportService {
	return &exportService{sales: sales}
}

const exportSheet = "Sold Items"

var soldHeaders = []string{
	"Serial", "Category", "Pieces", "Weight", "Price", "Cost", "Profit",
	"Currency", "Buyer", "Sold Date",
}

func (s *exportService) SoldItems(ctx context.Context, tenantID uuid.UUID) ([]byte, error) {
	sales, err := s.sales.ListAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(exportSheet); err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")

	for i, h := range soldHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}

	for i, sale := range sales {
		row := i + 2
		serial, category := "", ""
		if sale.Lot != nil {
			serial = sale.Lot.SerialNumber
			if sale.Lot.Category != nil {
				category = sale.Lot.Category.Name
			}
		}
		buyer := ""
		if sale.Buyer != nil {
			buyer = *sale.Buyer
		}

		values := []interface{}{
			serial,
			category,
			sale.SoldPieces,
			sale.SoldWeight.String(),
			sale.Price.String(),
			sale.CostPrice.String(),
			sale.Profit.String(),
			sale.Currency,
			buyer,
			sale.SoldDate.Format("2006-01-02"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(exportSheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
