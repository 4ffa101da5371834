package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/kombinator/garant/internal/entity"
)

// Lister is the record-manager surface the exporter needs: receipts with
// their derived warranty fields already filled in.
type Lister interface {
	List(ctx context.Context, userID uuid.UUID) ([]*entity.Receipt, error)
}

// Service is a tiny façade over the record manager that produces XLSX bytes
// for exports.
type Service struct {
	receipts Lister
	logger   *zap.Logger
}

func NewService(receipts Lister, logger *zap.Logger) *Service {
	return &Service{receipts: receipts, logger: logger}
}

// ExportReceiptsXLSX returns an XLSX workbook (as bytes) with all of the
// owner's receipts and their warranty status at export time.
func (s *Service) ExportReceiptsXLSX(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	start := time.Now()

	recs, err := s.receipts.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Računi"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		_ = f.DeleteSheet("Sheet1")
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Proizvod",
		"Kategorija",
		"Garancija vrijedi do",
		"Status",
		"Preostalo",
		"Dodano",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.ProductName)
		write(2, r.Category)
		write(3, r.WarrantyExpiration.Format("2006-01-02"))
		write(4, r.Status)
		write(5, r.StatusLabel)
		write(6, r.CreatedAt.Format("2006-01-02"))

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 32) // product
	_ = f.SetColWidth(sheet, "B", "B", 18) // category
	_ = f.SetColWidth(sheet, "C", "C", 20) // expiration
	_ = f.SetColWidth(sheet, "D", "E", 22) // status, label
	_ = f.SetColWidth(sheet, "F", "F", 14) // created

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		zap.String("user_id", userID.String()),
		zap.Int("rows", len(recs)),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return buf.Bytes(), nil
}
