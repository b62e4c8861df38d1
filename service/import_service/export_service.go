package import_service

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"vendor-inventory-import/database"
	"vendor-inventory-import/model"
	"vendor-inventory-import/service/common_service/fieldmap"
)

const (
	exportSheet    = "Staging"
	exportPageSize = 500
)

// ExportService writes staging rows to XLSX for offline review
type ExportService struct {
	db        database.Database
	locations []string
}

// NewExportService create export service instance
func NewExportService(db database.Database, normalizer *fieldmap.Normalizer) *ExportService {
	return &ExportService{db: db, locations: normalizer.Locations()}
}

func (s *ExportService) headers() []interface{} {
	headers := []interface{}{"row_number", "status", "needs_review", "composite_key",
		fieldmap.FieldVendorCode, fieldmap.FieldPartNumber, fieldmap.FieldName, fieldmap.FieldDescription}
	for _, location := range s.locations {
		headers = append(headers, fieldmap.LocationField(location))
	}
	return append(headers, fieldmap.FieldTotalQty, fieldmap.FieldCost, fieldmap.FieldListPrice,
		fieldmap.FieldCorePrice, fieldmap.FieldWeight, fieldmap.FieldLength, fieldmap.FieldWidth,
		fieldmap.FieldHeight, fieldmap.FieldUpc, fieldmap.FieldUnitOfMeasure, fieldmap.FieldKitFlag,
		fieldmap.FieldKitComponents, "action_type", "inventory_record_id", "issues", "corrections")
}

func (s *ExportService) row(rec *model.StagingRecord) []interface{} {
	row := []interface{}{rec.RowNumber, string(rec.Status), rec.NeedsReview, rec.CompositeKey,
		rec.VendorCode, rec.PartNumber, rec.Name, rec.Description}
	for _, location := range s.locations {
		if qty, ok := rec.Quantity(location); ok {
			row = append(row, qty)
		} else {
			row = append(row, "")
		}
	}

	var inventoryID interface{} = ""
	if rec.InventoryRecordId != nil {
		inventoryID = *rec.InventoryRecordId
	}
	issues := make([]string, 0, len(rec.Issues))
	for _, issue := range rec.Issues {
		issues = append(issues, issue.String())
	}
	corrections := make([]string, 0, len(rec.Corrections))
	for _, note := range rec.Corrections {
		corrections = append(corrections, note.Message)
	}

	return append(row, rec.TotalQuantity, rec.Cost.String(), rec.ListPrice.String(), rec.CorePrice.String(),
		rec.Weight.String(), rec.Length.String(), rec.Width.String(), rec.Height.String(),
		rec.Upc, rec.UnitOfMeasure, rec.KitFlag, rec.KitComponents, string(rec.ActionType), inventoryID,
		strings.Join(issues, "\n"), strings.Join(corrections, "\n"))
}

// ExportSession streams the filtered staging rows of a session as an XLSX workbook
func (s *ExportService) ExportSession(sessionID string, q RecordQuery, w io.Writer) (int, error) {
	if _, err := s.db.GetUploadSession(sessionID); err != nil {
		return 0, err
	}
	filter, err := q.Filter(sessionID)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return 0, err
	}
	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return 0, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return 0, err
	}
	headers := s.headers()
	headerCells := make([]interface{}, len(headers))
	for i, h := range headers {
		headerCells[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", headerCells); err != nil {
		return 0, err
	}

	rowNo := 2
	var afterID int64
	for {
		page, err := s.db.ScanStagingRecords(filter, afterID, exportPageSize)
		if err != nil {
			return 0, err
		}
		for _, rec := range page {
			cell, err := excelize.CoordinatesToCellName(1, rowNo)
			if err != nil {
				return 0, err
			}
			if err := sw.SetRow(cell, s.row(rec)); err != nil {
				return 0, err
			}
			rowNo++
			afterID = rec.ID
		}
		if len(page) < exportPageSize {
			break
		}
	}

	if err := sw.Flush(); err != nil {
		return 0, err
	}
	if err := f.Write(w); err != nil {
		return 0, err
	}
	return rowNo - 2, nil
}
