package import_service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"vendor-inventory-import/database"
	"vendor-inventory-import/model"
	"vendor-inventory-import/service/common_service/fieldmap"
	"vendor-inventory-import/service/common_service/validation"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// StagingService staging row query, manual edit and delete
type StagingService struct {
	db  database.Database
	now func() time.Time
}

// NewStagingService create staging service instance
func NewStagingService(db database.Database) *StagingService {
	return &StagingService{db: db, now: time.Now}
}

// NewStagingRecord builds the staging row for one validated source row
func NewStagingRecord(sessionID string, rowNumber int, payload map[string]interface{}, res *validation.Result) *model.StagingRecord {
	extra := make(map[string]interface{}, len(res.Extra))
	for k, v := range res.Extra {
		extra[k] = v
	}
	rec := &model.StagingRecord{
		SessionId:       sessionID,
		RowNumber:       rowNumber,
		RawPayload:      payload,
		ExtraFields:     extra,
		CompositeKey:    res.CompositeKey,
		InventoryFields: res.Fields,
		Status:          res.Status,
		Issues:          res.Issues(),
		Corrections:     res.Corrections,
		ActionType:      model.ActionTypeUnknown,
	}
	rec.NeedsReview = needsReview(rec)
	return rec
}

// needsReview invalid rows and rows with warnings the validator could not fix itself
func needsReview(rec *model.StagingRecord) bool {
	if rec.Status == model.RecordStatusInvalid {
		return true
	}
	for _, issue := range rec.Issues {
		if issue.Type != model.IssueTypeCalculationError {
			return true
		}
	}
	return false
}

// RecordQuery staging query parameters
type RecordQuery struct {
	Status      string // Record status, empty for all
	NeedsReview *bool  // Needs-review flag, nil for all
	ActionType  string // Reconciliation action, empty for all
	Search      string // Free text over key, part, vendor, description and notes
	IssueType   string // Issue type, empty for all
	Page        int    // 1-based
	PageSize    int    // Rows per page, capped at 500
}

// RecordPage one page of staging rows
type RecordPage struct {
	Records    []*model.StagingRecord `json:"records"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"pageSize"`
	TotalPages int                    `json:"totalPages"`
}

// Filter converts the query into a store filter scoped to a session
func (q RecordQuery) Filter(sessionID string) (database.StagingFilter, error) {
	filter := database.StagingFilter{
		SessionId:   sessionID,
		NeedsReview: q.NeedsReview,
		SearchTerm:  strings.TrimSpace(q.Search),
	}
	if q.Status != "" {
		status, ok := model.ParseRecordStatus(q.Status)
		if !ok {
			return filter, fmt.Errorf("%w: status %q", ErrInvalidFilter, q.Status)
		}
		filter.Statuses = []model.RecordStatus{status}
	}
	if q.ActionType != "" {
		action, ok := model.ParseActionType(q.ActionType)
		if !ok {
			return filter, fmt.Errorf("%w: actionType %q", ErrInvalidFilter, q.ActionType)
		}
		filter.ActionType = action
	}
	if q.IssueType != "" {
		issueType, ok := model.ParseIssueType(q.IssueType)
		if !ok {
			return filter, fmt.Errorf("%w: issueType %q", ErrInvalidFilter, q.IssueType)
		}
		filter.IssueType = issueType
	}
	return filter, nil
}

func (q RecordQuery) pageBounds() (page, size int) {
	page, size = q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// QueryRecords returns a filtered page of a session's staging rows
func (s *StagingService) QueryRecords(sessionID string, q RecordQuery) (*RecordPage, error) {
	if _, err := s.db.GetUploadSession(sessionID); err != nil {
		return nil, err
	}
	filter, err := q.Filter(sessionID)
	if err != nil {
		return nil, err
	}
	page, size := q.pageBounds()
	filter.Offset = (page - 1) * size
	filter.Limit = size

	records, total, err := s.db.QueryStagingRecords(filter)
	if err != nil {
		return nil, err
	}
	return &RecordPage{
		Records:    records,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

// GetRecord get one staging row
func (s *StagingService) GetRecord(id int64) (*model.StagingRecord, error) {
	return s.db.GetStagingRecord(id)
}

// DeleteRecord delete one staging row. Reconciled inventory is left untouched.
func (s *StagingService) DeleteRecord(id int64) error {
	return s.db.DeleteStagingRecord(id)
}

// RecordPatch manual edit; nil fields are left unchanged
type RecordPatch struct {
	VendorCode         *string          `json:"vendorCode"`
	PartNumber         *string          `json:"partNumber"`
	Name               *string          `json:"name"`
	Description        *string          `json:"description"`
	LocationQuantities map[string]int64 `json:"locationQuantities"` // Location -> quantity, merged into existing ones
	TotalQuantity      *int64           `json:"totalQuantity"`      // Ignored when location quantities exist
	Cost               *decimal.Decimal `json:"cost"`
	ListPrice          *decimal.Decimal `json:"listPrice"`
	CorePrice          *decimal.Decimal `json:"corePrice"`
	Weight             *decimal.Decimal `json:"weight"`
	Length             *decimal.Decimal `json:"length"`
	Width              *decimal.Decimal `json:"width"`
	Height             *decimal.Decimal `json:"height"`
	Upc                *string          `json:"upc"`
	UnitOfMeasure      *string          `json:"unitOfMeasure"`
	KitFlag            *bool            `json:"kitFlag"`
	KitComponents      *string          `json:"kitComponents"`
}

// recordEdit accumulates the field changes of one manual edit
type recordEdit struct {
	rec     *model.StagingRecord
	at      time.Time
	touched map[string]bool
}

func (e *recordEdit) note(field, oldValue, newValue string) {
	e.touched[field] = true
	if oldValue == newValue {
		return
	}
	e.rec.AddCorrection(model.NewCorrectionNote(model.CorrectionSourceManualEdit, field, oldValue, newValue, e.at))
}

func (e *recordEdit) text(field string, dst *string, v *string) {
	if v == nil {
		return
	}
	old := *dst
	*dst = strings.TrimSpace(*v)
	e.note(field, old, *dst)
}

func (e *recordEdit) amount(field string, dst *decimal.Decimal, v *decimal.Decimal) {
	if v == nil {
		return
	}
	old := *dst
	*dst = *v
	e.note(field, old.String(), v.String())
}

// UpdateRecord applies a manual edit. Key and aggregate are always recomputed server-side
// and the row becomes corrected; the link to a reconciled inventory record is kept.
func (s *StagingService) UpdateRecord(id int64, patch RecordPatch) (*model.StagingRecord, error) {
	rec, err := s.db.GetStagingRecord(id)
	if err != nil {
		return nil, err
	}
	if err := applyPatch(rec, patch, s.now()); err != nil {
		return nil, err
	}
	if err := s.db.UpdateStagingRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func applyPatch(rec *model.StagingRecord, patch RecordPatch, at time.Time) error {
	edit := &recordEdit{rec: rec, at: at, touched: make(map[string]bool)}

	if patch.VendorCode != nil {
		v := validation.NormalizeVendorCode(*patch.VendorCode)
		edit.text(fieldmap.FieldVendorCode, &rec.VendorCode, &v)
	}
	if patch.PartNumber != nil {
		p := fieldmap.StripFormula(*patch.PartNumber)
		edit.text(fieldmap.FieldPartNumber, &rec.PartNumber, &p)
	}
	if rec.VendorCode == "" {
		return &RowError{RowNumber: rec.RowNumber, Field: fieldmap.FieldVendorCode, Value: rec.VendorCode, Err: ErrRequiredFieldEmpty}
	}
	if rec.PartNumber == "" {
		return &RowError{RowNumber: rec.RowNumber, Field: fieldmap.FieldPartNumber, Value: rec.PartNumber, Err: ErrRequiredFieldEmpty}
	}

	edit.text(fieldmap.FieldName, &rec.Name, patch.Name)
	edit.text(fieldmap.FieldDescription, &rec.Description, patch.Description)
	edit.text(fieldmap.FieldUpc, &rec.Upc, patch.Upc)
	edit.text(fieldmap.FieldUnitOfMeasure, &rec.UnitOfMeasure, patch.UnitOfMeasure)
	edit.text(fieldmap.FieldKitComponents, &rec.KitComponents, patch.KitComponents)
	edit.amount(fieldmap.FieldCost, &rec.Cost, patch.Cost)
	edit.amount(fieldmap.FieldListPrice, &rec.ListPrice, patch.ListPrice)
	edit.amount(fieldmap.FieldCorePrice, &rec.CorePrice, patch.CorePrice)
	edit.amount(fieldmap.FieldWeight, &rec.Weight, patch.Weight)
	edit.amount(fieldmap.FieldLength, &rec.Length, patch.Length)
	edit.amount(fieldmap.FieldWidth, &rec.Width, patch.Width)
	edit.amount(fieldmap.FieldHeight, &rec.Height, patch.Height)
	if patch.KitFlag != nil {
		old := rec.KitFlag
		rec.KitFlag = *patch.KitFlag
		edit.note(fieldmap.FieldKitFlag, strconv.FormatBool(old), strconv.FormatBool(rec.KitFlag))
	}

	if len(patch.LocationQuantities) > 0 {
		mergeLocations(edit, patch.LocationQuantities)
	}
	if patch.TotalQuantity != nil && len(rec.LocationQuantities) == 0 {
		old := rec.TotalQuantity
		rec.TotalQuantity = *patch.TotalQuantity
		edit.note(fieldmap.FieldTotalQty, strconv.FormatInt(old, 10), strconv.FormatInt(rec.TotalQuantity, 10))
	}

	recomputeKey(rec, model.CorrectionSourceManualEdit, at)
	recomputeAggregate(rec, model.CorrectionSourceManualEdit, at)

	rec.Issues = remainingIssues(rec.Issues, edit.touched)
	rec.Status = model.RecordStatusCorrected
	rec.NeedsReview = false
	return nil
}

func mergeLocations(edit *recordEdit, quantities map[string]int64) {
	rec := edit.rec
	locations := make([]model.LocationQuantity, 0, len(rec.LocationQuantities)+len(quantities))
	locations = append(locations, rec.LocationQuantities...)
	names := make([]string, 0, len(quantities))
	for location := range quantities {
		names = append(names, location)
	}
	sort.Strings(names)
	for _, name := range names {
		qty := quantities[name]
		location := strings.ToLower(strings.TrimSpace(name))
		if location == "" {
			continue
		}
		old, found := rec.Quantity(location)
		if found {
			for i := range locations {
				if locations[i].Location == location {
					locations[i].Quantity = qty
				}
			}
		} else {
			locations = append(locations, model.LocationQuantity{Location: location, Quantity: qty})
		}
		oldText := ""
		if found {
			oldText = strconv.FormatInt(old, 10)
		}
		edit.note(fieldmap.LocationField(location), oldText, strconv.FormatInt(qty, 10))
	}
	model.SortLocations(locations)
	rec.LocationQuantities = locations
}

// remainingIssues drops issues an edit has resolved
func remainingIssues(issues []model.ValidationIssue, touched map[string]bool) []model.ValidationIssue {
	out := make([]model.ValidationIssue, 0, len(issues))
	for _, issue := range issues {
		switch {
		case issue.Type == model.IssueTypeMissingField, issue.Type == model.IssueTypeCalculationError:
		case touched[issue.Field]:
		default:
			out = append(out, issue)
		}
	}
	return out
}

// recomputeKey derives the composite key from vendor code and part number.
// It returns true when the key changed.
func recomputeKey(rec *model.StagingRecord, source model.CorrectionSource, at time.Time) bool {
	key := validation.CompositeKey(rec.VendorCode, rec.PartNumber)
	if key == rec.CompositeKey {
		return false
	}
	rec.AddCorrection(model.NewCorrectionNote(source, fieldmap.FieldCompositeKey, rec.CompositeKey, key, at))
	rec.CompositeKey = key
	return true
}

// recomputeAggregate sets the total to the sum of location quantities.
// Rows without location quantities keep their total.
func recomputeAggregate(rec *model.StagingRecord, source model.CorrectionSource, at time.Time) bool {
	if validation.AggregateConsistent(rec) {
		return false
	}
	total := model.SumLocations(rec.LocationQuantities)
	rec.AddCorrection(model.NewCorrectionNote(source, fieldmap.FieldTotalQty,
		strconv.FormatInt(rec.TotalQuantity, 10), strconv.FormatInt(total, 10), at))
	rec.TotalQuantity = total
	return true
}
