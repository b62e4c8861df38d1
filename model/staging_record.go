package model

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// LocationQuantity on-hand quantity at one stocking location
type LocationQuantity struct {
	Location string `json:"location"`
	Quantity int64  `json:"quantity"`
}

// SortLocations orders quantities by location name
func SortLocations(qs []LocationQuantity) {
	sort.Slice(qs, func(i, j int) bool { return qs[i].Location < qs[j].Location })
}

// SumLocations total of all location quantities, clamped to the int64 range
func SumLocations(qs []LocationQuantity) int64 {
	total, _ := SumLocationsChecked(qs)
	return total
}

// SumLocationsChecked sums location quantities; ok is false when the sum had to be clamped
func SumLocationsChecked(qs []LocationQuantity) (total int64, ok bool) {
	ok = true
	for _, q := range qs {
		switch {
		case q.Quantity > 0 && total > math.MaxInt64-q.Quantity:
			total, ok = math.MaxInt64, false
		case q.Quantity < 0 && total < math.MinInt64-q.Quantity:
			total, ok = math.MinInt64, false
		default:
			total += q.Quantity
		}
	}
	return total, ok
}

// InventoryFields normalized inventory attributes shared by staging and authoritative records
type InventoryFields struct {
	VendorCode         string                                `gorm:"type:varchar(64);index" json:"vendor_code"`
	PartNumber         string                                `gorm:"type:varchar(128)" json:"part_number"`
	Name               string                                `gorm:"type:varchar(255)" json:"name"`
	Description        string                                `gorm:"type:text" json:"description"`
	LocationQuantities datatypes.JSONSlice[LocationQuantity] `json:"location_quantities"`
	TotalQuantity      int64                                 `gorm:"default:0" json:"total_quantity"`
	Cost               decimal.Decimal                       `gorm:"type:decimal(20,4);default:0" json:"cost"`
	ListPrice          decimal.Decimal                       `gorm:"type:decimal(20,4);default:0" json:"list_price"`
	CorePrice          decimal.Decimal                       `gorm:"type:decimal(20,4);default:0" json:"core_price"`
	Weight             decimal.Decimal                       `gorm:"type:decimal(20,4);default:0" json:"weight"`
	Length             decimal.Decimal                       `gorm:"type:decimal(20,4);default:0" json:"length"`
	Width              decimal.Decimal                       `gorm:"type:decimal(20,4);default:0" json:"width"`
	Height             decimal.Decimal                       `gorm:"type:decimal(20,4);default:0" json:"height"`
	Upc                string                                `gorm:"type:varchar(64)" json:"upc"`
	UnitOfMeasure      string                                `gorm:"type:varchar(32)" json:"unit_of_measure"`
	KitFlag            bool                                  `gorm:"default:false" json:"kit_flag"`
	KitComponents      string                                `gorm:"type:text" json:"kit_components"`
}

// Quantity returns the quantity for a location and whether it is present
func (f *InventoryFields) Quantity(location string) (int64, bool) {
	for _, q := range f.LocationQuantities {
		if q.Location == location {
			return q.Quantity, true
		}
	}
	return 0, false
}

// StagingRecord one parsed source row awaiting review or reconciliation
type StagingRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionId string `gorm:"type:varchar(64);uniqueIndex:idx_staging_session_row,priority:1" json:"session_id"`
	RowNumber int    `gorm:"column:line_number;type:int;uniqueIndex:idx_staging_session_row,priority:2" json:"row_number"` // Line number in the source file

	RawPayload  datatypes.JSONMap `json:"raw_payload"`  // Original header -> cell
	ExtraFields datatypes.JSONMap `json:"extra_fields"` // Unmapped slugged headers

	CompositeKey string `gorm:"type:varchar(191);index" json:"composite_key"`
	InventoryFields

	Status            RecordStatus                         `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	NeedsReview       bool                                 `gorm:"default:false;index" json:"needs_review"`
	Issues            datatypes.JSONSlice[ValidationIssue] `json:"issues"`
	Corrections       datatypes.JSONSlice[CorrectionNote]  `json:"corrections"`
	ActionType        ActionType                           `gorm:"type:varchar(20);default:'unknown'" json:"action_type"`
	InventoryRecordId *int64                               `gorm:"index" json:"inventory_record_id"` // Authoritative record this row was reconciled into
	ProcessedAt       *time.Time                           `json:"processed_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets custom table name
func (StagingRecord) TableName() string {
	return "tb_staging_record"
}

// HasIssueType reports whether any issue of the given type is attached
func (r *StagingRecord) HasIssueType(t IssueType) bool {
	for _, issue := range r.Issues {
		if issue.Type == t {
			return true
		}
	}
	return false
}

// AddCorrection appends a correction note
func (r *StagingRecord) AddCorrection(note CorrectionNote) {
	r.Corrections = append(r.Corrections, note)
}
