package respond

import (
	"vendor-inventory-import/model"
	"vendor-inventory-import/service/common_service/fieldmap"
)

// HeaderMappingResponse synonym table used to map vendor headers
type HeaderMappingResponse struct {
	Locations []string           `json:"locations" example:"east,west"`
	Mappings  []fieldmap.Mapping `json:"mappings"`
}

// HeaderPreviewRequest headers to map
type HeaderPreviewRequest struct {
	Headers []string `json:"headers" binding:"required,min=1,dive,max=256" example:"Vendor,Part #,East Qty"`
}

// HeaderPreviewItem mapping of one header
type HeaderPreviewItem struct {
	Header string `json:"header" example:"Part #"`
	Field  string `json:"field" example:"part_number"`
	Known  bool   `json:"known" example:"true"` // false when the header falls back to an extra field
}

// HeaderPreviewResponse mapping of every requested header, in order
type HeaderPreviewResponse struct {
	Items []HeaderPreviewItem `json:"items"`
}

// ToHeaderPreview maps headers with the normalizer
func ToHeaderPreview(n *fieldmap.Normalizer, headers []string) *HeaderPreviewResponse {
	fields := n.MapHeaders(headers)
	items := make([]HeaderPreviewItem, len(headers))
	for i, h := range headers {
		items[i] = HeaderPreviewItem{Header: h, Field: fields[i], Known: fieldmap.IsKnownField(fields[i])}
	}
	return &HeaderPreviewResponse{Items: items}
}

// RunControlResponse result of pause, resume or stop
type RunControlResponse struct {
	RunId   string `json:"runId" example:"5b0c1f7e-8a63-4c0e-9a8e-2f7b4d1c9e10"`
	Action  string `json:"action" example:"pause"`
	Message string `json:"message" example:"pause requested, the run stops at the next batch boundary"`
}

// DeleteSessionResponse result of a session delete
type DeleteSessionResponse struct {
	SessionId      string `json:"sessionId"`
	DeletedRecords int64  `json:"deletedRecords" example:"5000"`
}

// ProcessSelectedRequest staging records to reconcile
type ProcessSelectedRequest struct {
	Ids []int64 `json:"ids" binding:"required,min=1,max=5000"`
}

// MassCorrectionRequest bulk correction request
type MassCorrectionRequest struct {
	Type         string  `json:"type" binding:"required" example:"strip_formula"`
	TargetIds    []int64 `json:"targetIds"`
	AllInSession bool    `json:"allInSession"`
}

// ProcessRecordResponse result of reconciling one record
type ProcessRecordResponse struct {
	Action    model.ActionType       `json:"action" example:"insert"`
	Record    *model.StagingRecord   `json:"record"`
	Inventory *model.InventoryRecord `json:"inventory"`
}

// CooldownResponse body of a rejected shipping quote
type CooldownResponse struct {
	RetryAfterSeconds int `json:"retryAfterSeconds" example:"212"`
}

// RowErrorResponse details of a row-level rejection
type RowErrorResponse struct {
	RowNumber int    `json:"rowNumber" example:"17"`
	Field     string `json:"field" example:"part_number"`
	Value     string `json:"value"`
}

// FileErrorResponse details of a malformed upload
type FileErrorResponse struct {
	Line int `json:"line" example:"42"`
}
