package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"vendor-inventory-import/controller/respond"
	"vendor-inventory-import/service/import_service"
)

// RecordHandler single staging rows and the inventory store
type RecordHandler struct {
	imports    *import_service.ImportService
	staging    *import_service.StagingService
	reconciler *import_service.ReconcileService
}

// NewRecordHandler create record handler instance
func NewRecordHandler(imports *import_service.ImportService, staging *import_service.StagingService,
	reconciler *import_service.ReconcileService) *RecordHandler {
	return &RecordHandler{imports: imports, staging: staging, reconciler: reconciler}
}

func recordID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.InvalidParam(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// GetRecord get one staging row
// @Summary      Get staging row
// @Tags         Records
// @Produce      json
// @Param        id   path      int  true  "Staging record ID"
// @Success      200  {object}  respond.Response{data=model.StagingRecord}
// @Failure      404  {object}  respond.Response
// @Router       /records/{id} [get]
func (h *RecordHandler) GetRecord(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	rec, err := h.staging.GetRecord(id)
	if err != nil {
		writeError(c, "GetRecord", err)
		return
	}
	respond.Success(c, rec)
}

// UpdateRecord manual edit of a staging row
// @Summary      Edit staging row
// @Description  Applies the provided fields, recomputes composite key and aggregate quantity server-side, marks the row corrected and clears its needs-review flag. Edits leaving vendor or part number empty are rejected.
// @Tags         Records
// @Accept       json
// @Produce      json
// @Param        id       path      int                          true  "Staging record ID"
// @Param        request  body      import_service.RecordPatch  true  "Fields to change"
// @Success      200      {object}  respond.Response{data=model.StagingRecord}
// @Failure      400      {object}  respond.Response{data=respond.RowErrorResponse}
// @Failure      404      {object}  respond.Response
// @Router       /records/{id} [patch]
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	var patch import_service.RecordPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.InvalidParam(c, err.Error())
		return
	}
	rec, err := h.staging.UpdateRecord(id, patch)
	if err != nil {
		writeError(c, "UpdateRecord", err)
		return
	}
	respond.Success(c, rec)
}

// DeleteRecord delete one staging row
// @Summary      Delete staging row
// @Description  The reconciled inventory record, if any, is kept
// @Tags         Records
// @Produce      json
// @Param        id   path      int  true  "Staging record ID"
// @Success      200  {object}  respond.Response
// @Failure      404  {object}  respond.Response
// @Router       /records/{id} [delete]
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	if err := h.staging.DeleteRecord(id); err != nil {
		writeError(c, "DeleteRecord", err)
		return
	}
	respond.Success(c, gin.H{"id": id})
}

// ProcessRecord reconcile one staging row
// @Summary      Process staging row
// @Description  Upserts the row into the inventory store by composite key
// @Tags         Records
// @Produce      json
// @Param        id   path      int  true  "Staging record ID"
// @Success      200  {object}  respond.Response{data=respond.ProcessRecordResponse}
// @Failure      400  {object}  respond.Response  "Row is not valid or corrected"
// @Failure      404  {object}  respond.Response
// @Router       /records/{id}/process [post]
func (h *RecordHandler) ProcessRecord(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	outcome, err := h.reconciler.ProcessRecord(c.Request.Context(), id)
	if err != nil {
		writeError(c, "ProcessRecord", err)
		return
	}
	respond.Success(c, respond.ProcessRecordResponse{
		Action:    outcome.Action,
		Record:    outcome.Record,
		Inventory: outcome.Inventory,
	})
}

// ProcessSelected reconcile selected staging rows
// @Summary      Process selected rows
// @Description  Rows that are not valid or corrected are skipped; per-row failures are reported without aborting the rest
// @Tags         Records
// @Accept       json
// @Produce      json
// @Param        request  body      respond.ProcessSelectedRequest  true  "Record IDs"
// @Success      200      {object}  respond.Response{data=import_service.ReconcileSummary}
// @Failure      400      {object}  respond.Response
// @Router       /records/process [post]
func (h *RecordHandler) ProcessSelected(c *gin.Context) {
	var req respond.ProcessSelectedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.InvalidParam(c, err.Error())
		return
	}
	summary, err := h.reconciler.ProcessSelected(c.Request.Context(), req.Ids)
	if err != nil {
		writeError(c, "ProcessSelected", err)
		return
	}
	respond.Success(c, summary)
}

// GetInventory read an authoritative inventory record
// @Summary      Get inventory record
// @Tags         Inventory
// @Produce      json
// @Param        compositeKey  path      string  true  "Composite key"
// @Success      200           {object}  respond.Response{data=model.InventoryRecord}
// @Failure      404           {object}  respond.Response
// @Router       /inventory/{compositeKey} [get]
func (h *RecordHandler) GetInventory(c *gin.Context) {
	rec, err := h.imports.GetInventoryRecord(c.Param("compositeKey"))
	if err != nil {
		writeError(c, "GetInventory", err)
		return
	}
	respond.Success(c, rec)
}
