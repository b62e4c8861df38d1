package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vendor-inventory-import/controller/respond"
	"vendor-inventory-import/service/import_service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SessionHandler chunk sessions and their staging rows
type SessionHandler struct {
	imports    *import_service.ImportService
	staging    *import_service.StagingService
	reconciler *import_service.ReconcileService
	mass       *import_service.MassCorrectionService
	exporter   *import_service.ExportService
}

// NewSessionHandler create session handler instance
func NewSessionHandler(imports *import_service.ImportService, staging *import_service.StagingService,
	reconciler *import_service.ReconcileService, mass *import_service.MassCorrectionService,
	exporter *import_service.ExportService) *SessionHandler {
	return &SessionHandler{
		imports:    imports,
		staging:    staging,
		reconciler: reconciler,
		mass:       mass,
		exporter:   exporter,
	}
}

// recordQueryParams query string of staging row views
type recordQueryParams struct {
	Status      string `form:"status"`
	NeedsReview string `form:"needsReview"`
	ActionType  string `form:"actionType"`
	Search      string `form:"search"`
	IssueType   string `form:"issueType"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"pageSize" binding:"omitempty,min=1"`
}

func bindRecordQuery(c *gin.Context) (import_service.RecordQuery, error) {
	var p recordQueryParams
	if err := c.ShouldBindQuery(&p); err != nil {
		return import_service.RecordQuery{}, err
	}
	q := import_service.RecordQuery{
		Status:     p.Status,
		ActionType: p.ActionType,
		Search:     p.Search,
		IssueType:  p.IssueType,
		Page:       p.Page,
		PageSize:   p.PageSize,
	}
	if p.NeedsReview != "" {
		v, err := strconv.ParseBool(p.NeedsReview)
		if err != nil {
			return q, fmt.Errorf("%w: needsReview %q", import_service.ErrInvalidFilter, p.NeedsReview)
		}
		q.NeedsReview = &v
	}
	return q, nil
}

// ListSessions list chunk sessions
// @Summary      List sessions
// @Description  Chunk sessions ordered by creation time, newest first
// @Tags         Sessions
// @Produce      json
// @Param        page      query     int  false  "Page number"  default(1)
// @Param        pageSize  query     int  false  "Page size"    default(50)
// @Success      200       {object}  respond.Response{data=import_service.SessionList}
// @Router       /sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))

	list, err := h.imports.ListSessions(page, pageSize)
	if err != nil {
		writeError(c, "ListSessions", err)
		return
	}
	respond.Success(c, list)
}

// GetSession session with progress
// @Summary      Get session
// @Tags         Sessions
// @Produce      json
// @Param        sessionId  path      string  true  "Session ID"
// @Success      200        {object}  respond.Response{data=import_service.SessionProgress}
// @Failure      404        {object}  respond.Response
// @Router       /sessions/{sessionId} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.imports.GetSession(c.Param("sessionId"))
	if err != nil {
		writeError(c, "GetSession", err)
		return
	}
	respond.Success(c, session)
}

// DeleteSession delete a session and its staging rows
// @Summary      Delete session
// @Description  Removes the session and all of its staging rows. Inventory records are kept.
// @Tags         Sessions
// @Produce      json
// @Param        sessionId  path      string  true  "Session ID"
// @Success      200        {object}  respond.Response{data=respond.DeleteSessionResponse}
// @Failure      404        {object}  respond.Response
// @Failure      409        {object}  respond.Response  "Run is active"
// @Router       /sessions/{sessionId} [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	deleted, err := h.imports.DeleteSession(sessionID)
	if err != nil {
		writeError(c, "DeleteSession", err)
		return
	}
	respond.Success(c, respond.DeleteSessionResponse{SessionId: sessionID, DeletedRecords: deleted})
}

// ListRecords staging rows of a session
// @Summary      Query staging rows
// @Tags         Sessions
// @Produce      json
// @Param        sessionId    path      string  true   "Session ID"
// @Param        status       query     string  false  "pending, valid, invalid, corrected, processed"
// @Param        needsReview  query     bool    false  "Needs-review flag"
// @Param        actionType   query     string  false  "insert, update, unknown"
// @Param        search       query     string  false  "Free text over key, part, vendor, description and notes"
// @Param        issueType    query     string  false  "missing_field, invalid_format, calculation_error, duplicate"
// @Param        page         query     int     false  "Page number"  default(1)
// @Param        pageSize     query     int     false  "Page size, at most 500"  default(50)
// @Success      200          {object}  respond.Response{data=import_service.RecordPage}
// @Failure      400          {object}  respond.Response
// @Failure      404          {object}  respond.Response
// @Router       /sessions/{sessionId}/records [get]
func (h *SessionHandler) ListRecords(c *gin.Context) {
	q, err := bindRecordQuery(c)
	if err != nil {
		respond.InvalidParam(c, err.Error())
		return
	}
	page, err := h.staging.QueryRecords(c.Param("sessionId"), q)
	if err != nil {
		writeError(c, "ListRecords", err)
		return
	}
	respond.Success(c, page)
}

// ExportSession XLSX export of staging rows
// @Summary      Export staging rows
// @Description  The filtered staging rows of a session as an XLSX workbook
// @Tags         Sessions
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        sessionId    path   string  true   "Session ID"
// @Param        status       query  string  false  "Record status"
// @Param        needsReview  query  bool    false  "Needs-review flag"
// @Param        issueType    query  string  false  "Issue type"
// @Success      200  {file}    file
// @Failure      404  {object}  respond.Response
// @Router       /sessions/{sessionId}/export [get]
func (h *SessionHandler) ExportSession(c *gin.Context) {
	q, err := bindRecordQuery(c)
	if err != nil {
		respond.InvalidParam(c, err.Error())
		return
	}
	sessionID := c.Param("sessionId")

	var buf bytes.Buffer
	if _, err := h.exporter.ExportSession(sessionID, q, &buf); err != nil {
		writeError(c, "ExportSession", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-staging.xlsx"`, sessionID))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ProcessAll reconcile every valid or corrected row in view
// @Summary      Process all rows
// @Description  Reconciles every valid or corrected row matching the filters. Invalid rows are never reconciled.
// @Tags         Sessions
// @Produce      json
// @Param        sessionId    path      string  true   "Session ID"
// @Param        status       query     string  false  "valid or corrected"
// @Param        needsReview  query     bool    false  "Needs-review flag"
// @Param        search       query     string  false  "Free text"
// @Success      200          {object}  respond.Response{data=import_service.ReconcileSummary}
// @Failure      404          {object}  respond.Response
// @Router       /sessions/{sessionId}/process-all [post]
func (h *SessionHandler) ProcessAll(c *gin.Context) {
	sessionID := c.Param("sessionId")
	q, err := bindRecordQuery(c)
	if err != nil {
		respond.InvalidParam(c, err.Error())
		return
	}
	filter, err := q.Filter(sessionID)
	if err != nil {
		respond.InvalidParam(c, err.Error())
		return
	}
	if _, err := h.imports.GetSession(sessionID); err != nil {
		writeError(c, "ProcessAll", err)
		return
	}

	summary, err := h.reconciler.ProcessAll(c.Request.Context(), filter)
	if err != nil {
		writeError(c, "ProcessAll", err)
		return
	}
	respond.Success(c, summary)
}

// MassCorrect apply a bulk correction
// @Summary      Mass correction
// @Description  strip_formula, recompute_key or recompute_aggregate over selected rows or the whole session. Only rows whose values change are written.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        sessionId  path      string                          true  "Session ID"
// @Param        request    body      respond.MassCorrectionRequest  true  "Correction"
// @Success      200        {object}  respond.Response{data=import_service.MassCorrectionResult}
// @Failure      400        {object}  respond.Response
// @Failure      404        {object}  respond.Response
// @Failure      409        {object}  respond.Response  "Another correction is running"
// @Router       /sessions/{sessionId}/mass-correct [post]
func (h *SessionHandler) MassCorrect(c *gin.Context) {
	var req respond.MassCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.InvalidParam(c, err.Error())
		return
	}
	correction, err := import_service.ParseCorrectionType(req.Type)
	if err != nil {
		respond.InvalidParam(c, err.Error())
		return
	}

	result, err := h.mass.Apply(c.Param("sessionId"), import_service.MassCorrectionRequest{
		Type:         correction,
		TargetIds:    req.TargetIds,
		AllInSession: req.AllInSession,
	})
	if err != nil {
		writeError(c, "MassCorrect", err)
		return
	}
	respond.Success(c, result)
}
