package handler

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"vendor-inventory-import/controller/respond"
	"vendor-inventory-import/service/common_service/fieldmap"
	"vendor-inventory-import/service/import_service"
)

// ImportHandler upload, header mapping, progress and run control
type ImportHandler struct {
	imports    *import_service.ImportService
	scheduler  *import_service.ChunkScheduler
	progress   *import_service.ProgressService
	normalizer *fieldmap.Normalizer
	maxBytes   int64
}

// NewImportHandler create import handler instance
func NewImportHandler(imports *import_service.ImportService, scheduler *import_service.ChunkScheduler,
	progress *import_service.ProgressService, normalizer *fieldmap.Normalizer, maxBytes int64) *ImportHandler {
	return &ImportHandler{
		imports:    imports,
		scheduler:  scheduler,
		progress:   progress,
		normalizer: normalizer,
		maxBytes:   maxBytes,
	}
}

func formBool(c *gin.Context, key string, def bool) (bool, error) {
	v := c.PostForm(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

// Upload upload a vendor inventory CSV
// @Summary      Upload inventory CSV
// @Description  Validate and archive a CSV file, carve it into chunk sessions and optionally start processing. Non-CSV uploads and empty or malformed files are rejected before any session is created.
// @Tags         Imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        file       formData  file  true   "CSV file"
// @Param        autoStart  formData  bool  false  "Start processing right away"  default(true)
// @Param        stageOnly  formData  bool  false  "Stage and validate without reconciling"  default(false)
// @Success      200  {object}  respond.Response{data=import_service.UploadResult}
// @Failure      400  {object}  respond.Response  "Empty or malformed file"
// @Failure      415  {object}  respond.Response  "Not a CSV file"
// @Failure      500  {object}  respond.Response
// @Router       /imports [post]
func (h *ImportHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respond.InvalidParam(c, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !import_service.IsCSVUpload(header.Filename, contentType) {
		respond.UnsupportedMediaType(c, import_service.ErrUnsupportedContentType.Error())
		return
	}

	autoStart, err := formBool(c, "autoStart", true)
	if err != nil {
		respond.InvalidParam(c, "autoStart must be a boolean")
		return
	}
	stageOnly, err := formBool(c, "stageOnly", false)
	if err != nil {
		respond.InvalidParam(c, "stageOnly must be a boolean")
		return
	}

	var reader io.Reader = file
	if h.maxBytes > 0 {
		// One byte over the limit is enough for the service to reject it
		reader = io.LimitReader(file, h.maxBytes+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		respond.ServerError(c, "failed to read file")
		return
	}

	result, err := h.imports.Upload(&import_service.UploadRequest{
		FileName:    header.Filename,
		ContentType: contentType,
		Content:     content,
		AutoStart:   autoStart,
		StageOnly:   stageOnly,
	})
	if err != nil {
		writeError(c, "Upload", err)
		return
	}
	respond.Success(c, result)
}

// HeaderMapping synonym table
// @Summary      Header synonym table
// @Description  Every accepted header spelling and the canonical field it maps to
// @Tags         Imports
// @Produce      json
// @Success      200  {object}  respond.Response{data=respond.HeaderMappingResponse}
// @Router       /imports/header-mapping [get]
func (h *ImportHandler) HeaderMapping(c *gin.Context) {
	respond.Success(c, respond.HeaderMappingResponse{
		Locations: h.normalizer.Locations(),
		Mappings:  h.normalizer.Synonyms(),
	})
}

// PreviewHeaderMapping map a header row without uploading
// @Summary      Preview header mapping
// @Tags         Imports
// @Accept       json
// @Produce      json
// @Param        request  body      respond.HeaderPreviewRequest  true  "Headers"
// @Success      200      {object}  respond.Response{data=respond.HeaderPreviewResponse}
// @Failure      400      {object}  respond.Response
// @Router       /imports/header-mapping/preview [post]
func (h *ImportHandler) PreviewHeaderMapping(c *gin.Context) {
	var req respond.HeaderPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.InvalidParam(c, err.Error())
		return
	}
	respond.Success(c, respond.ToHeaderPreview(h.normalizer, req.Headers))
}

// GetRunProgress run progress
// @Summary      Run progress
// @Description  Aggregated counters of every chunk of a run, percent complete, throughput and ETA
// @Tags         Imports
// @Produce      json
// @Param        runId  path      string  true  "Run ID"
// @Success      200    {object}  respond.Response{data=import_service.RunProgress}
// @Failure      404    {object}  respond.Response
// @Router       /imports/{runId}/progress [get]
func (h *ImportHandler) GetRunProgress(c *gin.Context) {
	progress, err := h.progress.GetRunProgress(c.Param("runId"))
	if err != nil {
		writeError(c, "GetRunProgress", err)
		return
	}
	respond.Success(c, progress)
}

// GetCurrentProgress progress of the active or most recent run
// @Summary      Current run progress
// @Tags         Imports
// @Produce      json
// @Success      200  {object}  respond.Response{data=import_service.RunProgress}
// @Failure      404  {object}  respond.Response  "No runs yet"
// @Router       /imports/current/progress [get]
func (h *ImportHandler) GetCurrentProgress(c *gin.Context) {
	progress, err := h.progress.GetCurrentProgress()
	if err != nil {
		writeError(c, "GetCurrentProgress", err)
		return
	}
	respond.Success(c, progress)
}

// PauseRun pause a run at the next batch boundary
// @Summary      Pause run
// @Tags         Imports
// @Produce      json
// @Param        runId  path      string  true  "Run ID"
// @Success      200    {object}  respond.Response{data=respond.RunControlResponse}
// @Failure      409    {object}  respond.Response  "Run is not active"
// @Router       /imports/{runId}/pause [post]
func (h *ImportHandler) PauseRun(c *gin.Context) {
	runID := c.Param("runId")
	if err := h.scheduler.Pause(runID); err != nil {
		writeError(c, "PauseRun", err)
		return
	}
	respond.Success(c, respond.RunControlResponse{
		RunId:   runID,
		Action:  "pause",
		Message: "pause requested, the run stops at the next batch boundary",
	})
}

// ResumeRun resume a paused, failed or interrupted run
// @Summary      Resume run
// @Description  Continue from the first unprocessed row of the first unfinished chunk
// @Tags         Imports
// @Produce      json
// @Param        runId  path      string  true  "Run ID"
// @Success      200    {object}  respond.Response{data=respond.RunControlResponse}
// @Failure      404    {object}  respond.Response
// @Failure      409    {object}  respond.Response  "Run active or completed"
// @Router       /imports/{runId}/resume [post]
func (h *ImportHandler) ResumeRun(c *gin.Context) {
	runID := c.Param("runId")
	if err := h.scheduler.Resume(runID); err != nil {
		writeError(c, "ResumeRun", err)
		return
	}
	h.progress.InvalidateRun(runID)
	respond.Success(c, respond.RunControlResponse{RunId: runID, Action: "resume", Message: "run resumed"})
}

// StopRun stop a run and mark its current chunk failed
// @Summary      Stop run
// @Tags         Imports
// @Produce      json
// @Param        runId  path      string  true  "Run ID"
// @Success      200    {object}  respond.Response{data=respond.RunControlResponse}
// @Failure      404    {object}  respond.Response
// @Failure      409    {object}  respond.Response  "Run already completed"
// @Router       /imports/{runId}/stop [post]
func (h *ImportHandler) StopRun(c *gin.Context) {
	runID := c.Param("runId")
	if err := h.scheduler.Stop(runID); err != nil {
		writeError(c, "StopRun", err)
		return
	}
	h.progress.InvalidateRun(runID)
	respond.Success(c, respond.RunControlResponse{RunId: runID, Action: "stop", Message: "stop requested"})
}
