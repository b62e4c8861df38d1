package import_service

import (
	"bytes"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vendor-inventory-import/conf"
	"vendor-inventory-import/database"
	"vendor-inventory-import/model"
	"vendor-inventory-import/service/common_service/fieldmap"
	"vendor-inventory-import/storage"
)

// ImportService upload entry point and session management
type ImportService struct {
	db         database.Database
	storage    storage.Storage
	normalizer *fieldmap.Normalizer
	scheduler  *ChunkScheduler
	progress   *ProgressService

	chunkSize   int
	maxFileSize int64
	now         func() time.Time
}

// ImportOptions upload limits
type ImportOptions struct {
	ChunkSize   int   // Rows per chunk session
	MaxFileSize int64 // Bytes, 0 for unlimited
}

// NewImportService create import service instance
func NewImportService(db database.Database, store storage.Storage, normalizer *fieldmap.Normalizer,
	scheduler *ChunkScheduler, progress *ProgressService, opts ImportOptions) *ImportService {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 5000
	}
	return &ImportService{
		db:          db,
		storage:     store,
		normalizer:  normalizer,
		scheduler:   scheduler,
		progress:    progress,
		chunkSize:   opts.ChunkSize,
		maxFileSize: opts.MaxFileSize,
		now:         time.Now,
	}
}

// UploadRequest upload request
type UploadRequest struct {
	FileName    string // Original file name
	ContentType string // Declared content type
	Content     []byte // File content
	AutoStart   bool   // Start processing right away
	StageOnly   bool   // Stage and validate without reconciling
}

// UploadResult run created for an upload
type UploadResult struct {
	RunId        string                 `json:"runId"`
	TotalRecords int                    `json:"totalRecords"`
	TotalChunks  int                    `json:"totalChunks"`
	Started      bool                   `json:"started"`
	Sessions     []*model.UploadSession `json:"sessions"`
}

// Upload validates and archives the file, then carves it into chunk sessions.
// Nothing is created when the file is rejected.
func (s *ImportService) Upload(req *UploadRequest) (*UploadResult, error) {
	if !IsCSVUpload(req.FileName, req.ContentType) {
		return nil, ErrUnsupportedContentType
	}
	if len(req.Content) == 0 {
		return nil, ErrEmptyFile
	}
	if s.maxFileSize > 0 && int64(len(req.Content)) > s.maxFileSize {
		return nil, ErrFileTooLarge
	}

	total, err := CountRows(bytes.NewReader(req.Content), s.normalizer)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	filename := filepath.Base(req.FileName)
	archiveKey := "imports/" + runID + "/" + filename
	if err := s.storage.Save(archiveKey, req.Content); err != nil {
		conf.LogError("import_service", "Upload", "archive file", archiveKey, err)
		return nil, err
	}

	chunks := (total + s.chunkSize - 1) / s.chunkSize
	createdAt := s.now()
	sessions := make([]*model.UploadSession, 0, chunks)
	for i := 0; i < chunks; i++ {
		first := i * s.chunkSize
		size := s.chunkSize
		if first+size > total {
			size = total - first
		}
		sessions = append(sessions, &model.UploadSession{
			SessionId:        uuid.NewString(),
			RunId:            runID,
			OriginalFilename: filename,
			ArchiveKey:       archiveKey,
			FileSize:         int64(len(req.Content)),
			ChunkNumber:      i + 1,
			TotalChunks:      chunks,
			FirstOrdinal:     first,
			StageOnly:        req.StageOnly,
			Status:           model.SessionStatusPending,
			TotalRecords:     size,
			CreatedAt:        createdAt,
		})
	}

	if err := s.db.CreateUploadSessions(sessions); err != nil {
		if delErr := s.storage.Delete(archiveKey); delErr != nil {
			conf.LogError("import_service", "Upload", "remove archive", archiveKey, delErr)
		}
		return nil, err
	}

	conf.Log.WithFields(logrus.Fields{
		"module":   "import_service",
		"runId":    runID,
		"filename": filename,
		"records":  total,
		"chunks":   chunks,
	}).Info("Upload accepted")

	result := &UploadResult{RunId: runID, TotalRecords: total, TotalChunks: chunks, Sessions: sessions}
	if req.AutoStart && s.scheduler != nil {
		if err := s.scheduler.Start(runID); err != nil {
			return result, err
		}
		result.Started = true
	}
	return result, nil
}

// SessionList page of sessions, newest first
type SessionList struct {
	Sessions []*model.UploadSession `json:"sessions"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"pageSize"`
}

// ListSessions list sessions ordered by creation time descending
func (s *ImportService) ListSessions(page, pageSize int) (*SessionList, error) {
	page, pageSize = RecordQuery{Page: page, PageSize: pageSize}.pageBounds()
	sessions, total, err := s.db.ListUploadSessions((page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	return &SessionList{Sessions: sessions, Total: total, Page: page, PageSize: pageSize}, nil
}

// GetSession get session with progress figures
func (s *ImportService) GetSession(sessionID string) (*SessionProgress, error) {
	return s.progress.GetSessionProgress(sessionID)
}

// DeleteSession deletes a session and its staging rows. Reconciled inventory is kept.
func (s *ImportService) DeleteSession(sessionID string) (int64, error) {
	session, err := s.db.GetUploadSession(sessionID)
	if err != nil {
		return 0, err
	}
	if s.scheduler != nil && s.scheduler.IsActive(session.RunId) {
		return 0, ErrRunActive
	}

	deleted, err := s.db.DeleteUploadSession(sessionID)
	if err != nil {
		return 0, err
	}
	s.progress.InvalidateRun(session.RunId)

	conf.Log.WithFields(logrus.Fields{
		"module":      "import_service",
		"sessionId":   sessionID,
		"runId":       session.RunId,
		"stagingRows": deleted,
	}).Info("Session deleted")
	return deleted, nil
}

// GetInventoryRecord authoritative record by composite key
func (s *ImportService) GetInventoryRecord(compositeKey string) (*model.InventoryRecord, error) {
	return s.db.GetInventoryRecordByKey(compositeKey)
}
