package import_service

import (
	"time"

	"vendor-inventory-import/database"
	"vendor-inventory-import/model"
)

const progressCachePrefix = "import:progress:run:"

// RunTracker reports scheduler activity
type RunTracker interface {
	IsActive(runID string) bool
	CurrentRun() string
}

// ProgressStats derived timing figures
type ProgressStats struct {
	Percent          float64 `json:"percent"`
	ElapsedMs        int64   `json:"elapsedMs"`
	RecordsPerSecond float64 `json:"recordsPerSecond"`
	EtaMs            int64   `json:"etaMs"`
}

// ChunkProgress status of one chunk
type ChunkProgress struct {
	SessionId        string              `json:"sessionId"`
	ChunkNumber      int                 `json:"chunkNumber"`
	Status           model.SessionStatus `json:"status"`
	TotalRecords     int                 `json:"totalRecords"`
	ProcessedRecords int                 `json:"processedRecords"`
	FailedRecords    int                 `json:"failedRecords"`
	ErrorMessage     string              `json:"errorMessage,omitempty"`
}

// RunProgress aggregated counters of all chunks of a run
type RunProgress struct {
	RunId            string              `json:"runId"`
	OriginalFilename string              `json:"originalFilename"`
	Status           model.SessionStatus `json:"status"`
	Active           bool                `json:"active"`
	TotalChunks      int                 `json:"totalChunks"`
	CompletedChunks  int                 `json:"completedChunks"`
	CurrentChunk     int                 `json:"currentChunk"`
	TotalRecords     int                 `json:"totalRecords"`
	Processed        int                 `json:"processed"`
	Valid            int                 `json:"valid"`
	Invalid          int                 `json:"invalid"`
	Corrected        int                 `json:"corrected"`
	Inserted         int                 `json:"inserted"`
	Updated          int                 `json:"updated"`
	Failed           int                 `json:"failed"`
	ProgressStats
	Chunks      []ChunkProgress `json:"chunks"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// SessionProgress one chunk session with derived timing figures
type SessionProgress struct {
	*model.UploadSession
	ProgressStats
}

// ProgressService read-only aggregation of session counters
type ProgressService struct {
	db       database.Database
	tracker  RunTracker
	cacheTTL time.Duration
	now      func() time.Time
}

// NewProgressService create progress service instance
func NewProgressService(db database.Database, tracker RunTracker, cacheTTL time.Duration) *ProgressService {
	return &ProgressService{db: db, tracker: tracker, cacheTTL: cacheTTL, now: time.Now}
}

func progressCacheKey(runID string) string {
	return progressCachePrefix + runID
}

// GetRunProgress progress of a run, served from cache when fresh
func (s *ProgressService) GetRunProgress(runID string) (*RunProgress, error) {
	var cached RunProgress
	if s.cacheTTL > 0 && database.GetCache(progressCacheKey(runID), &cached) == nil {
		return &cached, nil
	}

	sessions, err := s.db.ListUploadSessionsByRun(runID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrRunNotFound
	}
	p := s.aggregate(runID, sessions)

	if s.cacheTTL > 0 {
		_ = database.SetCacheTTL(progressCacheKey(runID), p, s.cacheTTL)
	}
	return p, nil
}

// GetCurrentProgress progress of the active run, or of the most recent upload when idle
func (s *ProgressService) GetCurrentProgress() (*RunProgress, error) {
	runID := ""
	if s.tracker != nil {
		runID = s.tracker.CurrentRun()
	}
	if runID == "" {
		latest, _, err := s.db.ListUploadSessions(0, 1)
		if err != nil {
			return nil, err
		}
		if len(latest) == 0 {
			return nil, ErrRunNotFound
		}
		runID = latest[0].RunId
	}
	return s.GetRunProgress(runID)
}

// GetSessionProgress progress of one chunk session
func (s *ProgressService) GetSessionProgress(sessionID string) (*SessionProgress, error) {
	session, err := s.db.GetUploadSession(sessionID)
	if err != nil {
		return nil, err
	}
	start, end := session.StartedAt, session.CompletedAt
	return &SessionProgress{
		UploadSession: session,
		ProgressStats: s.stats(session.TotalRecords, session.ProcessedRecords, start, end, session.Status == model.SessionStatusProcessing),
	}, nil
}

// InvalidateRun drops a cached snapshot
func (s *ProgressService) InvalidateRun(runID string) {
	_ = database.DeleteCache(progressCacheKey(runID))
}

func (s *ProgressService) aggregate(runID string, sessions []*model.UploadSession) *RunProgress {
	p := &RunProgress{
		RunId:            runID,
		OriginalFilename: sessions[0].OriginalFilename,
		TotalChunks:      len(sessions),
		Chunks:           make([]ChunkProgress, 0, len(sessions)),
		GeneratedAt:      s.now(),
	}
	if s.tracker != nil {
		p.Active = s.tracker.IsActive(runID)
	}

	var started, finished *time.Time
	allCompleted := true
	anyFailed, anyProcessing, anyPaused := false, false, false
	for _, session := range sessions {
		p.TotalRecords += session.TotalRecords
		p.Processed += session.ProcessedRecords
		p.Valid += session.ValidRecords
		p.Invalid += session.InvalidRecords
		p.Corrected += session.CorrectedRecords
		p.Inserted += session.InsertedRecords
		p.Updated += session.UpdatedRecords
		p.Failed += session.FailedRecords

		switch session.Status {
		case model.SessionStatusCompleted:
			p.CompletedChunks++
		case model.SessionStatusFailed:
			anyFailed = true
		case model.SessionStatusProcessing:
			anyProcessing = true
			p.CurrentChunk = session.ChunkNumber
		case model.SessionStatusPaused:
			anyPaused = true
		}
		if session.Status != model.SessionStatusCompleted {
			allCompleted = false
		}
		if session.StartedAt != nil && (started == nil || session.StartedAt.Before(*started)) {
			started = session.StartedAt
		}
		if session.CompletedAt != nil && (finished == nil || session.CompletedAt.After(*finished)) {
			finished = session.CompletedAt
		}

		p.Chunks = append(p.Chunks, ChunkProgress{
			SessionId:        session.SessionId,
			ChunkNumber:      session.ChunkNumber,
			Status:           session.Status,
			TotalRecords:     session.TotalRecords,
			ProcessedRecords: session.ProcessedRecords,
			FailedRecords:    session.FailedRecords,
			ErrorMessage:     session.ErrorMessage,
		})
	}

	switch {
	case p.Active:
		p.Status = model.SessionStatusProcessing
	case anyFailed:
		p.Status = model.SessionStatusFailed
	case anyProcessing:
		p.Status = model.SessionStatusProcessing
	case anyPaused:
		p.Status = model.SessionStatusPaused
	case allCompleted:
		p.Status = model.SessionStatusCompleted
	default:
		p.Status = model.SessionStatusPending
	}

	running := p.Status == model.SessionStatusProcessing
	if running {
		finished = nil
	}
	p.ProgressStats = s.stats(p.TotalRecords, p.Processed, started, finished, running)
	return p
}

// stats derives percent, elapsed time, throughput and ETA
func (s *ProgressService) stats(total, processed int, started, finished *time.Time, running bool) ProgressStats {
	var st ProgressStats
	if total > 0 {
		st.Percent = float64(processed) * 100 / float64(total)
	}
	if started == nil {
		return st
	}

	end := s.now()
	if !running && finished != nil {
		end = *finished
	}
	elapsed := end.Sub(*started)
	if elapsed < 0 {
		elapsed = 0
	}
	st.ElapsedMs = elapsed.Milliseconds()
	if elapsed > 0 {
		st.RecordsPerSecond = float64(processed) / elapsed.Seconds()
	}
	if running && st.RecordsPerSecond > 0 && total > processed {
		st.EtaMs = int64(float64(total-processed) / st.RecordsPerSecond * 1000)
	}
	return st
}
