package import_service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"vendor-inventory-import/conf"
	"vendor-inventory-import/database"
	"vendor-inventory-import/model"
	"vendor-inventory-import/service/common_service/fieldmap"
	"vendor-inventory-import/service/common_service/validation"
	"vendor-inventory-import/storage"

	"github.com/sirupsen/logrus"
)

// BatchReport progress of one committed batch
type BatchReport struct {
	RunId       string
	SessionId   string
	ChunkNumber int
	TotalChunks int
	Processed   int // Rows processed in the chunk so far
	Total       int // Rows in the chunk
	Delta       model.SessionCounters
}

// SchedulerOptions chunk scheduler settings
type SchedulerOptions struct {
	BatchSize     int
	AutoReconcile bool
	OnBatch       func(BatchReport)
}

// ChunkScheduler drives runs chunk by chunk and batch by batch.
// One worker per run; batches inside a run are sequential.
type ChunkScheduler struct {
	db         database.Database
	storage    storage.Storage
	normalizer *fieldmap.Normalizer
	validator  *validation.Validator
	reconciler *ReconcileService
	opts       SchedulerOptions

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu         sync.Mutex
	active     map[string]*RunControl
	currentRun string
}

// NewChunkScheduler create chunk scheduler instance
func NewChunkScheduler(db database.Database, store storage.Storage, normalizer *fieldmap.Normalizer,
	validator *validation.Validator, reconciler *ReconcileService, opts SchedulerOptions) *ChunkScheduler {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ChunkScheduler{
		db:         db,
		storage:    store,
		normalizer: normalizer,
		validator:  validator,
		reconciler: reconciler,
		opts:       opts,
		baseCtx:    ctx,
		cancel:     cancel,
		active:     make(map[string]*RunControl),
	}
}

// Start runs the import in the background
func (s *ChunkScheduler) Start(runID string) error {
	ctrl, err := s.register(runID)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.run(s.baseCtx, ctrl); err != nil && err != ErrPaused && err != ErrStopped {
			conf.LogError("import_service", "Start", "run "+runID, nil, err)
		}
	}()
	return nil
}

// Run processes a run synchronously. Context cancellation pauses the run.
func (s *ChunkScheduler) Run(ctx context.Context, runID string) error {
	ctrl, err := s.register(runID)
	if err != nil {
		return err
	}
	return s.run(ctx, ctrl)
}

// Resume restarts a paused, failed or interrupted run in the background
func (s *ChunkScheduler) Resume(runID string) error {
	sessions, err := s.db.ListUploadSessionsByRun(runID)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return ErrRunNotFound
	}
	if runCompleted(sessions) {
		return ErrRunCompleted
	}
	return s.Start(runID)
}

// Pause asks an active run to pause at the next batch boundary
func (s *ChunkScheduler) Pause(runID string) error {
	ctrl := s.Control(runID)
	if ctrl == nil {
		return ErrRunNotActive
	}
	ctrl.RequestPause()
	return nil
}

// Stop asks an active run to stop at the next batch boundary. An idle run has its
// first unfinished chunk marked failed so nothing starts until it is resumed.
func (s *ChunkScheduler) Stop(runID string) error {
	if ctrl := s.Control(runID); ctrl != nil {
		ctrl.RequestStop()
		return nil
	}

	sessions, err := s.db.ListUploadSessionsByRun(runID)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return ErrRunNotFound
	}
	for _, session := range sessions {
		if session.Status == model.SessionStatusCompleted {
			continue
		}
		if session.Status == model.SessionStatusFailed {
			return nil
		}
		return s.db.UpdateUploadSessionStatus(session.SessionId, model.SessionStatusFailed, ErrStopped.Error())
	}
	return ErrRunCompleted
}

// Control control object of an active run, nil when idle
func (s *ChunkScheduler) Control(runID string) *RunControl {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[runID]
}

// IsActive reports whether the run has a worker in this process
func (s *ChunkScheduler) IsActive(runID string) bool {
	return s.Control(runID) != nil
}

// CurrentRun most recently started run that is still active
func (s *ChunkScheduler) CurrentRun() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[s.currentRun]; ok {
		return s.currentRun
	}
	return ""
}

// Shutdown pauses every active run and waits for the workers to return
func (s *ChunkScheduler) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ChunkScheduler) register(runID string) (*RunControl, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[runID]; ok {
		return nil, ErrRunActive
	}
	ctrl := NewRunControl(runID)
	s.active[runID] = ctrl
	s.currentRun = runID
	activeRuns.Inc()
	return ctrl, nil
}

func (s *ChunkScheduler) unregister(ctrl *RunControl) {
	s.mu.Lock()
	delete(s.active, ctrl.RunId)
	s.mu.Unlock()
	activeRuns.Dec()
	ctrl.finish()
}

func (s *ChunkScheduler) run(ctx context.Context, ctrl *RunControl) (err error) {
	defer s.unregister(ctrl)
	defer func() {
		runsTotal.WithLabelValues(runOutcome(err)).Inc()
	}()

	sessions, err := s.db.ListUploadSessionsByRun(ctrl.RunId)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return ErrRunNotFound
	}

	logger := conf.Log.WithFields(logrus.Fields{"module": "import_service", "runId": ctrl.RunId})
	logger.WithField("chunks", len(sessions)).Info("Run started")

	for _, session := range sessions {
		if session.Status == model.SessionStatusCompleted {
			continue
		}
		if err := s.processChunk(ctx, ctrl, session); err != nil {
			logger.WithField("chunk", session.ChunkNumber).WithError(err).Info("Run halted")
			return err
		}
	}

	logger.Info("Run completed")
	return nil
}

func runOutcome(err error) string {
	switch err {
	case nil:
		return "completed"
	case ErrPaused:
		return "paused"
	case ErrStopped:
		return "stopped"
	default:
		return "failed"
	}
}

// processChunk processes the remaining rows of one chunk
func (s *ChunkScheduler) processChunk(ctx context.Context, ctrl *RunControl, session *model.UploadSession) error {
	ctrl.setCurrentChunk(session.ChunkNumber)

	if err := s.checkControl(ctx, ctrl, session); err != nil {
		return err
	}
	if err := s.db.UpdateUploadSessionStatus(session.SessionId, model.SessionStatusProcessing, ""); err != nil {
		return s.failChunk(session, err)
	}

	if session.Remaining() > 0 {
		src, closer, err := s.openSource(session)
		if err != nil {
			return s.failChunk(session, err)
		}
		defer closer.Close()

		for session.Remaining() > 0 {
			if err := s.checkControl(ctx, ctrl, session); err != nil {
				return err
			}

			n := s.opts.BatchSize
			if n > session.Remaining() {
				n = session.Remaining()
			}
			rows, err := readBatch(src, n)
			if err != nil {
				return s.failChunk(session, err)
			}

			start := time.Now()
			// A started batch always commits; pause and shutdown are honored between batches
			delta, err := s.processBatch(context.WithoutCancel(ctx), session, src, rows)
			if err != nil {
				return s.failChunk(session, err)
			}
			if err := s.db.IncrementUploadSessionCounters(session.SessionId, delta); err != nil {
				return s.failChunk(session, err)
			}
			batchDuration.Observe(time.Since(start).Seconds())
			session.Apply(delta)

			if s.opts.OnBatch != nil {
				s.opts.OnBatch(BatchReport{
					RunId:       session.RunId,
					SessionId:   session.SessionId,
					ChunkNumber: session.ChunkNumber,
					TotalChunks: session.TotalChunks,
					Processed:   session.ProcessedRecords,
					Total:       session.TotalRecords,
					Delta:       delta,
				})
			}
		}
	}

	if err := s.db.UpdateUploadSessionStatus(session.SessionId, model.SessionStatusCompleted, ""); err != nil {
		return s.failChunk(session, err)
	}
	return nil
}

// checkControl honors stop, pause and cancellation at a batch boundary
func (s *ChunkScheduler) checkControl(ctx context.Context, ctrl *RunControl, session *model.UploadSession) error {
	switch {
	case ctrl.State() == RunStateStopRequested:
		if err := s.db.UpdateUploadSessionStatus(session.SessionId, model.SessionStatusFailed, ErrStopped.Error()); err != nil {
			conf.LogError("import_service", "checkControl", "mark stopped", session.SessionId, err)
		}
		return ErrStopped
	case ctrl.State() == RunStatePauseRequested || ctx.Err() != nil:
		if err := s.db.UpdateUploadSessionStatus(session.SessionId, model.SessionStatusPaused, ""); err != nil {
			conf.LogError("import_service", "checkControl", "mark paused", session.SessionId, err)
		}
		return ErrPaused
	}
	return nil
}

func (s *ChunkScheduler) failChunk(session *model.UploadSession, cause error) error {
	chunkErr := &ChunkError{SessionId: session.SessionId, ChunkNumber: session.ChunkNumber, Err: cause}
	if err := s.db.UpdateUploadSessionStatus(session.SessionId, model.SessionStatusFailed, cause.Error()); err != nil {
		conf.LogError("import_service", "failChunk", "mark failed", session.SessionId, err)
	}
	conf.LogError("import_service", "failChunk", "chunk failed", session.SessionId, cause)
	return chunkErr
}

// openSource opens the archived file positioned at the chunk cursor
func (s *ChunkScheduler) openSource(session *model.UploadSession) (*CsvSource, io.Closer, error) {
	if session.ArchiveKey == "" {
		return nil, nil, ErrArchiveMissing
	}
	r, err := s.storage.Open(session.ArchiveKey)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, nil, ErrArchiveMissing
		}
		return nil, nil, err
	}
	src, err := NewCsvSource(r, s.normalizer)
	if err != nil {
		r.Close()
		return nil, nil, err
	}
	if err := src.Skip(session.NextOrdinal()); err != nil {
		r.Close()
		return nil, nil, err
	}
	return src, r, nil
}

func readBatch(src *CsvSource, n int) ([]*CsvRow, error) {
	rows := make([]*CsvRow, 0, n)
	for len(rows) < n {
		row, err := src.Next()
		if err == io.EOF {
			return nil, ErrSourceExhausted
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// processBatch stages, reloads and reconciles one batch and returns the counter delta.
// Re-running a batch after a crash neither duplicates rows nor double counts them.
func (s *ChunkScheduler) processBatch(ctx context.Context, session *model.UploadSession, src *CsvSource, rows []*CsvRow) (model.SessionCounters, error) {
	delta := model.SessionCounters{Processed: len(rows)}

	records := make([]*model.StagingRecord, 0, len(rows))
	statuses := make(map[int]model.RecordStatus, len(rows))
	lines := make([]int, 0, len(rows))
	for _, row := range rows {
		rec, err := s.buildRecord(session, src, row)
		if err != nil {
			delta.Failed++
			conf.LogError("import_service", "processBatch", "build record", session.SessionId, err)
			continue
		}
		records = append(records, rec)
		statuses[rec.RowNumber] = rec.Status
		lines = append(lines, rec.RowNumber)
	}

	if err := s.db.CreateStagingRecords(records); err != nil {
		return delta, fmt.Errorf("stage batch: %w", err)
	}
	staged, err := s.db.GetStagingRecordsByRows(session.SessionId, lines)
	if err != nil {
		return delta, fmt.Errorf("reload batch: %w", err)
	}

	reconcile := s.opts.AutoReconcile && !session.StageOnly && s.reconciler != nil
	for _, rec := range staged {
		status := statuses[rec.RowNumber]
		switch status {
		case model.RecordStatusValid:
			delta.Valid++
		case model.RecordStatusInvalid:
			delta.Invalid++
		case model.RecordStatusCorrected:
			delta.Corrected++
		}
		rowsStagedTotal.WithLabelValues(string(status)).Inc()

		if !reconcile {
			continue
		}
		if rec.Status == model.RecordStatusProcessed {
			// Reconciled by an earlier attempt of this batch
			countAction(&delta, rec.ActionType)
			continue
		}
		if !rec.Status.IsAcceptable() {
			continue
		}
		action, err := s.reconcileSafely(ctx, rec)
		if err != nil {
			delta.Failed++
			conf.LogError("import_service", "processBatch", describeRow(rec), nil, err)
			continue
		}
		countAction(&delta, action)
	}
	return delta, nil
}

func countAction(delta *model.SessionCounters, action model.ActionType) {
	switch action {
	case model.ActionTypeInsert:
		delta.Inserted++
	case model.ActionTypeUpdate:
		delta.Updated++
	}
}

// buildRecord normalizes and validates one row; a panic is confined to the row
func (s *ChunkScheduler) buildRecord(session *model.UploadSession, src *CsvSource, row *CsvRow) (rec *model.StagingRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = &RowError{RowNumber: row.Line, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	fields := s.normalizer.NormalizeRow(src.Fields(), row.Cells)
	res := s.validator.Validate(fields, row.Line)
	return NewStagingRecord(session.SessionId, row.Line, src.Payload(row), res), nil
}

func (s *ChunkScheduler) reconcileSafely(ctx context.Context, rec *model.StagingRecord) (action model.ActionType, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RowError{RowNumber: rec.RowNumber, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	_, action, err = s.reconciler.reconcileRow(ctx, rec)
	return action, err
}

func runCompleted(sessions []*model.UploadSession) bool {
	for _, session := range sessions {
		if session.Status != model.SessionStatusCompleted {
			return false
		}
	}
	return true
}
