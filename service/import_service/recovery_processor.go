package import_service

import (
	"time"

	"github.com/sirupsen/logrus"

	"vendor-inventory-import/conf"
	"vendor-inventory-import/database"
	"vendor-inventory-import/model"
)

// RecoveryProcessor resumes runs left processing by a crashed or restarted process.
// Runs a user paused, stopped or never started are left alone.
type RecoveryProcessor struct {
	db           database.Database
	scheduler    *ChunkScheduler
	stopChan     chan struct{}
	interval     time.Duration
	batchSize    int
	stalledAfter time.Duration // Processing sessions idle this long have lost their worker
	now          func() time.Time
}

// NewRecoveryProcessor create recovery processor
func NewRecoveryProcessor(db database.Database, scheduler *ChunkScheduler, interval, stalledAfter time.Duration) *RecoveryProcessor {
	return &RecoveryProcessor{
		db:           db,
		scheduler:    scheduler,
		stopChan:     make(chan struct{}),
		interval:     interval,
		batchSize:    100,
		stalledAfter: stalledAfter,
		now:          time.Now,
	}
}

// Start start recovery processor
func (rp *RecoveryProcessor) Start() {
	conf.Log.Info("Recovery processor started")
	go rp.run()
}

// Stop stop recovery processor
func (rp *RecoveryProcessor) Stop() {
	conf.Log.Info("Stopping recovery processor...")
	close(rp.stopChan)
}

func (rp *RecoveryProcessor) run() {
	ticker := time.NewTicker(rp.interval)
	defer ticker.Stop()

	// Nothing is running yet, every processing session is an orphan
	rp.recover(rp.now())

	for {
		select {
		case <-rp.stopChan:
			conf.Log.Info("Recovery processor stopped")
			return
		case <-ticker.C:
			rp.recover(rp.now().Add(-rp.stalledAfter))
		}
	}
}

// recover restarts runs owning a processing session not updated since cutoff
func (rp *RecoveryProcessor) recover(cutoff time.Time) int {
	sessions, err := rp.db.ListUploadSessionsByStatus(model.SessionStatusProcessing, cutoff, rp.batchSize)
	if err != nil {
		conf.LogError("import_service", "recover", "list stalled sessions", nil, err)
		return 0
	}

	resumed := 0
	seen := make(map[string]bool)
	for _, session := range sessions {
		if seen[session.RunId] {
			continue
		}
		seen[session.RunId] = true
		if rp.scheduler.IsActive(session.RunId) {
			continue
		}
		if err := rp.scheduler.Start(session.RunId); err != nil {
			if err != ErrRunActive {
				conf.LogError("import_service", "recover", "restart run", session.RunId, err)
			}
			continue
		}
		resumed++
		conf.Log.WithFields(logrus.Fields{
			"module":    "import_service",
			"runId":     session.RunId,
			"sessionId": session.SessionId,
			"chunk":     session.ChunkNumber,
			"processed": session.ProcessedRecords,
		}).Info("Resuming interrupted run")
	}
	return resumed
}
