package import_service

import (
	"time"

	"github.com/sirupsen/logrus"

	"vendor-inventory-import/conf"
	"vendor-inventory-import/database"
	"vendor-inventory-import/model"
	"vendor-inventory-import/storage"
)

// ArchiveCleanupProcessor removes archived raw files of fully completed runs
type ArchiveCleanupProcessor struct {
	db        database.Database
	storage   storage.Storage
	stopChan  chan struct{}
	interval  time.Duration
	retention time.Duration // Keep raw files this long after the run completed
	now       func() time.Time
}

// NewArchiveCleanupProcessor create archive cleanup processor
func NewArchiveCleanupProcessor(db database.Database, store storage.Storage, retention time.Duration) *ArchiveCleanupProcessor {
	return &ArchiveCleanupProcessor{
		db:        db,
		storage:   store,
		stopChan:  make(chan struct{}),
		interval:  10 * time.Minute,
		retention: retention,
		now:       time.Now,
	}
}

// Start start archive cleanup processor
func (cp *ArchiveCleanupProcessor) Start() {
	conf.Log.Info("Archive cleanup processor started")
	go cp.run()
}

// Stop stop archive cleanup processor
func (cp *ArchiveCleanupProcessor) Stop() {
	conf.Log.Info("Stopping archive cleanup processor...")
	close(cp.stopChan)
}

func (cp *ArchiveCleanupProcessor) run() {
	ticker := time.NewTicker(cp.interval)
	defer ticker.Stop()

	cp.cleanup()

	for {
		select {
		case <-cp.stopChan:
			conf.Log.Info("Archive cleanup processor stopped")
			return
		case <-ticker.C:
			cp.cleanup()
		}
	}
}

// cleanup purges raw files of runs whose chunks all completed before the retention cutoff
func (cp *ArchiveCleanupProcessor) cleanup() int {
	before := cp.now().Add(-cp.retention)
	// Purged sessions stay completed, so the whole set is scanned rather than a page
	sessions, err := cp.db.ListUploadSessionsByStatus(model.SessionStatusCompleted, before, 0)
	if err != nil {
		conf.LogError("import_service", "cleanup", "list completed sessions", nil, err)
		return 0
	}

	purged := 0
	seen := make(map[string]bool)
	for _, session := range sessions {
		if session.ArchiveKey == "" || seen[session.RunId] {
			continue
		}
		seen[session.RunId] = true

		run, err := cp.db.ListUploadSessionsByRun(session.RunId)
		if err != nil {
			conf.LogError("import_service", "cleanup", "list run", session.RunId, err)
			continue
		}
		if !runCompleted(run) {
			continue
		}
		if err := cp.storage.Delete(session.ArchiveKey); err != nil && err != storage.ErrNotFound {
			conf.LogError("import_service", "cleanup", "delete archive", session.ArchiveKey, err)
			continue
		}
		if err := cp.db.ClearUploadSessionArchive(session.RunId); err != nil {
			conf.LogError("import_service", "cleanup", "clear archive key", session.RunId, err)
			continue
		}
		purged++
		conf.Log.WithFields(logrus.Fields{
			"module":     "import_service",
			"runId":      session.RunId,
			"archiveKey": session.ArchiveKey,
		}).Info("Purged archived file")
	}
	return purged
}
