package import_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vendor-inventory-import/conf"
	"vendor-inventory-import/database"
	"vendor-inventory-import/model"

	"github.com/sirupsen/logrus"
)

const reconcilePageSize = 200

// ReconcileService upserts accepted staging rows into the inventory store
type ReconcileService struct {
	db      database.Database
	locker  KeyLocker
	timeout time.Duration
}

// NewReconcileService create reconcile service instance
func NewReconcileService(db database.Database, locker KeyLocker, timeout time.Duration) *ReconcileService {
	if locker == nil {
		locker = NewLocalKeyLocker()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ReconcileService{db: db, locker: locker, timeout: timeout}
}

// ReconcileOutcome result of processing one record
type ReconcileOutcome struct {
	Record    *model.StagingRecord
	Inventory *model.InventoryRecord
	Action    model.ActionType
}

// RowFailure one record that could not be processed
type RowFailure struct {
	RecordId  int64  `json:"recordId"`
	RowNumber int    `json:"rowNumber"`
	Message   string `json:"message"`
}

// ReconcileSummary totals of a multi-record reconciliation
type ReconcileSummary struct {
	Processed int          `json:"processed"`
	Inserted  int          `json:"inserted"`
	Updated   int          `json:"updated"`
	Skipped   int          `json:"skipped"`
	Failed    int          `json:"failed"`
	Errors    []RowFailure `json:"errors"`
}

func (s *ReconcileSummary) add(action model.ActionType) {
	s.Processed++
	switch action {
	case model.ActionTypeInsert:
		s.Inserted++
	case model.ActionTypeUpdate:
		s.Updated++
	}
}

func (s *ReconcileSummary) fail(rec *model.StagingRecord, err error) {
	s.Failed++
	s.Errors = append(s.Errors, RowFailure{RecordId: rec.ID, RowNumber: rec.RowNumber, Message: err.Error()})
}

// reconcilable rows may be upserted; processed rows are re-applied deterministically
func reconcilable(rec *model.StagingRecord) bool {
	return rec.Status.IsAcceptable() || rec.Status == model.RecordStatusProcessed
}

// reconcileRow upserts one row under its key lock, bounded by the configured timeout.
// It does not touch session counters.
func (s *ReconcileService) reconcileRow(ctx context.Context, rec *model.StagingRecord) (*model.InventoryRecord, model.ActionType, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	unlock, err := s.locker.Lock(ctx, rec.CompositeKey)
	if err != nil {
		reconcileTotal.WithLabelValues("failed").Inc()
		return nil, model.ActionTypeUnknown, &RowError{RowNumber: rec.RowNumber, Field: "composite_key", Value: rec.CompositeKey, Err: err}
	}
	defer unlock()

	inv, action, err := s.db.ReconcileStagingRecord(ctx, rec)
	reconcileDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		reconcileTotal.WithLabelValues("failed").Inc()
		return nil, model.ActionTypeUnknown, &RowError{RowNumber: rec.RowNumber, Field: "composite_key", Value: rec.CompositeKey, Err: err}
	}
	reconcileTotal.WithLabelValues(string(action)).Inc()
	return inv, action, nil
}

// apply reconciles a row outside the scheduler and keeps session counters in step.
// Rows already linked to an inventory record were counted when first reconciled.
func (s *ReconcileService) apply(ctx context.Context, rec *model.StagingRecord) (*model.InventoryRecord, model.ActionType, error) {
	alreadyCounted := rec.InventoryRecordId != nil

	inv, action, err := s.reconcileRow(ctx, rec)
	if err != nil {
		if incErr := s.db.IncrementUploadSessionCounters(rec.SessionId, model.SessionCounters{Failed: 1}); incErr != nil {
			conf.LogError("import_service", "apply", "increment failed counter", rec.SessionId, incErr)
		}
		return nil, model.ActionTypeUnknown, err
	}

	if !alreadyCounted {
		delta := model.SessionCounters{}
		if action == model.ActionTypeInsert {
			delta.Inserted = 1
		} else {
			delta.Updated = 1
		}
		if err := s.db.IncrementUploadSessionCounters(rec.SessionId, delta); err != nil {
			conf.LogError("import_service", "apply", "increment action counter", rec.SessionId, err)
		}
	}
	return inv, action, nil
}

// ProcessRecord reconciles a single staging record
func (s *ReconcileService) ProcessRecord(ctx context.Context, id int64) (*ReconcileOutcome, error) {
	rec, err := s.db.GetStagingRecord(id)
	if err != nil {
		return nil, err
	}
	if !reconcilable(rec) {
		return nil, &RowError{RowNumber: rec.RowNumber, Field: "status", Value: string(rec.Status), Err: ErrNotReconcilable}
	}

	inv, action, err := s.apply(ctx, rec)
	if err != nil {
		return nil, err
	}
	return &ReconcileOutcome{Record: rec, Inventory: inv, Action: action}, nil
}

// ProcessSelected reconciles the given records, skipping ones that are not acceptable
func (s *ReconcileService) ProcessSelected(ctx context.Context, ids []int64) (*ReconcileSummary, error) {
	summary := &ReconcileSummary{Errors: []RowFailure{}}
	if len(ids) == 0 {
		return summary, nil
	}

	records, err := s.db.GetStagingRecordsByIDs(ids)
	if err != nil {
		return nil, err
	}
	found := make(map[int64]bool, len(records))
	for _, rec := range records {
		found[rec.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			summary.Skipped++
			summary.Errors = append(summary.Errors, RowFailure{RecordId: id, Message: database.ErrNotFound.Error()})
			found[id] = true
		}
	}

	for _, rec := range records {
		if !reconcilable(rec) {
			summary.Skipped++
			continue
		}
		_, action, err := s.apply(ctx, rec)
		if err != nil {
			summary.fail(rec, err)
			continue
		}
		summary.add(action)
	}

	s.logSummary("ProcessSelected", summary)
	return summary, nil
}

// ProcessAll reconciles every valid or corrected record in the filtered view
func (s *ReconcileService) ProcessAll(ctx context.Context, filter database.StagingFilter) (*ReconcileSummary, error) {
	summary := &ReconcileSummary{Errors: []RowFailure{}}

	filter.Statuses = acceptableStatuses(filter.Statuses)
	if len(filter.Statuses) == 0 {
		return summary, nil
	}
	filter.Offset, filter.Limit = 0, 0

	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		page, err := s.db.ScanStagingRecords(filter, afterID, reconcilePageSize)
		if err != nil {
			return summary, err
		}
		if len(page) == 0 {
			break
		}
		for _, rec := range page {
			afterID = rec.ID
			_, action, err := s.apply(ctx, rec)
			if err != nil {
				summary.fail(rec, err)
				continue
			}
			summary.add(action)
		}
		if len(page) < reconcilePageSize {
			break
		}
	}

	s.logSummary("ProcessAll", summary)
	return summary, nil
}

// acceptableStatuses narrows a requested status filter to valid and corrected
func acceptableStatuses(requested []model.RecordStatus) []model.RecordStatus {
	if len(requested) == 0 {
		return []model.RecordStatus{model.RecordStatusValid, model.RecordStatusCorrected}
	}
	out := make([]model.RecordStatus, 0, 2)
	for _, st := range requested {
		if st.IsAcceptable() {
			out = append(out, st)
		}
	}
	return out
}

func (s *ReconcileService) logSummary(funcName string, summary *ReconcileSummary) {
	conf.Log.WithFields(logrus.Fields{
		"module":    "import_service",
		"funcName":  funcName,
		"processed": summary.Processed,
		"inserted":  summary.Inserted,
		"updated":   summary.Updated,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
	}).Info("Reconciliation finished")
}

// IsRowError reports whether err is confined to a single row
func IsRowError(err error) bool {
	var rowErr *RowError
	return errors.As(err, &rowErr)
}

func describeRow(rec *model.StagingRecord) string {
	return fmt.Sprintf("session=%s row=%d key=%s", rec.SessionId, rec.RowNumber, rec.CompositeKey)
}
