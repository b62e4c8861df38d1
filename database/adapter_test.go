package database

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"vendor-inventory-import/model"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forEachDatabase runs the same test against every embedded backend
func forEachDatabase(t *testing.T, fn func(t *testing.T, db Database)) {
	t.Run("pebble", func(t *testing.T) {
		db, err := NewPebbleDatabase(&PebbleConfig{DataDir: "test-db", FS: vfs.NewMem()})
		require.NoError(t, err)
		defer db.Close()
		fn(t, db)
	})
	t.Run("sqlite", func(t *testing.T) {
		name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
		db, err := NewGormDatabase(&GormConfig{
			Dialect:  DBTypeSQLite,
			DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
			LogLevel: "silent",
		})
		require.NoError(t, err)
		defer db.Close()
		fn(t, db)
	})
}

func newSessions(runID string, chunks int, createdAt time.Time) []*model.UploadSession {
	sessions := make([]*model.UploadSession, 0, chunks)
	for i := 1; i <= chunks; i++ {
		sessions = append(sessions, &model.UploadSession{
			SessionId:        fmt.Sprintf("%s-%d", runID, i),
			RunId:            runID,
			OriginalFilename: "inventory.csv",
			ChunkNumber:      i,
			TotalChunks:      chunks,
			FirstOrdinal:     (i - 1) * 10,
			TotalRecords:     10,
			Status:           model.SessionStatusPending,
			CreatedAt:        createdAt,
		})
	}
	return sessions
}

func newStaging(sessionID string, row int, vendor, part string, status model.RecordStatus) *model.StagingRecord {
	return &model.StagingRecord{
		SessionId:    sessionID,
		RowNumber:    row,
		CompositeKey: vendor + "-" + part,
		InventoryFields: model.InventoryFields{
			VendorCode: vendor,
			PartNumber: part,
			LocationQuantities: []model.LocationQuantity{
				{Location: "east", Quantity: 3},
				{Location: "west", Quantity: 4},
			},
			TotalQuantity: 7,
			Cost:          decimal.RequireFromString("12.5"),
		},
		Status:     status,
		ActionType: model.ActionTypeUnknown,
	}
}

func TestUploadSessionLifecycle(t *testing.T) {
	forEachDatabase(t, func(t *testing.T, db Database) {
		base := time.Now().Add(-time.Hour).Truncate(time.Second)
		require.NoError(t, db.CreateUploadSessions(newSessions("run-a", 3, base)))
		require.NoError(t, db.CreateUploadSessions(newSessions("run-b", 1, base.Add(time.Minute))))

		sessions, err := db.ListUploadSessionsByRun("run-a")
		require.NoError(t, err)
		require.Len(t, sessions, 3)
		for i, s := range sessions {
			assert.Equal(t, i+1, s.ChunkNumber)
		}

		page, total, err := db.ListUploadSessions(0, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, page, 2)
		assert.Equal(t, "run-b", page[0].RunId)
		assert.Equal(t, "run-a-1", page[1].SessionId)

		require.NoError(t, db.UpdateUploadSessionStatus("run-a-1", model.SessionStatusProcessing, ""))
		require.NoError(t, db.IncrementUploadSessionCounters("run-a-1", model.SessionCounters{Processed: 4, Valid: 3, Invalid: 1, Inserted: 3}))
		require.NoError(t, db.IncrementUploadSessionCounters("run-a-1", model.SessionCounters{Processed: 6, Valid: 6, Updated: 6}))
		require.NoError(t, db.UpdateUploadSessionStatus("run-a-1", model.SessionStatusCompleted, ""))

		s, err := db.GetUploadSession("run-a-1")
		require.NoError(t, err)
		assert.Equal(t, model.SessionStatusCompleted, s.Status)
		assert.Equal(t, 10, s.ProcessedRecords)
		assert.Equal(t, 9, s.ValidRecords)
		assert.Equal(t, 1, s.InvalidRecords)
		assert.Equal(t, 3, s.InsertedRecords)
		assert.Equal(t, 6, s.UpdatedRecords)
		assert.NotNil(t, s.StartedAt)
		assert.NotNil(t, s.CompletedAt)

		processing, err := db.ListUploadSessionsByStatus(model.SessionStatusPending, time.Time{}, 0)
		require.NoError(t, err)
		assert.Len(t, processing, 3)

		_, err = db.GetUploadSession("missing")
		assert.Equal(t, ErrNotFound, err)
		assert.Equal(t, ErrNotFound, db.UpdateUploadSessionStatus("missing", model.SessionStatusPaused, ""))
	})
}

func TestStagingInsertIgnoresExistingRows(t *testing.T) {
	forEachDatabase(t, func(t *testing.T, db Database) {
		require.NoError(t, db.CreateUploadSessions(newSessions("run", 1, time.Now())))

		first := []*model.StagingRecord{
			newStaging("run-1", 2, "ACME", "P1", model.RecordStatusValid),
			newStaging("run-1", 3, "ACME", "P2", model.RecordStatusValid),
		}
		require.NoError(t, db.CreateStagingRecords(first))

		// Second attempt of the same batch must not duplicate or overwrite rows
		again := []*model.StagingRecord{
			newStaging("run-1", 2, "ACME", "CHANGED", model.RecordStatusInvalid),
			newStaging("run-1", 3, "ACME", "P2", model.RecordStatusValid),
			newStaging("run-1", 4, "ACME", "P3", model.RecordStatusCorrected),
		}
		require.NoError(t, db.CreateStagingRecords(again))

		rows, err := db.GetStagingRecordsByRows("run-1", []int{2, 3, 4, 99})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "P1", rows[0].PartNumber)
		assert.Equal(t, model.RecordStatusValid, rows[0].Status)
		assert.Equal(t, 4, rows[2].RowNumber)

		records, total, err := db.QueryStagingRecords(StagingFilter{SessionId: "run-1"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, records, 3)
	})
}

func TestQueryStagingRecordsFilters(t *testing.T) {
	forEachDatabase(t, func(t *testing.T, db Database) {
		require.NoError(t, db.CreateUploadSessions(newSessions("run", 2, time.Now())))

		invalid := newStaging("run-1", 3, "ACME", "BAD", model.RecordStatusInvalid)
		invalid.NeedsReview = true
		invalid.Issues = []model.ValidationIssue{{
			Type:        model.IssueTypeMissingField,
			Severity:    model.IssueSeverityError,
			Field:       "part_number",
			Description: "part_number is required",
		}}
		require.NoError(t, db.CreateStagingRecords([]*model.StagingRecord{
			newStaging("run-1", 2, "ACME", "P1", model.RecordStatusValid),
			invalid,
			newStaging("run-1", 4, "ACME", "P3", model.RecordStatusCorrected),
		}))
		require.NoError(t, db.CreateStagingRecords([]*model.StagingRecord{
			newStaging("run-2", 12, "BOLT", "X9", model.RecordStatusValid),
		}))

		records, total, err := db.QueryStagingRecords(StagingFilter{
			SessionId: "run-1",
			Statuses:  []model.RecordStatus{model.RecordStatusValid, model.RecordStatusCorrected},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, records, 2)

		needsReview := true
		records, total, err = db.QueryStagingRecords(StagingFilter{SessionId: "run-1", NeedsReview: &needsReview})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "BAD", records[0].PartNumber)

		records, _, err = db.QueryStagingRecords(StagingFilter{RunId: "run", IssueType: model.IssueTypeMissingField})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 3, records[0].RowNumber)

		records, total, err = db.QueryStagingRecords(StagingFilter{RunId: "run", SearchTerm: "x9"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "BOLT", records[0].VendorCode)

		records, total, err = db.QueryStagingRecords(StagingFilter{RunId: "run", Offset: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, records, 2)
		assert.Equal(t, 3, records[0].RowNumber)
		assert.Equal(t, 4, records[1].RowNumber)

		page, err := db.ScanStagingRecords(StagingFilter{SessionId: "run-1"}, 0, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		next, err := db.ScanStagingRecords(StagingFilter{SessionId: "run-1"}, page[1].ID, 2)
		require.NoError(t, err)
		require.Len(t, next, 1)
		assert.Equal(t, 4, next[0].RowNumber)
	})
}

func TestSearchMatchesValuesLiterally(t *testing.T) {
	forEachDatabase(t, func(t *testing.T, db Database) {
		require.NoError(t, db.CreateUploadSessions(newSessions("run", 1, time.Now())))

		flagged := newStaging("run-1", 2, "ACME", "P_1", model.RecordStatusInvalid)
		flagged.Issues = []model.ValidationIssue{{
			Type:        model.IssueTypeMissingField,
			Severity:    model.IssueSeverityError,
			Field:       "vendor_code",
			Description: "vendor code is required",
		}}
		flagged.Corrections = []model.CorrectionNote{
			model.NewCorrectionNote(model.CorrectionSourceManualEdit, "cost", "1", "2", time.Now()),
		}
		require.NoError(t, db.CreateStagingRecords([]*model.StagingRecord{
			flagged,
			newStaging("run-1", 3, "ACME", "PX1", model.RecordStatusValid),
			newStaging("run-1", 4, "ACME", "50%OFF", model.RecordStatusValid),
			newStaging("run-1", 5, "ACME", "500FF", model.RecordStatusValid),
		}))

		search := func(term string) []int {
			records, _, err := db.QueryStagingRecords(StagingFilter{SessionId: "run-1", SearchTerm: term})
			require.NoError(t, err)
			rows := make([]int, 0, len(records))
			for _, rec := range records {
				rows = append(rows, rec.RowNumber)
			}
			return rows
		}

		assert.Equal(t, []int{2}, search("p_1"))
		assert.Equal(t, []int{4}, search("50%"))
		assert.Equal(t, []int{2}, search("is required"))
		assert.Equal(t, []int{2}, search("cost"))
		assert.Empty(t, search("severity"))
		assert.Empty(t, search("manual_edit"))
		assert.Empty(t, search("description"))
	})
}

func TestReconcileStagingRecordUpsertsByCompositeKey(t *testing.T) {
	forEachDatabase(t, func(t *testing.T, db Database) {
		require.NoError(t, db.CreateUploadSessions(newSessions("run", 1, time.Now())))
		require.NoError(t, db.CreateStagingRecords([]*model.StagingRecord{
			newStaging("run-1", 2, "ACME", "P1", model.RecordStatusValid),
			newStaging("run-1", 3, "ACME", "P1", model.RecordStatusValid),
		}))
		rows, err := db.GetStagingRecordsByRows("run-1", []int{2, 3})
		require.NoError(t, err)
		require.Len(t, rows, 2)

		inv, action, err := db.ReconcileStagingRecord(context.Background(), rows[0])
		require.NoError(t, err)
		assert.Equal(t, model.ActionTypeInsert, action)
		assert.Equal(t, "ACME-P1", inv.CompositeKey)

		rows[1].TotalQuantity = 11
		rows[1].LocationQuantities = []model.LocationQuantity{{Location: "east", Quantity: 11}}
		inv2, action, err := db.ReconcileStagingRecord(context.Background(), rows[1])
		require.NoError(t, err)
		assert.Equal(t, model.ActionTypeUpdate, action)
		assert.Equal(t, inv.ID, inv2.ID)

		count, err := db.CountInventoryRecords()
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		stored, err := db.GetInventoryRecordByKey("ACME-P1")
		require.NoError(t, err)
		assert.Equal(t, int64(11), stored.TotalQuantity)
		assert.Equal(t, "run-1", stored.LastSessionId)

		linked, err := db.GetStagingRecord(rows[0].ID)
		require.NoError(t, err)
		assert.Equal(t, model.RecordStatusProcessed, linked.Status)
		assert.Equal(t, model.ActionTypeInsert, linked.ActionType)
		require.NotNil(t, linked.InventoryRecordId)
		assert.Equal(t, inv.ID, *linked.InventoryRecordId)
		assert.NotNil(t, linked.ProcessedAt)

		_, _, err = db.ReconcileStagingRecord(context.Background(), &model.StagingRecord{ID: rows[0].ID})
		assert.Equal(t, ErrInvalidKey, err)
	})
}

func TestUpdateAndDeleteStaging(t *testing.T) {
	forEachDatabase(t, func(t *testing.T, db Database) {
		require.NoError(t, db.CreateUploadSessions(newSessions("run", 1, time.Now())))
		require.NoError(t, db.CreateStagingRecords([]*model.StagingRecord{
			newStaging("run-1", 2, "ACME", "P1", model.RecordStatusInvalid),
			newStaging("run-1", 3, "ACME", "P2", model.RecordStatusValid),
		}))
		rows, err := db.GetStagingRecordsByRows("run-1", []int{2, 3})
		require.NoError(t, err)

		row := rows[0]
		row.Status = model.RecordStatusCorrected
		row.NeedsReview = false
		row.PartNumber = "P1A"
		row.SessionId = "someone-else"
		require.NoError(t, db.UpdateStagingRecord(row))

		stored, err := db.GetStagingRecord(row.ID)
		require.NoError(t, err)
		assert.Equal(t, "P1A", stored.PartNumber)
		assert.Equal(t, model.RecordStatusCorrected, stored.Status)
		assert.Equal(t, "run-1", stored.SessionId)

		require.NoError(t, db.DeleteStagingRecord(rows[1].ID))
		assert.Equal(t, ErrNotFound, db.DeleteStagingRecord(rows[1].ID))

		deleted, err := db.DeleteUploadSession("run-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		_, err = db.GetUploadSession("run-1")
		assert.Equal(t, ErrNotFound, err)
		_, total, err := db.QueryStagingRecords(StagingFilter{SessionId: "run-1"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})
}

func TestClearUploadSessionArchive(t *testing.T) {
	forEachDatabase(t, func(t *testing.T, db Database) {
		sessions := newSessions("run", 2, time.Now())
		for _, s := range sessions {
			s.ArchiveKey = "imports/run/inventory.csv"
		}
		require.NoError(t, db.CreateUploadSessions(sessions))
		require.NoError(t, db.ClearUploadSessionArchive("run"))

		all, err := db.ListUploadSessionsByRun("run")
		require.NoError(t, err)
		for _, s := range all {
			assert.Empty(t, s.ArchiveKey)
		}
	})
}

func TestStagingFilterMatch(t *testing.T) {
	record := newStaging("s", 2, "ACME", "P1", model.RecordStatusCorrected)
	record.Corrections = []model.CorrectionNote{{Field: "total_qty", Message: `total_qty: "5" -> "7"`}}

	assert.True(t, StagingFilter{}.Match(record))
	assert.True(t, StagingFilter{SearchTerm: "TOTAL_QTY"}.Match(record))
	assert.False(t, StagingFilter{ActionType: model.ActionTypeInsert}.Match(record))
	assert.False(t, StagingFilter{IssueType: model.IssueTypeMissingField}.Match(record))
	assert.True(t, StagingFilter{Statuses: []model.RecordStatus{model.RecordStatusCorrected}}.Match(record))
}
