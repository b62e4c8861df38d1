package import_service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendor-inventory-import/database"
	"vendor-inventory-import/model"
)

func runTotals(t *testing.T, db database.Database, runID string) model.SessionCounters {
	t.Helper()
	sessions, err := db.ListUploadSessionsByRun(runID)
	require.NoError(t, err)
	var total model.SessionCounters
	for _, s := range sessions {
		total = total.Add(model.SessionCounters{
			Processed: s.ProcessedRecords,
			Valid:     s.ValidRecords,
			Invalid:   s.InvalidRecords,
			Corrected: s.CorrectedRecords,
			Inserted:  s.InsertedRecords,
			Updated:   s.UpdatedRecords,
			Failed:    s.FailedRecords,
		})
	}
	return total
}

func TestUploadCarvesChunks(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	res := env.upload(t, inventoryCSV(25), false)

	assert.Equal(t, 25, res.TotalRecords)
	assert.Equal(t, 3, res.TotalChunks)
	require.Len(t, res.Sessions, 3)
	assert.Equal(t, []int{0, 10, 20}, []int{res.Sessions[0].FirstOrdinal, res.Sessions[1].FirstOrdinal, res.Sessions[2].FirstOrdinal})
	assert.Equal(t, []int{10, 10, 5}, []int{res.Sessions[0].TotalRecords, res.Sessions[1].TotalRecords, res.Sessions[2].TotalRecords})
	assert.True(t, env.store.Exists(res.Sessions[0].ArchiveKey))

	sessions, err := env.db.ListUploadSessionsByRun(res.RunId)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	for i, s := range sessions {
		assert.Equal(t, i+1, s.ChunkNumber)
		assert.Equal(t, model.SessionStatusPending, s.Status)
	}
}

func TestUploadRejectsBeforeCreatingSessions(t *testing.T) {
	env := newTestEnv(t, 10, 4)

	cases := []struct {
		name string
		req  UploadRequest
		want error
	}{
		{"wrong extension", UploadRequest{FileName: "inventory.xlsx", ContentType: "text/csv", Content: []byte("a,b\n1,2\n")}, ErrUnsupportedContentType},
		{"wrong content type", UploadRequest{FileName: "inventory.csv", ContentType: "image/png", Content: []byte("a,b\n1,2\n")}, ErrUnsupportedContentType},
		{"empty", UploadRequest{FileName: "inventory.csv", ContentType: "text/csv"}, ErrEmptyFile},
		{"header only", UploadRequest{FileName: "inventory.csv", ContentType: "text/csv", Content: []byte("Vendor,Part Number\n")}, ErrEmptyFile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.imports.Upload(&tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, total, err := env.db.ListUploadSessions(0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRunProcessesAllChunks(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	res := env.upload(t, inventoryCSV(25), false)

	var batches int
	env.onBatch = func(BatchReport) { batches++ }
	require.NoError(t, env.scheduler.Run(context.Background(), res.RunId))

	totals := runTotals(t, env.db, res.RunId)
	assert.Equal(t, 25, totals.Processed)
	assert.Equal(t, 25, totals.Valid)
	assert.Equal(t, 25, totals.Inserted)
	assert.Zero(t, totals.Failed)
	// 10 rows in batches of 4 is 3 batches, twice, plus 2 batches for the last 5
	assert.Equal(t, 8, batches)

	count, err := env.db.CountInventoryRecords()
	require.NoError(t, err)
	assert.EqualValues(t, 25, count)

	inv, err := env.db.GetInventoryRecordByKey("ACMEP0007")
	require.NoError(t, err)
	assert.EqualValues(t, 9, inv.TotalQuantity)
	assert.Equal(t, "1.5", inv.Cost.String())

	sessions, err := env.db.ListUploadSessionsByRun(res.RunId)
	require.NoError(t, err)
	for _, s := range sessions {
		assert.Equal(t, model.SessionStatusCompleted, s.Status)
		assert.NotNil(t, s.CompletedAt)
	}
	assert.False(t, env.scheduler.IsActive(res.RunId))
}

func TestStageOnlyDoesNotReconcile(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	res := env.upload(t, inventoryCSV(6), true)

	require.NoError(t, env.scheduler.Run(context.Background(), res.RunId))

	totals := runTotals(t, env.db, res.RunId)
	assert.Equal(t, 6, totals.Processed)
	assert.Equal(t, 6, totals.Valid)
	assert.Zero(t, totals.Inserted)

	count, err := env.db.CountInventoryRecords()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPauseAndResumeMatchUninterruptedRun(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	res := env.upload(t, inventoryCSV(25), false)

	env.onBatch = func(r BatchReport) {
		if r.ChunkNumber == 2 && r.Processed == 4 {
			require.NoError(t, env.scheduler.Pause(r.RunId))
		}
	}
	err := env.scheduler.Run(context.Background(), res.RunId)
	require.ErrorIs(t, err, ErrPaused)

	sessions, err := env.db.ListUploadSessionsByRun(res.RunId)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, sessions[0].Status)
	assert.Equal(t, model.SessionStatusPaused, sessions[1].Status)
	assert.Equal(t, 4, sessions[1].ProcessedRecords)
	assert.Equal(t, model.SessionStatusPending, sessions[2].Status)
	assert.ErrorIs(t, env.scheduler.Pause(res.RunId), ErrRunNotActive)

	env.onBatch = nil
	require.NoError(t, env.scheduler.Run(context.Background(), res.RunId))

	totals := runTotals(t, env.db, res.RunId)
	assert.Equal(t, model.SessionCounters{Processed: 25, Valid: 25, Inserted: 25}, totals)

	staged, total, err := env.db.QueryStagingRecords(database.StagingFilter{RunId: res.RunId})
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	rows := make(map[int]bool)
	for _, rec := range staged {
		assert.Equal(t, model.RecordStatusProcessed, rec.Status)
		assert.False(t, rows[rec.RowNumber], "row %d staged twice", rec.RowNumber)
		rows[rec.RowNumber] = true
	}
}

func TestCancelledContextPausesRun(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	res := env.upload(t, inventoryCSV(10), false)

	ctx, cancel := context.WithCancel(context.Background())
	env.onBatch = func(BatchReport) { cancel() }
	err := env.scheduler.Run(ctx, res.RunId)
	require.ErrorIs(t, err, ErrPaused)

	session, err := env.db.GetUploadSession(res.Sessions[0].SessionId)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusPaused, session.Status)
	assert.Equal(t, 4, session.ProcessedRecords)
}

func TestStopMarksChunkFailed(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	res := env.upload(t, inventoryCSV(25), false)

	env.onBatch = func(r BatchReport) {
		if r.ChunkNumber == 1 && r.Processed == 8 {
			require.NoError(t, env.scheduler.Stop(r.RunId))
		}
	}
	err := env.scheduler.Run(context.Background(), res.RunId)
	require.ErrorIs(t, err, ErrStopped)

	sessions, err := env.db.ListUploadSessionsByRun(res.RunId)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusFailed, sessions[0].Status)
	assert.Equal(t, ErrStopped.Error(), sessions[0].ErrorMessage)
	assert.Equal(t, 8, sessions[0].ProcessedRecords)
	assert.Equal(t, model.SessionStatusPending, sessions[1].Status)

	env.onBatch = nil
	require.NoError(t, env.scheduler.Run(context.Background(), res.RunId))
	assert.Equal(t, model.SessionCounters{Processed: 25, Valid: 25, Inserted: 25}, runTotals(t, env.db, res.RunId))
}

func TestStopIdleRunFailsFirstUnfinishedChunk(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	res := env.upload(t, inventoryCSV(15), false)

	require.NoError(t, env.scheduler.Stop(res.RunId))
	session, err := env.db.GetUploadSession(res.Sessions[0].SessionId)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusFailed, session.Status)
	assert.Equal(t, ErrStopped.Error(), session.ErrorMessage)

	assert.ErrorIs(t, env.scheduler.Stop("missing"), ErrRunNotFound)
}

func TestMissingArchiveFailsChunk(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	res := env.upload(t, inventoryCSV(15), false)
	require.NoError(t, env.store.Delete(res.Sessions[0].ArchiveKey))

	err := env.scheduler.Run(context.Background(), res.RunId)
	var chunkErr *ChunkError
	require.ErrorAs(t, err, &chunkErr)
	assert.Equal(t, 1, chunkErr.ChunkNumber)
	assert.ErrorIs(t, err, ErrArchiveMissing)

	sessions, err := env.db.ListUploadSessionsByRun(res.RunId)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusFailed, sessions[0].Status)
	assert.Equal(t, model.SessionStatusPending, sessions[1].Status)
}

// failingCounters drops one counter write to simulate a crash after a batch was staged and reconciled
type failingCounters struct {
	database.Database
	calls  atomic.Int32
	failOn int32
}

func (f *failingCounters) IncrementUploadSessionCounters(sessionID string, delta model.SessionCounters) error {
	if f.calls.Add(1) == f.failOn {
		return errors.New("connection reset")
	}
	return f.Database.IncrementUploadSessionCounters(sessionID, delta)
}

func TestRerunBatchAfterCrashDoesNotDoubleCount(t *testing.T) {
	base := newTestEnv(t, 10, 4)
	flaky := &failingCounters{Database: base.db, failOn: 2}
	env := newTestEnvWithDB(t, flaky, 10, 4)
	res := env.upload(t, inventoryCSV(10), false)

	err := env.scheduler.Run(context.Background(), res.RunId)
	var chunkErr *ChunkError
	require.ErrorAs(t, err, &chunkErr)

	session, err := env.db.GetUploadSession(res.Sessions[0].SessionId)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusFailed, session.Status)
	assert.Equal(t, 4, session.ProcessedRecords)

	require.NoError(t, env.scheduler.Resume(res.RunId))
	ctrl := env.scheduler.Control(res.RunId)
	if ctrl != nil {
		<-ctrl.Done()
	}

	assert.Equal(t, model.SessionCounters{Processed: 10, Valid: 10, Inserted: 10}, runTotals(t, env.db, res.RunId))
	count, err := env.db.CountInventoryRecords()
	require.NoError(t, err)
	assert.EqualValues(t, 10, count)
	_, total, err := env.db.QueryStagingRecords(database.StagingFilter{SessionId: res.Sessions[0].SessionId})
	require.NoError(t, err)
	assert.EqualValues(t, 10, total)

	assert.ErrorIs(t, env.scheduler.Resume(res.RunId), ErrRunCompleted)
}

func TestRowLevelProblemsDoNotHaltChunk(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	content := "Vendor,Part Number,East Qty,Midwest Qty\n" +
		"ABC,=\"10406\",1,1\n" +
		",P2,1,1\n" +
		"ABC,P3,5,3\n"
	res := env.upload(t, content, false)

	require.NoError(t, env.scheduler.Run(context.Background(), res.RunId))
	totals := runTotals(t, env.db, res.RunId)
	assert.Equal(t, 3, totals.Processed)
	assert.Equal(t, 1, totals.Invalid)
	assert.Equal(t, 2, totals.Corrected)
	assert.Equal(t, 2, totals.Inserted)

	records, _, err := env.db.QueryStagingRecords(database.StagingFilter{SessionId: res.Sessions[0].SessionId})
	require.NoError(t, err)
	require.Len(t, records, 3)
	byRow := make(map[int]*model.StagingRecord)
	for _, rec := range records {
		byRow[rec.RowNumber] = rec
	}

	assert.Equal(t, "10406", byRow[2].PartNumber)
	assert.Equal(t, "ABC10406", byRow[2].CompositeKey)
	assert.Equal(t, model.RecordStatusProcessed, byRow[2].Status)

	assert.Equal(t, model.RecordStatusInvalid, byRow[3].Status)
	assert.True(t, byRow[3].NeedsReview)
	assert.True(t, byRow[3].HasIssueType(model.IssueTypeMissingField))

	assert.EqualValues(t, 8, byRow[4].TotalQuantity)
	assert.False(t, byRow[4].NeedsReview)
}

func TestRunRejectsConcurrentStart(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	res := env.upload(t, inventoryCSV(10), false)

	env.onBatch = func(r BatchReport) {
		if r.Processed == 4 {
			assert.ErrorIs(t, env.scheduler.Start(r.RunId), ErrRunActive)
			assert.Equal(t, r.RunId, env.scheduler.CurrentRun())
			assert.Equal(t, 1, env.scheduler.Control(r.RunId).CurrentChunk())
		}
	}
	require.NoError(t, env.scheduler.Run(context.Background(), res.RunId))
	assert.Empty(t, env.scheduler.CurrentRun())
	assert.ErrorIs(t, env.scheduler.Run(context.Background(), "missing"), ErrRunNotFound)
}

// keyFailLocker refuses the listed keys and locks everything else in-process
type keyFailLocker struct {
	failing map[string]bool
	local   *LocalKeyLocker
}

func (l keyFailLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.failing[key] {
		return nil, errors.New("lock unavailable")
	}
	return l.local.Lock(ctx, key)
}

func TestReconcileFailureInBatchCountsOnceAndRunCompletes(t *testing.T) {
	env := newTestEnv(t, 4, 2)
	env.scheduler.reconciler = NewReconcileService(env.db,
		keyFailLocker{failing: map[string]bool{"ACMEP0003": true}, local: NewLocalKeyLocker()}, 0)
	res := env.upload(t, inventoryCSV(6), false)

	require.NoError(t, env.scheduler.Run(context.Background(), res.RunId))

	totals := runTotals(t, env.db, res.RunId)
	assert.Equal(t, 6, totals.Processed)
	assert.Equal(t, 1, totals.Failed)
	assert.Equal(t, 5, totals.Inserted)

	first, err := env.db.GetUploadSession(res.Sessions[0].SessionId)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, first.Status)
	assert.Equal(t, 1, first.FailedRecords)
	assert.Equal(t, 4, first.ProcessedRecords)

	p, err := env.progress.GetRunProgress(res.RunId)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, p.Status)
	assert.Equal(t, 1, p.Failed)

	// P0003 sits on line 4
	rows, err := env.db.GetStagingRecordsByRows(res.Sessions[0].SessionId, []int{4})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEqual(t, model.RecordStatusProcessed, rows[0].Status)
	assert.Nil(t, rows[0].InventoryRecordId)

	_, err = env.db.GetInventoryRecordByKey("ACMEP0003")
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = env.db.GetInventoryRecordByKey("ACMEP0004")
	assert.NoError(t, err)
}
