package import_service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendor-inventory-import/database"
	"vendor-inventory-import/model"
	"vendor-inventory-import/service/common_service/validation"
)

// stageRows validates field maps as rows 2.. of a fresh single-chunk session
func stageRows(t *testing.T, env *testEnv, sessionID string, rows []map[string]string) []*model.StagingRecord {
	t.Helper()
	require.NoError(t, env.db.CreateUploadSessions([]*model.UploadSession{{
		SessionId:    sessionID,
		RunId:        "run-" + sessionID,
		ChunkNumber:  1,
		TotalChunks:  1,
		TotalRecords: len(rows),
		Status:       model.SessionStatusCompleted,
	}}))

	v := validation.NewValidator()
	records := make([]*model.StagingRecord, 0, len(rows))
	lines := make([]int, 0, len(rows))
	for i, fields := range rows {
		line := i + 2
		res := v.Validate(env.normalizer.NormalizeFields(fields), line)
		records = append(records, NewStagingRecord(sessionID, line, map[string]interface{}{}, res))
		lines = append(lines, line)
	}
	require.NoError(t, env.db.CreateStagingRecords(records))

	staged, err := env.db.GetStagingRecordsByRows(sessionID, lines)
	require.NoError(t, err)
	require.Len(t, staged, len(rows))
	return staged
}

func TestReconcileExistingKeyUpdatesInPlace(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	staged := stageRows(t, env, "s1", []map[string]string{
		{"vendor_code": "ABC", "part_number": "10406", "east_qty": "5", "cost": "10.00"},
		{"vendor_code": "abc", "part_number": "104 06", "east_qty": "9", "cost": "12.25"},
	})
	ctx := context.Background()

	first, err := env.reconciler.ProcessRecord(ctx, staged[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionTypeInsert, first.Action)

	second, err := env.reconciler.ProcessRecord(ctx, staged[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionTypeUpdate, second.Action)
	assert.Equal(t, first.Inventory.ID, second.Inventory.ID)

	count, err := env.db.CountInventoryRecords()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	inv, err := env.db.GetInventoryRecordByKey("ABC10406")
	require.NoError(t, err)
	assert.EqualValues(t, 9, inv.TotalQuantity)
	assert.Equal(t, "12.25", inv.Cost.String())
	assert.Equal(t, "s1", inv.LastSessionId)

	rec, err := env.db.GetStagingRecord(staged[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordStatusProcessed, rec.Status)
	assert.Equal(t, model.ActionTypeUpdate, rec.ActionType)
	require.NotNil(t, rec.InventoryRecordId)
	assert.Equal(t, inv.ID, *rec.InventoryRecordId)
	assert.NotNil(t, rec.ProcessedAt)

	session, err := env.db.GetUploadSession("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, session.InsertedRecords)
	assert.Equal(t, 1, session.UpdatedRecords)
}

func TestReprocessingProcessedRowIsCountedOnce(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	staged := stageRows(t, env, "s1", []map[string]string{
		{"vendor_code": "ABC", "part_number": "1", "composite_key": "ABC1"},
	})
	ctx := context.Background()

	_, err := env.reconciler.ProcessRecord(ctx, staged[0].ID)
	require.NoError(t, err)
	again, err := env.reconciler.ProcessRecord(ctx, staged[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionTypeUpdate, again.Action)

	count, err := env.db.CountInventoryRecords()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	session, err := env.db.GetUploadSession("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, session.InsertedRecords)
	assert.Zero(t, session.UpdatedRecords)
}

func TestProcessRecordRejectsInvalidRow(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	staged := stageRows(t, env, "s1", []map[string]string{
		{"vendor_code": "", "part_number": "1"},
	})

	_, err := env.reconciler.ProcessRecord(context.Background(), staged[0].ID)
	assert.ErrorIs(t, err, ErrNotReconcilable)
	assert.True(t, IsRowError(err))

	_, err = env.reconciler.ProcessRecord(context.Background(), 9999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestProcessSelectedAndAll(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	staged := stageRows(t, env, "s1", []map[string]string{
		{"vendor_code": "ABC", "part_number": "1"},
		{"vendor_code": "", "part_number": "2"},
		{"vendor_code": "ABC", "part_number": "3"},
		{"vendor_code": "ABC", "part_number": "4"},
	})
	ctx := context.Background()

	summary, err := env.reconciler.ProcessSelected(ctx, []int64{staged[0].ID, staged[1].ID, 4242})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 2, summary.Skipped)
	require.Len(t, summary.Errors, 1)
	assert.EqualValues(t, 4242, summary.Errors[0].RecordId)

	all, err := env.reconciler.ProcessAll(ctx, database.StagingFilter{SessionId: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Processed)
	assert.Equal(t, 2, all.Inserted)
	assert.Zero(t, all.Failed)

	count, err := env.db.CountInventoryRecords()
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

// blockedLocker never grants a lock before ctx ends
type blockedLocker struct{}

func (blockedLocker) Lock(ctx context.Context, key string) (func(), error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestReconcileTimeoutIsRowFailure(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	staged := stageRows(t, env, "s1", []map[string]string{
		{"vendor_code": "ABC", "part_number": "1"},
	})
	reconciler := NewReconcileService(env.db, blockedLocker{}, 20*time.Millisecond)

	_, err := reconciler.ProcessRecord(context.Background(), staged[0].ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsRowError(err))

	rec, err := env.db.GetStagingRecord(staged[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordStatusCorrected, rec.Status)
	assert.Nil(t, rec.InventoryRecordId)

	session, err := env.db.GetUploadSession("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, session.FailedRecords)
}

func TestLocalKeyLockerExcludesSameKey(t *testing.T) {
	locker := NewLocalKeyLocker()
	unlock, err := locker.Lock(context.Background(), "ABC1")
	require.NoError(t, err)

	other, err := locker.Lock(context.Background(), "ABC2")
	require.NoError(t, err)
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "ABC1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	again, err := locker.Lock(context.Background(), "ABC1")
	require.NoError(t, err)
	again()
	assert.Empty(t, locker.locks)
}
