package import_service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendor-inventory-import/model"
	"vendor-inventory-import/service/common_service/fieldmap"
)

func strPtr(s string) *string { return &s }

func TestManualEditRecomputesKeyAndAggregate(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	staged := stageRows(t, env, "s1", []map[string]string{
		{"vendor_code": "", "part_number": "10406", "east_qty": "5", "midwest_qty": "3"},
	})
	require.Equal(t, model.RecordStatusInvalid, staged[0].Status)
	require.True(t, staged[0].NeedsReview)

	cost := decimal.RequireFromString("4.75")
	rec, err := env.staging.UpdateRecord(staged[0].ID, RecordPatch{
		VendorCode:         strPtr(" abc "),
		LocationQuantities: map[string]int64{"east": 7},
		TotalQuantity:      func() *int64 { v := int64(99); return &v }(),
		Cost:               &cost,
	})
	require.NoError(t, err)

	assert.Equal(t, "ABC", rec.VendorCode)
	assert.Equal(t, "ABC10406", rec.CompositeKey)
	assert.EqualValues(t, 10, rec.TotalQuantity)
	assert.Equal(t, model.RecordStatusCorrected, rec.Status)
	assert.False(t, rec.NeedsReview)
	assert.False(t, rec.HasIssueType(model.IssueTypeMissingField))

	fields := make(map[string]model.CorrectionNote)
	for _, note := range rec.Corrections {
		if note.Source == model.CorrectionSourceManualEdit {
			fields[note.Field] = note
		}
	}
	assert.Equal(t, "ABC", fields[fieldmap.FieldVendorCode].NewValue)
	assert.Equal(t, "5", fields["east_qty"].OldValue)
	assert.Equal(t, "7", fields["east_qty"].NewValue)
	assert.Equal(t, "4.75", fields[fieldmap.FieldCost].NewValue)
	assert.Equal(t, "10", fields[fieldmap.FieldTotalQty].NewValue)

	stored, err := env.staging.GetRecord(staged[0].ID)
	require.NoError(t, err)
	assert.Equal(t, rec.CompositeKey, stored.CompositeKey)
	assert.Equal(t, "s1", stored.SessionId)
	assert.Equal(t, staged[0].RowNumber, stored.RowNumber)
}

func TestManualEditRejectsEmptyRequiredField(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	staged := stageRows(t, env, "s1", []map[string]string{
		{"vendor_code": "ABC", "part_number": "1"},
	})

	_, err := env.staging.UpdateRecord(staged[0].ID, RecordPatch{PartNumber: strPtr("  ")})
	assert.ErrorIs(t, err, ErrRequiredFieldEmpty)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, fieldmap.FieldPartNumber, rowErr.Field)
	assert.Equal(t, 2, rowErr.RowNumber)

	stored, err := env.staging.GetRecord(staged[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "1", stored.PartNumber)
}

func TestManualEditKeepsInventoryLink(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	staged := stageRows(t, env, "s1", []map[string]string{
		{"vendor_code": "ABC", "part_number": "1"},
	})
	_, err := env.reconciler.ProcessRecord(context.Background(), staged[0].ID)
	require.NoError(t, err)

	rec, err := env.staging.UpdateRecord(staged[0].ID, RecordPatch{Description: strPtr("Brake pad")})
	require.NoError(t, err)
	assert.Equal(t, model.RecordStatusCorrected, rec.Status)
	require.NotNil(t, rec.InventoryRecordId)
	assert.Equal(t, "Brake pad", rec.Description)
}

func TestQueryRecordsFiltersAndPages(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	rows := make([]map[string]string, 0, 12)
	for i := 0; i < 10; i++ {
		rows = append(rows, map[string]string{"vendor_code": "ABC", "part_number": "P" + string(rune('A'+i)), "composite_key": "ABCP" + string(rune('A'+i))})
	}
	rows = append(rows,
		map[string]string{"vendor_code": "", "part_number": "X1"},
		map[string]string{"vendor_code": "ABC", "part_number": "X2", "cost": "abc"},
	)
	stageRows(t, env, "s1", rows)

	page, err := env.staging.QueryRecords("s1", RecordQuery{Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.EqualValues(t, 12, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Records, 5)

	invalid, err := env.staging.QueryRecords("s1", RecordQuery{Status: "invalid"})
	require.NoError(t, err)
	require.EqualValues(t, 1, invalid.Total)
	assert.Equal(t, "X1", invalid.Records[0].PartNumber)

	review := true
	flagged, err := env.staging.QueryRecords("s1", RecordQuery{NeedsReview: &review})
	require.NoError(t, err)
	assert.EqualValues(t, 2, flagged.Total)

	format, err := env.staging.QueryRecords("s1", RecordQuery{IssueType: "invalid_format"})
	require.NoError(t, err)
	require.EqualValues(t, 1, format.Total)
	assert.Equal(t, "X2", format.Records[0].PartNumber)

	search, err := env.staging.QueryRecords("s1", RecordQuery{Search: "abcpc"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, search.Total)

	capped, err := env.staging.QueryRecords("s1", RecordQuery{PageSize: 5000})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, capped.PageSize)

	_, err = env.staging.QueryRecords("s1", RecordQuery{Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
	_, err = env.staging.QueryRecords("missing", RecordQuery{})
	assert.Error(t, err)
}

func TestDeleteRecordLeavesInventory(t *testing.T) {
	env := newTestEnv(t, 10, 4)
	staged := stageRows(t, env, "s1", []map[string]string{
		{"vendor_code": "ABC", "part_number": "1"},
	})
	_, err := env.reconciler.ProcessRecord(context.Background(), staged[0].ID)
	require.NoError(t, err)

	require.NoError(t, env.staging.DeleteRecord(staged[0].ID))
	_, err = env.staging.GetRecord(staged[0].ID)
	assert.Error(t, err)

	_, err = env.db.GetInventoryRecordByKey("ABC1")
	assert.NoError(t, err)
}

func TestNeedsReviewPolicy(t *testing.T) {
	cases := []struct {
		name   string
		status model.RecordStatus
		issues []model.ValidationIssue
		want   bool
	}{
		{"clean", model.RecordStatusValid, nil, false},
		{"recomputed only", model.RecordStatusCorrected, []model.ValidationIssue{{Type: model.IssueTypeCalculationError}}, false},
		{"unparsable number", model.RecordStatusCorrected, []model.ValidationIssue{{Type: model.IssueTypeInvalidFormat}}, true},
		{"invalid", model.RecordStatusInvalid, []model.ValidationIssue{{Type: model.IssueTypeMissingField}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &model.StagingRecord{Status: tc.status, Issues: tc.issues}
			assert.Equal(t, tc.want, needsReview(rec))
		})
	}
}
