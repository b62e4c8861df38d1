package import_service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/require"

	"vendor-inventory-import/database"
	"vendor-inventory-import/service/common_service/fieldmap"
	"vendor-inventory-import/service/common_service/validation"
	"vendor-inventory-import/storage"
)

type testEnv struct {
	db         database.Database
	store      *storage.LocalStorage
	normalizer *fieldmap.Normalizer
	reconciler *ReconcileService
	scheduler  *ChunkScheduler
	progress   *ProgressService
	imports    *ImportService
	staging    *StagingService
	mass       *MassCorrectionService

	onBatch func(BatchReport)
}

func newTestEnv(t *testing.T, chunkSize, batchSize int) *testEnv {
	t.Helper()
	db, err := database.NewPebbleDatabase(&database.PebbleConfig{DataDir: "import-test", FS: vfs.NewMem()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newTestEnvWithDB(t, db, chunkSize, batchSize)
}

func newTestEnvWithDB(t *testing.T, db database.Database, chunkSize, batchSize int) *testEnv {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	env := &testEnv{db: db, store: store, normalizer: fieldmap.NewNormalizer(fieldmap.DefaultLocations)}
	env.reconciler = NewReconcileService(db, NewLocalKeyLocker(), 0)
	env.scheduler = NewChunkScheduler(db, store, env.normalizer, validation.NewValidator(), env.reconciler, SchedulerOptions{
		BatchSize:     batchSize,
		AutoReconcile: true,
		OnBatch: func(r BatchReport) {
			if env.onBatch != nil {
				env.onBatch(r)
			}
		},
	})
	env.progress = NewProgressService(db, env.scheduler, 0)
	env.imports = NewImportService(db, store, env.normalizer, env.scheduler, env.progress, ImportOptions{ChunkSize: chunkSize})
	env.staging = NewStagingService(db)
	env.mass = NewMassCorrectionService(db)
	return env
}

// upload stores a generated file without starting the run
func (env *testEnv) upload(t *testing.T, content string, stageOnly bool) *UploadResult {
	t.Helper()
	res, err := env.imports.Upload(&UploadRequest{
		FileName:    "inventory.csv",
		ContentType: "text/csv",
		Content:     []byte(content),
		StageOnly:   stageOnly,
	})
	require.NoError(t, err)
	return res
}

// inventoryCSV n clean rows, ACME/P0001.. with east=i, west=2
func inventoryCSV(n int) string {
	var b strings.Builder
	b.WriteString("Vendor,Part Number,Key,Description,East Qty,West Qty,Total Qty,Cost\n")
	for i := 1; i <= n; i++ {
		part := fmt.Sprintf("P%04d", i)
		fmt.Fprintf(&b, "ACME,%s,ACME%s,Widget %d,%d,2,%d,1.50\n", part, part, i, i, i+2)
	}
	return b.String()
}
