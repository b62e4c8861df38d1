package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"vendor-inventory-import/conf"
	"vendor-inventory-import/model"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/pkg/errors"
)

// PebbleDatabase PebbleDB implementation. Collections share one DB under key
// prefixes so a single batch can touch several of them atomically.
type PebbleDatabase struct {
	db *pebble.DB

	// writeMu serializes read-modify-write sequences
	writeMu sync.Mutex

	stagingIDCounter   atomic.Int64
	inventoryIDCounter atomic.Int64
	sessionIDCounter   atomic.Int64
}

// PebbleConfig PebbleDB configuration
type PebbleConfig struct {
	DataDir string
	FS      vfs.FS // Optional, vfs.NewMem() in tests
}

// Collection prefixes and their key-value formats
const (
	prefixSession        = "session:"       // key: session:{session_id}, value: JSON(UploadSession)
	prefixSessionRun     = "session_run:"   // key: session_run:{run_id}:{chunk%06d}, value: {session_id}
	prefixStaging        = "staging:"       // key: staging:{id%020d}, value: JSON(StagingRecord)
	prefixStagingRow     = "staging_row:"   // key: staging_row:{session_id}:{row%010d}, value: {id}
	prefixStagingSession = "staging_sid:"   // key: staging_sid:{session_id}:{id%020d}, value: empty
	prefixInventory      = "inventory:"     // key: inventory:{id%020d}, value: JSON(InventoryRecord)
	prefixInventoryKey   = "inventory_key:" // key: inventory_key:{composite_key}, value: {id}
	prefixCounter        = "counter:"       // key: counter:{name}, value: {max_id}
)

// Counter keys
const (
	keyStagingCounter   = "staging"
	keyInventoryCounter = "inventory"
	keySessionCounter   = "session"
)

// NewPebbleDatabase create PebbleDB database instance
func NewPebbleDatabase(config interface{}) (Database, error) {
	cfg, ok := config.(*PebbleConfig)
	if !ok {
		return nil, fmt.Errorf("invalid PebbleDB config type")
	}

	opts := &pebble.Options{}
	if cfg.FS != nil {
		opts.FS = cfg.FS
	} else {
		// Create data directory if not exists
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
		}
	}

	db, err := pebble.Open(cfg.DataDir, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open PebbleDB at %s", cfg.DataDir)
	}

	pdb := &PebbleDatabase{db: db}
	for name, counter := range map[string]*atomic.Int64{
		keyStagingCounter:   &pdb.stagingIDCounter,
		keyInventoryCounter: &pdb.inventoryIDCounter,
		keySessionCounter:   &pdb.sessionIDCounter,
	} {
		maxID, err := pdb.loadCounter(name)
		if err != nil {
			db.Close()
			return nil, err
		}
		counter.Store(maxID)
	}

	conf.Log.WithField("data_dir", cfg.DataDir).Info("PebbleDB opened successfully")
	return pdb, nil
}

func (p *PebbleDatabase) loadCounter(name string) (int64, error) {
	value, closer, err := p.db.Get([]byte(prefixCounter + name))
	if err == pebble.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "load counter %s", name)
	}
	defer closer.Close()
	return strconv.ParseInt(string(value), 10, 64)
}

func sessionKey(sessionID string) []byte {
	return []byte(prefixSession + sessionID)
}

func sessionRunKey(runID string, chunk int) []byte {
	return []byte(fmt.Sprintf("%s%s:%06d", prefixSessionRun, runID, chunk))
}

func stagingKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixStaging, id))
}

func stagingRowKey(sessionID string, row int) []byte {
	return []byte(fmt.Sprintf("%s%s:%010d", prefixStagingRow, sessionID, row))
}

func stagingSessionKey(sessionID string, id int64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", prefixStagingSession, sessionID, id))
}

func inventoryKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixInventory, id))
}

func inventoryCompositeKey(compositeKey string) []byte {
	return []byte(prefixInventoryKey + compositeKey)
}

// prefixUpperBound smallest key greater than every key with the prefix
func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// getJSON decodes the value stored at key
func getJSON(r pebble.Reader, key []byte, dest interface{}) error {
	value, closer, err := r.Get(key)
	if err == pebble.ErrNotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	defer closer.Close()
	return json.Unmarshal(value, dest)
}

func getString(r pebble.Reader, key []byte) (string, error) {
	value, closer, err := r.Get(key)
	if err == pebble.ErrNotFound {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	defer closer.Close()
	return string(value), nil
}

func setJSON(batch *pebble.Batch, key []byte, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return batch.Set(key, data, nil)
}

func setCounter(batch *pebble.Batch, name string, value int64) error {
	return batch.Set([]byte(prefixCounter+name), []byte(strconv.FormatInt(value, 10)), nil)
}

// scanPrefix calls fn for every key under prefix in order, stopping when fn returns false
func scanPrefix(r pebble.Reader, prefix []byte, lower []byte, fn func(key, value []byte) (bool, error)) error {
	if lower == nil {
		lower = prefix
	}
	iter, err := r.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: prefixUpperBound(prefix)})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		more, err := fn(iter.Key(), iter.Value())
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return iter.Error()
}

// UploadSession operations

func (p *PebbleDatabase) CreateUploadSessions(sessions []*model.UploadSession) error {
	if len(sessions) == 0 {
		return nil
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	batch := p.db.NewBatch()
	defer batch.Close()

	now := time.Now()
	maxID := p.sessionIDCounter.Load()
	for _, session := range sessions {
		maxID++
		session.ID = maxID
		if session.CreatedAt.IsZero() {
			session.CreatedAt = now
		}
		session.UpdatedAt = now
		if session.Status == "" {
			session.Status = model.SessionStatusPending
		}
		if err := setJSON(batch, sessionKey(session.SessionId), session); err != nil {
			return err
		}
		if err := batch.Set(sessionRunKey(session.RunId, session.ChunkNumber), []byte(session.SessionId), nil); err != nil {
			return err
		}
	}
	if err := setCounter(batch, keySessionCounter, maxID); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "commit upload sessions")
	}
	p.sessionIDCounter.Store(maxID)
	return nil
}

func (p *PebbleDatabase) GetUploadSession(sessionID string) (*model.UploadSession, error) {
	var session model.UploadSession
	if err := getJSON(p.db, sessionKey(sessionID), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (p *PebbleDatabase) allSessions() ([]*model.UploadSession, error) {
	var sessions []*model.UploadSession
	err := scanPrefix(p.db, []byte(prefixSession), nil, func(_, value []byte) (bool, error) {
		var session model.UploadSession
		if err := json.Unmarshal(value, &session); err != nil {
			return false, err
		}
		sessions = append(sessions, &session)
		return true, nil
	})
	return sessions, err
}

func (p *PebbleDatabase) ListUploadSessions(offset, limit int) ([]*model.UploadSession, int64, error) {
	sessions, err := p.allSessions()
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.RunId != b.RunId {
			return a.RunId < b.RunId
		}
		return a.ChunkNumber < b.ChunkNumber
	})

	total := int64(len(sessions))
	if offset >= len(sessions) {
		return []*model.UploadSession{}, total, nil
	}
	end := len(sessions)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return sessions[offset:end], total, nil
}

func (p *PebbleDatabase) ListUploadSessionsByRun(runID string) ([]*model.UploadSession, error) {
	var sessions []*model.UploadSession
	err := scanPrefix(p.db, []byte(prefixSessionRun+runID+":"), nil, func(_, value []byte) (bool, error) {
		session, err := p.GetUploadSession(string(value))
		if err == ErrNotFound {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		sessions = append(sessions, session)
		return true, nil
	})
	return sessions, err
}

func (p *PebbleDatabase) ListUploadSessionsByStatus(status model.SessionStatus, updatedBefore time.Time, limit int) ([]*model.UploadSession, error) {
	all, err := p.allSessions()
	if err != nil {
		return nil, err
	}
	var sessions []*model.UploadSession
	for _, session := range all {
		if session.Status != status {
			continue
		}
		if !updatedBefore.IsZero() && !session.UpdatedAt.Before(updatedBefore) {
			continue
		}
		sessions = append(sessions, session)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
		}
		return sessions[i].ChunkNumber < sessions[j].ChunkNumber
	})
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// updateSession applies fn to a stored session and writes it back
func (p *PebbleDatabase) updateSession(sessionID string, fn func(*model.UploadSession)) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	session, err := p.GetUploadSession(sessionID)
	if err != nil {
		return err
	}
	fn(session)
	session.UpdatedAt = time.Now()

	batch := p.db.NewBatch()
	defer batch.Close()
	if err := setJSON(batch, sessionKey(sessionID), session); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

func (p *PebbleDatabase) UpdateUploadSessionStatus(sessionID string, status model.SessionStatus, errorMessage string) error {
	now := time.Now()
	return p.updateSession(sessionID, func(s *model.UploadSession) {
		s.Status = status
		s.ErrorMessage = errorMessage
		switch {
		case status == model.SessionStatusProcessing:
			if s.StartedAt == nil {
				s.StartedAt = &now
			}
			s.CompletedAt = nil
		case status.IsTerminal():
			s.CompletedAt = &now
		}
	})
}

func (p *PebbleDatabase) IncrementUploadSessionCounters(sessionID string, delta model.SessionCounters) error {
	if delta.IsZero() {
		return nil
	}
	return p.updateSession(sessionID, func(s *model.UploadSession) {
		s.Apply(delta)
	})
}

func (p *PebbleDatabase) ClearUploadSessionArchive(runID string) error {
	sessions, err := p.ListUploadSessionsByRun(runID)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if err := p.updateSession(session.SessionId, func(s *model.UploadSession) { s.ArchiveKey = "" }); err != nil && err != ErrNotFound {
			return err
		}
	}
	return nil
}

func (p *PebbleDatabase) DeleteUploadSession(sessionID string) (int64, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	session, err := p.GetUploadSession(sessionID)
	if err != nil {
		return 0, err
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	deleted, err := p.deleteSessionStaging(batch, sessionID)
	if err != nil {
		return 0, err
	}
	if err := batch.Delete(sessionKey(sessionID), nil); err != nil {
		return 0, err
	}
	if err := batch.Delete(sessionRunKey(session.RunId, session.ChunkNumber), nil); err != nil {
		return 0, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, errors.Wrap(err, "commit session delete")
	}
	return deleted, nil
}

// deleteSessionStaging queues deletion of every staging row of a session
func (p *PebbleDatabase) deleteSessionStaging(batch *pebble.Batch, sessionID string) (int64, error) {
	var deleted int64
	err := scanPrefix(p.db, []byte(prefixStagingSession+sessionID+":"), nil, func(key, _ []byte) (bool, error) {
		id, err := idFromIndexKey(key)
		if err != nil {
			return false, err
		}
		var record model.StagingRecord
		if err := getJSON(p.db, stagingKey(id), &record); err != nil && err != ErrNotFound {
			return false, err
		}
		if err := batch.Delete(stagingKey(id), nil); err != nil {
			return false, err
		}
		if err := batch.Delete(stagingRowKey(sessionID, record.RowNumber), nil); err != nil {
			return false, err
		}
		if err := batch.Delete(append([]byte(nil), key...), nil); err != nil {
			return false, err
		}
		deleted++
		return true, nil
	})
	return deleted, err
}

// idFromIndexKey parses the trailing id of staging_sid keys
func idFromIndexKey(key []byte) (int64, error) {
	s := string(key)
	idx := strings.LastIndex(s, ":")
	return strconv.ParseInt(s[idx+1:], 10, 64)
}

// StagingRecord operations

func (p *PebbleDatabase) CreateStagingRecords(records []*model.StagingRecord) error {
	if len(records) == 0 {
		return nil
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	batch := p.db.NewIndexedBatch()
	defer batch.Close()

	now := time.Now()
	maxID := p.stagingIDCounter.Load()
	for _, record := range records {
		// Rows already staged by an earlier attempt of the same chunk are kept as they are
		if _, err := getString(batch, stagingRowKey(record.SessionId, record.RowNumber)); err == nil {
			continue
		} else if err != ErrNotFound {
			return err
		}

		maxID++
		record.ID = maxID
		record.CreatedAt = now
		record.UpdatedAt = now
		if record.Status == "" {
			record.Status = model.RecordStatusPending
		}
		if record.ActionType == "" {
			record.ActionType = model.ActionTypeUnknown
		}
		if err := setJSON(batch, stagingKey(record.ID), record); err != nil {
			return err
		}
		if err := batch.Set(stagingRowKey(record.SessionId, record.RowNumber), []byte(strconv.FormatInt(record.ID, 10)), nil); err != nil {
			return err
		}
		if err := batch.Set(stagingSessionKey(record.SessionId, record.ID), nil, nil); err != nil {
			return err
		}
	}
	if err := setCounter(batch, keyStagingCounter, maxID); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "commit staging records")
	}
	p.stagingIDCounter.Store(maxID)
	return nil
}

func (p *PebbleDatabase) GetStagingRecord(id int64) (*model.StagingRecord, error) {
	var record model.StagingRecord
	if err := getJSON(p.db, stagingKey(id), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (p *PebbleDatabase) GetStagingRecordsByIDs(ids []int64) ([]*model.StagingRecord, error) {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	records := make([]*model.StagingRecord, 0, len(sorted))
	for i, id := range sorted {
		if i > 0 && sorted[i-1] == id {
			continue
		}
		record, err := p.GetStagingRecord(id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (p *PebbleDatabase) GetStagingRecordsByRows(sessionID string, rowNumbers []int) ([]*model.StagingRecord, error) {
	sorted := append([]int(nil), rowNumbers...)
	sort.Ints(sorted)

	records := make([]*model.StagingRecord, 0, len(sorted))
	for i, row := range sorted {
		if i > 0 && sorted[i-1] == row {
			continue
		}
		idStr, err := getString(p.db, stagingRowKey(sessionID, row))
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, err
		}
		record, err := p.GetStagingRecord(id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// scanStaging visits staging rows in the filter scope in id order, starting after afterID
func (p *PebbleDatabase) scanStaging(filter StagingFilter, afterID int64, fn func(*model.StagingRecord) bool) error {
	visit := func(id int64) (bool, error) {
		record, err := p.GetStagingRecord(id)
		if err == ErrNotFound {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		if !filter.Match(record) {
			return true, nil
		}
		return fn(record), nil
	}

	scanSession := func(sessionID string) (bool, error) {
		prefix := []byte(prefixStagingSession + sessionID + ":")
		var lower []byte
		if afterID > 0 {
			lower = stagingSessionKey(sessionID, afterID+1)
		}
		more := true
		err := scanPrefix(p.db, prefix, lower, func(key, _ []byte) (bool, error) {
			id, err := idFromIndexKey(key)
			if err != nil {
				return false, err
			}
			more, err = visit(id)
			return more, err
		})
		return more, err
	}

	switch {
	case filter.SessionId != "":
		if filter.RunId != "" {
			session, err := p.GetUploadSession(filter.SessionId)
			if err == ErrNotFound {
				return nil
			}
			if err != nil {
				return err
			}
			if session.RunId != filter.RunId {
				return nil
			}
		}
		_, err := scanSession(filter.SessionId)
		return err
	case filter.RunId != "":
		sessions, err := p.ListUploadSessionsByRun(filter.RunId)
		if err != nil {
			return err
		}
		// staging ids grow with chunk order, so chunk-ordered scans stay id-ordered
		for _, session := range sessions {
			more, err := scanSession(session.SessionId)
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
		}
		return nil
	default:
		var lower []byte
		if afterID > 0 {
			lower = stagingKey(afterID + 1)
		}
		return scanPrefix(p.db, []byte(prefixStaging), lower, func(_, value []byte) (bool, error) {
			var record model.StagingRecord
			if err := json.Unmarshal(value, &record); err != nil {
				return false, err
			}
			if !filter.Match(&record) {
				return true, nil
			}
			return fn(&record), nil
		})
	}
}

func (p *PebbleDatabase) QueryStagingRecords(filter StagingFilter) ([]*model.StagingRecord, int64, error) {
	records := []*model.StagingRecord{}
	var total int64
	err := p.scanStaging(filter, 0, func(record *model.StagingRecord) bool {
		if total >= int64(filter.Offset) && (filter.Limit <= 0 || len(records) < filter.Limit) {
			records = append(records, record)
		}
		total++
		return true
	})
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (p *PebbleDatabase) ScanStagingRecords(filter StagingFilter, afterID int64, limit int) ([]*model.StagingRecord, error) {
	records := []*model.StagingRecord{}
	err := p.scanStaging(filter, afterID, func(record *model.StagingRecord) bool {
		if record.ID <= afterID {
			return true
		}
		records = append(records, record)
		return limit <= 0 || len(records) < limit
	})
	return records, err
}

// putStaging queues an update of an existing staging row, keeping its identity columns
func (p *PebbleDatabase) putStaging(batch *pebble.Batch, record *model.StagingRecord) error {
	var stored model.StagingRecord
	if err := getJSON(p.db, stagingKey(record.ID), &stored); err != nil {
		return err
	}
	record.SessionId = stored.SessionId
	record.RowNumber = stored.RowNumber
	record.CreatedAt = stored.CreatedAt
	record.UpdatedAt = time.Now()
	return setJSON(batch, stagingKey(record.ID), record)
}

func (p *PebbleDatabase) UpdateStagingRecord(record *model.StagingRecord) error {
	return p.UpdateStagingRecords([]*model.StagingRecord{record})
}

func (p *PebbleDatabase) UpdateStagingRecords(records []*model.StagingRecord) error {
	if len(records) == 0 {
		return nil
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	batch := p.db.NewBatch()
	defer batch.Close()
	for _, record := range records {
		if err := p.putStaging(batch, record); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

func (p *PebbleDatabase) DeleteStagingRecord(id int64) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	record, err := p.GetStagingRecord(id)
	if err != nil {
		return err
	}

	batch := p.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(stagingKey(id), nil); err != nil {
		return err
	}
	if err := batch.Delete(stagingRowKey(record.SessionId, record.RowNumber), nil); err != nil {
		return err
	}
	if err := batch.Delete(stagingSessionKey(record.SessionId, id), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

func (p *PebbleDatabase) DeleteStagingRecordsBySession(sessionID string) (int64, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	batch := p.db.NewBatch()
	defer batch.Close()
	deleted, err := p.deleteSessionStaging(batch, sessionID)
	if err != nil {
		return 0, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, err
	}
	return deleted, nil
}

// InventoryRecord operations

// ReconcileStagingRecord upserts the inventory record for the row's composite key
// and links the row to it in one batch
func (p *PebbleDatabase) ReconcileStagingRecord(ctx context.Context, record *model.StagingRecord) (*model.InventoryRecord, model.ActionType, error) {
	if record.CompositeKey == "" {
		return nil, model.ActionTypeUnknown, ErrInvalidKey
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, model.ActionTypeUnknown, err
	}

	var stored model.StagingRecord
	if err := getJSON(p.db, stagingKey(record.ID), &stored); err != nil {
		return nil, model.ActionTypeUnknown, err
	}

	now := time.Now()
	batch := p.db.NewBatch()
	defer batch.Close()

	var inventory model.InventoryRecord
	action := model.ActionTypeUpdate
	nextInventoryID := p.inventoryIDCounter.Load()

	idStr, err := getString(p.db, inventoryCompositeKey(record.CompositeKey))
	switch {
	case err == nil:
		id, perr := strconv.ParseInt(idStr, 10, 64)
		if perr != nil {
			return nil, model.ActionTypeUnknown, perr
		}
		if err := getJSON(p.db, inventoryKey(id), &inventory); err != nil {
			return nil, model.ActionTypeUnknown, errors.Wrap(err, "load inventory record")
		}
	case err == ErrNotFound:
		action = model.ActionTypeInsert
		nextInventoryID++
		inventory.ID = nextInventoryID
		inventory.CreatedAt = now
		if err := batch.Set(inventoryCompositeKey(record.CompositeKey), []byte(strconv.FormatInt(inventory.ID, 10)), nil); err != nil {
			return nil, model.ActionTypeUnknown, err
		}
		if err := setCounter(batch, keyInventoryCounter, nextInventoryID); err != nil {
			return nil, model.ActionTypeUnknown, err
		}
	default:
		return nil, model.ActionTypeUnknown, errors.Wrap(err, "lookup inventory key")
	}

	inventory.ApplyFields(record.CompositeKey, record.InventoryFields)
	inventory.LastSessionId = record.SessionId
	inventory.UpdatedAt = now
	if err := setJSON(batch, inventoryKey(inventory.ID), &inventory); err != nil {
		return nil, model.ActionTypeUnknown, err
	}

	id := inventory.ID
	stored.Status = model.RecordStatusProcessed
	stored.ActionType = action
	stored.InventoryRecordId = &id
	stored.ProcessedAt = &now
	stored.UpdatedAt = now
	if err := setJSON(batch, stagingKey(stored.ID), &stored); err != nil {
		return nil, model.ActionTypeUnknown, err
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return nil, model.ActionTypeUnknown, errors.Wrap(err, "commit reconcile")
	}
	p.inventoryIDCounter.Store(nextInventoryID)

	record.Status = stored.Status
	record.ActionType = action
	record.InventoryRecordId = &id
	record.ProcessedAt = &now
	return &inventory, action, nil
}

func (p *PebbleDatabase) GetInventoryRecord(id int64) (*model.InventoryRecord, error) {
	var record model.InventoryRecord
	if err := getJSON(p.db, inventoryKey(id), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (p *PebbleDatabase) GetInventoryRecordByKey(compositeKey string) (*model.InventoryRecord, error) {
	idStr, err := getString(p.db, inventoryCompositeKey(compositeKey))
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, err
	}
	return p.GetInventoryRecord(id)
}

func (p *PebbleDatabase) CountInventoryRecords() (int64, error) {
	var total int64
	err := scanPrefix(p.db, []byte(prefixInventoryKey), nil, func(_, _ []byte) (bool, error) {
		total++
		return true, nil
	})
	return total, err
}

// General operations

func (p *PebbleDatabase) Close() error {
	return p.db.Close()
}
